package dispatch

import (
	"context"

	"github.com/omnirec/omnirecd/internal/ipcauth"
	"github.com/omnirec/omnirecd/internal/ipcwire"
)

func init() {
	register(ipcwire.TypeStartWindowCapture, handleStartWindowCapture)
	register(ipcwire.TypeStartDisplayCapture, handleStartDisplayCapture)
	register(ipcwire.TypeStartRegionCapture, handleStartRegionCapture)
	register(ipcwire.TypeStartPortalCapture, handleStartPortalCapture)
	register(ipcwire.TypeStopRecording, handleStopRecording)
	register(ipcwire.TypeGetRecordingState, handleGetRecordingState)
	register(ipcwire.TypeGetElapsedTime, handleGetElapsedTime)
}

func handleStartWindowCapture(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.StartWindowCaptureRequest
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	if err := deps.Manager.StartWindowCapture(ctx, body.WindowHandle); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeRecordingStarted}
}

func handleStartDisplayCapture(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.StartDisplayCaptureRequest
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	if err := deps.Manager.StartDisplayCapture(ctx, body.MonitorID, body.Width, body.Height); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeRecordingStarted}
}

func handleStartRegionCapture(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.StartRegionCaptureRequest
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	region := regionFromThumbnailRequest(ipcwire.ThumbnailRequest{
		MonitorID: body.MonitorID,
		X:         body.X,
		Y:         body.Y,
		Width:     body.Width,
		Height:    body.Height,
	})
	if err := deps.Manager.StartRegionCapture(ctx, region); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeRecordingStarted}
}

func handleStartPortalCapture(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	if err := deps.Manager.StartPortalCapture(ctx); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeRecordingStarted}
}

func handleStopRecording(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	result, err := deps.Manager.StopRecording(ctx)
	if err != nil {
		return errorEnvelope(err)
	}
	return okEnvelope(ipcwire.TypeRecordingStopped, ipcwire.RecordingStoppedResponse{
		FilePath:   result.FilePath,
		SourcePath: result.SourcePath,
	})
}

func handleGetRecordingState(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	return okEnvelope(ipcwire.TypeRecordingState, ipcwire.RecordingStateResponse{
		State: deps.Manager.GetState().String(),
	})
}

func handleGetElapsedTime(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	return okEnvelope(ipcwire.TypeElapsedTime, ipcwire.ElapsedTimeResponse{
		Seconds: float64(deps.Manager.GetElapsedSeconds()),
	})
}
