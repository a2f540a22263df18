package dispatch

import (
	"context"
	"fmt"

	"github.com/omnirec/omnirecd/internal/encoder"
	"github.com/omnirec/omnirecd/internal/ipcauth"
	"github.com/omnirec/omnirecd/internal/ipcwire"
	"github.com/omnirec/omnirecd/internal/recording"
)

func init() {
	register(ipcwire.TypeGetOutputFormat, handleGetOutputFormat)
	register(ipcwire.TypeSetOutputFormat, handleSetOutputFormat)
	register(ipcwire.TypeGetAudioConfig, handleGetAudioConfig)
	register(ipcwire.TypeSetAudioConfig, handleSetAudioConfig)
	register(ipcwire.TypeGetTranscriptionConfig, handleGetTranscriptionConfig)
	register(ipcwire.TypeSetTranscriptionConfig, handleSetTranscriptionConfig)
	register(ipcwire.TypeGetTranscriptionStatus, handleGetTranscriptionStatus)
}

func handleGetOutputFormat(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	return okEnvelope(ipcwire.TypeOutputFormat, ipcwire.OutputFormatPayload{
		Format: string(deps.Manager.GetOutputFormat()),
	})
}

func handleSetOutputFormat(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.OutputFormatPayload
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	format, ok := encoder.ParseOutputFormat(body.Format)
	if !ok {
		return errorEnvelope(fmt.Errorf("%w: %q", recording.ErrUnknownFormat, body.Format))
	}
	if err := deps.Manager.SetOutputFormat(format); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeOk}
}

func handleGetAudioConfig(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	cfg := deps.Manager.GetAudioConfig()
	return okEnvelope(ipcwire.TypeAudioConfig, ipcwire.AudioConfigPayload{
		Enabled:          cfg.Enabled,
		SystemSourceID:   cfg.SystemSourceID,
		MicSourceID:      cfg.MicSourceID,
		EchoCancellation: cfg.EchoCancellation,
	})
}

func handleSetAudioConfig(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.AudioConfigPayload
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	cfg := recording.AudioConfig{
		Enabled:          body.Enabled,
		SystemSourceID:   body.SystemSourceID,
		MicSourceID:      body.MicSourceID,
		EchoCancellation: body.EchoCancellation,
	}
	if err := deps.Manager.SetAudioConfig(cfg); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeOk}
}

func handleGetTranscriptionConfig(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	cfg := deps.Manager.GetTranscriptionConfig()
	return okEnvelope(ipcwire.TypeTranscriptionConfig, ipcwire.TranscriptionConfigPayload{
		Enabled:   cfg.Enabled,
		ModelPath: cfg.ModelPath,
	})
}

func handleSetTranscriptionConfig(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.TranscriptionConfigPayload
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	cfg := recording.TranscriptionConfig{
		Enabled:   body.Enabled,
		ModelPath: body.ModelPath,
	}
	if err := deps.Manager.SetTranscriptionConfig(cfg); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeOk}
}

func handleGetTranscriptionStatus(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	status := deps.Manager.GetTranscriptionStatus()
	return okEnvelope(ipcwire.TypeTranscriptionStatus, ipcwire.TranscriptionStatusResponse{
		Active:            status.Active,
		QueuedSegments:    status.QueuedSegments,
		SegmentsProcessed: status.SegmentsProcessed,
	})
}
