package dispatch

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/omnirec/omnirecd/internal/ipcauth"
	"github.com/omnirec/omnirecd/internal/ipcwire"
)

func init() {
	register(ipcwire.TypePing, handlePing)
	register(ipcwire.TypeListWindows, handleListWindows)
	register(ipcwire.TypeListMonitors, handleListMonitors)
	register(ipcwire.TypeListAudioSources, handleListAudioSources)
	register(ipcwire.TypeGetWindowThumbnail, handleGetWindowThumbnail)
	register(ipcwire.TypeGetDisplayThumbnail, handleGetDisplayThumbnail)
	register(ipcwire.TypeGetRegionPreview, handleGetRegionPreview)
	register(ipcwire.TypeShowHighlight, handleShowHighlight)
	register(ipcwire.TypeClearHighlight, handleClearHighlight)
}

func handlePing(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	return ipcwire.Envelope{Type: ipcwire.TypePong}
}

func handleListWindows(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	windows, err := deps.Backend.ListWindows()
	if err != nil {
		return errorEnvelope(err)
	}
	return okEnvelope(ipcwire.TypeWindows, windows)
}

func handleListMonitors(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	monitors, err := deps.Backend.ListMonitors()
	if err != nil {
		return errorEnvelope(err)
	}
	return okEnvelope(ipcwire.TypeMonitors, monitors)
}

func handleListAudioSources(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	sources, err := deps.Backend.ListAudioSources()
	if err != nil {
		return errorEnvelope(err)
	}
	return okEnvelope(ipcwire.TypeAudioSources, sources)
}

func handleGetWindowThumbnail(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.ThumbnailRequest
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	data, err := submitThumbnail(ctx, deps, func() ([]byte, error) {
		return deps.Backend.CaptureWindowThumbnail(body.WindowHandle)
	})
	if err != nil {
		return errorEnvelope(err)
	}
	return thumbnailEnvelope(data)
}

func handleGetDisplayThumbnail(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.ThumbnailRequest
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	data, err := submitThumbnail(ctx, deps, func() ([]byte, error) {
		return deps.Backend.CaptureDisplayThumbnail(body.MonitorID)
	})
	if err != nil {
		return errorEnvelope(err)
	}
	return thumbnailEnvelope(data)
}

func handleGetRegionPreview(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.ThumbnailRequest
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	region := regionFromThumbnailRequest(body)
	data, err := submitThumbnail(ctx, deps, func() ([]byte, error) {
		return deps.Backend.CaptureRegionPreview(region)
	})
	if err != nil {
		return errorEnvelope(err)
	}
	return thumbnailEnvelope(data)
}

// submitThumbnail runs fn on deps.Thumbnails, bounding how many thumbnail
// captures (each a full BGRA->JPEG encode) run at once, and blocks the
// calling connection goroutine until the result is ready or ctx is done.
func submitThumbnail(ctx context.Context, deps *Deps, fn func() ([]byte, error)) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	resultCh := make(chan result, 1)
	if !deps.Thumbnails.Submit(func() {
		data, err := fn()
		resultCh <- result{data: data, err: err}
	}) {
		return nil, fmt.Errorf("thumbnail worker pool saturated, try again")
	}

	select {
	case r := <-resultCh:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func thumbnailEnvelope(jpeg []byte) ipcwire.Envelope {
	return okEnvelope(ipcwire.TypeThumbnail, ipcwire.ThumbnailResponse{
		Data: base64.StdEncoding.EncodeToString(jpeg),
	})
}

func handleShowHighlight(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	var body ipcwire.HighlightRequest
	if err := decode(req, &body); err != nil {
		return errorEnvelope(err)
	}
	if err := deps.Backend.ShowHighlight(body.X, body.Y, body.Width, body.Height); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeOk}
}

// handleClearHighlight hides the region highlight. The capture backend has
// no separate "clear" verb, so this sends a zero-sized ShowHighlight call;
// the platform backends log it like any other highlight request and give a
// width/height of 0 no special handling.
func handleClearHighlight(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	if err := deps.Backend.ShowHighlight(0, 0, 0, 0); err != nil {
		return errorEnvelope(err)
	}
	return ipcwire.Envelope{Type: ipcwire.TypeOk}
}
