package dispatch

import (
	"context"

	"github.com/omnirec/omnirecd/internal/ipcauth"
	"github.com/omnirec/omnirecd/internal/ipcwire"
)

func init() {
	register(ipcwire.TypeSubscribeEvents, handleSubscribeEvents)
	register(ipcwire.TypeShutdown, handleShutdown)
}

// handleSubscribeEvents acknowledges a subscription request with
// TypeSubscribed. No event frames are pushed on the connection afterwards;
// live state changes are queryable via get_recording_state and
// get_elapsed_time.
func handleSubscribeEvents(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	return ipcwire.Envelope{Type: ipcwire.TypeSubscribed}
}

func handleShutdown(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope {
	deps.Manager.Shutdown(ctx)
	return ipcwire.Envelope{Type: ipcwire.TypeOk}
}
