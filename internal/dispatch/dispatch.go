// Package dispatch routes decoded IPC request envelopes to the recording
// service's operations and encodes their results back into envelopes. It
// is the wiring layer between internal/ipcserver's accept loop and
// internal/recording's state machine, grounded on
// internal/heartbeat/handlers.go's registry-of-handlers pattern.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/omnirec/omnirecd/internal/capture"
	"github.com/omnirec/omnirecd/internal/ipcauth"
	"github.com/omnirec/omnirecd/internal/ipcwire"
	"github.com/omnirec/omnirecd/internal/logging"
	"github.com/omnirec/omnirecd/internal/picker"
	"github.com/omnirec/omnirecd/internal/recording"
	"github.com/omnirec/omnirecd/internal/workerpool"
)

var log = logging.L("dispatch")

// Deps bundles the collaborators every handler needs. One Deps is shared
// by every connection; recording.Manager and capture.Backend are already
// safe for concurrent use.
type Deps struct {
	Manager *recording.Manager
	Backend capture.Backend

	// Thumbnails bounds how many window/display/region thumbnail captures
	// run concurrently, since each one decodes and re-encodes a full frame.
	// Set by NewDeps; a Deps built directly leaves it nil unless the caller
	// sets it.
	Thumbnails *workerpool.Pool

	// Picker holds the Linux portal picker's pending selection and
	// approval token, queried/set by the query_selection/validate_token/
	// store_token handlers.
	Picker *picker.Store
}

// NewDeps constructs Deps with its default thumbnail worker pool and an
// in-process-only picker store (no disk-backed token persistence).
func NewDeps(manager *recording.Manager, backend capture.Backend) *Deps {
	return &Deps{
		Manager:    manager,
		Backend:    backend,
		Thumbnails: workerpool.New(4, 32),
		Picker:     picker.New(""),
	}
}

// handlerFunc processes one request type. Handlers decode their own
// payload from req.Payload and return the envelope to write back;
// returning an error from a handler is done by calling errorEnvelope,
// not via a Go error return, so every handler has the same shape as
// ipcserver.Handler itself.
type handlerFunc func(ctx context.Context, peer *ipcauth.Identity, deps *Deps, req ipcwire.Envelope) ipcwire.Envelope

// registry maps request types to their handlers. Additional entries are
// registered via init() in handlers_*.go files. This map is only written
// during package init and read-only thereafter.
var registry = map[string]handlerFunc{}

func register(reqType string, h handlerFunc) {
	if _, exists := registry[reqType]; exists {
		panic("dispatch: duplicate handler registered for " + reqType)
	}
	registry[reqType] = h
}

// NewHandler returns an ipcserver.Handler bound to deps.
func NewHandler(deps *Deps) func(ctx context.Context, peer *ipcauth.Identity, req ipcwire.Envelope) ipcwire.Envelope {
	return func(ctx context.Context, peer *ipcauth.Identity, req ipcwire.Envelope) ipcwire.Envelope {
		requestID := req.RequestID
		if requestID == "" {
			requestID = uuid.NewString()
		}

		var resp ipcwire.Envelope
		h, ok := registry[req.Type]
		if !ok {
			resp = errorEnvelope(fmt.Errorf("unknown request type %q", req.Type))
		} else {
			resp = h(ctx, peer, deps, req)
		}
		resp.RequestID = requestID
		return resp
	}
}

func decode(req ipcwire.Envelope, target any) error {
	if len(req.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Payload, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", req.Type, err)
	}
	return nil
}

func okEnvelope(respType string, payload any) ipcwire.Envelope {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal response payload", "type", respType, "error", err)
		return errorEnvelope(fmt.Errorf("internal error encoding response"))
	}
	return ipcwire.Envelope{Type: respType, Payload: body}
}

func errorEnvelope(err error) ipcwire.Envelope {
	body, _ := json.Marshal(ipcwire.ErrorPayload{Message: err.Error()})
	return ipcwire.Envelope{Type: ipcwire.TypeError, Payload: body}
}
