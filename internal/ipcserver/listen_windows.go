//go:build windows

package ipcserver

import (
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
)

// pipeSecurity grants full control to the owning user (OW) only; unlike
// the teacher's Interactive-Users grant, OmniRec's pipe is scoped to the
// single account that started the service.
const pipeSecurity = "D:P(A;;GA;;;OW)"

// listen binds the named pipe at s.endpoint via go-winio, restricted to
// the owning user's SID.
func (s *Server) listen() (net.Listener, error) {
	cfg := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurity,
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	}

	listener, err := winio.ListenPipe(s.endpoint, cfg)
	if err != nil {
		return nil, fmt.Errorf("listen pipe %s: %w", s.endpoint, err)
	}
	return listener, nil
}

// cleanupEndpoint is a no-op: named pipes leave no filesystem entry
// behind once the listener is closed.
func (s *Server) cleanupEndpoint() {}
