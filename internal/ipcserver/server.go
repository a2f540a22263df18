// Package ipcserver accepts local IPC connections and drives each one
// through a synchronous request/response loop. It is the listening half
// of the wire format defined by internal/ipcwire and the peer trust model
// defined by internal/ipcauth.
package ipcserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/omnirec/omnirecd/internal/ipcauth"
	"github.com/omnirec/omnirecd/internal/ipcwire"
	"github.com/omnirec/omnirecd/internal/logging"
)

var log = logging.L("ipcserver")

const (
	// acceptPollInterval is not referenced by Serve: the accept loop blocks
	// in Accept and ends when Close (run on ctx cancellation) closes the
	// listener.
	acceptPollInterval = 100 * time.Millisecond

	// requestIdleTimeout disconnects a peer that sends nothing for this long.
	requestIdleTimeout = 30 * time.Second

	// responseWriteTimeout bounds how long writing one response may take.
	responseWriteTimeout = 10 * time.Second

	// maxConnectsPerWindow bounds how many connections one UID may open
	// within connectRateLimitWindow before further attempts are rejected.
	maxConnectsPerWindow  = 20
	connectRateLimitWindow = time.Minute
)

// Handler processes one decoded request envelope from an authenticated
// peer and returns the envelope to write back. Handlers never block on
// anything but the work the request itself requires.
type Handler func(ctx context.Context, peer *ipcauth.Identity, req ipcwire.Envelope) ipcwire.Envelope

// Server listens on the platform IPC endpoint (a Unix domain socket or a
// Windows named pipe) and serves one Handler call per received frame.
type Server struct {
	endpoint string
	handler  Handler
	listener net.Listener

	rateLimiter *connectRateLimiter

	mu      sync.Mutex
	closed  bool
	conns   map[net.Conn]struct{}
	stopped chan struct{}
}

// New creates a Server bound to endpoint (a filesystem socket path on Unix,
// a pipe name on Windows) that dispatches every request to handler.
func New(endpoint string, handler Handler) *Server {
	return &Server{
		endpoint:    endpoint,
		handler:     handler,
		rateLimiter: newConnectRateLimiter(maxConnectsPerWindow, connectRateLimitWindow),
		conns:       make(map[net.Conn]struct{}),
		stopped:     make(chan struct{}),
	}
}

// Serve opens the listener and accepts connections until ctx is cancelled
// or Close is called. It blocks for the lifetime of the server.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := s.listen()
	if err != nil {
		return fmt.Errorf("ipcserver: listen %s: %w", s.endpoint, err)
	}
	s.listener = listener
	log.Info("ipc server listening", "endpoint", s.endpoint)

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return ErrServerClosed
			}
			log.Warn("accept error", "error", err)
			continue
		}
		s.trackConn(conn, true)
		go s.handleConn(ctx, conn)
	}
}

// Close stops accepting new connections and closes all connections that
// are currently open. It is safe to call more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	close(s.stopped)
	if s.listener != nil {
		s.listener.Close()
	}
	for _, c := range conns {
		c.Close()
	}
	s.cleanupEndpoint()
	log.Info("ipc server closed")
	return nil
}

func (s *Server) trackConn(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, rawConn net.Conn) {
	defer func() {
		rawConn.Close()
		s.trackConn(rawConn, false)
	}()

	identity, err := ipcauth.Authenticate(rawConn)
	if err != nil {
		log.Warn("peer authentication failed", "error", err)
		return
	}
	if !ipcauth.SameBinary(identity.ExecutablePath) {
		log.Warn("peer binary mismatch rejected", "pid", identity.PID, "path", identity.ExecutablePath)
		return
	}
	if !s.rateLimiter.allow(identity.UID) {
		log.Warn("peer rejected: connection rate limit exceeded", "pid", identity.PID, "uid", identity.UID)
		return
	}

	conn := ipcwire.NewConn(rawConn)
	log.Info("peer connected", "pid", identity.PID, "uid", identity.UID)

	for {
		conn.SetReadDeadline(time.Now().Add(requestIdleTimeout))
		var env ipcwire.Envelope
		if err := conn.ReadFrame(&env); err != nil {
			if err != ipcwire.ErrConnectionClosed {
				log.Debug("peer read ended", "pid", identity.PID, "error", err)
			}
			return
		}

		resp := s.handler(ctx, identity, env)
		conn.SetWriteDeadline(time.Now().Add(responseWriteTimeout))
		if err := conn.WriteFrame(resp); err != nil {
			log.Warn("failed writing response", "pid", identity.PID, "error", err)
			return
		}

		if env.Type == ipcwire.TypeShutdown {
			return
		}
	}
}
