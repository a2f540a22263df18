// Package ipcauth derives a verified peer identity from OS-level
// connection facilities: SO_PEERCRED on Linux, LOCAL_PEERCRED on Darwin,
// and named-pipe client impersonation on Windows.
package ipcauth

import "net"

// Identity is the verified caller bound to an accepted IPC connection.
// It is derived once, at accept time, and never re-derived mid-session.
type Identity struct {
	PID            int32
	ExecutablePath string

	// UID is the Unix numeric user id; zero and meaningless on Windows.
	UID uint32
	// SID is the Windows security identifier string; empty on Unix.
	SID string
}

// Authenticate derives the verified identity of the peer on the other
// end of conn. It is implemented per platform in identity_<goos>.go.
func Authenticate(conn net.Conn) (*Identity, error) {
	return authenticate(conn)
}

// SameBinary reports whether path resolves to the same on-disk executable
// as the currently running process. This is the composable "same binary"
// policy check layered on top of a bare identity, matching the authenticator's
// stated scope: identity derivation only, with policy left to callers.
func SameBinary(path string) bool {
	return sameBinary(path)
}

// DefaultEndpoint returns the platform default IPC endpoint: a filesystem
// socket path on Unix, a named pipe path on Windows.
func DefaultEndpoint() string {
	return defaultSocketPath()
}
