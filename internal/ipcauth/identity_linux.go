//go:build linux

package ipcauth

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

func authenticate(conn net.Conn) (*Identity, error) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return nil, fmt.Errorf("ipcauth: not a unix connection")
	}

	raw, err := uc.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("ipcauth: syscall conn: %w", err)
	}

	var cred *unix.Ucred
	var credErr error
	if err := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return nil, fmt.Errorf("ipcauth: control: %w", err)
	}
	if credErr != nil {
		return nil, fmt.Errorf("ipcauth: getsockopt SO_PEERCRED: %w", credErr)
	}

	exePath, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", cred.Pid))
	if err != nil {
		return nil, fmt.Errorf("ipcauth: readlink /proc/%d/exe: %w", cred.Pid, err)
	}

	return &Identity{
		PID:            cred.Pid,
		ExecutablePath: exePath,
		UID:            cred.Uid,
	}, nil
}

func sameBinary(path string) bool {
	self, err := os.Executable()
	if err != nil {
		return false
	}
	self, err = filepath.EvalSymlinks(self)
	if err != nil {
		return false
	}
	peer, err := filepath.EvalSymlinks(path)
	if err != nil {
		peer = path
	}
	return filepath.Clean(self) == filepath.Clean(peer)
}

// defaultSocketPath returns the default IPC socket path for Linux,
// rooted under XDG_RUNTIME_DIR per the wire-format endpoint spec.
func defaultSocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = "/tmp"
	}
	return filepath.Join(dir, "omnirec", "service.sock")
}
