//go:build darwin

package ipcauth

/*
#include <libproc.h>

static int getProcPath(int pid, char *buf, int bufsize) {
    return proc_pidpath(pid, buf, bufsize);
}
*/
import "C"

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

const localPeerPID = 0x002 // LOCAL_PEERPID

func authenticate(conn net.Conn) (*Identity, error) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return nil, fmt.Errorf("ipcauth: not a unix connection")
	}

	raw, err := uc.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("ipcauth: syscall conn: %w", err)
	}

	var pid int
	var uid uint32
	var credErr error

	if err := raw.Control(func(fd uintptr) {
		pidVal, err := unix.GetsockoptInt(int(fd), unix.SOL_LOCAL, localPeerPID)
		if err != nil {
			credErr = fmt.Errorf("getsockopt LOCAL_PEERPID: %w", err)
			return
		}
		pid = pidVal

		xcred, err := unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
		if err != nil {
			credErr = fmt.Errorf("getsockopt LOCAL_PEERCRED: %w", err)
			return
		}
		uid = xcred.Uid
	}); err != nil {
		return nil, fmt.Errorf("ipcauth: control: %w", err)
	}
	if credErr != nil {
		return nil, credErr
	}

	buf := make([]byte, 4096)
	ret := C.getProcPath(C.int(pid), (*C.char)(unsafe.Pointer(&buf[0])), C.int(len(buf)))
	if ret <= 0 {
		return nil, fmt.Errorf("ipcauth: proc_pidpath failed for pid %d", pid)
	}

	return &Identity{
		PID:            int32(pid),
		ExecutablePath: string(buf[:ret]),
		UID:            uid,
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

func defaultSocketPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/omnirec/service.sock"
	}
	return filepath.Join(home, "Library", "Application Support", "OmniRec", "service.sock")
}
