//go:build windows

package ipcauth

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32                     = windows.NewLazySystemDLL("kernel32.dll")
	procGetNamedPipeClientProcessId = modkernel32.NewProc("GetNamedPipeClientProcessId")
)

// handleConn is implemented by named-pipe connections that expose their
// underlying Win32 handle.
type handleConn interface {
	Fd() uintptr
}

func authenticate(conn net.Conn) (*Identity, error) {
	hc, ok := conn.(handleConn)
	if !ok {
		return nil, fmt.Errorf("ipcauth: connection type %T does not expose a pipe handle", conn)
	}
	handle := hc.Fd()

	var clientPID uint32
	r1, _, callErr := procGetNamedPipeClientProcessId.Call(handle, uintptr(unsafe.Pointer(&clientPID)))
	if r1 == 0 {
		return nil, fmt.Errorf("ipcauth: GetNamedPipeClientProcessId: %w", callErr)
	}

	proc, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, clientPID)
	if err != nil {
		return nil, fmt.Errorf("ipcauth: OpenProcess(%d): %w", clientPID, err)
	}
	defer windows.CloseHandle(proc)

	var pathBuf [windows.MAX_PATH]uint16
	pathLen := uint32(len(pathBuf))
	if err := windows.QueryFullProcessImageName(proc, 0, &pathBuf[0], &pathLen); err != nil {
		return nil, fmt.Errorf("ipcauth: QueryFullProcessImageName: %w", err)
	}
	binaryPath := syscall.UTF16ToString(pathBuf[:pathLen])

	var token windows.Token
	if err := windows.OpenProcessToken(proc, windows.TOKEN_QUERY, &token); err != nil {
		return nil, fmt.Errorf("ipcauth: OpenProcessToken: %w", err)
	}
	defer token.Close()

	tokenUser, err := token.GetTokenUser()
	if err != nil {
		return nil, fmt.Errorf("ipcauth: GetTokenUser: %w", err)
	}

	return &Identity{
		PID:            int32(clientPID),
		ExecutablePath: binaryPath,
		SID:            tokenUser.User.Sid.String(),
	}, nil
}

func sameBinary(path string) bool {
	self, err := os.Executable()
	if err != nil {
		return false
	}
	self, _ = filepath.EvalSymlinks(self)
	peer, _ := filepath.EvalSymlinks(path)
	return strings.EqualFold(filepath.Clean(self), filepath.Clean(peer))
}

func defaultSocketPath() string {
	return `\\.\pipe\omnirec-service`
}
