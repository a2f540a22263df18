package ipcserver

import "errors"

var (
	// ErrServerClosed is returned by Serve after Close has been called.
	ErrServerClosed = errors.New("ipcserver: server closed")

	// ErrPeerRejected is returned when a connecting peer fails authentication
	// or the same-binary check and is disconnected before any request is read.
	ErrPeerRejected = errors.New("ipcserver: peer rejected")
)
