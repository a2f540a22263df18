// Package ipcwire implements the length-prefixed JSON framing codec used
// by the recording service's IPC transport.
package ipcwire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// MaxFrameSize is the largest JSON frame body the codec will decode.
// Frames whose declared length exceeds this are rejected before the body
// buffer is allocated.
const MaxFrameSize = 2 * 1024 * 1024 // 2 MiB

var (
	// ErrConnectionClosed is returned when the peer disconnects cleanly
	// at a frame boundary.
	ErrConnectionClosed = errors.New("ipcwire: connection closed")
	// ErrMessageTooLarge is returned when a frame's declared length
	// exceeds MaxFrameSize.
	ErrMessageTooLarge = errors.New("ipcwire: message too large")
	// ErrDecode wraps any JSON decoding failure.
	ErrDecode = errors.New("ipcwire: decode")
)

// Conn wraps a net.Conn with the service's length-prefixed JSON framing.
// A 4-byte little-endian length prefix is followed by that many JSON
// bytes. WriteFrame holds a mutex, so concurrent writes from several
// goroutines are serialized; reads take no lock, so only one goroutine
// may read at a time.
type Conn struct {
	nc net.Conn
	wm sync.Mutex
}

// NewConn wraps a raw connection in the frame codec.
func NewConn(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.nc.Close() }

// RemoteAddr returns the remote address of the underlying connection.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// SetReadDeadline sets the read deadline on the underlying connection.
func (c *Conn) SetReadDeadline(t time.Time) error { return c.nc.SetReadDeadline(t) }

// SetWriteDeadline sets the write deadline on the underlying connection.
func (c *Conn) SetWriteDeadline(t time.Time) error { return c.nc.SetWriteDeadline(t) }

// ReadFrame reads one length-prefixed JSON frame and decodes it into v.
// The body buffer is allocated only after the declared length has been
// validated against MaxFrameSize.
func (c *Conn) ReadFrame(v any) error {
	raw, err := c.readFrameBytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// ReadRawFrame reads one frame and returns its undecoded JSON body.
func (c *Conn) ReadRawFrame() (json.RawMessage, error) {
	return c.readFrameBytes()
}

func (c *Conn) readFrameBytes() ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.nc, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrConnectionClosed
		}
		return nil, fmt.Errorf("ipcwire: read header: %w", err)
	}

	length := binary.LittleEndian.Uint32(header)
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, length, MaxFrameSize)
	}
	if length == 0 {
		return []byte("null"), nil
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.nc, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrConnectionClosed
		}
		return nil, fmt.Errorf("ipcwire: read body: %w", err)
	}
	return body, nil
}

// WriteFrame encodes v as JSON and writes it as a length-prefixed frame.
func (c *Conn) WriteFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ipcwire: marshal: %w", err)
	}
	if len(data) > MaxFrameSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), MaxFrameSize)
	}

	c.wm.Lock()
	defer c.wm.Unlock()

	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(data)))
	if _, err := c.nc.Write(header); err != nil {
		return fmt.Errorf("ipcwire: write header: %w", err)
	}
	if _, err := c.nc.Write(data); err != nil {
		return fmt.Errorf("ipcwire: write body: %w", err)
	}
	return nil
}
