//go:build linux && cgo

package capture

/*
#cgo LDFLAGS: -lX11

#include <X11/Xlib.h>
#include <X11/Xutil.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/omnirec/omnirecd/internal/logging"
)

var capLog = logging.L("capture")

// xGrab captures the rectangle (x, y, w, h) of the default X11 screen via
// XGetImage and converts the packed 32-bit pixels to BGRA. Raw X11/Wayland
// frame acquisition is an opaque collaborator; this is a minimal client
// sufficient to exercise the capture.Backend contract.
func xGrab(x, y, w, h int) (Frame, error) {
	display := C.XOpenDisplay(nil)
	if display == nil {
		return Frame{}, fmt.Errorf("capture: XOpenDisplay failed (no X11 display)")
	}
	defer C.XCloseDisplay(display)

	root := C.XDefaultRootWindow(display)
	image := C.XGetImage(display, root, C.int(x), C.int(y), C.uint(w), C.uint(h), C.AllPlanes, C.ZPixmap)
	if image == nil {
		return Frame{}, fmt.Errorf("capture: XGetImage failed")
	}
	defer C.XDestroyImage(image)

	data := C.GoBytes(unsafe.Pointer(image.data), C.int(image.bytes_per_line)*C.int(h))
	bgra := make([]byte, w*h*4)
	stride := int(image.bytes_per_line)
	for row := 0; row < h; row++ {
		copy(bgra[row*w*4:(row+1)*w*4], data[row*stride:row*stride+w*4])
	}

	return Frame{Width: w, Height: h, BGRA: bgra}, nil
}

func screenDimensions() (int, int) {
	display := C.XOpenDisplay(nil)
	if display == nil {
		return 1920, 1080
	}
	defer C.XCloseDisplay(display)
	screen := C.XDefaultScreen(display)
	return int(C.XDisplayWidth(display, screen)), int(C.XDisplayHeight(display, screen))
}

type linuxBackend struct {
	mu sync.Mutex
}

func newPlatformBackend() (Backend, error) {
	return &linuxBackend{}, nil
}

func (b *linuxBackend) ListWindows() ([]WindowInfo, error) {
	display := C.XOpenDisplay(nil)
	if display == nil {
		return nil, ErrNotSupported
	}
	defer C.XCloseDisplay(display)

	root := C.XDefaultRootWindow(display)
	var rootReturn, parentReturn C.Window
	var children *C.Window
	var numChildren C.uint
	if C.XQueryTree(display, root, &rootReturn, &parentReturn, &children, &numChildren) == 0 {
		return nil, fmt.Errorf("capture: XQueryTree failed")
	}
	defer C.XFree(unsafe.Pointer(children))

	windowList := unsafe.Slice(children, int(numChildren))
	var windows []WindowInfo
	for _, w := range windowList {
		var attrs C.XWindowAttributes
		if C.XGetWindowAttributes(display, w, &attrs) == 0 {
			continue
		}
		if attrs.map_state != C.IsViewable {
			continue
		}
		var name *C.char
		if C.XFetchName(display, w, &name) != 0 && name != nil {
			title := C.GoString(name)
			C.XFree(unsafe.Pointer(name))
			windows = append(windows, WindowInfo{
				Handle: int64(w),
				Title:  title,
				Width:  int(attrs.width),
				Height: int(attrs.height),
			})
		}
	}
	return windows, nil
}

func (b *linuxBackend) ListMonitors() ([]MonitorInfo, error) {
	w, h := screenDimensions()
	return []MonitorInfo{{ID: "0", Name: "Display 0", Width: w, Height: h, IsPrimary: true}}, nil
}

func (b *linuxBackend) ListAudioSources() ([]AudioSource, error) {
	return []AudioSource{
		{ID: "default-sink-monitor", Name: "Default Output (Monitor)", Kind: AudioSourceSystem, IsDefault: true},
		{ID: "default-source", Name: "Default Input", Kind: AudioSourceMic, IsDefault: true},
	}, nil
}

func (b *linuxBackend) streamRect(x, y, w, h int) FrameStream {
	ch := make(chan Frame, 4)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(33 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				close(ch)
				return
			case <-ticker.C:
				frame, err := xGrab(x, y, w, h)
				if err != nil {
					capLog.Warn("capture failed", "error", err)
					continue
				}
				select {
				case ch <- frame:
				default:
				}
			}
		}
	}()
	return FrameStream{Frames: ch, Stop: func() { once.Do(func() { close(stop) }) }}
}

func (b *linuxBackend) StartWindowCapture(handle int64) (FrameStream, error) {
	display := C.XOpenDisplay(nil)
	if display == nil {
		return FrameStream{}, ErrNotSupported
	}
	defer C.XCloseDisplay(display)
	var attrs C.XWindowAttributes
	if C.XGetWindowAttributes(display, C.Window(handle), &attrs) == 0 {
		return FrameStream{}, ErrTargetNotFound
	}
	return b.streamRect(int(attrs.x), int(attrs.y), int(attrs.width), int(attrs.height)), nil
}

func (b *linuxBackend) StartDisplayCapture(monitorID string, width, height int) (FrameStream, error) {
	return b.streamRect(0, 0, width, height), nil
}

func (b *linuxBackend) StartRegionCapture(region Region) (FrameStream, error) {
	return b.streamRect(region.X, region.Y, region.Width, region.Height), nil
}

func (b *linuxBackend) StartPortalCapture() (FrameStream, error) {
	return FrameStream{}, fmt.Errorf("capture: portal capture requires the PipeWire portal client (external collaborator): %w", ErrNotSupported)
}

func (b *linuxBackend) StartAudioCapture(systemSourceID, micSourceID string) (AudioStream, error) {
	return AudioStream{}, ErrNotSupported
}

func (b *linuxBackend) CaptureWindowThumbnail(handle int64) ([]byte, error) {
	display := C.XOpenDisplay(nil)
	if display == nil {
		return nil, ErrNotSupported
	}
	defer C.XCloseDisplay(display)
	var attrs C.XWindowAttributes
	if C.XGetWindowAttributes(display, C.Window(handle), &attrs) == 0 {
		return nil, ErrTargetNotFound
	}
	frame, err := xGrab(int(attrs.x), int(attrs.y), int(attrs.width), int(attrs.height))
	if err != nil {
		return nil, err
	}
	return encodeThumbnail(frame)
}

func (b *linuxBackend) CaptureDisplayThumbnail(monitorID string) ([]byte, error) {
	w, h := screenDimensions()
	frame, err := xGrab(0, 0, w, h)
	if err != nil {
		return nil, err
	}
	return encodeThumbnail(frame)
}

func (b *linuxBackend) CaptureRegionPreview(region Region) ([]byte, error) {
	frame, err := xGrab(region.X, region.Y, region.Width, region.Height)
	if err != nil {
		return nil, err
	}
	return encodeThumbnail(frame)
}

func (b *linuxBackend) ShowHighlight(x, y, width, height int) error {
	capLog.Info("highlight requested", "x", x, "y", y, "width", width, "height", height)
	return nil
}

func (b *linuxBackend) Close() error {
	return nil
}
