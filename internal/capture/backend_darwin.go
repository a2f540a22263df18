//go:build darwin && cgo

package capture

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation

#include <CoreGraphics/CoreGraphics.h>
#include <stdlib.h>

static CGImageRef captureDisplay(uint32_t displayID, CGRect rect) {
    if (rect.size.width == 0 && rect.size.height == 0) {
        return CGDisplayCreateImage(displayID);
    }
    return CGDisplayCreateImageForRect(displayID, rect);
}
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

// cgGrab captures the rectangle (x, y, w, h) of the main display via
// CGDisplayCreateImageForRect, a synchronous CoreGraphics API. Streaming
// capture via ScreenCaptureKit is the opaque native producer this trait
// plugs into in a full build; CGDisplayCreateImage stands in as a
// dependency-light, synchronous equivalent.
func cgGrab(x, y, w, h int) (Frame, error) {
	rect := C.CGRectMake(C.double(x), C.double(y), C.double(w), C.double(h))
	img := C.captureDisplay(C.CGMainDisplayID(), rect)
	if img == 0 {
		return Frame{}, fmt.Errorf("capture: CGDisplayCreateImageForRect failed")
	}
	defer C.CGImageRelease(img)

	width := int(C.CGImageGetWidth(img))
	height := int(C.CGImageGetHeight(img))
	provider := C.CGImageGetDataProvider(img)
	data := C.CGDataProviderCopyData(provider)
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(data)))

	ptr := C.CFDataGetBytePtr(data)
	length := int(C.CFDataGetLength(data))
	raw := C.GoBytes(unsafe.Pointer(ptr), C.int(length))

	stride := int(C.CGImageGetBytesPerRow(img))
	bgra := make([]byte, width*height*4)
	for row := 0; row < height; row++ {
		copy(bgra[row*width*4:(row+1)*width*4], raw[row*stride:row*stride+width*4])
	}

	return Frame{Width: width, Height: height, BGRA: bgra}, nil
}

func screenDimensions() (int, int) {
	return int(C.CGDisplayPixelsWide(C.CGMainDisplayID())), int(C.CGDisplayPixelsHigh(C.CGMainDisplayID()))
}

type darwinBackend struct {
	mu sync.Mutex
}

func newPlatformBackend() (Backend, error) {
	return &darwinBackend{}, nil
}

func (b *darwinBackend) ListWindows() ([]WindowInfo, error) {
	// Window-level enumeration requires CGWindowListCopyWindowInfo plus the
	// screen-recording entitlement prompt; omitted here as an opaque native
	// collaborator concern, leaving display-level capture fully functional.
	return nil, ErrNotSupported
}

func (b *darwinBackend) ListMonitors() ([]MonitorInfo, error) {
	w, h := screenDimensions()
	return []MonitorInfo{{ID: "0", Name: "Built-in Display", Width: w, Height: h, IsPrimary: true}}, nil
}

func (b *darwinBackend) ListAudioSources() ([]AudioSource, error) {
	return []AudioSource{
		{ID: "default-output", Name: "Default Output", Kind: AudioSourceSystem, IsDefault: true},
		{ID: "default-input", Name: "Default Input", Kind: AudioSourceMic, IsDefault: true},
	}, nil
}

func (b *darwinBackend) streamRect(x, y, w, h int) FrameStream {
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
				frame, err := cgGrab(x, y, w, h)
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

func (b *darwinBackend) StartWindowCapture(handle int64) (FrameStream, error) {
	return FrameStream{}, ErrNotSupported
}

func (b *darwinBackend) StartDisplayCapture(monitorID string, width, height int) (FrameStream, error) {
	return b.streamRect(0, 0, width, height), nil
}

func (b *darwinBackend) StartRegionCapture(region Region) (FrameStream, error) {
	return b.streamRect(region.X, region.Y, region.Width, region.Height), nil
}

func (b *darwinBackend) StartPortalCapture() (FrameStream, error) {
	return FrameStream{}, ErrNotSupported
}

func (b *darwinBackend) StartAudioCapture(systemSourceID, micSourceID string) (AudioStream, error) {
	return AudioStream{}, ErrNotSupported
}

func (b *darwinBackend) CaptureWindowThumbnail(handle int64) ([]byte, error) {
	return nil, ErrNotSupported
}

func (b *darwinBackend) CaptureDisplayThumbnail(monitorID string) ([]byte, error) {
	w, h := screenDimensions()
	frame, err := cgGrab(0, 0, w, h)
	if err != nil {
		return nil, err
	}
	return encodeThumbnail(frame)
}

func (b *darwinBackend) CaptureRegionPreview(region Region) ([]byte, error) {
	frame, err := cgGrab(region.X, region.Y, region.Width, region.Height)
	if err != nil {
		return nil, err
	}
	return encodeThumbnail(frame)
}

func (b *darwinBackend) ShowHighlight(x, y, width, height int) error {
	capLog.Info("highlight requested", "x", x, "y", y, "width", width, "height", height)
	return nil
}

func (b *darwinBackend) Close() error {
	return nil
}
