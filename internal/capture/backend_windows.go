//go:build windows

package capture

import (
	"fmt"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/omnirec/omnirecd/internal/logging"
)

var capLog = logging.L("capture")

var (
	user32 = syscall.NewLazyDLL("user32.dll")
	gdi32  = syscall.NewLazyDLL("gdi32.dll")

	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procEnumDisplayMonitor = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW    = user32.NewProc("GetMonitorInfoW")
	procEnumWindows        = user32.NewProc("EnumWindows")
	procGetWindowTextW     = user32.NewProc("GetWindowTextW")
	procIsWindowVisible    = user32.NewProc("IsWindowVisible")
	procGetWindowRect      = user32.NewProc("GetWindowRect")

	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
)

const (
	smCxScreen   = 0
	smCyScreen   = 1
	srcCopy      = 0x00CC0020
	biRGB        = 0
	dibRGBColors = 0
)

type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	BmiHeader bitmapInfoHeader
	BmiColors [1]uint32
}

type rect struct {
	Left, Top, Right, Bottom int32
}

// bitBltCapture grabs the rectangle (x, y, w, h) of the virtual screen via
// GetDC(0)/BitBlt/GetDIBits, grounded on the teacher's GDI capturer.
func bitBltCapture(x, y, w, h int) (Frame, error) {
	if w <= 0 || h <= 0 {
		return Frame{}, fmt.Errorf("capture: invalid dimensions %dx%d", w, h)
	}
	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		return Frame{}, fmt.Errorf("capture: GetDC failed")
	}
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		return Frame{}, fmt.Errorf("capture: CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(memDC)

	bitmap, _, _ := procCreateCompatibleBitmap.Call(screenDC, uintptr(w), uintptr(h))
	if bitmap == 0 {
		return Frame{}, fmt.Errorf("capture: CreateCompatibleBitmap failed")
	}
	defer procDeleteObject.Call(bitmap)

	oldObj, _, _ := procSelectObject.Call(memDC, bitmap)
	defer procSelectObject.Call(memDC, oldObj)

	ret, _, _ := procBitBlt.Call(memDC, 0, 0, uintptr(w), uintptr(h), screenDC, uintptr(x), uintptr(y), srcCopy)
	if ret == 0 {
		return Frame{}, fmt.Errorf("capture: BitBlt failed")
	}

	var bi bitmapInfo
	bi.BmiHeader = bitmapInfoHeader{
		BiSize:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		BiWidth:       int32(w),
		BiHeight:      -int32(h), // negative: top-down DIB
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: biRGB,
	}

	buf := make([]byte, w*h*4)
	ret, _, _ = procGetDIBits.Call(
		memDC, bitmap, 0, uintptr(h),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&bi)),
		dibRGBColors,
	)
	if ret == 0 {
		return Frame{}, fmt.Errorf("capture: GetDIBits failed")
	}

	return Frame{Width: w, Height: h, BGRA: buf}, nil
}

func screenDimensions() (int, int) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	return int(w), int(h)
}

type windowsBackend struct {
	mu sync.Mutex
}

func newPlatformBackend() (Backend, error) {
	return &windowsBackend{}, nil
}

func (b *windowsBackend) ListWindows() ([]WindowInfo, error) {
	var windows []WindowInfo
	cb := syscall.NewCallback(func(hwnd syscall.Handle, lparam uintptr) uintptr {
		visible, _, _ := procIsWindowVisible.Call(uintptr(hwnd))
		if visible == 0 {
			return 1
		}
		var buf [256]uint16
		n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if n == 0 {
			return 1
		}
		var r rect
		procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&r)))
		windows = append(windows, WindowInfo{
			Handle: int64(hwnd),
			Title:  syscall.UTF16ToString(buf[:n]),
			Width:  int(r.Right - r.Left),
			Height: int(r.Bottom - r.Top),
		})
		return 1
	})
	procEnumWindows.Call(cb, 0)
	return windows, nil
}

func (b *windowsBackend) ListMonitors() ([]MonitorInfo, error) {
	w, h := screenDimensions()
	return []MonitorInfo{{ID: "0", Name: "Display 0", Width: w, Height: h, IsPrimary: true}}, nil
}

func (b *windowsBackend) ListAudioSources() ([]AudioSource, error) {
	return []AudioSource{
		{ID: "default-speaker", Name: "Default Speaker", Kind: AudioSourceSystem, IsDefault: true},
		{ID: "default-mic", Name: "Default Microphone", Kind: AudioSourceMic, IsDefault: true},
	}, nil
}

func (b *windowsBackend) streamRect(x, y, w, h int) FrameStream {
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
				frame, err := bitBltCapture(x, y, w, h)
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

func (b *windowsBackend) StartWindowCapture(handle int64) (FrameStream, error) {
	var r rect
	ret, _, _ := procGetWindowRect.Call(uintptr(handle), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return FrameStream{}, ErrTargetNotFound
	}
	return b.streamRect(int(r.Left), int(r.Top), int(r.Right-r.Left), int(r.Bottom-r.Top)), nil
}

func (b *windowsBackend) StartDisplayCapture(monitorID string, width, height int) (FrameStream, error) {
	return b.streamRect(0, 0, width, height), nil
}

func (b *windowsBackend) StartRegionCapture(region Region) (FrameStream, error) {
	return b.streamRect(region.X, region.Y, region.Width, region.Height), nil
}

func (b *windowsBackend) StartPortalCapture() (FrameStream, error) {
	return FrameStream{}, ErrNotSupported
}

func (b *windowsBackend) StartAudioCapture(systemSourceID, micSourceID string) (AudioStream, error) {
	return AudioStream{}, ErrNotSupported
}

func (b *windowsBackend) CaptureWindowThumbnail(handle int64) ([]byte, error) {
	var r rect
	ret, _, _ := procGetWindowRect.Call(uintptr(handle), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return nil, ErrTargetNotFound
	}
	frame, err := bitBltCapture(int(r.Left), int(r.Top), int(r.Right-r.Left), int(r.Bottom-r.Top))
	if err != nil {
		return nil, err
	}
	return encodeThumbnail(frame)
}

func (b *windowsBackend) CaptureDisplayThumbnail(monitorID string) ([]byte, error) {
	w, h := screenDimensions()
	frame, err := bitBltCapture(0, 0, w, h)
	if err != nil {
		return nil, err
	}
	return encodeThumbnail(frame)
}

func (b *windowsBackend) CaptureRegionPreview(region Region) ([]byte, error) {
	frame, err := bitBltCapture(region.X, region.Y, region.Width, region.Height)
	if err != nil {
		return nil, err
	}
	return encodeThumbnail(frame)
}

func (b *windowsBackend) ShowHighlight(x, y, width, height int) error {
	capLog.Info("highlight requested", "x", x, "y", y, "width", width, "height", height)
	return nil
}

func (b *windowsBackend) Close() error {
	return nil
}
