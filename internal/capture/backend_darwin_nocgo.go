//go:build darwin && !cgo

package capture

// newPlatformBackend returns an error on Darwin when built without CGO,
// since capture requires CoreGraphics via CGO.
func newPlatformBackend() (Backend, error) {
	return nil, ErrNotSupported
}
