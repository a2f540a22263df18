//go:build linux && !cgo

package capture

// newPlatformBackend returns an error on Linux when built without CGO,
// since capture requires X11 via CGO.
func newPlatformBackend() (Backend, error) {
	return nil, ErrNotSupported
}
