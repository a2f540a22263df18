package capture

import (
	"bytes"
	"image"
	"image/jpeg"
)

// encodeThumbnail converts a captured BGRA frame to a JPEG byte slice.
// It does its own synchronous work; internal/dispatch is the caller that
// bounds how many of these run concurrently, via its thumbnail worker pool.
func encodeThumbnail(f Frame) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i+3 < len(f.BGRA); i += 4 {
		img.Pix[i+0] = f.BGRA[i+2] // R
		img.Pix[i+1] = f.BGRA[i+1] // G
		img.Pix[i+2] = f.BGRA[i+0] // B
		img.Pix[i+3] = f.BGRA[i+3] // A
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
