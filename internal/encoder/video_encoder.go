package encoder

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// AudioConfig describes the PCM format the audio encoder expects.
type AudioConfig struct {
	SampleRate int
	Channels   int
}

// DefaultAudioConfig matches the mixer's fixed output format.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{SampleRate: 48000, Channels: 2}
}

// VideoEncoder pipes raw BGRA frames into an ffmpeg subprocess that writes
// an H.264/MP4 file. Dimensions are rounded down to even numbers, which
// every tested H.264 encoder requires.
type VideoEncoder struct {
	ctx        context.Context
	cancel     context.CancelFunc
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	outputPath string
	width      int
	height     int
}

// NewVideoEncoder creates an encoder targeting width x height, writing to
// outputPath.
func NewVideoEncoder(ctx context.Context, width, height int, outputPath string) (*VideoEncoder, error) {
	width &^= 1
	height &^= 1
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}

	cctx, cancel := context.WithCancel(ctx)
	return &VideoEncoder{
		ctx:        cctx,
		cancel:     cancel,
		outputPath: outputPath,
		width:      width,
		height:     height,
	}, nil
}

// Start resolves the best available H.264 encoder and launches ffmpeg.
func (e *VideoEncoder) Start() error {
	h264 := detectH264Encoder(e.ctx)

	args := []string{
		"-f", "rawvideo",
		"-pix_fmt", "bgra",
		"-s", fmt.Sprintf("%dx%d", e.width, e.height),
		"-r", "30",
		"-i", "-",
		"-c:v", h264,
	}

	switch h264 {
	case "libx264":
		args = append(args, "-preset", "ultrafast", "-crf", "23")
	case "libopenh264":
		args = append(args, "-b:v", "2M")
	case "h264_vaapi":
		args = append(args, "-qp", "23")
	case "h264_nvenc", "h264_amf":
		args = append(args, "-preset", "p1", "-rc", "vbr", "-cq", "23")
	}

	args = append(args,
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-y", e.outputPath,
	)

	cmd := newFFmpegCommand(e.ctx, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open ffmpeg stdin: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("open ffmpeg stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	go logStderr("ffmpeg video encoder", stderr)

	e.cmd = cmd
	e.stdin = stdin
	log.Info("video encoder started", "width", e.width, "height", e.height, "encoder", h264, "output", e.outputPath)
	return nil
}

// WriteFrame writes one BGRA frame. Frames larger than the encoder's
// dimensions (possible after even-dimension rounding) are cropped
// row-by-row; frames smaller are skipped.
func (e *VideoEncoder) WriteFrame(width, height int, bgra []byte) error {
	if width < e.width || height < e.height {
		log.Warn("skipping undersized frame", "frameWidth", width, "frameHeight", height, "encoderWidth", e.width, "encoderHeight", e.height)
		return nil
	}
	if e.stdin == nil {
		return nil
	}

	if width == e.width && height == e.height {
		_, err := e.stdin.Write(bgra)
		return err
	}

	srcRowBytes := width * 4
	dstRowBytes := e.width * 4
	for y := 0; y < e.height; y++ {
		start := y * srcRowBytes
		end := start + dstRowBytes
		if end > len(bgra) {
			break
		}
		if _, err := e.stdin.Write(bgra[start:end]); err != nil {
			return fmt.Errorf("write frame row: %w", err)
		}
	}
	return nil
}

// OutputPath returns the destination file path.
func (e *VideoEncoder) OutputPath() string { return e.outputPath }

// Finish closes stdin and waits for ffmpeg to exit, returning the output path.
func (e *VideoEncoder) Finish() (string, error) {
	defer e.cancel()
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.cmd == nil {
		return e.outputPath, nil
	}
	if err := e.cmd.Wait(); err != nil {
		return "", fmt.Errorf("ffmpeg encoding failed: %w", err)
	}
	return e.outputPath, nil
}
