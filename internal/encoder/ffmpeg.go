// Package encoder drives an external ffmpeg subprocess to turn captured
// video frames and audio samples into an MP4 file, and to transcode or mux
// the result afterward. There is no native Go H.264 encoder in the
// retrieval pack; every platform in the original system shells out to
// ffmpeg, and this package keeps that design.
package encoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/omnirec/omnirecd/internal/logging"
)

var log = logging.L("encoder")

// ffmpegPath is the binary every subprocess of this package runs. It is
// the bare name "ffmpeg", looked up on PATH at each spawn, unless
// EnsureFFmpeg has replaced it with the path it resolved; nothing in
// omnirecd calls EnsureFFmpeg. Unlike the Tauri original, which bundles
// a platform sidecar binary on Windows/macOS, omnirecd always expects a
// system-installed ffmpeg on PATH.
var ffmpegPath = "ffmpeg"

// EnsureFFmpeg resolves and smoke-tests the ffmpeg binary. Call once at
// service startup; subsequent encoder/transcoder calls assume it already
// succeeded.
func EnsureFFmpeg() error {
	resolved, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found on PATH: %w", err)
	}
	ffmpegPath = resolved

	cmd := exec.Command(ffmpegPath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg at %s failed version check: %w", ffmpegPath, err)
	}
	log.Info("ffmpeg resolved", "path", ffmpegPath)
	return nil
}

// newFFmpegCommand builds an *exec.Cmd rooted at the resolved ffmpeg path,
// bound to ctx so callers can cancel a running process.
func newFFmpegCommand(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, ffmpegPath, args...)
}

// detectH264Encoder runs `ffmpeg -encoders` and returns the best available
// H.264 encoder name, preferring software libx264 and falling back through
// hardware encoders before defaulting to libx264 regardless.
func detectH264Encoder(ctx context.Context) string {
	preferences := []string{
		"libx264",
		"libopenh264",
		"h264_vaapi",
		"h264_nvenc",
		"h264_amf",
		"h264_qsv",
		"h264_v4l2m2m",
		"h264_vulkan",
	}

	out, err := exec.CommandContext(ctx, ffmpegPath, "-encoders", "-hide_banner").Output()
	if err != nil {
		log.Warn("failed to query ffmpeg encoders, defaulting to libx264", "error", err)
		return "libx264"
	}

	listing := string(out)
	for _, name := range preferences {
		for _, line := range strings.Split(listing, "\n") {
			if strings.Contains(line, name) {
				log.Info("selected h264 encoder", "encoder", name)
				return name
			}
		}
	}

	log.Warn("no known h264 encoder detected in ffmpeg output, defaulting to libx264")
	return "libx264"
}

// logStderr drains an ffmpeg process's stderr to the structured logger,
// line by line, until the pipe closes.
func logStderr(prefix string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		log.Debug(prefix, "line", scanner.Text())
	}
}
