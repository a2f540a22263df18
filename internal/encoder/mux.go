package encoder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// MuxAudioVideo combines a video-only MP4 and a WAV audio file into one
// MP4, replacing videoPath in place. audioDelayMs is the delay of the
// audio stream relative to the moment video capture started (positive
// means audio arrived late, applied via ffmpeg's -itsoffset).
func MuxAudioVideo(ctx context.Context, videoPath, audioPath string, audioDelayMs int64) error {
	tempPath := videoPath + ".mux.mp4"

	args := []string{"-i", videoPath}
	if audioDelayMs != 0 {
		args = append(args, "-itsoffset", fmt.Sprintf("%.3f", float64(audioDelayMs)/1000.0))
	}
	args = append(args,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-map", "0:v",
		"-map", "1:a",
		"-shortest",
		"-movflags", "+faststart",
		"-y", tempPath,
	)

	cmd := newFFmpegCommand(ctx, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("open mux stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg mux: %w", err)
	}

	lastLineCh := make(chan string, 1)
	go func() { lastLineCh <- drainLastLine(stderr) }()

	waitErr := cmd.Wait()
	lastLine := <-lastLineCh
	if waitErr != nil {
		if lastLine != "" {
			return fmt.Errorf("ffmpeg muxing failed: %s", lastLine)
		}
		return fmt.Errorf("ffmpeg muxing failed: %w", waitErr)
	}

	if err := os.Rename(tempPath, videoPath); err != nil {
		return fmt.Errorf("replace video with muxed version: %w", err)
	}
	_ = os.Remove(audioPath)

	log.Info("muxed audio and video", "path", videoPath, "audioDelayMs", audioDelayMs)
	return nil
}

func drainLastLine(r io.Reader) string {
	data, _ := io.ReadAll(r)
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	return lines[len(lines)-1]
}
