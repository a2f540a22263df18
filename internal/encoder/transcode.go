package encoder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// TranscodeVideo converts sourcePath (an MP4 produced by VideoEncoder) to
// format, returning the path to the new file. Mp4 is returned unchanged,
// since the source is already Mp4. Transcoding failure is the caller's to
// treat as non-fatal; the source file is always left intact.
func TranscodeVideo(ctx context.Context, sourcePath string, format OutputFormat) (string, error) {
	if format == FormatMp4 {
		return sourcePath, nil
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	outputPath := filepath.Join(filepath.Dir(sourcePath), stem+"."+format.Extension())

	args := []string{"-i", sourcePath}

	switch format {
	case FormatWebM:
		args = append(args, "-c:v", "libvpx-vp9", "-crf", "30", "-b:v", "0")
	case FormatMkv:
		args = append(args, "-c:v", "copy")
	case FormatQuickTime:
		args = append(args, "-c:v", "copy", "-f", "mov")
	case FormatGif:
		args = append(args, "-vf", "fps=15,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse")
	case FormatAnimatedPng:
		args = append(args, "-plays", "0", "-f", "apng")
	case FormatAnimatedWebp:
		args = append(args, "-c:v", "libwebp", "-lossless", "0", "-q:v", "75", "-loop", "0")
	}

	args = append(args, "-y", outputPath)

	cmd := newFFmpegCommand(ctx, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("open transcode stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start ffmpeg transcode: %w", err)
	}

	lastLineCh := make(chan string, 1)
	go func() { lastLineCh <- drainLastLine(stderr) }()

	waitErr := cmd.Wait()
	lastLine := <-lastLineCh
	if waitErr != nil {
		if lastLine != "" {
			return "", fmt.Errorf("ffmpeg transcoding failed: %s", lastLine)
		}
		return "", fmt.Errorf("ffmpeg transcoding failed: %w", waitErr)
	}

	log.Info("transcoded recording", "source", sourcePath, "output", outputPath, "format", format)
	return outputPath, nil
}
