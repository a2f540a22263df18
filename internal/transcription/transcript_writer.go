package transcription

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TranscriptFilenameFromVideo derives the transcript path that sits
// alongside a recording's video output: same directory and stem, a
// ".md" rename of the video extension.
func TranscriptFilenameFromVideo(videoPath string) string {
	ext := filepath.Ext(videoPath)
	stem := strings.TrimSuffix(videoPath, ext)
	return stem + ".md"
}

// TranscriptWriter appends timestamped segments to the transcript file
// as they are transcribed, flushing after every write so a reader can
// tail the file during an in-progress recording.
type TranscriptWriter struct {
	file *os.File
	w    *bufio.Writer
}

// NewTranscriptWriter creates (or truncates) the transcript file at path.
func NewTranscriptWriter(path string) (*TranscriptWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create transcript dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create transcript file: %w", err)
	}

	return &TranscriptWriter{file: f, w: bufio.NewWriter(f)}, nil
}

// WriteSegment appends one transcribed line timestamped as [HH:MM:SS].
// A blank transcription is dropped rather than written.
func (tw *TranscriptWriter) WriteSegment(timestampSecs float64, text string) error {
	if text == "" {
		return nil
	}
	total := int(timestampSecs)
	hh := total / 3600
	mm := (total % 3600) / 60
	ss := total % 60
	if _, err := fmt.Fprintf(tw.w, "[%s] %s\n", formatHHMMSS(hh, mm, ss), text); err != nil {
		return err
	}
	return tw.w.Flush()
}

func formatHHMMSS(hh, mm, ss int) string {
	pad := func(n int) string {
		s := strconv.Itoa(n)
		if len(s) < 2 {
			return "0" + s
		}
		return s
	}
	return pad(hh) + ":" + pad(mm) + ":" + pad(ss)
}

// Finalize flushes and closes the underlying file.
func (tw *TranscriptWriter) Finalize() error {
	if err := tw.w.Flush(); err != nil {
		tw.file.Close()
		return err
	}
	return tw.file.Close()
}
