package encoder

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// GenerateOutputPath returns a fresh recording_YYYY-MM-DD_HHMMSS.mp4 path
// inside the user's Videos directory, creating it if necessary, falling
// back to the home directory when Videos cannot be created. No pack
// library exposes a cross-platform "known folders" API (the original
// leaned on directories::UserDirs, which has no equivalent in the
// retrieval pack), so this resolves the Videos folder by hand via
// os.UserHomeDir, matching the teacher's own stdlib use for home-relative
// paths.
func GenerateOutputPath() (string, error) {
	dir, err := defaultOutputDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filename := fmt.Sprintf("recording_%s.mp4", time.Now().Format("2006-01-02_150405"))
	return filepath.Join(dir, filename), nil
}

func defaultOutputDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	videos := filepath.Join(home, "Videos")
	if _, err := os.Stat(videos); err == nil {
		return videos, nil
	}
	if err := os.MkdirAll(videos, 0o755); err == nil {
		return videos, nil
	}
	return home, nil
}
