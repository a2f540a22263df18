package recording

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// sessionManifest is a human-readable sidecar written next to the final
// video once a recording finishes, summarizing what was captured. It
// supplements the binary video/transcript outputs with one place a user
// (or a support request) can glance at for the session's parameters.
type sessionManifest struct {
	SourcePath          string `yaml:"source_path"`
	FilePath            string `yaml:"file_path"`
	Format              string `yaml:"format"`
	DurationSeconds     uint64 `yaml:"duration_seconds"`
	AudioEnabled        bool   `yaml:"audio_enabled"`
	TranscriptionActive bool   `yaml:"transcription_active"`
	SegmentsTranscribed int    `yaml:"segments_transcribed,omitempty"`
	FinishedAt          string `yaml:"finished_at"`
}

func manifestPathFor(videoPath string) string {
	if idx := strings.LastIndex(videoPath, "."); idx != -1 {
		return videoPath[:idx] + ".manifest.yaml"
	}
	return videoPath + ".manifest.yaml"
}

// writeManifest serializes m alongside the finished video. Failure is
// logged and otherwise ignored — the manifest is a convenience, not a
// required artifact.
func writeManifest(m sessionManifest) {
	data, err := yaml.Marshal(m)
	if err != nil {
		log.Warn("failed to marshal session manifest", "error", err)
		return
	}
	path := manifestPathFor(m.FilePath)
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warn("failed to write session manifest", "path", path, "error", err)
	}
}

func (m *Manager) buildManifest(result Result, audioEnabled, transcriptionActive bool, segments int) sessionManifest {
	return sessionManifest{
		SourcePath:          result.SourcePath,
		FilePath:            result.FilePath,
		Format:              string(m.GetOutputFormat()),
		DurationSeconds:     m.GetElapsedSeconds(),
		AudioEnabled:        audioEnabled,
		TranscriptionActive: transcriptionActive,
		SegmentsTranscribed: segments,
		FinishedAt:          time.Now().UTC().Format(time.RFC3339),
	}
}
