package config

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidateTieredUnknownFormatIsFatal(t *testing.T) {
	cfg := Default()
	cfg.DefaultFormat = "xyz"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("unknown output format should be fatal")
	}
	found := false
	for _, err := range result.Fatals {
		if strings.Contains(err.Error(), "not a recognized output format") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected format validation error in fatals")
	}
}

func TestValidateTieredUnknownLogLevelIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("unknown log level should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for unknown log level")
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want clamped to info", cfg.LogLevel)
	}
}

func TestValidateTieredInvalidLogFormatIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("invalid log format should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for invalid log format")
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("LogFormat = %q, want clamped to text", cfg.LogFormat)
	}
}

func TestValidateTieredThumbnailWorkerClamping(t *testing.T) {
	cfg := Default()
	cfg.MaxThumbnailWorkers = 0
	cfg.ThumbnailQueueSize = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped concurrency should be warning: %v", result.Fatals)
	}
	if cfg.MaxThumbnailWorkers != 1 {
		t.Fatalf("MaxThumbnailWorkers = %d, want 1", cfg.MaxThumbnailWorkers)
	}
	if cfg.ThumbnailQueueSize != 1 {
		t.Fatalf("ThumbnailQueueSize = %d, want 1", cfg.ThumbnailQueueSize)
	}
}

func TestValidateTieredHighThumbnailWorkerClamping(t *testing.T) {
	cfg := Default()
	cfg.MaxThumbnailWorkers = 9999
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped worker count should be warning: %v", result.Fatals)
	}
	if cfg.MaxThumbnailWorkers != 32 {
		t.Fatalf("MaxThumbnailWorkers = %d, want 32", cfg.MaxThumbnailWorkers)
	}
}

func TestValidateTieredEmptyOutputDirIsFatal(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = ""
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("empty output_dir should be fatal")
	}
}

func TestValidateTieredNegativeDiskSpaceIsWarning(t *testing.T) {
	cfg := Default()
	cfg.MinFreeDiskSpaceGB = -5
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("negative disk space should be warning: %v", result.Fatals)
	}
	if cfg.MinFreeDiskSpaceGB != 0 {
		t.Fatalf("MinFreeDiskSpaceGB = %f, want clamped to 0", cfg.MinFreeDiskSpaceGB)
	}
}

func TestHasFatals(t *testing.T) {
	r := ValidationResult{}
	if r.HasFatals() {
		t.Fatal("HasFatals() on empty result should be false")
	}
	r.Fatals = append(r.Fatals, fmt.Errorf("test error"))
	if !r.HasFatals() {
		t.Fatal("HasFatals() should be true with a fatal error")
	}
}

func TestAllErrorsReturnsBoth(t *testing.T) {
	cfg := Default()
	cfg.DefaultFormat = "xyz"  // fatal
	cfg.LogFormat = "xml"      // warning
	result := cfg.ValidateTiered()

	all := result.AllErrors()
	if len(all) < 2 {
		t.Fatalf("AllErrors() returned %d errors, expected at least 2 (fatals + warnings)", len(all))
	}
}

func TestValidConfigHasNoErrors(t *testing.T) {
	cfg := Default()
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("default config has fatals: %v", result.Fatals)
	}
	if len(result.Warnings) > 0 {
		t.Fatalf("default config has warnings: %v", result.Warnings)
	}
}
