package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validFormats = map[string]bool{
	"mp4": true, "webm": true, "mkv": true, "mov": true, "gif": true, "apng": true, "webp": true,
}

// ValidationResult splits validation findings into fatals (block startup)
// and warnings (logged, config still usable after safe clamping).
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r *ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// AllErrors returns fatals followed by warnings, for callers that just
// want to log everything found.
func (r *ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

func (r *ValidationResult) fatal(err error) {
	r.Fatals = append(r.Fatals, err)
}

func (r *ValidationResult) warn(err error) {
	r.Warnings = append(r.Warnings, err)
}

// ValidateTiered checks the config for invalid values, clamping dangerous
// zero-or-negative values to safe defaults so the service can still start.
func (c *Config) ValidateTiered() *ValidationResult {
	r := &ValidationResult{}

	if c.DefaultFormat != "" && !validFormats[strings.ToLower(c.DefaultFormat)] {
		r.fatal(fmt.Errorf("default_format %q is not a recognized output format", c.DefaultFormat))
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.warn(fmt.Errorf("log_level %q is not valid (use debug, info, warn, error), defaulting to info", c.LogLevel))
		c.LogLevel = "info"
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.warn(fmt.Errorf("log_format %q is not valid (use text or json), defaulting to text", c.LogFormat))
		c.LogFormat = "text"
	}

	if c.MinFreeDiskSpaceGB < 0 {
		r.warn(fmt.Errorf("min_free_disk_space_gb %f is negative, clamping to 0", c.MinFreeDiskSpaceGB))
		c.MinFreeDiskSpaceGB = 0
	}

	if c.MaxThumbnailWorkers < 1 {
		r.warn(fmt.Errorf("max_thumbnail_workers %d is below minimum 1, clamping", c.MaxThumbnailWorkers))
		c.MaxThumbnailWorkers = 1
	} else if c.MaxThumbnailWorkers > 32 {
		r.warn(fmt.Errorf("max_thumbnail_workers %d exceeds maximum 32, clamping", c.MaxThumbnailWorkers))
		c.MaxThumbnailWorkers = 32
	}

	if c.ThumbnailQueueSize < 1 {
		r.warn(fmt.Errorf("thumbnail_queue_size %d is below minimum 1, clamping", c.ThumbnailQueueSize))
		c.ThumbnailQueueSize = 1
	}

	if c.OutputDir == "" {
		r.fatal(fmt.Errorf("output_dir must not be empty"))
	}

	return r
}
