package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all tunables for the recording service. Fields map to
// OMNIREC_-prefixed environment variables and to an omnirecd.yaml file.
type Config struct {
	// IPC transport
	SocketPath string `mapstructure:"socket_path"`
	PipeName   string `mapstructure:"pipe_name"`

	// Output
	OutputDir          string  `mapstructure:"output_dir"`
	DefaultFormat      string  `mapstructure:"default_format"`
	MinFreeDiskSpaceGB float64 `mapstructure:"min_free_disk_space_gb"`

	// Transcription
	WhisperModelPath string `mapstructure:"whisper_model_path"`
	WhisperBinary    string `mapstructure:"whisper_binary"`
	FFmpegBinary     string `mapstructure:"ffmpeg_binary"`
	EncoderBinary    string `mapstructure:"encoder_binary"`

	// Logging
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	// Concurrency limits
	MaxThumbnailWorkers int `mapstructure:"max_thumbnail_workers"`
	ThumbnailQueueSize  int `mapstructure:"thumbnail_queue_size"`

	// Linux desktop detection passthrough
	FallbackPicker string `mapstructure:"fallback_picker"`
}

// Default returns a Config populated with production-sane defaults.
func Default() *Config {
	return &Config{
		SocketPath:          defaultSocketPath(),
		PipeName:            `\\.\pipe\omnirec-service`,
		OutputDir:           defaultOutputDir(),
		DefaultFormat:       "mp4",
		MinFreeDiskSpaceGB:  0.5,
		WhisperBinary:       "whisper",
		FFmpegBinary:        "ffmpeg",
		EncoderBinary:       "omnirec-encoder",
		LogLevel:            "info",
		LogFormat:           "text",
		LogMaxSizeMB:        50,
		LogMaxBackups:       3,
		MaxThumbnailWorkers: 4,
		ThumbnailQueueSize:  32,
	}
}

// Load reads configuration from cfgFile (or the platform default search
// path), overlays OMNIREC_-prefixed environment variables, and validates
// the result. Fatal validation errors block startup; warnings are
// returned alongside a usable Config.
func Load(cfgFile string) (*Config, []error, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("omnirecd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("OMNIREC")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("config: read: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	result := cfg.ValidateTiered()
	if result.HasFatals() {
		return nil, result.Warnings, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}

	return cfg, result.Warnings, nil
}

// Save persists cfg to the platform default config path, owner-only.
func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("socket_path", cfg.SocketPath)
	viper.Set("pipe_name", cfg.PipeName)
	viper.Set("output_dir", cfg.OutputDir)
	viper.Set("default_format", cfg.DefaultFormat)
	viper.Set("whisper_model_path", cfg.WhisperModelPath)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		if dir := filepath.Dir(cfgPath); dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "omnirecd.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	return os.Chmod(cfgPath, 0600)
}

// StateDir returns the platform-appropriate directory for small runtime
// state files the service keeps outside the config file itself, such as
// the Linux portal picker's approval token.
func StateDir() string {
	return configDir()
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "omnirec", "service.sock")
	}
	return "/tmp/omnirec/service.sock"
}

func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	videos := filepath.Join(home, "Videos")
	if info, err := os.Stat(videos); err == nil && info.IsDir() {
		return videos
	}
	return home
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("AppData"), "OmniRec")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "OmniRec")
	default:
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			return filepath.Join(dir, "omnirec")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "omnirec")
	}
}
