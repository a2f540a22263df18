package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omnirec/omnirecd/internal/capture"
	"github.com/omnirec/omnirecd/internal/config"
	"github.com/omnirec/omnirecd/internal/dispatch"
	"github.com/omnirec/omnirecd/internal/encoder"
	"github.com/omnirec/omnirecd/internal/ipcauth"
	"github.com/omnirec/omnirecd/internal/ipcserver"
	"github.com/omnirec/omnirecd/internal/logging"
	"github.com/omnirec/omnirecd/internal/picker"
	"github.com/omnirec/omnirecd/internal/recording"
	"github.com/omnirec/omnirecd/internal/workerpool"
)

var (
	version = "0.1.0"
	cfgFile string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "omnirecd",
	Short: "OmniRec recording service",
	Long:  `OmniRecd - the background recording service behind the OmniRec desktop recorder`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recording service in the foreground",
	Run: func(cmd *cobra.Command, args []string) {
		runService()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("omnirecd v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config directory)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if isWindowsService() {
		if err := runAsService(startService); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serviceComponents holds the running components so service wrappers
// (Windows SCM) can shut them down gracefully.
type serviceComponents struct {
	server     *ipcserver.Server
	manager    *recording.Manager
	backend    capture.Backend
	thumbnails *workerpool.Pool
	cancel     context.CancelFunc
}

func initLogging(cfg *config.Config) {
	var output io.Writer = os.Stdout
	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v (logging to stdout)\n", cfg.LogFile, err)
		} else {
			output = logging.TeeWriter(os.Stdout, rw)
		}
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, output)
	log = logging.L("main")
}

// startService loads config, builds the recording stack, and starts
// serving IPC requests in the background. It returns once the listener
// is up; the caller is responsible for blocking until shutdown.
func startService() (*serviceComponents, error) {
	cfg, warnings, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	initLogging(cfg)
	for _, w := range warnings {
		log.Warn("config warning", "error", w)
	}

	format, ok := parseFormatOrDefault(cfg.DefaultFormat)
	if !ok {
		log.Warn("unknown default_format in config, falling back to mp4", "configured", cfg.DefaultFormat)
	}

	backend, err := capture.New()
	if err != nil {
		return nil, fmt.Errorf("init capture backend: %w", err)
	}

	manager := recording.Get(backend)
	if err := manager.SetOutputFormat(format); err != nil {
		log.Warn("failed to apply configured default format", "error", err)
	}
	manager.SetMinFreeDiskBytes(uint64(cfg.MinFreeDiskSpaceGB * 1024 * 1024 * 1024))

	endpoint := cfg.SocketPath
	if endpoint == "" {
		endpoint = ipcauth.DefaultEndpoint()
	}

	deps := dispatch.NewDeps(manager, backend)
	if cfg.MaxThumbnailWorkers > 0 && cfg.ThumbnailQueueSize > 0 {
		deps.Thumbnails = workerpool.New(cfg.MaxThumbnailWorkers, cfg.ThumbnailQueueSize)
	}
	deps.Picker = picker.New(filepath.Join(config.StateDir(), "approval_token"))

	server := ipcserver.New(endpoint, dispatch.NewHandler(deps))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := server.Serve(ctx); err != nil && err != ipcserver.ErrServerClosed {
			log.Error("ipc server stopped", "error", err)
		}
	}()

	log.Info("omnirecd started", "version", version, "endpoint", endpoint)

	return &serviceComponents{server: server, manager: manager, backend: backend, thumbnails: deps.Thumbnails, cancel: cancel}, nil
}

func shutdownService(comps *serviceComponents) {
	if comps == nil {
		return
	}
	comps.cancel()
	comps.server.Close()
	comps.manager.Shutdown(context.Background())
	comps.thumbnails.StopAccepting()
	comps.thumbnails.Drain(context.Background())
	comps.backend.Close()
	log.Info("omnirecd stopped")
}

func parseFormatOrDefault(s string) (recording.OutputFormat, bool) {
	if s == "" {
		return recording.FormatMp4, true
	}
	f, ok := encoder.ParseOutputFormat(s)
	if !ok {
		return recording.FormatMp4, false
	}
	return f, true
}

// runService is the foreground entrypoint used by `omnirecd serve`.
func runService() {
	comps, err := startService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownService(comps)
}
