// Package main provides the entry point for the TTS API gateway.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/CarbonComputed/TTSAPIGateway/internal/cache"
	"github.com/CarbonComputed/TTSAPIGateway/internal/chunker"
	"github.com/CarbonComputed/TTSAPIGateway/internal/config"
	"github.com/CarbonComputed/TTSAPIGateway/internal/encoder"
	"github.com/CarbonComputed/TTSAPIGateway/internal/engine"
	"github.com/CarbonComputed/TTSAPIGateway/internal/pipeline"
	"github.com/CarbonComputed/TTSAPIGateway/internal/server"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	listenAddr string

	rootCmd = &cobra.Command{
		Use:          "ttsgw",
		Short:        "HTTP gateway that turns text into speech",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serve,
	}
)

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	logger := newLogger(cfg.LogLevel)

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close() //nolint:errcheck

	pipe := pipeline.New(
		chunker.New(chunker.BestAvailable()),
		eng,
		encoder.New(cfg.Defaults.Bitrate, logger),
		pipeline.Options{
			Assembly:     cfg.AssemblyConfig(),
			Concurrency:  cfg.Engine.Concurrency,
			ChunkTimeout: cfg.Engine.ChunkTimeout,
		},
		logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, pipe, eng, logger).Run(ctx)
}

// buildEngine constructs the configured synthesis backend and wraps it
// with the segment cache and the concurrency gate.
func buildEngine(cfg config.Config, logger *log.Logger) (engine.Engine, error) {
	var (
		eng engine.Engine
		err error
	)
	switch cfg.Engine.Type {
	case "mock":
		eng = engine.NewMock()
	case "exec":
		eng, err = engine.NewExec(cfg.Engine.Command, logger)
	case "http":
		eng = engine.NewHTTP(cfg.Engine.BaseURL, cfg.Engine.Timeout, logger)
	default:
		err = fmt.Errorf("unknown engine type %q", cfg.Engine.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s engine: %w", cfg.Engine.Type, err)
	}

	if cfg.Cache.Enabled {
		mem, err := cache.NewMemory(cfg.Cache.CapacityBytes)
		if err != nil {
			return nil, fmt.Errorf("build segment cache: %w", err)
		}
		eng = engine.NewCached(eng, mem, logger)
	}
	return engine.NewGate(eng, int64(cfg.Engine.Concurrency)), nil
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

func main() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: none, built-in defaults)")
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides config)")

	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
