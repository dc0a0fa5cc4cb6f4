package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/appzem/alarm-engine/internal/config"
	"github.com/appzem/alarm-engine/internal/logger"
	"github.com/appzem/alarm-engine/internal/service/engine"
	"github.com/appzem/alarm-engine/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// soundFile path override for the alert WAV file.
	soundFile string
	// logLevel for the process-wide logger.
	logLevel string

	// rootCmd represents the base command for running the alarm engine daemon.
	rootCmd = &cobra.Command{
		Use:   "alarm-engine [listen-address]",
		Short: "Run the alarm engine daemon and its HTTP API.",
		Long: `Starts the alarm engine that watches the clock, fires alarms on their
matching minute and gates dismissal behind a mission question.

The HTTP API serves alarm CRUD, the alert status and answer endpoints, plus
health and metrics. Listen address can be provided as argument to override
the configuration (e.g., :9090, 0.0.0.0:8090).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &engine.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				SoundFile:     soundFile,
			}

			return engine.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-engine CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&soundFile, "sound-file", "s", "", "path to the alert WAV file (overrides config)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
}
