package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/ward-monitor/internal/config"
	"github.com/oshokin/ward-monitor/internal/logger"
	"github.com/oshokin/ward-monitor/internal/service/monitor"
	"github.com/oshokin/ward-monitor/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string
	// allowMultiple skips the single-instance check.
	allowMultiple bool

	// rootCmd runs the ward controller.
	rootCmd = &cobra.Command{
		Use:   "ward-monitor",
		Short: "Monitor a patient room and control its actuators.",
		Long: `Runs the patient room controller.

Vital signs and ambient conditions are sampled every few seconds. A breach of
the heart rate, SpO2 or temperature limits latches a medical alarm, sounds the
buzzer and sends one alert to the configured chat. Chat commands open and close
the curtain and door, switch the lamp and silence the buzzer. Snapshots are
pushed to the cloud dashboard over HTTP or MQTT.

The loop runs until SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return monitor.Run(ctx, options())
		},
	}
)

// Execute runs the ward-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	defer logger.Sync()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.ErrorKV(context.Background(), "Command failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

// options collects the persistent flags shared by every subcommand.
func options() *monitor.Options {
	return &monitor.Options{
		ConfigPath:    configPath,
		LogLevel:      logLevel,
		AllowMultiple: allowMultiple,
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error")
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single-instance check")

	rootCmd.AddCommand(verifyBotCmd, sendCmd, updateCmd, manifestCmd)
}
