package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/package-installer/internal/config"
	"github.com/oshokin/package-installer/internal/logger"
	"github.com/oshokin/package-installer/internal/service/installer"
	"github.com/oshokin/package-installer/internal/version"
)

var (
	// installOptions are bound to the install subcommand flags.
	installOptions installer.Options
	// logLevel is the minimum level written to stderr.
	logLevel string

	// rootCmd represents the connector library started by installer-host.
	rootCmd = &cobra.Command{
		Use:   "installer-service",
		Short: "Connector library that installs update packages through the platform.",
		Long: `installer-service is staged into the web root bin folder by package-installer
and started by installer-host for every installation call. It is not meant to be
run by hand, but doing so is harmless: it prints the outcome as YAML on stdout
and logs to stderr.`,
		SilenceUsage: true,
	}

	// installCmd installs one package.
	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Install one update package and print the outcome.",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				level = zapcore.InfoLevel
			}

			logger.SetLevel(level)
			logger.SetLogger(logger.NewWithSinks(nil, []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}))

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return installer.Run(ctx, &installOptions, cmd.OutOrStdout())
		},
	}
)

// Execute runs the installer-service CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	installCmd.Flags().StringVarP(&installOptions.ConfigPath, "config", "c", config.DefaultHostConfigFilename,
		"path to host settings")
	installCmd.Flags().StringVarP(&installOptions.PackagePath, "package", "p", "", "path to the update package")
	installCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	_ = installCmd.MarkFlagRequired("package")

	rootCmd.AddCommand(installCmd)
}
