package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/package-installer/internal/config"
	"github.com/oshokin/package-installer/internal/service/host"
	"github.com/oshokin/package-installer/internal/version"
)

var (
	// configPath to the host settings YAML file.
	configPath string
	// historyLimit keeps only the most recent history records.
	historyLimit int

	// rootCmd represents the base command for running the gRPC host.
	rootCmd = &cobra.Command{
		Use:   "installer-host [listen-address]",
		Short: "Run the installer gRPC host that executes staged connectors.",
		Long: `Starts the gRPC host that package-installer calls after staging a connector.

Every call names the connector descriptor under the web root. The host checks
the connector version against connector_constraint and the library against its
checksum, runs it for the requested package and appends the result to the
installation history. Only one installation runs at a time.
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:8080).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &host.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			}

			return host.Run(ctx, options)
		},
	}

	// historyCmd prints the installation history.
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Print the installation history as a table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			options := &host.HistoryOptions{
				ConfigPath: configPath,
				Limit:      historyLimit,
			}

			return host.PrintHistory(cmd.Context(), options, cmd.OutOrStdout())
		},
	}
)

// Execute runs the installer-host CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultHostConfigFilename, "path to host settings file")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the most recent records")

	rootCmd.AddCommand(historyCmd)
}
