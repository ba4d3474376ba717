package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/package-installer/internal/service/packager"
	"github.com/oshokin/package-installer/internal/version"
)

var (
	// options are bound to the command line flags.
	options packager.Options

	// rootCmd represents the base command for writing the connector descriptor.
	rootCmd = &cobra.Command{
		Use:   "connector-packager [source-folder]",
		Short: "Write the connector descriptor for a library build.",
		Long: `Computes the checksum of the installer-service build in the source folder
and writes Includes/<descriptor> next to it with the build version.
The source folder defaults to the folder of this executable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if len(args) > 0 {
				options.SourceDir = args[0]
			}

			return packager.Run(ctx, &options)
		},
	}
)

// Execute runs the connector-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&options.ConfigPath, "config", "c", "", "path to connector settings file")
	rootCmd.Flags().StringVar(&options.Version, "connector-version", "", "override the build version written into the descriptor")
}
