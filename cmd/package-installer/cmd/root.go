package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/package-installer/internal/service/deploy"
	"github.com/oshokin/package-installer/internal/version"
)

// usageTemplate mirrors the classic help screen of the tool.
const usageTemplate = `Usage: {{.CommandPath}} [OPTIONS]
{{.Short}}
{{- if .HasExample}}

Example:
{{.Example}}
{{- end}}

Options:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{- if .HasAvailableSubCommands}}

Commands:{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}
{{- end}}
`

var (
	// options are bound to the command line flags.
	options deploy.Options

	// longFlags are the canonical long flag names; lookups ignore case.
	//nolint:gochecknoglobals // Fixed set of flag names.
	longFlags = []string{"packagePath", "sitecoreUrl", "sitecoreDeployFolder", "verbose", "config", "sourceFolder", "help"}

	// rootCmd represents the base command for installing an update package.
	rootCmd = &cobra.Command{
		Use:   "package-installer",
		Short: "Installs a sitecore package.",
		Long: `Installs a Sitecore update package on a remote web server.

The connector is copied into the web root through the deploy folder, asked to
install the package and removed again, whatever the outcome.
Exit codes: 100 invalid options, 101 connector deployment failed,
102 installation failed.`,
		Example:       `package-installer -v -sitecoreUrl "http://mysite.com/" -sitecoreDeployFolder "C:\inetpub\wwwroot\mysite\Website" -packagePath "C:\Package1.update"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return deploy.Run(ctx, &options, cmd.OutOrStdout())
		},
	}
)

// Execute runs the package-installer CLI and exits with its status code.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	args := normalizeArgs(os.Args[1:])
	if len(args) == 0 {
		_ = rootCmd.Help()

		return
	}

	rootCmd.SetArgs(args)

	if code := exitCode(rootCmd.Execute(), rootCmd.OutOrStdout()); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps an execution error to the process status. Errors that were
// not reported yet are printed as option errors.
func exitCode(err error, out io.Writer) int {
	if err == nil {
		return 0
	}

	var exitErr *deploy.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	deploy.PrintError(out, err.Error())

	return deploy.ExitUsage
}

// canonicalFlagName resolves long flag names regardless of case.
func canonicalFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	for _, flag := range longFlags {
		if strings.EqualFold(name, flag) {
			return pflag.NormalizedName(flag)
		}
	}

	return pflag.NormalizedName(name)
}

// normalizeArgs accepts single-dash long options ("-sitecoreUrl x") by
// rewriting them to their double-dash form.
func normalizeArgs(args []string) []string {
	result := make([]string, 0, len(args))

	for i, arg := range args {
		if arg == "--" {
			return append(result, args[i:]...)
		}

		if isSingleDashLongFlag(arg) {
			arg = "-" + arg
		}

		result = append(result, arg)
	}

	return result
}

// isSingleDashLongFlag reports whether arg is "-name" or "-name=value" for a known long flag.
func isSingleDashLongFlag(arg string) bool {
	if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
		return false
	}

	name, _, _ := strings.Cut(arg[1:], "=")
	if len(name) < 2 {
		return false
	}

	for _, flag := range longFlags {
		if strings.EqualFold(name, flag) {
			return true
		}
	}

	return false
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetHelpTemplate("{{.UsageString}}")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.Flags()
	flags.SetNormalizeFunc(canonicalFlagName)

	// Setup command flags with the names operators already use in build scripts.
	flags.StringVarP(&options.PackagePath, "packagePath", "p", "",
		"the path to the package; it must be located in a folder reachable by the web server")
	flags.StringVarP(&options.SitecoreURL, "sitecoreUrl", "u", "",
		"the url to the root of the Sitecore server")
	flags.StringVarP(&options.DeployFolder, "sitecoreDeployFolder", "f", "",
		"the UNC path to the Sitecore web root")
	flags.CountVarP(&options.Verbosity, "verbose", "v", "increase debug message verbosity")
	flags.StringVarP(&options.ConfigPath, "config", "c", "",
		"path to connector settings (default: package-installer-settings.yaml next to the executable)")
	flags.StringVar(&options.SourceDir, "sourceFolder", "",
		"folder holding the connector library and Includes (default: the executable folder)")
	_ = flags.MarkHidden("sourceFolder")
}
