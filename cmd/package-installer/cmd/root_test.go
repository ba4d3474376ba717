package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/package-installer/internal/service/deploy"
)

// TestNormalizeArgs rewrites single-dash long flags only.
func TestNormalizeArgs(t *testing.T) {
	t.Parallel()

	got := normalizeArgs([]string{
		"-v", "-vv",
		"-sitecoreUrl", "http://mysite.com/",
		"-SITECOREDEPLOYFOLDER=C:\\site",
		"--packagePath", "C:\\Package1.update",
		"-p", "x",
		"-unknownFlag",
		"--", "-sitecoreUrl",
	})

	require.Equal(t, []string{
		"-v", "-vv",
		"--sitecoreUrl", "http://mysite.com/",
		"--SITECOREDEPLOYFOLDER=C:\\site",
		"--packagePath", "C:\\Package1.update",
		"-p", "x",
		"-unknownFlag",
		"--", "-sitecoreUrl",
	}, got)
}

// TestCanonicalFlagName ignores case of long names.
func TestCanonicalFlagName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "sitecoreUrl", string(canonicalFlagName(nil, "SitecoreURL")))
	require.Equal(t, "packagePath", string(canonicalFlagName(nil, "packagepath")))
	require.Equal(t, "other", string(canonicalFlagName(nil, "other")))
}

// TestExitCode maps reported and unreported errors.
func TestExitCode(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	require.Zero(t, exitCode(nil, &out))
	require.Equal(t, deploy.ExitDeployFailed,
		exitCode(&deploy.ExitError{Code: deploy.ExitDeployFailed, Err: errors.New("copy")}, &out))
	require.Empty(t, out.String())

	require.Equal(t, deploy.ExitUsage, exitCode(errors.New("unknown shorthand flag: 'x' in -x"), &out))
	require.Contains(t, out.String(), "Error: Unknown shorthand flag")
	require.Contains(t, out.String(), "Try `package-installer --help' for more information.")
}

// TestRootFlags parses mixed-case and repeated flags.
func TestRootFlags(t *testing.T) { //nolint:paralleltest // Parses into the shared root command.
	args := normalizeArgs([]string{"-PackagePath", "C:\\Package1.update", "-u", "http://mysite.com", "-vvv"})
	require.NoError(t, rootCmd.ParseFlags(args))

	require.Equal(t, "C:\\Package1.update", options.PackagePath)
	require.Equal(t, "http://mysite.com", options.SitecoreURL)
	require.Equal(t, 3, options.Verbosity)
}

// TestUsage prints the example invocation.
func TestUsage(t *testing.T) { //nolint:paralleltest // Renders the shared root command.
	usage := rootCmd.UsageString()

	require.Contains(t, usage, "Usage: package-installer [OPTIONS]")
	require.Contains(t, usage, "Example:\npackage-installer -v -sitecoreUrl")
	require.Contains(t, usage, "--sitecoreDeployFolder")
	require.NotContains(t, usage, "sourceFolder")
}
