package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/package-installer/internal/config"
	"github.com/oshokin/package-installer/internal/connector"
	"github.com/oshokin/package-installer/internal/domain/install"
	"github.com/oshokin/package-installer/internal/fault"
	"github.com/oshokin/package-installer/internal/logger"
	"github.com/oshokin/package-installer/internal/service/common"
)

// Options are the package-installer inputs.
type Options struct {
	// PackagePath is the update package path as seen by the web server.
	PackagePath string
	// SitecoreURL is the base address of the web server.
	SitecoreURL string
	// DeployFolder is the web root as reachable from this machine.
	DeployFolder string
	// Verbosity enables progress lines when positive.
	Verbosity int
	// ConfigPath is an optional path to connector settings.
	ConfigPath string
	// SourceDir holds the connector sources; defaults to the executable folder.
	SourceDir string
}

// Run installs the update package and writes operator output to out.
// Every failure is returned as *ExitError after it has been printed.
func Run(ctx context.Context, opts *Options, out io.Writer) error {
	ctx = logger.ToContext(ctx, logger.NewOperator(logger.LevelForVerbosity(opts.Verbosity), out))

	if err := validate(opts, out); err != nil {
		return err
	}

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		PrintError(out, err.Error())

		return &ExitError{Code: ExitUsage, Err: err}
	}

	sourceDir := opts.SourceDir
	if sourceDir == "" {
		if sourceDir, err = config.ExecutableDir(); err != nil {
			PrintError(out, err.Error())

			return &ExitError{Code: ExitDeployFailed, Err: err}
		}
	}

	logger.Debugf(ctx, "Initializing update package installation: %s", opts.PackagePath)

	deployFolder := connector.NormalizeFolder(opts.DeployFolder)
	layout := connector.LayoutFromConfig(settings)

	staged, err := connector.Deploy(ctx, sourceDir, deployFolder, layout)

	defer func() {
		if removeErr := staged.Remove(ctx); removeErr != nil {
			logger.Warnf(ctx, "Failed to remove Sitecore connector: %v", removeErr)
		}
	}()

	if err != nil {
		PrintError(out, err.Error())
		_, _ = fmt.Fprintln(out, "Sitecore connector deployment failed.")

		return &ExitError{Code: ExitDeployFailed, Err: err}
	}

	if err = installPackage(ctx, settings, opts, connector.Address(opts.SitecoreURL, layout)); err != nil {
		f := fault.FromError(err)
		fault.Write(out, f)

		return &ExitError{Code: ExitInstallFault, Err: f}
	}

	_, _ = fmt.Fprintln(out, "Update package installed successfully.")

	return nil
}

// validate reports every missing option and checks the deploy folder.
func validate(opts *Options, out io.Writer) error {
	missing := false

	for _, option := range []struct {
		value   string
		message string
	}{
		{opts.PackagePath, "Package Path is required."},
		{opts.SitecoreURL, "Sitecore Web URL is required."},
		{opts.DeployFolder, "Sitecore Deploy folder is required."},
	} {
		if option.value == "" {
			PrintError(out, option.message)

			missing = true
		}
	}

	if missing {
		return &ExitError{Code: ExitUsage, Err: errMissingOptions}
	}

	info, err := os.Stat(opts.DeployFolder)
	if err != nil || !info.IsDir() {
		PrintError(out, fmt.Sprintf("Sitecore Deploy Folder %s not found.", opts.DeployFolder))

		return &ExitError{Code: ExitUsage, Err: fmt.Errorf("%w: %s", errDeployFolderNotFound, opts.DeployFolder)}
	}

	return nil
}

// installPackage calls the staged connector.
func installPackage(ctx context.Context, settings *config.Config, opts *Options, address string) error {
	actor, err := common.DetectActor()
	if err != nil {
		logger.Warnf(ctx, "Unable to detect actor: %v", err)
	}

	client, err := common.Dial(ctx, address, common.WithCallTimeout(settings.Timeout))
	if err != nil {
		return fault.Wrap(err)
	}

	// Best-effort cleanup.
	defer func() {
		_ = client.Close()
	}()

	logger.Debug(ctx, "Initializing package installation ..")

	if err = client.InstallPackage(ctx, opts.PackagePath, actor); err != nil {
		var f *install.Fault
		if errors.As(err, &f) {
			return f
		}

		return fault.Wrap(err)
	}

	return nil
}
