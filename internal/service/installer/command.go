package installer

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/package-installer/internal/config"
	"github.com/oshokin/package-installer/internal/domain/install"
	"github.com/oshokin/package-installer/internal/fault"
	"github.com/oshokin/package-installer/internal/logger"
	"github.com/oshokin/package-installer/internal/platform"
)

// Options controls one installer-service run.
type Options struct {
	// ConfigPath specifies the host settings the platform access is read from.
	ConfigPath string
	// PackagePath is the update package location on the web server.
	PackagePath string
}

// newPlatform builds the platform for the host settings. Tests replace it.
var newPlatform = func(cfg *config.HostConfig, security *platform.Switcher) platform.Platform { //nolint:gochecknoglobals // Test seam.
	return platform.NewCommandPlatform(cfg.Platform, security)
}

// Run installs the package and writes the outcome YAML to out.
// Installation failures are reported inside the outcome; the returned error
// is set only when the outcome itself cannot be written.
func Run(ctx context.Context, opts *Options, out io.Writer) error {
	ctx = logger.WithName(ctx, "root")

	outcome := execute(ctx, opts)

	data, err := yaml.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	return nil
}

// execute turns every failure into a fault outcome.
func execute(ctx context.Context, opts *Options) *install.Outcome {
	if opts.PackagePath == "" {
		return faultOutcome(fault.Wrap(errPackagePathRequired))
	}

	settings, err := config.LoadHost(opts.ConfigPath)
	if err != nil {
		return faultOutcome(fault.Wrap(fmt.Errorf("load host settings: %w", err)))
	}

	security := new(platform.Switcher)
	svc := New(newPlatform(settings, security), security, settings.Platform.SaveInstallationMessages)

	outcome, err := svc.Install(ctx, opts.PackagePath)
	if err != nil {
		logger.ErrorKV(ctx, "Installation failed", "package", opts.PackagePath, "error", err)

		return faultOutcome(err)
	}

	return outcome
}

// faultOutcome wraps err into an outcome.
func faultOutcome(err error) *install.Outcome {
	return &install.Outcome{
		Status: install.StatusFault,
		Fault:  fault.FromError(err),
	}
}
