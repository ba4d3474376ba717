package installer

import (
	"context"
	"fmt"

	"github.com/oshokin/package-installer/internal/domain/install"
	"github.com/oshokin/package-installer/internal/fault"
	"github.com/oshokin/package-installer/internal/logger"
	"github.com/oshokin/package-installer/internal/platform"
)

// Installer applies update packages through the platform.
type Installer struct {
	// platform performs the actual package work.
	platform platform.Platform
	// security scopes the disabled security checks.
	security *platform.Switcher
	// saveMessages persists contingency entries into the history folder.
	saveMessages bool
}

// New creates an installer over the provided platform.
func New(p platform.Platform, security *platform.Switcher, saveMessages bool) *Installer {
	if security == nil {
		security = new(platform.Switcher)
	}

	return &Installer{
		platform:     p,
		security:     security,
		saveMessages: saveMessages,
	}
}

// Install applies the package at packagePath as an upgrade.
// Errors carry a stack trace; a panic is returned as *install.Fault.
func (i *Installer) Install(ctx context.Context, packagePath string) (outcome *install.Outcome, err error) {
	restore := i.security.Disable()
	defer restore()

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.ErrorKV(ctx, "Installation panicked", "package", packagePath, "panic", recovered)

			outcome = nil
			err = fault.FromPanic(recovered)
		}
	}()

	logger.InfoKV(ctx, "Installing update package", "package", packagePath)

	metadata, err := i.platform.LoadMetadata(ctx, packagePath)
	if err != nil {
		return nil, fault.Wrap(fmt.Errorf("load package metadata: %w", err))
	}

	logger.DebugKV(ctx, "Package metadata loaded", "name", metadata.PackageName, "version", metadata.Version)

	result, err := i.platform.InstallPackage(ctx, packagePath, install.ModeInstall, install.ActionUpgrade)
	if err != nil {
		return nil, fault.Wrap(fmt.Errorf("install package: %w", err))
	}

	entries, err := i.platform.ExecutePostInstallationInstructions(
		ctx,
		packagePath,
		result.HistoryPath,
		install.ModeInstall,
		metadata,
		result.Entries,
	)
	if err != nil {
		return nil, fault.Wrap(fmt.Errorf("execute post-installation instructions: %w", err))
	}

	if i.saveMessages {
		if err := i.platform.SaveInstallationMessages(ctx, entries, result.HistoryPath); err != nil {
			return nil, fault.Wrap(fmt.Errorf("save installation messages: %w", err))
		}
	}

	warnings, errs := install.CountEntries(entries)
	logger.InfoKV(ctx, "Update package installed",
		"package", packagePath,
		"history", result.HistoryPath,
		"entries", len(entries),
		"warnings", warnings,
		"errors", errs,
	)

	return &install.Outcome{
		Status:        install.StatusOK,
		HistoryPath:   result.HistoryPath,
		HasPostAction: result.HasPostAction,
		Entries:       entries,
	}, nil
}
