package platform

import (
	"context"

	"github.com/oshokin/package-installer/internal/domain/install"
)

// Platform is the host platform's update installer. Package parsing, diffing
// and post-install actions all happen behind it.
type Platform interface {
	// LoadMetadata reads the package description.
	LoadMetadata(ctx context.Context, packagePath string) (*install.Metadata, error)
	// InstallPackage applies the package and returns its history location and entries.
	InstallPackage(ctx context.Context, packagePath string, mode install.Mode, action install.Action) (*InstallResult, error)
	// ExecutePostInstallationInstructions runs the actions the package declares.
	// It may add, change or drop entries.
	ExecutePostInstallationInstructions(
		ctx context.Context,
		packagePath string,
		historyPath string,
		mode install.Mode,
		metadata *install.Metadata,
		entries []install.ContingencyEntry,
	) ([]install.ContingencyEntry, error)
	// SaveInstallationMessages persists entries into the history location.
	SaveInstallationMessages(ctx context.Context, entries []install.ContingencyEntry, historyPath string) error
}

// InstallResult is what the platform reports after applying a package.
type InstallResult struct {
	HistoryPath   string                     `yaml:"history_path"`
	HasPostAction bool                       `yaml:"has_post_action"`
	Entries       []install.ContingencyEntry `yaml:"entries"`
}
