package packager

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/oshokin/package-installer/internal/config"
	"github.com/oshokin/package-installer/internal/connector"
	"github.com/oshokin/package-installer/internal/logger"
	"github.com/oshokin/package-installer/internal/version"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to connector settings.
	ConfigPath string
	// SourceDir is the folder holding the library build; defaults to the executable folder.
	SourceDir string
	// Version overrides the build version written into the descriptor.
	Version string
}

// errLibraryMissing is returned when the library build is not in the source folder.
var errLibraryMissing = errors.New("connector library not found")

// packager prepares the connector descriptor for distribution.
// Callers use Run, which resolves settings first.
type packager struct {
	// layout names the connector files.
	layout connector.Layout
	// sourceDir holds the library and receives the descriptor.
	sourceDir string
	// version is written into the descriptor.
	version *semver.Version
	// now returns the descriptor creation time.
	now func() time.Time
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "connector-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	pkg, err := newPackager(opts, cfg)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	descriptor, err := pkg.Run(ctx)
	if err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	pkg.printNextSteps(ctx, descriptor)

	return nil
}

// newPackager resolves the source folder and build version.
func newPackager(opts *Options, cfg *config.Config) (*packager, error) {
	sourceDir := opts.SourceDir
	if sourceDir == "" {
		dir, err := config.ExecutableDir()
		if err != nil {
			return nil, err
		}

		sourceDir = dir
	}

	var (
		buildVersion *semver.Version
		err          error
	)

	if opts.Version != "" {
		buildVersion, err = semver.NewVersion(opts.Version)
	} else {
		buildVersion, err = version.Semantic()
	}

	if err != nil {
		return nil, fmt.Errorf("connector version: %w", err)
	}

	return &packager{
		layout:    connector.LayoutFromConfig(cfg),
		sourceDir: sourceDir,
		version:   buildVersion,
		now:       time.Now,
	}, nil
}

// Run computes the library checksum and writes the descriptor.
func (p *packager) Run(ctx context.Context) (*connector.Descriptor, error) {
	library := p.layout.LibrarySource(p.sourceDir)

	if _, err := os.Stat(library); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", errLibraryMissing, library)
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", library, err)
	}

	logger.InfoKV(ctx, "Calculating library checksum", "library", library)

	checksum, err := connector.Checksum(library)
	if err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	descriptor := &connector.Descriptor{
		Service:   connector.ServiceName,
		Library:   p.layout.LibraryName,
		Checksum:  base64.StdEncoding.EncodeToString(checksum),
		Version:   p.version.String(),
		CreatedAt: p.now().UTC().Truncate(time.Second),
	}

	target := p.layout.DescriptorSource(p.sourceDir)

	logger.InfoKV(ctx, "Saving connector descriptor", "path", target, "version", descriptor.Version)

	if err := connector.WriteDescriptor(target, descriptor); err != nil {
		return nil, fmt.Errorf("write descriptor: %w", err)
	}

	return descriptor, nil
}

// printNextSteps logs human-readable guidance for next actions with the created files.
func (p *packager) printNextSteps(ctx context.Context, descriptor *connector.Descriptor) {
	var builder strings.Builder

	builder.WriteString("Ship the following files next to package-installer:\n")
	builder.WriteString(p.layout.LibrarySource(p.sourceDir))
	builder.WriteString(",\n")
	builder.WriteString(p.layout.DescriptorSource(p.sourceDir))
	builder.WriteString("\nThe installer host must accept connector version ")
	builder.WriteString(descriptor.Version)
	builder.WriteString(" in its connector_constraint setting.")

	logger.Info(ctx, builder.String())
}
