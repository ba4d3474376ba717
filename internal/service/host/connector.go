package host

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/oshokin/package-installer/internal/connector"
	"github.com/oshokin/package-installer/internal/domain/install"
)

// stagedConnector is a connector that passed validation.
type stagedConnector struct {
	// descriptor is the decoded connector descriptor.
	descriptor *connector.Descriptor
	// libraryPath is the verified library to run.
	libraryPath string
}

// stripURLBasePath removes the site's application path from a connector path,
// e.g. "site/_DEV/PackageInstaller.yaml" with base "site" becomes "_DEV/PackageInstaller.yaml".
func stripURLBasePath(connectorPath, base string) string {
	connectorPath = strings.TrimPrefix(connectorPath, "/")
	if base == "" {
		return connectorPath
	}

	if rest, ok := strings.CutPrefix(connectorPath, base+"/"); ok {
		return rest
	}

	return connectorPath
}

// resolveConnector finds the connector staged at connectorPath under webRoot
// and checks it against the version constraint and its own checksum.
func resolveConnector(webRoot, connectorPath string, constraint *semver.Constraints) (*stagedConnector, error) {
	rel := filepath.FromSlash(connectorPath)
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: %q is outside of the web root", install.ErrConnectorNotFound, connectorPath)
	}

	descriptor, err := connector.ReadDescriptor(filepath.Join(webRoot, rel))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", install.ErrConnectorNotFound, connectorPath)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", install.ErrConnectorRejected, err)
	}

	if descriptor.Service != connector.ServiceName {
		return nil, fmt.Errorf("%w: unknown service %q", install.ErrConnectorRejected, descriptor.Service)
	}

	version, err := semver.NewVersion(descriptor.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: version %q: %w", install.ErrConnectorRejected, descriptor.Version, err)
	}

	if !constraint.Check(version) {
		return nil, fmt.Errorf(
			"%w: version %s does not satisfy %q",
			install.ErrConnectorRejected,
			version,
			constraint.String(),
		)
	}

	libraryPath := filepath.Join(webRoot, connector.BinFolder, descriptor.Library)

	err = descriptor.Verify(libraryPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: library %s is not staged", install.ErrConnectorNotFound, descriptor.Library)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", install.ErrConnectorRejected, err)
	}

	return &stagedConnector{
		descriptor:  descriptor,
		libraryPath: libraryPath,
	}, nil
}
