package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	// Connector descriptors carry it, so it must stay a valid semantic version.
	Version = "1.0.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Semantic parses Version.
func Semantic() (*semver.Version, error) {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("build version %q: %w", Version, err)
	}

	return v, nil
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
