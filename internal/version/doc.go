// Package version exposes build metadata for the project.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Version doubles as the connector version written into
// descriptors and checked by installer-host.
package version
