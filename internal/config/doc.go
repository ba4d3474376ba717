// Package config defines the YAML settings of the binaries and provides
// helpers to load, validate and save them.
//
// Config holds the connector layout used by package-installer; HostConfig holds
// the listen address, web root and platform tool settings used by installer-host
// and by the connector it runs.
package config
