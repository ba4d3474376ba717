// Package installer implements the connector library run by installer-host.
//
// One run installs one update package through the platform with security
// checks disabled for the duration of the call and writes the outcome as YAML.
package installer
