// Package integration holds end-to-end tests that run package-installer
// against a real installer-host on a loopback port.
package integration
