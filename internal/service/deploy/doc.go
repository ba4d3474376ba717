// Package deploy runs package-installer: it stages the connector into the
// remote web root, asks it to install one update package and removes it again.
//
// Failures are returned as *ExitError carrying the process exit code.
package deploy
