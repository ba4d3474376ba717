// Package common holds the package-installer side of the connector call.
//
// Client performs the single InstallPackage call against a connector URL.
// DetectActor names the operator recorded in the host history.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
