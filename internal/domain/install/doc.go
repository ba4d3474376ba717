// Package install contains the core domain types of a package installation.
//
// It defines the Actor that requested an installation, the contingency entries
// produced by the platform, the Outcome a connector reports back to the host,
// the Fault carried on failure and the Record kept in the host history.
package install
