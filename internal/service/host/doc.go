// Package host runs installer-host, the gRPC server that executes staged connectors.
//
// Each call resolves the connector descriptor under the web root, checks the
// connector version and library checksum, runs the library for the requested
// package and records the result in the installation history.
package host
