// Package connector stages the installer connector into a remote web root.
//
// A connector is a library, staged into the bin folder, and a descriptor,
// staged into the configured connector folder, that tells the host which
// library to run and which checksum it must have. Deploy returns a Staged
// handle whose Remove must run on every exit path.
package connector
