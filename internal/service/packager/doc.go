// Package packager writes the connector descriptor for a library build.
//
// The descriptor carries the library checksum and the build version so that
// installer-host can refuse connectors that were changed or are too old.
package packager
