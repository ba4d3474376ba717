// Package history persists installation records of installer-host as a YAML file.
package history
