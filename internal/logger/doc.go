// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder using short wall-clock stamps,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration, parsing and verbosity mapping,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Every service accepts a context and extracts the logger from it, so progress
// lines of a single installation share the same name and fields.
package logger
