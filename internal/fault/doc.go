// Package fault carries installation failures across the process and network
// boundary between the connector, the host and package-installer.
//
// Errors are captured with their Go type and stack trace (go-errors), encoded as
// gRPC status details (ErrorInfo + DebugInfo) and decoded back on the client,
// keeping one level of inner cause.
package fault
