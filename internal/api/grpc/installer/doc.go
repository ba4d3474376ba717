// Package installer implements the gRPC transport for installer-host.
//
// It reads the call metadata into a domain request, calls into a provided
// business-service interface and maps its errors onto status codes. Faults
// travel as status details so that clients can rebuild them.
package installer
