// Package v1 holds the gRPC service description of the package installer API.
//
// The service uses only well-known protobuf types, so no generated message
// code is needed: InstallPackage takes a google.protobuf.StringValue with the
// package path and returns google.protobuf.Empty.
package v1
