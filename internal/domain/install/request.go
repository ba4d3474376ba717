package install

import "errors"

// Request is one remote installation call as seen by the host.
type Request struct {
	// ID correlates client and host logs.
	ID string
	// PackagePath is the update package location on the web server.
	PackagePath string
	// ConnectorPath is the URL path of the staged connector descriptor.
	ConnectorPath string
	// Actor is the operator who requested the installation.
	Actor *Actor
}

// Host-side rejections that are not installation faults.
var (
	// ErrConnectorNotFound is returned when no connector is staged at the requested path.
	ErrConnectorNotFound = errors.New("connector not found")
	// ErrConnectorRejected is returned when a staged connector fails validation.
	ErrConnectorRejected = errors.New("connector rejected")
	// ErrBusy is returned while another installation is running.
	ErrBusy = errors.New("another installation is in progress")
)
