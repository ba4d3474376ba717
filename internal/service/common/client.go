//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/package-installer/internal/config"
	"github.com/oshokin/package-installer/internal/domain/install"
	"github.com/oshokin/package-installer/internal/fault"
	"github.com/oshokin/package-installer/internal/logger"
	pb "github.com/oshokin/package-installer/internal/pb/v1"
)

// Client wraps the gRPC PackageInstaller client of one staged connector.
type Client struct {
	// conn is the underlying gRPC connection to the installer host.
	conn *grpc.ClientConn
	// api is the PackageInstaller client interface.
	api pb.PackageInstallerClient
	// connectorPath is the URL path of the connector descriptor.
	connectorPath string

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// tlsConfig overrides the TLS settings used for https addresses.
	tlsConfig *tls.Config
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithTLSConfig sets the TLS settings used for https addresses.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.tlsConfig = cfg
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errUnsupportedScheme is returned for addresses that are neither http nor https.
	errUnsupportedScheme = errors.New("unsupported address scheme")
	// errPackagePathRequired is returned when no package path is provided.
	errPackagePathRequired = errors.New("package path must be provided")
)

// Endpoint is a connector address split into its gRPC parts.
type Endpoint struct {
	// Target is the host:port to dial.
	Target string
	// Path is the URL path of the connector descriptor, without a leading slash.
	Path string
	// Secure reports whether TLS is used.
	Secure bool
}

// ParseAddress splits a connector address such as
// "http://cms.local/_DEV/PackageInstaller.yaml" into its gRPC parts.
// The port defaults to the scheme's port.
func ParseAddress(address string) (*Endpoint, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	var defaultPort string

	switch strings.ToLower(u.Scheme) {
	case "http":
		defaultPort = "80"
	case "https":
		defaultPort = "443"
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedScheme, u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: no host in %q", errAddressRequired, address)
	}

	port := u.Port()
	if port == "" {
		port = defaultPort
	}

	return &Endpoint{
		Target: net.JoinHostPort(u.Hostname(), port),
		Path:   strings.TrimPrefix(u.Path, "/"),
		Secure: defaultPort == "443",
	}, nil
}

// Dial prepares a gRPC connection to the connector at address.
// https addresses use TLS; http addresses use insecure transport credentials.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	endpoint, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	client := &Client{
		connectorPath: endpoint.Path,
		callTimeout:   config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	creds := insecure.NewCredentials()
	if endpoint.Secure {
		tlsConfig := client.tlsConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		creds = credentials.NewTLS(tlsConfig)
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(endpoint.Target, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("dial installer host: %w", err)
	}

	client.conn = conn
	client.api = pb.NewPackageInstallerClient(conn)

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// InstallPackage asks the connector to install the package at packagePath,
// a path valid on the web server. A remote failure is returned as *install.Fault.
func (c *Client) InstallPackage(ctx context.Context, packagePath string, actor *install.Actor) error {
	if packagePath == "" {
		return errPackagePathRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	requestID := uuid.NewString()
	pairs := []string{
		pb.ConnectorPathMetadataKey, c.connectorPath,
		pb.RequestIDMetadataKey, requestID,
	}

	if actor != nil {
		pairs = append(pairs,
			pb.ActorHostMetadataKey, actor.Hostname,
			pb.ActorUserMetadataKey, actor.Username,
		)
	}

	callCtx = metadata.AppendToOutgoingContext(callCtx, pairs...)

	logger.DebugKV(ctx, "Calling connector", "request_id", requestID, "connector", c.connectorPath, "timeout", c.callTimeout)

	if _, err := c.api.InstallPackage(callCtx, wrapperspb.String(packagePath)); err != nil {
		if f, ok := fault.FromStatus(err); ok {
			return f
		}

		return fmt.Errorf("install package: %w", err)
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
