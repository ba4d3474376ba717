package installer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/package-installer/internal/domain/install"
	"github.com/oshokin/package-installer/internal/fault"
	pb "github.com/oshokin/package-installer/internal/pb/v1"
)

// fakeService implements the Service interface for unit testing the transport.
type fakeService struct {
	// err is returned from Install.
	err error
	// got stores the last request.
	got *install.Request
}

// Install records the request and returns the configured error.
func (f *fakeService) Install(_ context.Context, req *install.Request) error {
	f.got = req

	return f.err
}

// incoming builds a server-side context carrying call metadata.
func incoming() context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		pb.ConnectorPathMetadataKey, "_DEV/PackageInstaller.yaml",
		pb.ActorHostMetadataKey, "build-01",
		pb.ActorUserMetadataKey, "deploy",
		pb.RequestIDMetadataKey, "req-1",
	))
}

// TestServer_InstallPackage_Validation ensures invalid requests return InvalidArgument errors.
func TestServer_InstallPackage_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeService))

	_, err := s.InstallPackage(incoming(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.InstallPackage(incoming(), wrapperspb.String("  "))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.InstallPackage(context.Background(), wrapperspb.String("/p.update"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_InstallPackage_Request passes metadata through to the service.
func TestServer_InstallPackage_Request(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)

	_, err := NewServer(svc).InstallPackage(incoming(), wrapperspb.String("/p.update"))
	require.NoError(t, err)
	require.Equal(t, &install.Request{
		ID:            "req-1",
		PackagePath:   "/p.update",
		ConnectorPath: "_DEV/PackageInstaller.yaml",
		Actor:         &install.Actor{Hostname: "build-01", Username: "deploy"},
	}, svc.got)
}

// TestServer_InstallPackage_ErrorCodes maps service errors onto status codes.
func TestServer_InstallPackage_ErrorCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", fmt.Errorf("resolve: %w", install.ErrConnectorNotFound), codes.NotFound},
		{"rejected", fmt.Errorf("verify: %w", install.ErrConnectorRejected), codes.FailedPrecondition},
		{"busy", install.ErrBusy, codes.Aborted},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"fault", errors.New("disk full"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewServer(&fakeService{err: tt.err}).InstallPackage(incoming(), wrapperspb.String("/p.update"))
			require.Equal(t, tt.want, status.Code(err))
		})
	}
}

// TestServer_InstallPackage_Fault carries fault details to the client.
func TestServer_InstallPackage_Fault(t *testing.T) {
	t.Parallel()

	want := &install.Fault{
		Message: "install package: item is locked",
		Type:    "*fmt.wrapError",
		Stack:   "main.install()\n\tinstaller.go:10",
		Inner:   &install.Fault{Message: "item is locked", Type: "*errors.errorString"},
	}

	_, err := NewServer(&fakeService{err: want}).InstallPackage(incoming(), wrapperspb.String("/p.update"))
	require.Equal(t, codes.Internal, status.Code(err))

	got, ok := fault.FromStatus(err)
	require.True(t, ok)
	require.Equal(t, want.Message, got.Message)
	require.Equal(t, want.Type, got.Type)
	require.Equal(t, want.Stack, got.Stack)
	require.Equal(t, want.Inner.Message, got.Inner.Message)
}
