package installer

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/package-installer/internal/domain/install"
	"github.com/oshokin/package-installer/internal/fault"
	pb "github.com/oshokin/package-installer/internal/pb/v1"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Install(ctx context.Context, req *install.Request) error
}

// Server implements the PackageInstaller gRPC API.
type Server struct {
	pb.UnimplementedPackageInstallerServer

	// service runs installations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// InstallPackage installs the package whose path is carried by the request.
func (s *Server) InstallPackage(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if in == nil || strings.TrimSpace(in.GetValue()) == "" {
		return nil, status.Error(codes.InvalidArgument, "package path is required")
	}

	req := requestFromMetadata(ctx)
	req.PackagePath = in.GetValue()

	if req.ConnectorPath == "" {
		return nil, status.Error(codes.InvalidArgument, "connector path is required")
	}

	if err := s.service.Install(ctx, req); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// requestFromMetadata reads the call metadata into a request.
func requestFromMetadata(ctx context.Context) *install.Request {
	md, _ := metadata.FromIncomingContext(ctx)

	req := &install.Request{
		ID:            first(md, pb.RequestIDMetadataKey),
		ConnectorPath: first(md, pb.ConnectorPathMetadataKey),
	}

	host, user := first(md, pb.ActorHostMetadataKey), first(md, pb.ActorUserMetadataKey)
	if host != "" || user != "" {
		req.Actor = &install.Actor{
			Hostname: host,
			Username: user,
		}
	}

	return req
}

// first returns the first value of key or an empty string.
func first(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}

	return ""
}

// toStatus maps service errors onto gRPC status errors.
func toStatus(err error) error {
	switch {
	case errors.Is(err, install.ErrConnectorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, install.ErrConnectorRejected):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, install.ErrBusy):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return fault.ToStatus(codes.Internal, fault.FromError(err))
	}
}
