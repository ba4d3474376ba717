package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "packageinstaller.v1.PackageInstaller"

	// InstallPackageFullMethodName is the full method name of InstallPackage.
	InstallPackageFullMethodName = "/" + ServiceName + "/InstallPackage"

	// ConnectorPathMetadataKey carries the URL path of the connector descriptor.
	ConnectorPathMetadataKey = "x-connector-path"
	// ActorHostMetadataKey carries the operator hostname.
	ActorHostMetadataKey = "x-actor-host"
	// ActorUserMetadataKey carries the operator username.
	ActorUserMetadataKey = "x-actor-user"
	// RequestIDMetadataKey correlates client and host logs.
	RequestIDMetadataKey = "x-request-id"
)

// PackageInstallerClient is the client API for the PackageInstaller service.
type PackageInstallerClient interface {
	// InstallPackage installs the update package at a path reachable by the host.
	InstallPackage(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type packageInstallerClient struct {
	cc grpc.ClientConnInterface
}

// NewPackageInstallerClient creates a client bound to the connection.
//
//nolint:ireturn,nolintlint // Mirrors the shape of protoc-gen-go-grpc output.
func NewPackageInstallerClient(cc grpc.ClientConnInterface) PackageInstallerClient {
	return &packageInstallerClient{cc}
}

func (c *packageInstallerClient) InstallPackage(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, InstallPackageFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// PackageInstallerServer is the server API for the PackageInstaller service.
type PackageInstallerServer interface {
	InstallPackage(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// UnimplementedPackageInstallerServer can be embedded for forward compatibility.
type UnimplementedPackageInstallerServer struct{}

// InstallPackage returns codes.Unimplemented.
func (UnimplementedPackageInstallerServer) InstallPackage(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method InstallPackage not implemented")
}

// RegisterPackageInstallerServer registers the service implementation on a gRPC server.
func RegisterPackageInstallerServer(s grpc.ServiceRegistrar, srv PackageInstallerServer) {
	s.RegisterService(&packageInstallerServiceDesc, srv)
}

func installPackageHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(PackageInstallerServer).InstallPackage(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: InstallPackageFullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PackageInstallerServer).InstallPackage(ctx, req.(*wrapperspb.StringValue))
	}

	return interceptor(ctx, in, info, handler)
}

//nolint:gochecknoglobals // Service descriptors are registered by address.
var packageInstallerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PackageInstallerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "InstallPackage",
			Handler:    installPackageHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "packageinstaller/v1/installer.proto",
}
