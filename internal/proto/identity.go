// Package proto defines the identity.v1.IdentityService gRPC contract.
//
// Every method exchanges google.protobuf.Struct payloads; the typed request
// and response shapes live in messages.go and are converted with Encode and
// Decode.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "identity.v1.IdentityService"

const (
	MethodRegisterIndividual  = "/" + ServiceName + "/RegisterIndividual"
	MethodRequestVerification = "/" + ServiceName + "/RequestVerification"
	MethodVerifyOTP           = "/" + ServiceName + "/VerifyOTP"
	MethodSignInWithProvider  = "/" + ServiceName + "/SignInWithProvider"
	MethodRefreshTokens       = "/" + ServiceName + "/RefreshTokens"
	MethodGetLinkedProviders  = "/" + ServiceName + "/GetLinkedProviders"
	MethodUnlinkProvider      = "/" + ServiceName + "/UnlinkProvider"
	MethodPing                = "/" + ServiceName + "/Ping"
)

// IdentityServiceServer is the server API for IdentityService.
type IdentityServiceServer interface {
	RegisterIndividual(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestVerification(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyOTP(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignInWithProvider(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshTokens(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLinkedProviders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UnlinkProvider(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedIdentityServiceServer can be embedded to get forward
// compatible implementations.
type UnimplementedIdentityServiceServer struct{}

func (UnimplementedIdentityServiceServer) RegisterIndividual(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterIndividual not implemented")
}
func (UnimplementedIdentityServiceServer) RequestVerification(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RequestVerification not implemented")
}
func (UnimplementedIdentityServiceServer) VerifyOTP(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyOTP not implemented")
}
func (UnimplementedIdentityServiceServer) SignInWithProvider(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SignInWithProvider not implemented")
}
func (UnimplementedIdentityServiceServer) RefreshTokens(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshTokens not implemented")
}
func (UnimplementedIdentityServiceServer) GetLinkedProviders(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLinkedProviders not implemented")
}
func (UnimplementedIdentityServiceServer) UnlinkProvider(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method UnlinkProvider not implemented")
}
func (UnimplementedIdentityServiceServer) Ping(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func RegisterIdentityServiceServer(s grpc.ServiceRegistrar, srv IdentityServiceServer) {
	s.RegisterService(&IdentityService_ServiceDesc, srv)
}

type unaryMethod func(IdentityServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IdentityServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IdentityServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// IdentityService_ServiceDesc is the grpc.ServiceDesc for IdentityService.
var IdentityService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterIndividual", Handler: unaryHandler(MethodRegisterIndividual, IdentityServiceServer.RegisterIndividual)},
		{MethodName: "RequestVerification", Handler: unaryHandler(MethodRequestVerification, IdentityServiceServer.RequestVerification)},
		{MethodName: "VerifyOTP", Handler: unaryHandler(MethodVerifyOTP, IdentityServiceServer.VerifyOTP)},
		{MethodName: "SignInWithProvider", Handler: unaryHandler(MethodSignInWithProvider, IdentityServiceServer.SignInWithProvider)},
		{MethodName: "RefreshTokens", Handler: unaryHandler(MethodRefreshTokens, IdentityServiceServer.RefreshTokens)},
		{MethodName: "GetLinkedProviders", Handler: unaryHandler(MethodGetLinkedProviders, IdentityServiceServer.GetLinkedProviders)},
		{MethodName: "UnlinkProvider", Handler: unaryHandler(MethodUnlinkProvider, IdentityServiceServer.UnlinkProvider)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, IdentityServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "identity/v1/identity.proto",
}

// IdentityServiceClient is the client API for IdentityService.
type IdentityServiceClient interface {
	RegisterIndividual(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RequestVerification(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	VerifyOTP(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SignInWithProvider(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RefreshTokens(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetLinkedProviders(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	UnlinkProvider(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type identityServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityServiceClient(cc grpc.ClientConnInterface) IdentityServiceClient {
	return &identityServiceClient{cc}
}

func (c *identityServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *identityServiceClient) RegisterIndividual(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRegisterIndividual, in, opts)
}

func (c *identityServiceClient) RequestVerification(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRequestVerification, in, opts)
}

func (c *identityServiceClient) VerifyOTP(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodVerifyOTP, in, opts)
}

func (c *identityServiceClient) SignInWithProvider(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSignInWithProvider, in, opts)
}

func (c *identityServiceClient) RefreshTokens(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRefreshTokens, in, opts)
}

func (c *identityServiceClient) GetLinkedProviders(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetLinkedProviders, in, opts)
}

func (c *identityServiceClient) UnlinkProvider(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodUnlinkProvider, in, opts)
}

func (c *identityServiceClient) Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodPing, in, opts)
}
