// Package signinapi declares the autofill.signin.v1.TokenService gRPC
// contract. Requests and responses are google.protobuf.Struct messages
// (see package convert for their fields), so the service needs no
// generated code.
package signinapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "autofill.signin.v1.TokenService"

// Full method names.
const (
	MethodEnroll      = "/" + ServiceName + "/Enroll"
	MethodIssueTokens = "/" + ServiceName + "/IssueTokens"
	MethodVerifyToken = "/" + ServiceName + "/VerifyToken"
)

// DeviceIDHeader is the metadata key a client uses to identify its device.
const DeviceIDHeader = "x-device-id"

// TokenServiceServer is the server API for TokenService.
type TokenServiceServer interface {
	Enroll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	IssueTokens(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	VerifyToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// RegisterTokenServiceServer registers srv on s.
func RegisterTokenServiceServer(s grpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type call func(srv TokenServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, fn call) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(TokenServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(TokenServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes TokenService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Enroll", Handler: unary(MethodEnroll, TokenServiceServer.Enroll)},
		{MethodName: "IssueTokens", Handler: unary(MethodIssueTokens, TokenServiceServer.IssueTokens)},
		{MethodName: "VerifyToken", Handler: unary(MethodVerifyToken, TokenServiceServer.VerifyToken)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "autofill/signin/v1/token_service.proto",
}

// TokenServiceClient is the client API for TokenService.
type TokenServiceClient interface {
	Enroll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	IssueTokens(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	VerifyToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type tokenServiceClient struct{ cc grpc.ClientConnInterface }

// NewTokenServiceClient wraps cc.
func NewTokenServiceClient(cc grpc.ClientConnInterface) TokenServiceClient {
	return &tokenServiceClient{cc: cc}
}

func (c *tokenServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tokenServiceClient) Enroll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodEnroll, in, opts)
}

func (c *tokenServiceClient) IssueTokens(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodIssueTokens, in, opts)
}

func (c *tokenServiceClient) VerifyToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodVerifyToken, in, opts)
}
