package grpc

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cgpa.v1.CGPACalculator"

// CGPAServer is the server API for the CGPACalculator service. Requests and
// responses are google.protobuf.Struct values carrying the HTTP JSON shapes.
type CGPAServer interface {
	Calculate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(CGPAServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpclib.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CGPAServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CGPAServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

var serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CGPAServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Calculate", Handler: unaryHandler("Calculate", CGPAServer.Calculate)},
		{MethodName: "RegisterUser", Handler: unaryHandler("RegisterUser", CGPAServer.RegisterUser)},
		{MethodName: "GetHistory", Handler: unaryHandler("GetHistory", CGPAServer.GetHistory)},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "cgpa/v1/cgpa.proto",
}

// RegisterCGPAServer registers srv on s.
func RegisterCGPAServer(s grpclib.ServiceRegistrar, srv CGPAServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Client calls the CGPACalculator service over an established connection.
type Client struct {
	cc grpclib.ClientConnInterface
}

func NewClient(cc grpclib.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpclib.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Calculate(ctx context.Context, in *structpb.Struct, opts ...grpclib.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Calculate", in, opts...)
}

func (c *Client) RegisterUser(ctx context.Context, in *structpb.Struct, opts ...grpclib.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RegisterUser", in, opts...)
}

func (c *Client) GetHistory(ctx context.Context, in *structpb.Struct, opts ...grpclib.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetHistory", in, opts...)
}
