// Package rpc serves the trip calculator over gRPC. Messages are
// google.protobuf.Struct values, so no generated code is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tripcarbon.v1.Calculator"

// Full method names.
const (
	CalculateMethod  = "/" + ServiceName + "/Calculate"
	ListCitiesMethod = "/" + ServiceName + "/ListCities"
)

// CalculatorServer is the server API for the Calculator service.
type CalculatorServer interface {
	// Calculate resolves the distance when none is given, then estimates
	// and prices the trip.
	Calculate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListCities returns the states, or the cities of the "state" field.
	ListCities(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Calculator service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Calculate", Handler: unaryHandler(CalculateMethod, CalculatorServer.Calculate)},
		{MethodName: "ListCities", Handler: unaryHandler(ListCitiesMethod, CalculatorServer.ListCities)},
	},
	Metadata: "tripcarbon/v1/calculator.proto",
}

// RegisterCalculatorServer registers srv on s.
func RegisterCalculatorServer(s grpc.ServiceRegistrar, srv CalculatorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type structMethod func(CalculatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CalculatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CalculatorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls the Calculator service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Calculate invokes Calculate.
func (c *Client) Calculate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CalculateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCities invokes ListCities.
func (c *Client) ListCities(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListCitiesMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
