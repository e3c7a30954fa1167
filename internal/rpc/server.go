package rpc

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rshade/tripcarbon/internal/metrics"
)

// NewServer returns a gRPC server with the Calculator and health services
// registered. The health status of ServiceName starts as SERVING.
func NewServer(svc *Service, logger zerolog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	logger = logger.With().Str("component", "grpc").Logger()
	opts = append(opts, grpc.ChainUnaryInterceptor(
		loggingInterceptor(logger),
		recoveryInterceptor(logger),
	))

	srv := grpc.NewServer(opts...)
	RegisterCalculatorServer(srv, svc)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

// loggingInterceptor logs each call and records the gRPC metrics.
func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		// Pin the trace ID so the handler logs the same one.
		id := traceID(ctx)
		md, _ := metadata.FromIncomingContext(ctx)
		md = md.Copy()
		md.Set(TraceIDMetadataKey, id)
		ctx = metadata.NewIncomingContext(ctx, md)
		_ = grpc.SetHeader(ctx, metadata.Pairs(TraceIDMetadataKey, id))

		resp, err := handler(ctx, req)
		code := status.Code(err)
		metrics.RecordGRPCRequest(info.FullMethod, code.String())

		event := logger.Info()
		if code == codes.Internal || code == codes.Unknown {
			event = logger.Error().Err(err)
		}
		event.
			Str("trace_id", id).
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("grpc request")
		return resp, err
	}
}

// recoveryInterceptor converts handler panics into codes.Internal.
func recoveryInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().
					Str("method", info.FullMethod).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic serving rpc")
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
