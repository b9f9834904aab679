// Package observability provides gRPC interceptors and the diagnostics HTTP server.
package observability

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"kisan-voice-client/internal/observability/metrics"
)

// UnaryClientInterceptor returns a gRPC unary client interceptor that logs
// each call and records its status code and latency under provider. STT
// errors are counted by the caller, not here.
func UnaryClientInterceptor(m *metrics.Metrics, provider string) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		start := time.Now()

		err := invoker(ctx, method, req, reply, cc, opts...)

		duration := time.Since(start)
		st, _ := status.FromError(err)

		m.RecordGRPCCall(provider, method, st.Code().String(), duration.Seconds())

		log.Debug().
			Str("method", method).
			Str("code", st.Code().String()).
			Dur("duration", duration).
			Msg("gRPC unary call")

		return err
	}
}
