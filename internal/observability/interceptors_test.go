package observability

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"kisan-voice-client/internal/observability/metrics"
)

func TestUnaryClientInterceptor_PassesThrough(t *testing.T) {
	icpt := UnaryClientInterceptor(metrics.DefaultMetrics, "google")

	called := false
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		called = true
		if method != "/google.cloud.speech.v1.Speech/Recognize" {
			t.Errorf("unexpected method %s", method)
		}
		return nil
	}

	if err := icpt(context.Background(), "/google.cloud.speech.v1.Speech/Recognize", nil, nil, nil, invoker); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected invoker to be called")
	}
}

func TestUnaryClientInterceptor_ReturnsError(t *testing.T) {
	icpt := UnaryClientInterceptor(metrics.DefaultMetrics, "google")
	want := status.Error(codes.DeadlineExceeded, "slow")

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return want
	}

	err := icpt(context.Background(), "/m", nil, nil, nil, invoker)
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
	if status.Code(err) != codes.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", status.Code(err))
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestUnaryClientInterceptor_CountsCallNotSTTError(t *testing.T) {
	m := metrics.DefaultMetrics
	const provider = "google-interceptor-test"
	icpt := UnaryClientInterceptor(m, provider)

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unavailable, "down")
	}
	_ = icpt(context.Background(), "/m", nil, nil, nil, invoker)

	if got := counterValue(t, m.GRPCCalls.WithLabelValues(provider, "/m", "Unavailable")); got != 1 {
		t.Errorf("expected 1 gRPC call recorded, got %v", got)
	}
	if got := counterValue(t, m.STTErrors.WithLabelValues(provider, "grpc_Unavailable")); got != 0 {
		t.Errorf("expected no STT error from interceptor, got %v", got)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	mux := http.NewServeMux()
	srv := NewServer("127.0.0.1:0", mux)
	if srv.Addr() != "127.0.0.1:0" {
		t.Errorf("expected addr '127.0.0.1:0', got %s", srv.Addr())
	}
	srv.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
