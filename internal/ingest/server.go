// Package ingest accepts recognized utterances from remote recognizers over
// gRPC. The service is a single unary RPC, hark.v1.Ingest/Say, that takes the
// utterance as a google.protobuf.StringValue.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "hark.v1.Ingest"
	sayMethod   = "/" + ServiceName + "/Say"
)

// ErrRejected marks an utterance the sink refused, such as while paused.
var ErrRejected = errors.New("utterance rejected")

// Sink receives utterances accepted by the server.
type Sink interface {
	Say(ctx context.Context, text string) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, text string) error

func (f SinkFunc) Say(ctx context.Context, text string) error {
	return f(ctx, text)
}

type ingestServer interface {
	say(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ingestServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Say", Handler: sayHandler},
	},
	Metadata: "hark/v1/ingest.proto",
}

func sayHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ingestServer).say(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: sayMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ingestServer).say(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Server serves the ingest and health services.
type Server struct {
	sink   Sink
	logger *slog.Logger
	grpc   *grpc.Server
	health *health.Server
}

// NewServer registers the ingest and health services on a new gRPC server.
func NewServer(sink Sink, logger *slog.Logger) *Server {
	s := &Server{
		sink:   sink,
		logger: logger,
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
	}
	s.grpc.RegisterService(&serviceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) say(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	text := strings.TrimSpace(req.GetValue())
	if text == "" {
		return nil, status.Error(codes.InvalidArgument, "utterance is empty")
	}
	if err := s.sink.Say(ctx, text); err != nil {
		if errors.Is(err, ErrRejected) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	if s.logger != nil {
		s.logger.Debug("grpc utterance accepted", "text", text)
	}
	return &emptypb.Empty{}, nil
}

// Serve accepts connections on listener until ctx is canceled. Cancellation
// drains in-flight calls and returns nil.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpc.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve ingest grpc: %w", err)
		}
		return nil
	}
}

// Listen opens the TCP listener for addr and serves until ctx is canceled.
func Listen(ctx context.Context, addr string, sink Sink, logger *slog.Logger) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen ingest grpc %q: %w", addr, err)
	}
	if logger != nil {
		logger.Info("grpc ingest listening", "addr", listener.Addr().String())
	}
	return NewServer(sink, logger).Serve(ctx, listener)
}
