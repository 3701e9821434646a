package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client sends utterances to a remote ingest server.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to endpoint and waits up to timeout for the channel to be ready.
func Dial(ctx context.Context, endpoint string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("ingest endpoint is empty")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial ingest grpc %q: %w", endpoint, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wait for ingest grpc readiness: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Say delivers one utterance.
func (c *Client) Say(ctx context.Context, text string) error {
	out := new(emptypb.Empty)
	if err := c.conn.Invoke(ctx, sayMethod, wrapperspb.String(text), out); err != nil {
		return fmt.Errorf("ingest say: %w", err)
	}
	return nil
}

// Health reports the serving status of the ingest service.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("ingest health: %w", err)
	}
	return resp.GetStatus(), nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// waitForReady blocks until the connection is Ready or ctx ends.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
