package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// Client is one open connection to the daemon. A connection carries any
// number of sequential request/response exchanges, which lets a recognizer
// stream utterances without redialing.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	encoder *json.Encoder
	timeout time.Duration
}

// Dial connects to the daemon socket at path. timeout bounds the dial and
// every later exchange.
func Dial(ctx context.Context, path string, timeout time.Duration) (*Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		encoder: json.NewEncoder(conn),
		timeout: timeout,
	}, nil
}

// Do sends one request and waits for its response.
func (c *Client) Do(req Request) (Response, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}

	if err := c.encoder.Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send performs a single request/response roundtrip on a fresh connection.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	client, err := Dial(ctx, path, timeout)
	if err != nil {
		return Response{}, err
	}
	defer client.Close()
	return client.Do(req)
}

// Probe checks whether a responsive owner is currently listening on path.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	_, err := Send(ctx, path, Request{Command: CommandStatus}, timeout)
	if err == nil {
		return true, nil
	}
	if isSocketMissing(err) || isConnectionRefused(err) {
		return false, nil
	}
	return false, fmt.Errorf("probe socket: %w", err)
}

func isSocketMissing(err error) bool {
	return err != nil && errors.Is(err, os.ErrNotExist)
}

func isConnectionRefused(err error) bool {
	return err != nil && errors.Is(err, syscall.ECONNREFUSED)
}
