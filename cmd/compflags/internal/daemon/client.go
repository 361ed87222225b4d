package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// dialTimeout bounds how long Connect waits for the socket.
const dialTimeout = 5 * time.Second

// ErrNotConnected is returned when trying to use a disconnected client.
var ErrNotConnected = errors.New("not connected to daemon")

// ErrDaemonNotRunning is returned when the daemon is not running.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Client is a client for connecting to the daemon.
type Client struct {
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
	mu      sync.Mutex
	nextID  atomic.Int64
}

// Connect connects to the daemon at the given socket path.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		if isConnectionRefused(err) {
			return nil, ErrDaemonNotRunning
		}
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}

	return &Client{
		conn:    conn,
		encoder: json.NewEncoder(conn),
		decoder: json.NewDecoder(bufio.NewReader(conn)),
	}, nil
}

// ConnectDefault connects to the daemon at the default socket path.
func ConnectDefault() (*Client, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	return Connect(paths.Socket)
}

// isConnectionRefused reports whether a dial failed because nothing is
// listening (ECONNREFUSED) or the socket file is missing (ENOENT).
func isConnectionRefused(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Close closes the connection to the daemon.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// call sends a request and waits for its response. The context deadline, if
// any, bounds the whole round trip.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req, err := Call(c.nextID.Add(1), method, params)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := c.decoder.Decode(&resp); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrNotConnected
		}
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.Error != nil {
		return resp.Error
	}

	if result != nil && resp.Result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}

	return nil
}

// Ping sends a ping request to the daemon.
func (c *Client) Ping(ctx context.Context) (*PingResult, error) {
	var result PingResult
	if err := c.call(ctx, MethodPing, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown(ctx context.Context) (*ShutdownResult, error) {
	var result ShutdownResult
	if err := c.call(ctx, MethodShutdown, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Settings resolves the settings record for one file.
func (c *Client) Settings(ctx context.Context, params *SettingsGetParams) (*SettingsGetResult, error) {
	var result SettingsGetResult
	if err := c.call(ctx, MethodSettingsGet, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindRoot looks up the project root of the given marker kind.
func (c *Client) FindRoot(ctx context.Context, params *RootFindParams) (*RootFindResult, error) {
	var result RootFindResult
	if err := c.call(ctx, MethodRootFind, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status returns daemon statistics.
func (c *Client) Status(ctx context.Context) (*StatusGetResult, error) {
	var result StatusGetResult
	if err := c.call(ctx, MethodStatusGet, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IsDaemonRunningAt checks if the daemon is running at the given paths.
func IsDaemonRunningAt(paths *Paths) bool {
	return paths.Status().Running()
}
