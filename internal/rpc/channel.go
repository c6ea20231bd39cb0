package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/google/uuid"
)

// ErrNotConnected is returned by Send when the channel has no live
// connection. The process stays up; calls fail until Connect succeeds.
var ErrNotConnected = errors.New("rpc: channel not connected")

// Channel is the client side of the transport: a single TCP connection to
// one service, carrying concurrent correlated command/response pairs.
//
// A channel connects exactly once at startup. There is no automatic
// reconnect; after a connection failure every Send fails with
// ErrNotConnected until Connect is called again.
type Channel struct {
	addr    string
	timeout time.Duration
	logger  logging.Logger

	mu      sync.Mutex
	conn    net.Conn
	w       *bufio.Writer
	pending map[string]chan *Response
}

// NewChannel builds a channel for the service at addr. Every call made
// through the channel is bounded by timeout.
func NewChannel(addr string, timeout time.Duration, logger logging.Logger) *Channel {
	return &Channel{
		addr:    addr,
		timeout: timeout,
		logger:  logger.With("module", "rpc_channel", "addr", addr),
		pending: make(map[string]chan *Response),
	}
}

// Connect dials the service. Safe to call again after a lost connection.
func (c *Channel) Connect() error {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return fmt.Errorf("rpc: dial %s: %w", c.addr, err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.w = bufio.NewWriter(conn)
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Close tears down the connection. In-flight calls fail.
func (c *Channel) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Send issues one command and decodes the result into out (which may be nil
// for commands without a result value). It returns the service's error
// envelope unchanged when the call fails remotely, common.ErrTimedOut when
// the per-call deadline elapses, and ErrNotConnected when there is no
// connection.
//
// Delivery is at-most-once: a timeout abandons the call from the caller's
// perspective, but no cancellation reaches the callee, so the command may
// still take effect there.
func (c *Channel) Send(ctx context.Context, cmd string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("rpc: encode %s payload: %w", cmd, err)
	}

	req := &Request{ID: uuid.NewString(), Cmd: cmd, Data: data}
	frame, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("rpc: encode %s request: %w", cmd, err)
	}

	respCh := make(chan *Response, 1)

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.pending[req.ID] = respCh
	// Writing under the lock keeps frames intact and preserves call order
	// on the wire for sequential callers.
	err = writeFrame(c.w, frame)
	c.mu.Unlock()

	if err != nil {
		c.forget(req.ID)
		return fmt.Errorf("rpc: send %s: %w", cmd, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return resp.Error
		}
		if out == nil || len(resp.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("rpc: decode %s result: %w", cmd, err)
		}
		return nil
	case <-ctx.Done():
		c.forget(req.ID)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("rpc: %s: %w", cmd, common.ErrTimedOut)
		}
		return ctx.Err()
	}
}

func (c *Channel) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop dispatches response frames to their waiting callers. It exits on
// the first read error and fails every pending call: a broken connection is
// not transparent to callers.
func (c *Channel) readLoop(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		payload, err := readFrame(r)
		if err != nil {
			c.fail(conn, err)
			return
		}

		var resp Response
		if err := json.Unmarshal(payload, &resp); err != nil {
			c.logger.Error(context.Background(), "dropping undecodable response frame", "error", err)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if !ok {
			// Caller already gave up (timed out). Nothing to deliver to.
			continue
		}
		ch <- &resp
	}
}

func (c *Channel) fail(conn net.Conn, cause error) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	stuck := c.pending
	c.pending = make(map[string]chan *Response)
	c.mu.Unlock()

	conn.Close()

	if len(stuck) > 0 || !errors.Is(cause, net.ErrClosed) {
		c.logger.Error(context.Background(), "connection lost", "error", cause, "in_flight", len(stuck))
	}
	for id, ch := range stuck {
		ch <- &Response{ID: id, Error: &Envelope{Status: 500, Message: "Internal Server Error"}}
	}
}
