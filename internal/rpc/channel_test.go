package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/logging"
)

type echoRequest struct {
	Value string `json:"value"`
}

type echoResponse struct {
	Value string `json:"value"`
}

// startTestServer runs a server with the given handlers on a random port
// and returns its address.
func startTestServer(t *testing.T, handlers map[string]Handler) string {
	t.Helper()

	translate := func(err error) *Envelope {
		var env *Envelope
		if errors.As(err, &env) {
			return env
		}
		var se *common.StatusError
		if errors.As(err, &se) {
			return &Envelope{Status: se.StatusCode, Message: se.Message, Code: se.Code}
		}
		return &Envelope{Status: 500, Message: "Internal Server Error"}
	}

	s := NewServer("127.0.0.1:0", logging.NopLogger{}, translate)
	for cmd, h := range handlers {
		s.Handle(cmd, h)
	}
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		if err := s.Run(ctx); err != nil {
			t.Errorf("Run error: %v", err)
		}
	}()

	return s.Addr()
}

func connect(t *testing.T, addr string, timeout time.Duration) *Channel {
	t.Helper()
	c := NewChannel(addr, timeout, logging.NopLogger{})
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func echoHandler(ctx context.Context, data json.RawMessage) (any, error) {
	var req echoRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return echoResponse{Value: req.Value}, nil
}

func TestChannel_SendDeliversResult(t *testing.T) {
	addr := startTestServer(t, map[string]Handler{"echo": echoHandler})
	c := connect(t, addr, time.Second)

	var out echoResponse
	if err := c.Send(context.Background(), "echo", echoRequest{Value: "hello"}, &out); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if out.Value != "hello" {
		t.Fatalf("echo = %q, want %q", out.Value, "hello")
	}
}

func TestChannel_SendPropagatesEnvelope(t *testing.T) {
	addr := startTestServer(t, map[string]Handler{
		"conflict": func(ctx context.Context, data json.RawMessage) (any, error) {
			return nil, &common.StatusError{StatusCode: 409, Message: "Email already exists"}
		},
	})
	c := connect(t, addr, time.Second)

	err := c.Send(context.Background(), "conflict", struct{}{}, nil)
	var env *Envelope
	if !errors.As(err, &env) {
		t.Fatalf("Send error = %v, want *Envelope", err)
	}
	if env.Status != 409 || env.Message != "Email already exists" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestChannel_SendTimesOutWithinMargin(t *testing.T) {
	addr := startTestServer(t, map[string]Handler{
		"slow": func(ctx context.Context, data json.RawMessage) (any, error) {
			time.Sleep(2 * time.Second)
			return nil, nil
		},
	})
	c := connect(t, addr, 200*time.Millisecond)

	start := time.Now()
	err := c.Send(context.Background(), "slow", struct{}{}, nil)
	elapsed := time.Since(start)

	if !errors.Is(err, common.ErrTimedOut) {
		t.Fatalf("Send error = %v, want ErrTimedOut", err)
	}
	if elapsed > 450*time.Millisecond {
		t.Fatalf("timeout surfaced after %v, want within 450ms of the 200ms deadline", elapsed)
	}
}

func TestChannel_SendBeforeConnectFails(t *testing.T) {
	c := NewChannel("127.0.0.1:1", time.Second, logging.NopLogger{})
	err := c.Send(context.Background(), "echo", echoRequest{}, nil)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send error = %v, want ErrNotConnected", err)
	}
}

func TestChannel_SequentialCallsStayOrdered(t *testing.T) {
	addr := startTestServer(t, map[string]Handler{"echo": echoHandler})
	c := connect(t, addr, time.Second)

	for i := 0; i < 20; i++ {
		want := fmt.Sprintf("call-%d", i)
		var out echoResponse
		if err := c.Send(context.Background(), "echo", echoRequest{Value: want}, &out); err != nil {
			t.Fatalf("Send %d error: %v", i, err)
		}
		if out.Value != want {
			t.Fatalf("call %d: got %q, want %q", i, out.Value, want)
		}
	}
}

func TestChannel_ConcurrentCallsCorrelate(t *testing.T) {
	addr := startTestServer(t, map[string]Handler{"echo": echoHandler})
	c := connect(t, addr, 2*time.Second)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("payload-%d", i)
			var out echoResponse
			if err := c.Send(context.Background(), "echo", echoRequest{Value: want}, &out); err != nil {
				errs <- err
				return
			}
			if out.Value != want {
				errs <- fmt.Errorf("got %q, want %q", out.Value, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
