package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/dmarchuk/gatekeep/internal/logging"
)

// Handler processes one command. The returned value is serialized as the
// result; a returned error is normalized through the server's translator
// before it crosses the wire.
type Handler func(ctx context.Context, data json.RawMessage) (any, error)

// Translator converts an arbitrary handler failure into the canonical error
// envelope. It is the outbound direction of the error translation layer,
// installed once per server like an exception filter.
type Translator func(err error) *Envelope

// Server is the listening side of the transport used by the internal
// services. Handlers are registered per command tag before Run.
type Server struct {
	addr      string
	logger    logging.Logger
	translate Translator
	handlers  map[string]Handler

	mu  sync.Mutex
	lis net.Listener
}

func NewServer(addr string, logger logging.Logger, translate Translator) *Server {
	if translate == nil {
		translate = func(error) *Envelope {
			return &Envelope{Status: 500, Message: "Internal Server Error"}
		}
	}
	return &Server{
		addr:      addr,
		logger:    logger.With("module", "rpc_server"),
		translate: translate,
		handlers:  make(map[string]Handler),
	}
}

// Handle registers the handler for a command tag. Not safe to call after Run.
func (s *Server) Handle(cmd string, h Handler) {
	s.handlers[cmd] = h
}

// Listen binds the server's address without serving yet. Run calls it
// implicitly; tests call it first to learn the bound address.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.lis = lis
	return nil
}

// Addr reports the bound listen address. Only valid after Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return s.addr
	}
	return s.lis.Addr().String()
}

// Run accepts connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	lis := s.lis
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping rpc server")
		lis.Close()
	}()

	s.logger.Info(ctx, "rpc server listening", "addr", lis.Addr().String())

	for {
		conn, err := lis.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.serveConn(ctx, conn)
	}
}

// connWriter serializes response frames from concurrent request handlers
// onto one connection.
type connWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func (cw *connWriter) writeResponse(resp *Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return writeFrame(cw.w, payload)
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	cw := &connWriter{w: bufio.NewWriter(conn)}

	for {
		payload, err := readFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn(ctx, "closing connection", "error", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			s.logger.Warn(ctx, "dropping undecodable request frame", "error", err)
			continue
		}

		// Each request runs independently so one slow command does not
		// stall the connection.
		go s.dispatch(ctx, cw, &req)
	}
}

func (s *Server) dispatch(ctx context.Context, cw *connWriter, req *Request) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "handler panic", "cmd", req.Cmd, "panic", p)
			s.reply(ctx, cw, &Response{ID: req.ID, Error: &Envelope{Status: 500, Message: "Internal Server Error"}})
		}
	}()

	h, ok := s.handlers[req.Cmd]
	if !ok {
		s.logger.Error(ctx, "no handler for command", "cmd", req.Cmd)
		s.reply(ctx, cw, &Response{ID: req.ID, Error: &Envelope{Status: 500, Message: "no matching handler for command"}})
		return
	}

	result, err := h(ctx, req.Data)
	if err != nil {
		s.reply(ctx, cw, &Response{ID: req.ID, Error: s.translate(err)})
		return
	}

	resp := &Response{ID: req.ID}
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			s.logger.Error(ctx, "encoding result failed", "cmd", req.Cmd, "error", err)
			s.reply(ctx, cw, &Response{ID: req.ID, Error: &Envelope{Status: 500, Message: "Internal Server Error"}})
			return
		}
		resp.Data = data
	}
	s.reply(ctx, cw, resp)
}

func (s *Server) reply(ctx context.Context, cw *connWriter, resp *Response) {
	if err := cw.writeResponse(resp); err != nil {
		s.logger.Error(ctx, "writing response failed", "id", resp.ID, "error", err)
	}
}
