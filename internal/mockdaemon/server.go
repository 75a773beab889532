// Package mockdaemon is a stand-in for the JGrab daemon.  It speaks the same
// framing as the real daemon (optional token line, payload until the client
// half-closes, reply until the daemon closes) and records every request, so
// tests can drive the client against it end to end.
//
// Connections are served one at a time, as the real daemon does.
package mockdaemon

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ianremillard/jgrab/internal/proto"
)

// Request is one request as the daemon received it.
type Request struct {
	Token   string // first line, when tokens are required
	Payload string
}

// Action tells the server how to finish a connection.
type Action int

const (
	// Close closes the connection normally.
	Close Action = iota
	// Reset aborts the connection so the client sees a read error.
	Reset
	// Shutdown closes the connection and stops the server.
	Shutdown
)

// Handler writes the response to req and says how to finish.
type Handler func(req Request, w io.Writer) Action

// Options configures a Server.
type Options struct {
	// Addr to listen on; defaults to an ephemeral loopback port.
	Addr string
	// TokenPath, when set, receives a fresh token that every request must
	// present on its first line.
	TokenPath string
	Handler   Handler
	Log       *log.Logger
}

// Server is a running mock daemon.
type Server struct {
	ln      net.Listener
	token   string
	handler Handler
	log     *log.Logger

	mu       sync.Mutex
	requests []Request

	done chan struct{}
}

// Start writes the token (if configured), listens, and serves in the
// background.
func Start(opts Options) (*Server, error) {
	addr := opts.Addr
	if addr == "" {
		addr = proto.Address(proto.DefaultHost, 0)
	}
	s := &Server{
		handler: opts.Handler,
		log:     opts.Log,
		done:    make(chan struct{}),
	}
	if s.handler == nil {
		s.handler = Respond
	}
	if s.log == nil {
		s.log = log.New(io.Discard, "", 0)
	}

	if opts.TokenPath != "" {
		s.token = uuid.NewString()
		if err := os.WriteFile(opts.TokenPath, []byte(s.token), 0o600); err != nil {
			return nil, fmt.Errorf("write token: %w", err)
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.ln = ln
	s.log.Printf("mock daemon listening on %s", ln.Addr())

	go s.serve()
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Port returns the TCP port the server listens on.
func (s *Server) Port() int { return s.ln.Addr().(*net.TCPAddr).Port }

// Token returns the token requests must present, or "" when not required.
func (s *Server) Token() string { return s.token }

// Requests returns a copy of the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Done is closed once the server has stopped serving.
func (s *Server) Done() <-chan struct{} { return s.done }

// Close stops the server and waits for the serve loop to exit.
func (s *Server) Close() error {
	err := s.ln.Close()
	<-s.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) serve() {
	defer close(s.done)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			// Listener was closed (shutdown).
			return
		}
		if s.handleConn(conn) == Shutdown {
			s.log.Printf("shutdown requested")
			s.ln.Close()
			return
		}
	}
}

func (s *Server) handleConn(conn net.Conn) Action {
	data, err := io.ReadAll(conn)
	if err != nil {
		s.log.Printf("read request: %v", err)
		conn.Close()
		return Close
	}
	if len(data) == 0 {
		// a liveness probe: connected and hung up without a request
		conn.Close()
		return Close
	}

	req := Request{Payload: string(data)}
	if s.token != "" {
		line, rest, _ := bytes.Cut(data, []byte{'\n'})
		req.Token = string(line)
		req.Payload = string(rest)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	w := bufio.NewWriter(conn)
	var action Action
	if s.token != "" && req.Token != s.token {
		fmt.Fprintln(w, "ERROR: invalid token")
		action = Close
	} else {
		action = s.handler(req, w)
	}
	if err := w.Flush(); err != nil {
		s.log.Printf("write response: %v", err)
	}

	if action == Reset {
		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.SetLinger(0)
		}
	}
	conn.Close()
	return action
}

// Respond answers the way the JGrab daemon does for control payloads and
// echoes anything else back verbatim.
func Respond(req Request, w io.Writer) Action {
	switch strings.TrimSpace(req.Payload) {
	case proto.StopPayload:
		fmt.Fprintln(w, "=== JGrab Daemon stopped ===")
		return Shutdown
	case proto.VersionPayload:
		fmt.Fprintln(w, "JGrab Daemon Version: mock")
		return Close
	}
	io.WriteString(w, req.Payload)
	return Close
}
