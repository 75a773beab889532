// Package client connects jgrab to the JGrab daemon, bootstrapping the
// daemon when nothing is listening, and relays one request over the
// connection.
//
// The connection protocol is a small state machine:
//
//	first attempt ──ok──▶ exchange
//	      │ failed
//	      ▼
//	bootstrap (once) ─▶ check status ─▶ retry ×N ──ok──▶ "Connected!" ▶ exchange
//	                                      │ failed: check status, report, N--
//	                                      ▼ N == 0
//	                                  ErrExhausted
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
)

// DefaultMaxRetries is the retry ceiling used when Connector.MaxRetries is 0.
const DefaultMaxRetries = 5

// Dialer opens the TCP connection to the daemon.  *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Bootstrapper starts a daemon and reports on its liveness.
// *daemon.Bootstrapper satisfies it.
type Bootstrapper interface {
	Bootstrap() error
	CheckStatus() error
}

// Notifier receives user-facing progress lines.  *Reporter satisfies it.
type Notifier interface {
	Notice(msg string)
}

// Connector owns the bounded-retry connection protocol.
type Connector struct {
	Address      string // host:port of the daemon
	MaxRetries   int
	Dialer       Dialer
	Bootstrapper Bootstrapper
	Relay        *Relay
	Notify       Notifier
	Log          *log.Logger
}

type attemptState int

const (
	attemptConnected attemptState = iota // exchange completed
	attemptFailed                        // no usable connection; retryable
	attemptFatal                         // exchange started and failed
)

// attemptResult is the outcome of one connection attempt.
type attemptResult struct {
	state attemptState
	err   error
}

// Send delivers src to the daemon and streams the reply, bootstrapping the
// daemon if the first attempt finds nothing listening.  The bootstrapper is
// invoked at most once.
func (c *Connector) Send(ctx context.Context, src io.Reader) error {
	a := c.attempt(ctx, src, false)
	if a.state != attemptFailed {
		return a.err
	}
	c.logf("first attempt: %v", a.err)

	if err := c.Bootstrapper.Bootstrap(); err != nil {
		return err
	}
	if err := c.Bootstrapper.CheckStatus(); err != nil {
		return err
	}

	retries := c.maxRetries()
	for retries > 0 {
		a = c.attempt(ctx, src, true)
		if a.state != attemptFailed {
			return a.err
		}
		if err := c.Bootstrapper.CheckStatus(); err != nil {
			return err
		}
		c.notice(fmt.Sprintf("unable to connect to JGrab daemon: %v", a.err))
		c.notice(fmt.Sprintf("will re-try %d more times", retries))
		retries--
	}

	_, port, _ := net.SplitHostPort(c.Address)
	return &ExhaustedError{Port: port, Attempts: c.maxRetries(), Last: a.err}
}

// TrySend delivers src without bootstrapping.  If no daemon accepts the
// connection the returned error matches ErrUnreachable.
func (c *Connector) TrySend(ctx context.Context, src io.Reader) error {
	a := c.attempt(ctx, src, false)
	if a.state == attemptFailed {
		return errors.Join(ErrUnreachable, a.err)
	}
	return a.err
}

// Reachable reports whether a daemon currently accepts connections.
func (c *Connector) Reachable(ctx context.Context) bool {
	conn, err := c.dial(ctx)
	if err != nil {
		c.logf("reachability check: %v", err)
		return false
	}
	conn.Close()
	return true
}

func (c *Connector) attempt(ctx context.Context, src io.Reader, isRetry bool) attemptResult {
	conn, err := c.dial(ctx)
	if err != nil {
		if isConnRefused(err) {
			c.logf("nothing listening on %s", c.Address)
		}
		return attemptResult{state: attemptFailed, err: err}
	}
	defer conn.Close()

	if isRetry {
		c.notice("Connected!")
	}
	if err := c.Relay.Exchange(conn, src); err != nil {
		if errors.Is(err, ErrToken) {
			return attemptResult{state: attemptFailed, err: err}
		}
		return attemptResult{state: attemptFatal, err: err}
	}
	return attemptResult{state: attemptConnected}
}

func (c *Connector) dial(ctx context.Context) (net.Conn, error) {
	d := c.Dialer
	if d == nil {
		d = &net.Dialer{}
	}
	return d.DialContext(ctx, "tcp", c.Address)
}

func (c *Connector) maxRetries() int {
	if c.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return c.MaxRetries
}

func (c *Connector) notice(msg string) {
	if c.Notify != nil {
		c.Notify.Notice(msg)
	}
}

func (c *Connector) logf(format string, args ...any) {
	if c.Log != nil {
		c.Log.Printf(format, args...)
	}
}
