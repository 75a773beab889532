package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/ianremillard/jgrab/internal/proto"
)

// DefaultBufferSize is the transfer buffer used when Relay.BufferSize is 0.
const DefaultBufferSize = 4096

// halfCloser is implemented by *net.TCPConn and *net.UnixConn.
type halfCloser interface {
	CloseWrite() error
}

// TokenFile returns a token reader for Relay.Token that reads path on every
// call, so a token written by a daemon that is still starting is picked up on
// the next attempt.
func TokenFile(path string) func() (string, error) {
	return func() (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// Relay performs one request/response exchange over an established
// connection.
type Relay struct {
	// Token, when set, supplies the authentication token sent as the first
	// line of every request.
	Token func() (string, error)

	BufferSize int
	Out        io.Writer

	// IgnoreReadError ends the response drain quietly on a read error.  Only
	// the stop request sets it: the daemon exiting mid-response is expected.
	IgnoreReadError bool
}

// Exchange sends src to conn and streams the reply to r.Out.  An error
// matching ErrToken leaves src untouched and may be retried on a new
// connection; any other error is final.
func (r *Relay) Exchange(conn net.Conn, src io.Reader) error {
	if r.Token != nil {
		token, err := r.Token()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrToken, err)
		}
		if err := proto.WriteToken(conn, token); err != nil {
			return ioError("socket write error (token)", err)
		}
	}

	size := r.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	buf := make([]byte, size)

	if err := forward(conn, src, buf); err != nil {
		return err
	}

	hc, ok := conn.(halfCloser)
	if !ok {
		return ioError("shutdown socket write", errors.New("connection does not support half-close"))
	}
	if err := hc.CloseWrite(); err != nil {
		return ioError("shutdown socket write", err)
	}

	return r.drain(conn, buf)
}

// forward copies src to conn one buffer at a time until src is exhausted.
func forward(conn io.Writer, src io.Reader, buf []byte) error {
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := conn.Write(buf[:n]); werr != nil {
				return ioError("socket write error (message)", werr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ioError("read input", err)
		}
	}
}

// drain copies the daemon's reply to r.Out as it arrives.
func (r *Relay) drain(conn io.Reader, buf []byte) error {
	out := r.Out
	if out == nil {
		out = io.Discard
	}
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return ioError("stdout write error", werr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if r.IgnoreReadError {
				return nil
			}
			return ioError("socket read error", err)
		}
	}
}
