package client

import (
	"errors"
	"fmt"
)

var (
	// ErrIO marks a local I/O failure once a connection was established:
	// reading the request source, writing the socket, or draining the
	// response.  These are never retried.
	ErrIO = errors.New("i/o error")

	// ErrToken marks a missing or unreadable authentication token.  It is
	// treated like a failed connection because the daemon writes the token
	// while it starts up.
	ErrToken = errors.New("unable to read daemon token")

	// ErrUnreachable is returned by TrySend when no daemon accepted the
	// connection.
	ErrUnreachable = errors.New("daemon is not reachable")

	// ErrExhausted is matched by the error Send returns once the retry
	// budget is spent.
	ErrExhausted = errors.New("unable to start JGrab daemon")
)

// ExhaustedError reports that every post-bootstrap attempt failed.
type ExhaustedError struct {
	Port     string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s. Make sure JGrab's port [%s] is not already bound", ErrExhausted, e.Port)
}

func (e *ExhaustedError) Unwrap() error { return ErrExhausted }

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
