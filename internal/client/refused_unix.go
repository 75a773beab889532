//go:build unix

package client

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isConnRefused(err error) bool {
	return errors.Is(err, unix.ECONNREFUSED)
}
