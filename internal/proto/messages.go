// Package proto defines the wire conventions shared by jgrab (client) and
// the JGrab daemon over a loopback TCP connection.
//
// A request is an optional token line followed by the raw payload.  There is
// no length prefix: the client half-closes its write side to mark the end of
// the request, and the daemon closes its side once it has written the whole
// response.
//
// A payload is one of:
//
//	--stop                 ask the daemon to exit
//	--version              ask the daemon for its version
//	-e <snippet>           run a Java snippet
//	[arg1 arg2]\n<source>  run a Java file with program arguments
//	<source>               run a Java file or stdin contents
package proto

import (
	"io"
	"net"
	"strconv"
	"strings"
)

// Default daemon endpoint.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 5002
)

// Control payloads reserved by the daemon.
const (
	StopPayload    = "--stop"
	VersionPayload = "--version"
	SnippetOption  = "-e"

	// StartPayload is a snippet that does nothing; sending it is enough to
	// get a daemon bootstrapped.
	StartPayload = SnippetOption + " null"
)

// Address joins host and port into a dialable TCP address.
func Address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// SnippetPayload joins the words of a snippet invocation with single spaces.
// words is the full argument list including the leading "-e", which the
// daemon uses to recognise the request.
func SnippetPayload(words []string) string {
	return strings.Join(words, " ")
}

// ArgsLine frames Java program arguments as the bracketed first line that
// precedes a file's contents.
func ArgsLine(args []string) string {
	return "[" + strings.Join(args, " ") + "]\n"
}

// WriteToken writes the authentication token line that opens a request.
// The token is written verbatim, followed by a newline.
func WriteToken(w io.Writer, token string) error {
	if _, err := io.WriteString(w, token); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}
