package client

import (
	"fmt"
	"io"
)

// Reporter prints the client's own progress and error lines, kept visually
// apart from the daemon's output.
type Reporter struct {
	Out io.Writer
}

// Notice prints an informational line.
func (r *Reporter) Notice(msg string) {
	fmt.Fprintf(r.Out, "=== JGrab Client - %s ===\n", msg)
}

// Noticef formats and prints an informational line.
func (r *Reporter) Noticef(format string, args ...any) {
	r.Notice(fmt.Sprintf(format, args...))
}

// Fatal prints an error line.  The caller decides the exit status.
func (r *Reporter) Fatal(err error) {
	fmt.Fprintf(r.Out, "### JGrab Client Error - %v ###\n", err)
}
