// jgrab – run Java code through the JGrab daemon.
//
// Usage:
//
//	jgrab                          – run Java code read from stdin
//	jgrab <file> [java-args...]    – run a Java file
//	jgrab -e <snippet...>          – run a Java snippet
//	jgrab --start | --stop | --version | --help
//
// jgrab starts the daemon automatically if it is not already running.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/ianremillard/jgrab/internal/client"
	"github.com/ianremillard/jgrab/internal/config"
	"github.com/ianremillard/jgrab/internal/daemon"
	"github.com/ianremillard/jgrab/internal/home"
	"github.com/ianremillard/jgrab/internal/input"
	"github.com/ianremillard/jgrab/internal/proto"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit statuses.
const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

const info = `=============== JGrab Client ================
 - https://github.com/renatoathaydes/jgrab -
=============================================
Jgrab can execute Java code from stdin (if not given any argument),
a Java file, or a Java snippet.

A Java daemon is started the first time the JGrab Client is run so
that subsequent runs are much faster.`

const usageText = `Usage:
  jgrab [<option> | java_file [java-args*] | -e java_snippet]
Options:
  --stop -s
    Stops the JGrab daemon.
  --start -t
    Starts the JGrab daemon (if not yet running).
  --help -h
    Shows usage.
  --version -v
    Shows version information.`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rep := &client.Reporter{Out: stderr}

	inv, err := classify(args)
	if err != nil {
		var uerr *usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(stderr, "### %s ###\n\n%s\n", uerr.msg, usageText)
			return exitUsage
		}
		rep.Fatal(err)
		return exitFatal
	}
	if inv.mode == modeHelp {
		fmt.Fprintf(stdout, "%s\n\n%s\n", info, usageText)
		return exitOK
	}

	a, err := newApp(stdout, rep)
	if err != nil {
		rep.Fatal(err)
		return exitFatal
	}
	defer a.close()

	if err := a.do(context.Background(), inv, stdin); err != nil {
		rep.Fatal(err)
		return exitFatal
	}
	return exitOK
}

// app holds the collaborators for one invocation.
type app struct {
	home    home.Dir
	cfg     config.Config
	conn    *client.Connector
	relay   *client.Relay
	rep     *client.Reporter
	stdout  io.Writer
	logFile *os.File
}

func newApp(stdout io.Writer, rep *client.Reporter) (*app, error) {
	h := home.Resolve()
	cfg, err := config.Load(h.Config())
	if err != nil {
		return nil, err
	}

	a := &app{home: h, cfg: cfg, rep: rep, stdout: stdout}
	logger := a.openLog()

	a.relay = &client.Relay{BufferSize: cfg.BufferSize, Out: stdout}
	if cfg.AuthToken {
		a.relay.Token = client.TokenFile(h.Token())
	}

	boot := &daemon.Bootstrapper{
		Home:         h,
		Java:         cfg.Daemon.Java,
		JVMArgs:      cfg.Daemon.JVMArgs,
		Artifacts:    daemon.BundledArtifact(cfg.Daemon.BundledJar),
		ProbeTimeout: cfg.ProbeTimeout,
		SettleDelay:  cfg.SettleDelay,
		Notify:       rep,
		Log:          logger,
	}

	a.conn = &client.Connector{
		Address:      cfg.Address(),
		MaxRetries:   cfg.MaxRetries,
		Bootstrapper: boot,
		Relay:        a.relay,
		Notify:       rep,
		Log:          logger,
	}
	return a, nil
}

// openLog returns the diagnostic logger: <home>/client.log when JGRAB_DEBUG
// is set, otherwise a logger that discards everything.
func (a *app) openLog() *log.Logger {
	if os.Getenv("JGRAB_DEBUG") == "" {
		return log.New(io.Discard, "", 0)
	}
	if err := os.MkdirAll(a.home.String(), 0o755); err != nil {
		return log.New(io.Discard, "", 0)
	}
	f, err := os.OpenFile(a.home.Log(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(io.Discard, "", 0)
	}
	a.logFile = f
	l := log.New(f, "[jgrab] ", log.LstdFlags|log.Lshortfile)
	l.Printf("start pid=%d home=%s addr=%s", os.Getpid(), a.home, a.cfg.Address())
	return l
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *app) do(ctx context.Context, inv invocation, stdin io.Reader) error {
	switch inv.mode {
	case modeVersion:
		return a.version(ctx)
	case modeStop:
		if !a.conn.Reachable(ctx) {
			a.rep.Notice("daemon is not running")
			return nil
		}
		a.relay.IgnoreReadError = true
	case modeStdin:
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			a.rep.Notice("reading Java code from stdin, press Ctrl-D to run it")
		}
	}

	src, err := inv.source(stdin)
	if err != nil {
		return err
	}
	defer src.Close()
	return a.conn.Send(ctx, src)
}

// version prints the client version, then asks a running daemon for its
// own.  It never starts a daemon.
func (a *app) version(ctx context.Context) error {
	fmt.Fprintf(a.stdout, "JGrab Client Version: %s\n", version)
	err := a.conn.TrySend(ctx, input.FromText(proto.VersionPayload))
	if errors.Is(err, client.ErrUnreachable) {
		fmt.Fprintln(a.stdout, "(Run the JGrab daemon to see its version)")
		return nil
	}
	return err
}
