// Package daemon brings a JGrab daemon into existence when the client cannot
// reach one.
//
// The daemon is a Java program shipped as a jar.  Bootstrapping makes sure the
// jar exists under the JGrab home, launches it detached from the client, and
// then probes the child for a short while: a daemon that dies straight away
// (bad java install, port already taken) is reported instead of being retried
// against.
package daemon

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/ianremillard/jgrab/internal/home"
)

// ErrDiedPrematurely is matched by the error CheckStatus returns when the
// spawned daemon has already exited.
var ErrDiedPrematurely = errors.New("the JGrab daemon has died prematurely")

// ErrAlreadyBootstrapped is returned by a second call to Bootstrap.
var ErrAlreadyBootstrapped = errors.New("daemon already bootstrapped")

// ErrNotBootstrapped is returned by CheckStatus before Bootstrap succeeded.
var ErrNotBootstrapped = errors.New("daemon not bootstrapped")

// DiedError reports how a prematurely dead daemon exited.
type DiedError struct {
	Status *os.ProcessState
}

func (e *DiedError) Error() string {
	return fmt.Sprintf("%s, %s", ErrDiedPrematurely, e.Status)
}

func (e *DiedError) Unwrap() error { return ErrDiedPrematurely }

// Notifier receives the user-facing progress lines of a bootstrap.
type Notifier interface {
	Notice(msg string)
}

// Bootstrapper launches one daemon and supervises its first moments.
// Bootstrap may be called once; CheckStatus any number of times after it.
type Bootstrapper struct {
	Home      home.Dir
	Java      string   // java launcher, e.g. "java" or /usr/lib/jvm/bin/java
	JVMArgs   []string // placed before -jar
	Artifacts ArtifactSource

	ProbeTimeout time.Duration // how long CheckStatus waits for an exit
	SettleDelay  time.Duration // pause after a successful probe

	Notify Notifier
	Log    *log.Logger

	sleep func(time.Duration)
	proc  *Process
}

// Bootstrap ensures the daemon artifact exists and starts the daemon
// process.  It returns once the process has been started; it does not wait
// for the daemon to accept connections.
func (b *Bootstrapper) Bootstrap() error {
	if b.proc != nil {
		return ErrAlreadyBootstrapped
	}
	b.notice("Starting daemon")

	jar := b.Home.Artifact()
	if err := b.ensureArtifact(jar); err != nil {
		return err
	}

	args := append(append([]string{}, b.JVMArgs...), "-jar", jar, "--daemon")
	cmd := exec.Command(b.java(), args...)
	out, err := os.OpenFile(b.Home.DaemonLog(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		b.logf("daemon output not captured: %v", err)
	} else {
		defer out.Close()
		cmd.Stdout = out
		cmd.Stderr = out
	}
	detach(cmd)

	b.logf("exec %s %v", cmd.Path, args)
	proc, err := startProcess(cmd)
	if err != nil {
		return fmt.Errorf("unable to start daemon: %w", err)
	}
	b.proc = proc
	b.notice(fmt.Sprintf("Daemon started, pid=%d", proc.PID()))
	return nil
}

// CheckStatus probes the spawned daemon.  A daemon that has exited yields a
// *DiedError; a daemon that is still running yields nil after SettleDelay,
// which gives its listener time to bind.
func (b *Bootstrapper) CheckStatus() error {
	if b.proc == nil {
		return ErrNotBootstrapped
	}
	res := b.proc.TryWait(b.ProbeTimeout)
	b.logf("liveness probe pid=%d: %s", b.proc.PID(), res.State)
	switch res.State {
	case ProbeExited:
		return &DiedError{Status: res.Status}
	case ProbeRunning:
		b.pause(b.SettleDelay)
		return nil
	default:
		return fmt.Errorf("unable to wait for JGrab daemon process status: %w", res.Err)
	}
}

// Process returns the spawned daemon, or nil before Bootstrap.
func (b *Bootstrapper) Process() *Process {
	return b.proc
}

// ensureArtifact materialises the daemon jar from the bundled copy if it is
// not already present.  The home-directory lock keeps concurrent clients from
// writing it twice.
func (b *Bootstrapper) ensureArtifact(jar string) error {
	if fi, err := os.Stat(jar); err == nil && fi.Mode().IsRegular() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(jar), 0o755); err != nil {
		return fmt.Errorf("cannot create jgrab jar: %w", err)
	}

	lock := flock.New(b.Home.Lock())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire %s: %w", b.Home.Lock(), err)
	}
	defer lock.Unlock()

	// Another client may have written it while we waited for the lock.
	if fi, err := os.Stat(jar); err == nil && fi.Mode().IsRegular() {
		return nil
	}
	if b.Artifacts == nil {
		return fmt.Errorf("cannot create jgrab jar: no bundled daemon jar available")
	}
	if err := writeArtifact(jar, b.Artifacts); err != nil {
		return err
	}
	b.notice("Created JGrab jar at: " + jar)
	return nil
}

func (b *Bootstrapper) java() string {
	if b.Java == "" {
		return "java"
	}
	return b.Java
}

func (b *Bootstrapper) pause(d time.Duration) {
	if b.sleep != nil {
		b.sleep(d)
		return
	}
	time.Sleep(d)
}

func (b *Bootstrapper) notice(msg string) {
	if b.Notify != nil {
		b.Notify.Notice(msg)
	}
}

func (b *Bootstrapper) logf(format string, args ...any) {
	if b.Log != nil {
		b.Log.Printf(format, args...)
	}
}
