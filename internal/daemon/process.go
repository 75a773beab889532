package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ProbeState is the outcome of a liveness probe.
type ProbeState int

const (
	// ProbeRunning means the process did not exit within the probe window.
	ProbeRunning ProbeState = iota
	// ProbeExited means the process has terminated; Status says how.
	ProbeExited
	// ProbeFailed means the probe itself could not determine the state.
	ProbeFailed
)

func (s ProbeState) String() string {
	switch s {
	case ProbeRunning:
		return "running"
	case ProbeExited:
		return "exited"
	case ProbeFailed:
		return "failed"
	}
	return fmt.Sprintf("ProbeState(%d)", int(s))
}

// ProbeResult is returned by Process.TryWait.
type ProbeResult struct {
	State  ProbeState
	Status *os.ProcessState // set when State == ProbeExited
	Err    error            // set when State == ProbeFailed
}

// Process is a spawned daemon.  The client never waits for it to finish; it
// only asks, with a bounded wait, whether it already has.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}

	// written once before done is closed
	state   *os.ProcessState
	waitErr error
}

// startProcess starts cmd and begins reaping it in the background.
func startProcess(cmd *exec.Cmd) (*Process, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &Process{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		p.state = cmd.ProcessState
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.waitErr = err
		}
		close(p.done)
	}()
	return p, nil
}

// PID returns the operating-system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// TryWait waits at most timeout for the process to exit.
func (p *Process) TryWait(timeout time.Duration) ProbeResult {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		if p.state == nil {
			err := p.waitErr
			if err == nil {
				err = errors.New("process state unavailable")
			}
			return ProbeResult{State: ProbeFailed, Err: err}
		}
		return ProbeResult{State: ProbeExited, Status: p.state}
	case <-timer.C:
		return ProbeResult{State: ProbeRunning}
	}
}
