// Package home locates the JGrab data directory and the files jgrab reads
// or writes beneath it.
package home

import (
	"os"
	"path/filepath"
)

// EnvVar overrides the default data directory.
const EnvVar = "JGRAB_HOME"

// Dir is a resolved JGrab home directory.
type Dir string

// Resolve returns the JGrab home directory.
// Precedence: JGRAB_HOME env var > ~/.jgrab > ./.jgrab
func Resolve() Dir {
	if env := os.Getenv(EnvVar); env != "" {
		abs, err := filepath.Abs(env)
		if err == nil {
			return Dir(abs)
		}
		return Dir(env)
	}
	base, err := os.UserHomeDir()
	if err != nil {
		base, _ = os.Getwd()
	}
	return Dir(filepath.Join(base, ".jgrab"))
}

func (d Dir) String() string { return string(d) }

// Token is the file the daemon writes its authentication token to.
func (d Dir) Token() string { return filepath.Join(string(d), "token") }

// Artifact is the daemon jar.
func (d Dir) Artifact() string { return filepath.Join(string(d), "jgrab.jar") }

// Config is the optional client configuration file.
func (d Dir) Config() string { return filepath.Join(string(d), "client.yaml") }

// Lock serialises daemon jar materialisation across concurrent clients.
func (d Dir) Lock() string { return filepath.Join(string(d), "client.lock") }

// DaemonLog receives the stdout and stderr of a daemon jgrab launched.
func (d Dir) DaemonLog() string { return filepath.Join(string(d), "daemon.log") }

// Log receives diagnostic output when JGRAB_DEBUG is set.
func (d Dir) Log() string { return filepath.Join(string(d), "client.log") }
