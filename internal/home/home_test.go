package home

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvVar, dir)
	assert.Equal(t, Dir(dir), Resolve())
}

func TestResolveRelativeEnvIsMadeAbsolute(t *testing.T) {
	t.Setenv(EnvVar, "relative-home")
	got := Resolve()
	assert.True(t, filepath.IsAbs(got.String()), "got %s", got)
	assert.Equal(t, "relative-home", filepath.Base(got.String()))
}

func TestResolveDefault(t *testing.T) {
	t.Setenv(EnvVar, "")
	userHome, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no user home directory")
	}
	assert.Equal(t, Dir(filepath.Join(userHome, ".jgrab")), Resolve())
}

func TestPaths(t *testing.T) {
	d := Dir("/h")
	assert.Equal(t, "/h/token", d.Token())
	assert.Equal(t, "/h/jgrab.jar", d.Artifact())
	assert.Equal(t, "/h/client.yaml", d.Config())
	assert.Equal(t, "/h/client.lock", d.Lock())
	assert.Equal(t, "/h/client.log", d.Log())
	assert.Equal(t, "/h/daemon.log", d.DaemonLog())
}
