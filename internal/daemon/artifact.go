package daemon

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BundledJarName is the file name of the daemon jar shipped alongside the
// jgrab executable.
const BundledJarName = "jgrab.jar"

// ArtifactSource provides the bytes of the daemon jar when it has to be
// materialised under the JGrab home.
type ArtifactSource interface {
	OpenArtifact() (io.ReadCloser, error)
}

// FileArtifact reads the bundled jar from a path on disk.
type FileArtifact struct {
	Path string
}

// OpenArtifact opens the bundled jar.
func (a FileArtifact) OpenArtifact() (io.ReadCloser, error) {
	return os.Open(a.Path)
}

// BundledArtifact returns the artifact source to use: configured when set,
// otherwise jgrab.jar next to the running executable.  It returns nil when
// neither exists.
func BundledArtifact(configured string) ArtifactSource {
	if configured != "" {
		return FileArtifact{Path: configured}
	}
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	candidate := filepath.Join(filepath.Dir(exe), BundledJarName)
	if _, err := os.Stat(candidate); err != nil {
		return nil
	}
	return FileArtifact{Path: candidate}
}

// writeArtifact copies src to path through a temporary file in the same
// directory so a reader never sees a partial jar.
func writeArtifact(path string, src ArtifactSource) error {
	in, err := src.OpenArtifact()
	if err != nil {
		return fmt.Errorf("cannot create jgrab jar: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".jgrab-*.jar")
	if err != nil {
		return fmt.Errorf("cannot create jgrab jar: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cannot write to jgrab jar path: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cannot write to jgrab jar path: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cannot write to jgrab jar path: %w", err)
	}
	return nil
}
