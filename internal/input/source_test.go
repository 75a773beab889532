package input

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Hello.java")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource(t *testing.T) {
	path := writeTemp(t, "class Hello {}\n")
	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "class Hello {}\n", string(data))
	assert.Equal(t, KindFile, src.Kind())
	assert.Equal(t, path, src.Name())
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "nope.java"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "unable to read file")
}

func TestStdinSource(t *testing.T) {
	src := FromStdin(strings.NewReader("piped code"))
	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "piped code", string(data))
	assert.Equal(t, KindStdin, src.Kind())
	assert.NoError(t, src.Close())
}

func TestTextSource(t *testing.T) {
	src := FromText("--stop")
	require.NoError(t, iotest.TestReader(src, []byte("--stop")))
	assert.Equal(t, KindText, FromText("").Kind())
}

func TestConcatPreservesOrder(t *testing.T) {
	path := writeTemp(t, "class Main { }")
	file, err := OpenFile(path)
	require.NoError(t, err)

	src := Join(FromText("[a b]\n"), file)
	defer src.Close()

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "[a b]\nclass Main { }", string(data))
	assert.Equal(t, KindConcat, src.Kind())
}

func TestConcatMatchesIsolatedReads(t *testing.T) {
	first := strings.Repeat("x", 5000)
	second := strings.Repeat("y", 3001)

	var isolated []byte
	for _, s := range []string{first, second} {
		b, err := io.ReadAll(FromText(s))
		require.NoError(t, err)
		isolated = append(isolated, b...)
	}

	src := Join(FromText(first), FromText(second))
	buf := make([]byte, 1024)
	var got []byte
	for {
		n, err := src.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, isolated, got)
}

func TestConcatPropagatesNestedError(t *testing.T) {
	boom := errors.New("boom")
	src := Join(FromText("ok"), FromStdin(iotest.ErrReader(boom)))
	_, err := io.ReadAll(src)
	assert.ErrorIs(t, err, boom)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "concat", KindConcat.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
