package client

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianremillard/jgrab/internal/input"
	"github.com/ianremillard/jgrab/internal/mockdaemon"
)

func startDaemon(t *testing.T, opts mockdaemon.Options) *mockdaemon.Server {
	t.Helper()
	s, err := mockdaemon.Start(opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dialTCP(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestExchangeStreamsSourceAndReply(t *testing.T) {
	s := startDaemon(t, mockdaemon.Options{})
	payload := strings.Repeat("System.out.println(1);\n", 500)

	var out bytes.Buffer
	r := &Relay{BufferSize: 7, Out: &out}
	require.NoError(t, r.Exchange(dialTCP(t, s.Addr()), input.FromText(payload)))

	assert.Equal(t, payload, out.String())
	require.Len(t, s.Requests(), 1)
	assert.Equal(t, payload, s.Requests()[0].Payload)
}

func TestExchangeConcatenatedSource(t *testing.T) {
	s := startDaemon(t, mockdaemon.Options{})
	file := filepath.Join(t.TempDir(), "Main.java")
	require.NoError(t, os.WriteFile(file, []byte("class Main {}\n"), 0o644))
	f, err := input.OpenFile(file)
	require.NoError(t, err)
	src := input.Join(input.FromText("[x y]\n"), f)
	defer src.Close()

	var out bytes.Buffer
	r := &Relay{Out: &out}
	require.NoError(t, r.Exchange(dialTCP(t, s.Addr()), src))
	assert.Equal(t, "[x y]\nclass Main {}\n", s.Requests()[0].Payload)
}

func TestExchangeSendsTokenLine(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token")
	s := startDaemon(t, mockdaemon.Options{TokenPath: tokenPath})

	var out bytes.Buffer
	r := &Relay{Token: TokenFile(tokenPath), Out: &out}
	require.NoError(t, r.Exchange(dialTCP(t, s.Addr()), input.FromText("-e 1+1")))

	assert.Equal(t, "-e 1+1", out.String())
	req := s.Requests()[0]
	assert.Equal(t, s.Token(), req.Token)
	assert.Equal(t, "-e 1+1", req.Payload)
}

func TestExchangeMissingTokenIsRetryable(t *testing.T) {
	s := startDaemon(t, mockdaemon.Options{})
	src := input.FromText("payload")

	r := &Relay{Token: TokenFile(filepath.Join(t.TempDir(), "token"))}
	err := r.Exchange(dialTCP(t, s.Addr()), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToken)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// the source was not touched
	rest, _ := io.ReadAll(src)
	assert.Equal(t, "payload", string(rest))
}

func TestExchangeInputReadErrorIsFatal(t *testing.T) {
	s := startDaemon(t, mockdaemon.Options{})
	boom := errors.New("disk on fire")

	r := &Relay{}
	err := r.Exchange(dialTCP(t, s.Addr()), iotest.ErrReader(boom))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrToken)
}

func TestExchangeDrainReadError(t *testing.T) {
	reset := func(req mockdaemon.Request, w io.Writer) mockdaemon.Action {
		return mockdaemon.Reset
	}

	t.Run("stop request ignores it", func(t *testing.T) {
		s := startDaemon(t, mockdaemon.Options{Handler: reset})
		r := &Relay{IgnoreReadError: true}
		assert.NoError(t, r.Exchange(dialTCP(t, s.Addr()), input.FromText("--stop")))
	})

	t.Run("other requests fail", func(t *testing.T) {
		s := startDaemon(t, mockdaemon.Options{Handler: reset})
		r := &Relay{}
		err := r.Exchange(dialTCP(t, s.Addr()), input.FromText("class A {}"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIO)
	})
}

func TestExchangeRequiresHalfClose(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	go io.Copy(io.Discard, server)

	r := &Relay{}
	err := r.Exchange(client, input.FromText("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.Contains(t, err.Error(), "half-close")
}

func TestTokenFileRereadsEachCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	read := TokenFile(path)

	_, err := read()
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))
	tok, err := read()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestReporterFormats(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{Out: &buf}
	r.Notice("Connected!")
	r.Noticef("will re-try %d more times", 2)
	r.Fatal(errors.New("boom"))
	assert.Equal(t,
		"=== JGrab Client - Connected! ===\n"+
			"=== JGrab Client - will re-try 2 more times ===\n"+
			"### JGrab Client Error - boom ###\n",
		buf.String())
}
