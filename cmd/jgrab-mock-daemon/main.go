// jgrab-mock-daemon – a stand-in for the JGrab Java daemon.
//
// Usage:
//
//	jgrab-mock-daemon [--addr <host:port>] [--token-file <path>] [--exit <code>]
//
// The mock speaks the daemon's wire protocol: it answers --stop and
// --version and echoes every other request back.  It exists so jgrab can be
// exercised end to end without a JVM; a fake `java` on PATH execs it.
package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ianremillard/jgrab/internal/home"
	"github.com/ianremillard/jgrab/internal/mockdaemon"
	"github.com/ianremillard/jgrab/internal/proto"
)

func main() {
	h := home.Resolve()

	addr := pflag.String("addr", proto.Address(proto.DefaultHost, proto.DefaultPort), "address to listen on")
	tokenFile := pflag.String("token-file", h.Token(), "where to write the auth token (empty disables tokens)")
	exitCode := pflag.Int("exit", -1, "exit immediately with this status instead of serving")
	pflag.Parse()

	if *exitCode >= 0 {
		log.Printf("exiting with status %d", *exitCode)
		os.Exit(*exitCode)
	}

	if *tokenFile != "" {
		if err := os.MkdirAll(filepath.Dir(*tokenFile), 0o755); err != nil {
			log.Fatalf("create token dir: %v", err)
		}
	}

	s, err := mockdaemon.Start(mockdaemon.Options{
		Addr:      *addr,
		TokenPath: *tokenFile,
		Log:       log.Default(),
	})
	if err != nil {
		log.Fatalf("mock daemon: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("received %v, shutting down", sig)
		s.Close()
	case <-s.Done():
	}
	if *tokenFile != "" {
		os.Remove(*tokenFile)
	}
}
