package main

import (
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ianremillard/jgrab/internal/input"
	"github.com/ianremillard/jgrab/internal/proto"
)

type mode int

const (
	modeStdin    mode = iota // no arguments
	modeFile                 // jgrab Main.java
	modeFileArgs             // jgrab Main.java a b
	modeSnippet              // jgrab -e code...
	modeHelp
	modeStart
	modeStop
	modeVersion
)

// invocation is the shape of the command line.
type invocation struct {
	mode mode
	args []string // the raw arguments
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// classify decides what the command line asks for.  The shape is decided
// before any flag parsing so that arguments meant for the Java program are
// never read as client options.
func classify(args []string) (invocation, error) {
	switch {
	case len(args) == 0:
		return invocation{mode: modeStdin}, nil
	case len(args) == 1 && !strings.HasPrefix(args[0], "-"):
		return invocation{mode: modeFile, args: args}, nil
	case len(args) == 1:
		m, err := parseOption(strings.TrimSpace(args[0]))
		return invocation{mode: m, args: args}, err
	case strings.TrimSpace(args[0]) == proto.SnippetOption:
		return invocation{mode: modeSnippet, args: args}, nil
	default:
		return invocation{mode: modeFileArgs, args: args}, nil
	}
}

// parseOption interprets a lone option argument.
func parseOption(arg string) (mode, error) {
	if arg == proto.SnippetOption {
		return 0, &usageError{msg: "-e option missing code snippet"}
	}

	fs := pflag.NewFlagSet("jgrab", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	help := fs.BoolP("help", "h", false, "Shows usage.")
	start := fs.BoolP("start", "t", false, "Starts the JGrab daemon (if not yet running).")
	stop := fs.BoolP("stop", "s", false, "Stops the JGrab daemon.")
	ver := fs.BoolP("version", "v", false, "Shows version information.")

	if err := fs.Parse([]string{arg}); err != nil || fs.NArg() != 0 || fs.NFlag() != 1 {
		return 0, &usageError{msg: "invalid option"}
	}
	switch {
	case *help:
		return modeHelp, nil
	case *start:
		return modeStart, nil
	case *stop:
		return modeStop, nil
	case *ver:
		return modeVersion, nil
	}
	return 0, &usageError{msg: "invalid option"}
}

// source builds the request body for inv.  Control-only modes (help,
// version) have no source.
func (inv invocation) source(stdin io.Reader) (input.Source, error) {
	switch inv.mode {
	case modeStdin:
		return input.FromStdin(stdin), nil
	case modeFile:
		return input.OpenFile(inv.args[0])
	case modeFileArgs:
		f, err := input.OpenFile(inv.args[0])
		if err != nil {
			return nil, err
		}
		return input.Join(input.FromText(proto.ArgsLine(inv.args[1:])), f), nil
	case modeSnippet:
		return input.FromText(proto.SnippetPayload(inv.args)), nil
	case modeStart:
		return input.FromText(proto.StartPayload), nil
	case modeStop:
		return input.FromText(proto.StopPayload), nil
	case modeVersion:
		return input.FromText(proto.VersionPayload), nil
	}
	return nil, &usageError{msg: "invalid option"}
}
