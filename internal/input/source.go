// Package input normalises the places a jgrab request can come from into a
// single byte stream.
//
// Every Source is an io.Reader; the relay reads it to exhaustion exactly once.
package input

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Kind identifies which variant a Source is.
type Kind int

const (
	KindFile Kind = iota
	KindStdin
	KindText
	KindConcat
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindStdin:
		return "stdin"
	case KindText:
		return "text"
	case KindConcat:
		return "concat"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Source is a request body.  Close releases any file the source holds.
type Source interface {
	io.Reader
	Kind() Kind
	Close() error
}

// File reads from an opened file.
type File struct {
	f *os.File
}

// OpenFile opens path for reading.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read file: %w", err)
	}
	return &File{f: f}, nil
}

func (s *File) Read(p []byte) (int, error) { return s.f.Read(p) }
func (s *File) Kind() Kind                 { return KindFile }
func (s *File) Close() error               { return s.f.Close() }

// Name returns the path the file was opened with.
func (s *File) Name() string { return s.f.Name() }

// Stdin reads from the process's inherited standard input.  Close is a
// no-op; the stream belongs to the process.
type Stdin struct {
	r io.Reader
}

// FromStdin wraps r, normally os.Stdin.
func FromStdin(r io.Reader) *Stdin {
	return &Stdin{r: r}
}

func (s *Stdin) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *Stdin) Kind() Kind                 { return KindStdin }
func (s *Stdin) Close() error               { return nil }

// Text serves an in-memory message.
type Text struct {
	r *strings.Reader
}

// FromText returns a Source yielding exactly msg.
func FromText(msg string) *Text {
	return &Text{r: strings.NewReader(msg)}
}

func (s *Text) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *Text) Kind() Kind                 { return KindText }
func (s *Text) Close() error               { return nil }

// Concat drains first before reading second.
type Concat struct {
	first, second Source
	r             io.Reader
}

// Join chains first and second.
func Join(first, second Source) *Concat {
	return &Concat{
		first:  first,
		second: second,
		r:      io.MultiReader(first, second),
	}
}

func (s *Concat) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *Concat) Kind() Kind                 { return KindConcat }

// Close closes both halves and returns the first error.
func (s *Concat) Close() error {
	err1 := s.first.Close()
	err2 := s.second.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
