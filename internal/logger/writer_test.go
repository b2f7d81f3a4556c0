package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogSinkWritesBothTargets(t *testing.T) {
	console := &bytes.Buffer{}
	file := &bytes.Buffer{}
	s := newLogSink(console, file, 1024)

	if err := s.Write([]byte("one\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write([]byte("two\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for name, buf := range map[string]*bytes.Buffer{"console": console, "file": file} {
		got := buf.String()
		if !strings.Contains(got, "one\n") || !strings.Contains(got, "two\n") {
			t.Fatalf("%s missing lines: %q", name, got)
		}
	}
}

func TestLogSinkConsoleOnly(t *testing.T) {
	console := &bytes.Buffer{}
	s := newLogSink(console, nil, 1024)

	if err := s.Write([]byte("line\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := console.String(); got != "line\n" {
		t.Fatalf("console = %q", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestLogSinkSurfacesWriteError(t *testing.T) {
	wantErr := errors.New("disk gone")
	s := newLogSink(failingWriter{err: wantErr}, nil, 1024)

	if err := s.Write([]byte("doomed\n")); err != nil {
		t.Fatalf("first write should enqueue: %v", err)
	}
	if err := s.Flush(); !errors.Is(err, wantErr) {
		t.Fatalf("flush err = %v, want %v", err, wantErr)
	}
	if err := s.Write([]byte("after\n")); !errors.Is(err, wantErr) {
		t.Fatalf("write after failure = %v, want %v", err, wantErr)
	}
	if err := s.Close(); !errors.Is(err, wantErr) {
		t.Fatalf("close err = %v, want %v", err, wantErr)
	}
}
