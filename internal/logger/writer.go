package logger

import (
	"bufio"
	"io"
	"sync"
)

// logSink buffers log lines and writes them on a background goroutine so
// handlers never block on disk. This logger has exactly two possible
// targets: the console, and at most one log file.
type logSink struct {
	queue   chan []byte
	done    chan struct{}
	once    sync.Once
	pending sync.WaitGroup

	mu      sync.Mutex
	console *bufio.Writer
	file    *bufio.Writer
	err     error
}

func newLogSink(console, file io.Writer, bufSize int) *logSink {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	s := &logSink{
		queue: make(chan []byte, 256),
		done:  make(chan struct{}),
	}
	if console != nil {
		s.console = bufio.NewWriterSize(console, bufSize)
	}
	if file != nil {
		s.file = bufio.NewWriterSize(file, bufSize)
	}
	go s.drain()
	return s
}

func (s *logSink) drain() {
	for line := range s.queue {
		s.mu.Lock()
		if err := s.emit(line); err != nil && s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
		s.pending.Done()
	}
	s.mu.Lock()
	s.flushLocked()
	s.mu.Unlock()
	close(s.done)
}

// emit writes one line to both targets and flushes right away. Volume is a
// handful of lines per update, and an immediate flush keeps the file
// readable while the bot runs.
func (s *logSink) emit(line []byte) error {
	if s.console != nil {
		if _, err := s.console.Write(line); err != nil {
			return err
		}
		if err := s.console.Flush(); err != nil {
			return err
		}
	}
	if s.file != nil {
		if _, err := s.file.Write(line); err != nil {
			return err
		}
		if err := s.file.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Write enqueues one record. When the queue is full it blocks instead of
// dropping: losing log lines is worse than a slow handler.
func (s *logSink) Write(p []byte) error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := make([]byte, len(p))
	copy(line, p)
	s.pending.Add(1)
	s.queue <- line
	return nil
}

// Flush waits for queued lines to land, then forces buffered output through.
func (s *logSink) Flush() error {
	s.pending.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	return s.err
}

// Close drains queued lines, flushes, and reports the first write error.
func (s *logSink) Close() error {
	s.once.Do(func() {
		close(s.queue)
	})
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *logSink) flushLocked() {
	if s.console != nil {
		if err := s.console.Flush(); err != nil && s.err == nil {
			s.err = err
		}
	}
	if s.file != nil {
		if err := s.file.Flush(); err != nil && s.err == nil {
			s.err = err
		}
	}
}
