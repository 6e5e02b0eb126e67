package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
)

// Sink is a destination records are written to. Emit must never block
// the calling request for file I/O and must never return an error to
// the log call; failures go to a fallback diagnostic stream.
type Sink interface {
	Emit(record *Record)
	Close() error
}

// SinkOptions controls routing into a sink: a minimum severity, an
// optional required tag, and per-sink filters applied in order.
type SinkOptions struct {
	MinLevel   Level
	RequireTag string
	Filters    []Filter
}

// accepts applies the routing rules shared by all sinks.
func (o SinkOptions) accepts(record *Record) bool {
	if record.Level < o.MinLevel {
		return false
	}
	if o.RequireTag != "" && !record.HasTag(o.RequireTag) {
		return false
	}
	for _, f := range o.Filters {
		if !f.Apply(record) {
			return false
		}
	}
	return true
}

// backlogSize bounds the pending writes per sink. Emissions past a full
// backlog are dropped and counted rather than blocking a request.
const backlogSize = 4096

// AsyncFileSink writes records to a rotating file from a single
// background worker, so slow disk I/O never adds to request latency.
// Rotation is checked before each write: when the active file exceeds
// maxBytes it becomes generation .1, existing generations shift up, and
// the generation past backupCount is deleted.
type AsyncFileSink struct {
	opts        SinkOptions
	path        string
	maxBytes    int64
	backupCount int
	fallback    io.Writer

	ch      chan []byte
	done    chan struct{}
	dropped atomic.Int64

	closeOnce sync.Once
	closeErr  error

	// Worker-owned; never touched from Emit.
	file *os.File
	size int64
}

// NewAsyncFileSink opens (creating the directory if absent) an async
// rotating sink and starts its worker.
func NewAsyncFileSink(path string, maxBytes int64, backupCount int, opts SinkOptions) (*AsyncFileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	s := &AsyncFileSink{
		opts:        opts,
		path:        path,
		maxBytes:    maxBytes,
		backupCount: backupCount,
		fallback:    os.Stderr,
		ch:          make(chan []byte, backlogSize),
		done:        make(chan struct{}),
	}
	go s.worker()
	return s, nil
}

// Emit serializes the record and hands it to the background worker.
// It returns immediately; a full backlog drops the record.
func (s *AsyncFileSink) Emit(record *Record) {
	if !s.opts.accepts(record) {
		return
	}
	line, err := record.MarshalJSON()
	if err != nil {
		fmt.Fprintf(s.fallback, "log sink %s: marshal record: %v\n", s.path, err)
		return
	}
	select {
	case s.ch <- line:
	default:
		s.dropped.Add(1)
	}
}

// Close drains the pending backlog and releases the file handle. Safe
// to call more than once.
func (s *AsyncFileSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.ch)
		<-s.done
		if s.file != nil {
			s.closeErr = s.file.Close()
			s.file = nil
		}
		if n := s.dropped.Load(); n > 0 {
			fmt.Fprintf(s.fallback, "log sink %s: dropped %d records under backlog pressure\n", s.path, n)
		}
	})
	return s.closeErr
}

// worker serializes all writes to the file, eliminating the need for
// file-level locking.
func (s *AsyncFileSink) worker() {
	defer close(s.done)
	for line := range s.ch {
		s.write(line)
	}
}

func (s *AsyncFileSink) write(line []byte) {
	if s.file == nil {
		if err := s.open(); err != nil {
			fmt.Fprintf(s.fallback, "log sink %s: open: %v\n", s.path, err)
			return
		}
	}
	if s.size > s.maxBytes {
		s.rotate()
		if err := s.open(); err != nil {
			fmt.Fprintf(s.fallback, "log sink %s: reopen after rotate: %v\n", s.path, err)
			return
		}
	}
	n, err := s.file.Write(append(line, '\n'))
	if err != nil {
		fmt.Fprintf(s.fallback, "log sink %s: write: %v\n", s.path, err)
		return
	}
	s.size += int64(n)
}

func (s *AsyncFileSink) open() error {
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	s.file = file
	s.size = 0
	if info, err := file.Stat(); err == nil {
		s.size = info.Size()
	}
	return nil
}

// rotate shifts the generation chain: the generation at backupCount is
// evicted, .i becomes .i+1 down the chain, and the active file becomes
// generation .1. A fresh active file is opened by the next write.
func (s *AsyncFileSink) rotate() {
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			fmt.Fprintf(s.fallback, "log sink %s: close before rotate: %v\n", s.path, err)
		}
		s.file = nil
		s.size = 0
	}

	oldest := s.generation(s.backupCount)
	if _, err := os.Stat(oldest); err == nil {
		if err := os.Remove(oldest); err != nil {
			fmt.Fprintf(s.fallback, "log sink %s: evict %s: %v\n", s.path, oldest, err)
		}
	}
	for i := s.backupCount - 1; i >= 1; i-- {
		from := s.generation(i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, s.generation(i+1)); err != nil {
			fmt.Fprintf(s.fallback, "log sink %s: shift %s: %v\n", s.path, from, err)
		}
	}
	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.generation(1)); err != nil {
			fmt.Fprintf(s.fallback, "log sink %s: rotate active file: %v\n", s.path, err)
		}
	}
}

func (s *AsyncFileSink) generation(n int) string {
	return s.path + "." + strconv.Itoa(n)
}
