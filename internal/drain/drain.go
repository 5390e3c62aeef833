// Package drain consumes the byte streams of a spawned process without
// letting the child block on a full OS pipe buffer.
//
// The safe general-purpose strategy is Concurrent: one reader goroutine
// per stream, both joined before the caller waits on the process.
// Sequential drains one stream fully before the other and exists to
// reproduce the read-then-read pattern common in ad-hoc code; it is a
// documented deadlock hazard and is gated behind an explicit opt-in at
// the execution layer.
package drain

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/go-spawn-bench/internal/policy"
)

const (
	// maxLineSize is the initial scanner buffer; maxBufferSize caps a
	// single line. Child output lines can be long.
	maxLineSize   = 64 * 1024
	maxBufferSize = 1024 * 1024
)

// StreamData holds the bytes captured from one stream. Lines is populated
// under line modes, Raw under ReadAll. Partial data already drained is
// preserved when a read fails mid-stream.
type StreamData struct {
	Lines []string
	Raw   []byte
}

// Empty reports whether nothing was captured.
func (d StreamData) Empty() bool {
	return len(d.Lines) == 0 && len(d.Raw) == 0
}

// Stream couples one pipe with its drain granularity. Data is populated
// by Concurrent or Sequential.
type Stream struct {
	// Name identifies the stream in error context ("stdout" or "stderr").
	Name string

	// R is the pipe's read end. A nil R marks the stream as not piped
	// and it is skipped.
	R io.Reader

	// Mode selects the drain granularity.
	Mode policy.PipeMode

	// Sink optionally observes each line under line modes.
	Sink LineSink

	// Data receives the captured bytes.
	Data StreamData
}

// Concurrent drains every stream in its own goroutine and joins them all.
// This is the deadlock-safe default: neither child stream can stall
// because the other is being read first.
func Concurrent(streams ...*Stream) error {
	var g errgroup.Group
	for _, s := range streams {
		if s == nil || s.R == nil {
			continue
		}
		g.Go(s.drain)
	}
	return g.Wait()
}

// Sequential drains the streams in argument order, each fully before the
// next.
//
// Only safe when the child is guaranteed not to block writing to a
// stream drained later (bounded or empty output on that stream). If the
// child fills the pipe buffer of a later stream while the caller is
// still reading an earlier one, child and caller deadlock.
func Sequential(streams ...*Stream) error {
	for _, s := range streams {
		if s == nil || s.R == nil {
			continue
		}
		if err := s.drain(); err != nil {
			return err
		}
	}
	return nil
}

// drain consumes the stream to EOF per its mode.
func (s *Stream) drain() error {
	switch s.Mode {
	case policy.ReadAll:
		raw, err := io.ReadAll(s.R)
		s.Data.Raw = raw
		if err != nil {
			return fmt.Errorf("drain %s: %w", s.Name, err)
		}
		return nil

	case policy.LineByLine, policy.ConcurrentLineByLine, "":
		capture := &captureSink{}
		sink := LineSink(capture)
		if s.Sink != nil {
			sink = sinks{capture, s.Sink}
		}
		err := readLines(s.R, sink)
		s.Data.Lines = capture.lines
		if err != nil {
			return fmt.Errorf("drain %s: %w", s.Name, err)
		}
		return nil

	default:
		return fmt.Errorf("drain %s: unknown mode %q", s.Name, s.Mode)
	}
}

// readLines scans r line by line until EOF, feeding each decoded line to
// the sink. A trailing fragment without a terminating newline is yielded
// as a final line.
func readLines(r io.Reader, sink LineSink) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, maxLineSize), maxBufferSize)

	for scanner.Scan() {
		sink.HandleLine(scanner.Text())
	}
	return scanner.Err()
}
