// Package policy defines the redirection policies for a child process's
// standard output and error streams.
//
// A policy is an immutable configuration value chosen before spawn. Exactly
// one policy applies to each of stdout and stderr, and the two may differ.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
)

// Kind identifies how a standard stream is handled.
type Kind string

const (
	// KindDiscard routes the stream to the null device. No bytes pass
	// through the calling process.
	KindDiscard Kind = "discard"

	// KindInherit connects the stream to the parent's own handle.
	KindInherit Kind = "inherit"

	// KindToFile redirects the stream to a file. The file descriptor is
	// handed to the child directly; the OS performs the copy.
	KindToFile Kind = "file"

	// KindToPipe attaches an anonymous pipe. The caller becomes the
	// intermediary and must drain the pipe or the child will block once
	// the OS pipe buffer fills.
	KindToPipe Kind = "pipe"
)

// PipeMode selects the drain granularity for a KindToPipe policy.
type PipeMode string

const (
	// LineByLine splits the stream on line terminators. A trailing
	// fragment with no terminating newline is yielded as a final line.
	LineByLine PipeMode = "lines"

	// ReadAll yields the entire raw byte sequence once EOF is reached.
	ReadAll PipeMode = "readall"

	// ConcurrentLineByLine is LineByLine with a dedicated reader
	// goroutine per stream. It is the only mode guaranteed deadlock-free
	// when the child can overfill the pipe buffers of both streams.
	ConcurrentLineByLine PipeMode = "concurrent"
)

// Policy is the chosen handling for one standard stream.
type Policy struct {
	kind Kind
	path string
	mode PipeMode
}

// Discard returns a policy routing the stream to the null device.
func Discard() Policy {
	return Policy{kind: KindDiscard}
}

// Inherit returns a policy connecting the stream to the parent's handle.
func Inherit() Policy {
	return Policy{kind: KindInherit}
}

// ToFile returns a policy redirecting the stream to the file at path.
// The file is created (truncated if existing) before the child is spawned.
// The parent directory of path must exist.
func ToFile(path string) Policy {
	return Policy{kind: KindToFile, path: path}
}

// ToPipe returns a policy attaching an anonymous pipe drained with the
// given granularity.
func ToPipe(mode PipeMode) Policy {
	return Policy{kind: KindToPipe, mode: mode}
}

// Kind returns the policy kind.
func (p Policy) Kind() Kind {
	return p.kind
}

// Path returns the redirect target for KindToFile policies, or "".
func (p Policy) Path() string {
	return p.path
}

// Mode returns the drain granularity for KindToPipe policies, or "".
func (p Policy) Mode() PipeMode {
	return p.mode
}

// IsPipe reports whether the policy attaches a pipe.
func (p Policy) IsPipe() bool {
	return p.kind == KindToPipe
}

// String returns a human-readable description of the policy.
func (p Policy) String() string {
	switch p.kind {
	case KindToFile:
		return fmt.Sprintf("%s(%s)", p.kind, p.path)
	case KindToPipe:
		return fmt.Sprintf("%s(%s)", p.kind, p.mode)
	case "":
		return string(KindDiscard)
	default:
		return string(p.kind)
	}
}

// Validate checks that the policy is internally consistent and, for
// KindToFile, that the target's parent directory exists.
func (p Policy) Validate() error {
	switch p.kind {
	case KindDiscard, KindInherit, "":
		// Zero value behaves as Discard.
		return nil

	case KindToFile:
		if p.path == "" {
			return fmt.Errorf("file policy: path must not be empty")
		}
		dir := filepath.Dir(p.path)
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("file policy: parent directory %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("file policy: parent %s is not a directory", dir)
		}
		return nil

	case KindToPipe:
		switch p.mode {
		case LineByLine, ReadAll, ConcurrentLineByLine:
			return nil
		default:
			return fmt.Errorf("pipe policy: unknown mode %q", p.mode)
		}

	default:
		return fmt.Errorf("unknown policy kind %q", p.kind)
	}
}
