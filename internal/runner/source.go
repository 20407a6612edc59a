package runner

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// stdoutSource is where the child's standard output is read from: either a
// plain pipe or the master side of a pseudo-terminal.
type stdoutSource struct {
	reader   *os.File
	childEnd *os.File
	pty      bool
}

func (r *Runner) openStdout() (*stdoutSource, error) {
	if !r.PTY {
		pr, pw, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
		}
		return &stdoutSource{reader: pr, childEnd: pw}, nil
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open pty: %w", err)
	}
	if f, ok := r.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if err := pty.InheritSize(f, ptmx); err != nil {
			r.logger().Debug("could not copy terminal size to pty", "error", err)
		}
	}
	return &stdoutSource{reader: ptmx, childEnd: tty, pty: true}, nil
}

// isNormalEOF reports whether err is how this source signals that the child
// closed its end. A pty master returns EIO once the last slave fd is gone.
func (s *stdoutSource) isNormalEOF(err error) bool {
	return s.pty && errors.Is(err, syscall.EIO)
}

func (s *stdoutSource) CloseChildEnd() {
	if s.childEnd != nil {
		_ = s.childEnd.Close()
		s.childEnd = nil
	}
}

// Close releases both ends. Only used when the command never started;
// afterwards the reader belongs to its pump.
func (s *stdoutSource) Close() {
	s.CloseChildEnd()
	_ = s.reader.Close()
}
