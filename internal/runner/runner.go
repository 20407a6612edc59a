package runner

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"rtss/internal/process"
	"rtss/pkg/durfmt"
	"rtss/pkg/linestamp"
)

// Runner wraps a command, or its own standard input, and timestamps every
// output line relative to a shared start instant.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Format renders the durations in line prefixes. The summary line is
	// always rendered with durfmt.Human.
	Format durfmt.Formatter

	// PTY gives the child a pseudo-terminal as standard output, so programs
	// which buffer when writing to a pipe flush per line.
	PTY bool

	Logger *slog.Logger

	start time.Time
}

// PumpResult is what one stream copy produced.
type PumpResult struct {
	Stream string
	Bytes  int64
	Err    error
}

// Report is the outcome of a wrapped command.
type Report struct {
	Outcome process.Outcome
	Stdout  PumpResult
	Stderr  PumpResult
}

// New returns a Runner wired to the process' own standard streams. start is
// the instant every "since start" field is measured from.
func New(start time.Time) *Runner {
	return &Runner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Format: durfmt.Human,
		Logger: slog.Default(),
		start:  start,
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Execute runs args as a command, or filters standard input when args is
// empty, and returns the exit code the wrapper should exit with.
func (r *Runner) Execute(args []string) int {
	if len(args) == 0 {
		return r.Filter()
	}

	report, err := r.Run(args)
	if err != nil {
		fmt.Fprintln(r.Stderr, err)
		return ErrorExitCode(err)
	}
	return report.Outcome.Code()
}

// Filter copies standard input to standard output with line timestamps,
// then prints a summary line.
func (r *Runner) Filter() int {
	n, err := linestamp.Copy(r.Stdout, r.Stdin, r.Format, linestamp.StdoutSeparator, r.start)

	code := 0
	if err != nil {
		r.logger().Warn("copy failed", "stream", "stdin", "error", err)
		code = ErrorExitCode(err)
	}
	r.logger().Debug("input finished", "bytes", n)

	fmt.Fprintf(r.Stdout, "%8s    exit code: %d\n", durfmt.Human(time.Since(r.start)), code)
	return code
}

// Run starts the command, pumps its standard output and standard error until
// both are drained, and prints a summary line. The returned error is only
// set when the command could not be started.
func (r *Runner) Run(args []string) (*Report, error) {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = r.Stdin

	stdout, err := r.openStdout()
	if err != nil {
		return nil, &SpawnError{Command: args[0], Err: err}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdout.Close()
		return nil, &SpawnError{Command: args[0], Err: fmt.Errorf("failed to create stderr pipe: %w", err)}
	}

	cmd.Stdout = stdout.childEnd
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdout.Close()
		_ = stderrR.Close()
		_ = stderrW.Close()
		return nil, &SpawnError{Command: args[0], Err: err}
	}
	r.logger().Debug("started command", "command", args[0], "pid", cmd.Process.Pid, "pty", stdout.pty)

	// The child holds its own copies now. Ours must go, or the pumps never
	// see end of stream.
	stdout.CloseChildEnd()
	_ = stderrW.Close()

	stdoutDone := make(chan PumpResult, 1)
	stderrDone := make(chan PumpResult, 1)
	go r.pump("stdout", r.Stdout, stdout.reader, linestamp.StdoutSeparator, stdoutDone)
	go r.pump("stderr", r.Stderr, stderrR, linestamp.StderrSeparator, stderrDone)

	outcome, waitErr := process.FromWaitError(cmd, cmd.Wait())

	report := &Report{Outcome: outcome}
	report.Stdout = <-stdoutDone
	report.Stderr = <-stderrDone

	if waitErr != nil {
		r.logger().Warn("wait failed", "command", args[0], "error", waitErr)
	}
	for _, res := range []PumpResult{report.Stdout, report.Stderr} {
		r.logger().Debug("stream finished", "stream", res.Stream, "bytes", res.Bytes)
		if res.Err == nil {
			continue
		}
		if res.Stream == "stdout" && stdout.isNormalEOF(res.Err) {
			continue
		}
		r.logger().Warn("copy failed", "stream", res.Stream, "error", res.Err)
	}

	fmt.Fprintf(r.Stdout, "%8s    %s\n", durfmt.Human(time.Since(r.start)), outcome)
	return report, nil
}

// pump owns src and closes it as soon as the copy stops, so a child still
// writing to a stream whose sink failed gets EPIPE instead of blocking.
func (r *Runner) pump(stream string, dst io.Writer, src io.ReadCloser, separator rune, done chan<- PumpResult) {
	defer func() { _ = src.Close() }()
	n, err := linestamp.Copy(dst, src, r.Format, separator, r.start)
	done <- PumpResult{Stream: stream, Bytes: n, Err: err}
}
