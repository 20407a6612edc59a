package runner

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"syscall"
	"testing"
	"testing/iotest"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	"rtss/internal/process"
	"rtss/pkg/durfmt"
)

type brokenPipeWriter struct{}

func (brokenPipeWriter) Write(p []byte) (int, error) { return 0, syscall.EPIPE }

// executeWithin runs tr.Execute and fails the test if it has not returned by the deadline.
func executeWithin(t *testing.T, tr *testRunner, deadline time.Duration, args ...string) int {
	t.Helper()
	done := make(chan int, 1)
	go func() { done <- tr.Execute(args) }()
	select {
	case code := <-done:
		return code
	case <-time.After(deadline):
		t.Fatalf("Execute(%q) still running after %v", args, deadline)
		return -1
	}
}

type testRunner struct {
	*Runner
	stdout bytes.Buffer
	stderr bytes.Buffer
	log    bytes.Buffer
}

func newTestRunner(t *testing.T) *testRunner {
	t.Helper()
	tr := &testRunner{}
	tr.Runner = New(time.Now())
	tr.Stdin = nil
	tr.Stdout = &tr.stdout
	tr.Stderr = &tr.stderr
	tr.Logger = slog.New(slog.NewTextHandler(&tr.log, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return tr
}

var summaryRe = regexp.MustCompile(`(?m)^ *\S*    (.+)\n\z`)

func summary(t *testing.T, out string) string {
	t.Helper()
	m := summaryRe.FindStringSubmatch(out)
	require.NotNil(t, m, "no summary line in %q", out)
	return m[1]
}

func TestFilter(t *testing.T) {
	tr := newTestRunner(t)
	tr.Stdin = strings.NewReader("alpha\nbeta\n")

	code := tr.Filter()
	require.Equal(t, 0, code)

	out := tr.stdout.String()
	require.Contains(t, out, " | alpha\n")
	require.Contains(t, out, " | beta\n")
	require.Equal(t, "exit code: 0", summary(t, out))
	require.Empty(t, tr.stderr.String())
}

func TestFilter_ReadError(t *testing.T) {
	tr := newTestRunner(t)
	tr.Stdin = iotest.ErrReader(syscall.EBADF)

	code := tr.Execute(nil)
	require.Equal(t, 64+int(syscall.EBADF), code)
	require.Equal(t, "exit code: 73", summary(t, tr.stdout.String()))
	require.Contains(t, tr.log.String(), "copy failed")
	require.Contains(t, tr.log.String(), "stream=stdin")
}

func TestRun_StdoutLines(t *testing.T) {
	tr := newTestRunner(t)

	report, err := tr.Run([]string{"sh", "-c", "echo one; sleep 0.05; echo two"})
	require.NoError(t, err)
	require.Equal(t, 0, report.Outcome.Code())
	require.Equal(t, int64(len("one\ntwo\n")), report.Stdout.Bytes)
	require.NoError(t, report.Stdout.Err)
	require.Equal(t, int64(0), report.Stderr.Bytes)

	out := tr.stdout.String()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4) // two lines, summary, trailing ""
	require.True(t, strings.HasSuffix(lines[0], " | one"), lines[0])
	require.True(t, strings.HasSuffix(lines[1], " | two"), lines[1])
	require.Equal(t, "exit status: 0", summary(t, out))
	require.NotContains(t, tr.log.String(), "copy failed")
}

func TestRun_StderrSeparatorAndExitCode(t *testing.T) {
	tr := newTestRunner(t)

	code := tr.Execute([]string{"sh", "-c", "echo out; echo oops >&2; exit 3"})
	require.Equal(t, 3, code)
	require.Contains(t, tr.stdout.String(), " | out\n")
	require.Contains(t, tr.stderr.String(), " # oops\n")
	require.NotContains(t, tr.stderr.String(), " | ")
	require.Equal(t, "exit status: 3", summary(t, tr.stdout.String()))
}

func TestRun_PartialLastLine(t *testing.T) {
	tr := newTestRunner(t)

	report, err := tr.Run([]string{"sh", "-c", "printf 'no newline'"})
	require.NoError(t, err)
	require.Equal(t, int64(10), report.Stdout.Bytes)
	require.Contains(t, tr.stdout.String(), " | no newline")
}

func TestRun_Signaled(t *testing.T) {
	tr := newTestRunner(t)

	code := tr.Execute([]string{"sh", "-c", "kill -KILL $$"})
	require.Equal(t, process.SignalExitCode, code)
	require.Equal(t, "signal: 9 (SIGKILL)", summary(t, tr.stdout.String()))
}

func TestRun_BothStreamsDrain(t *testing.T) {
	tr := newTestRunner(t)

	script := `i=0; while [ $i -lt 3000 ]; do echo "out $i"; echo "err $i" >&2; i=$((i+1)); done`
	report, err := tr.Run([]string{"sh", "-c", script})
	require.NoError(t, err)
	require.Equal(t, 0, report.Outcome.Code())
	require.Equal(t, 3000, strings.Count(tr.stdout.String(), " | out "))
	require.Equal(t, 3000, strings.Count(tr.stderr.String(), " # err "))

	var want int64
	for i := 0; i < 3000; i++ {
		want += int64(len(fmt.Sprintf("err %d\n", i)))
	}
	require.Equal(t, want, report.Stderr.Bytes)
}

func TestRun_SortableFormat(t *testing.T) {
	tr := newTestRunner(t)
	tr.Format = durfmt.Sortable

	_, err := tr.Run([]string{"sh", "-c", "echo x"})
	require.NoError(t, err)
	require.Regexp(t, `^\d{2}:\d{2}:\d{2}\.\d{6} \d{2}:\d{2}:\d{2}\.\d{6} \| x\n`, tr.stdout.String())
}

func TestRun_CommandNotFound(t *testing.T) {
	tr := newTestRunner(t)

	code := tr.Execute([]string{"rtss-test-no-such-command"})
	require.Equal(t, 64+int(syscall.ENOENT), code)
	require.Equal(t, "rtss-test-no-such-command: executable file not found in $PATH\n", tr.stderr.String())
	require.Empty(t, tr.stdout.String())
}

func TestRun_MissingPath(t *testing.T) {
	tr := newTestRunner(t)

	report, err := tr.Run([]string{"/nonexistent/rtss-test-command"})
	require.Nil(t, report)
	require.Error(t, err)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	require.Equal(t, "/nonexistent/rtss-test-command", spawnErr.Command)
	require.Equal(t, 64+int(syscall.ENOENT), ErrorExitCode(err))
	require.Equal(t, "/nonexistent/rtss-test-command: no such file or directory", err.Error())
}

func TestRun_PTY(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	_ = ptmx.Close()
	_ = tty.Close()

	tr := newTestRunner(t)
	tr.PTY = true

	code := tr.Execute([]string{"sh", "-c", "test -t 1 && echo is-a-tty; echo to-stderr >&2"})
	require.Equal(t, 0, code)
	require.Contains(t, tr.stdout.String(), " | is-a-tty")
	require.Contains(t, tr.stderr.String(), " # to-stderr\n")
	require.Equal(t, "exit status: 0", summary(t, tr.stdout.String()))
	require.NotContains(t, tr.log.String(), "copy failed")
}

func TestErrorExitCode(t *testing.T) {
	require.Equal(t, 64, ErrorExitCode(errors.New("no errno")))
	require.Equal(t, 64+int(syscall.EPIPE), ErrorExitCode(syscall.EPIPE))
	require.Equal(t, 64+int(syscall.EACCES), ErrorExitCode(&SpawnError{Command: "x", Err: syscall.EACCES}))
}

func TestRun_StdoutWriteFailure(t *testing.T) {
	tr := newTestRunner(t)
	tr.Stdout = brokenPipeWriter{}

	// a single short stdout write lands in the pipe before the pump can fail
	script := `echo out; i=0; while [ $i -lt 2000 ]; do echo "err $i" >&2; i=$((i+1)); done; exit 3`
	code := executeWithin(t, tr, 30*time.Second, "sh", "-c", script)
	require.Equal(t, 3, code)

	log := tr.log.String()
	require.Contains(t, log, `msg="copy failed" stream=stdout`)
	require.NotContains(t, log, "stream=stderr error")
	require.Equal(t, 2000, strings.Count(tr.stderr.String(), " # err "))
	require.Contains(t, tr.stderr.String(), " # err 1999\n")
}

func TestRun_StdoutWriteFailureDoesNotBlockChild(t *testing.T) {
	tr := newTestRunner(t)
	tr.Stdout = brokenPipeWriter{}

	// far more than a pipe buffer: the child only finishes if the failed
	// stream's read end gets closed
	script := `i=0; while [ $i -lt 50000 ]; do echo "out $i"; i=$((i+1)); done; exit 3`
	code := executeWithin(t, tr, 30*time.Second, "sh", "-c", script)

	// EPIPE if the child ignores SIGPIPE, otherwise it dies of it
	require.Contains(t, []int{3, process.SignalExitCode}, code)
	require.Contains(t, tr.log.String(), `msg="copy failed" stream=stdout`)
}
