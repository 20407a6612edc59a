package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"syscall"
)

// ioErrorExitBase is added to the OS error number of an I/O failure to form
// the wrapper's exit code.
const ioErrorExitBase = 64

// SpawnError reports a command that could not be started.
type SpawnError struct {
	Command string
	Err     error
}

// Error reads "cmd: <cause>". The command name is not repeated when the
// cause already carries it.
func (e *SpawnError) Error() string {
	cause := e.Err
	var execErr *exec.Error
	var pathErr *fs.PathError
	switch {
	case errors.As(cause, &execErr):
		cause = execErr.Err
	case errors.As(cause, &pathErr):
		cause = pathErr.Err
	}
	return fmt.Sprintf("%s: %v", e.Command, cause)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ErrorExitCode maps err to 64 plus its OS error number, or 64 when err
// carries none.
func ErrorExitCode(err error) int {
	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		return ioErrorExitBase + int(errno)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ioErrorExitBase + int(syscall.ENOENT)
	case errors.Is(err, fs.ErrPermission):
		return ioErrorExitBase + int(syscall.EACCES)
	default:
		return ioErrorExitBase
	}
}
