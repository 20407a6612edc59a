package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// SignalExitCode is the wrapper's exit code when the child was killed by a
// signal and has no exit code of its own.
const SignalExitCode = 64

// Outcome describes how a child process terminated.
type Outcome struct {
	ExitCode   int // -1 if the process was terminated by a signal
	Signaled   bool
	Signal     syscall.Signal
	CoreDumped bool

	// Unknown is set when Wait failed without reporting a status.
	Unknown bool
	Reason  string
}

// FromState builds an Outcome from the state returned by Wait.
func FromState(state *os.ProcessState) Outcome {
	outcome := Outcome{ExitCode: state.ExitCode()}
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		outcome.Signaled = true
		outcome.Signal = status.Signal()
		outcome.CoreDumped = status.CoreDump()
	}
	return outcome
}

// FromWaitError builds an Outcome from the error returned by exec.Cmd.Wait.
// A nil error is a clean exit. Errors that carry no process state (for
// example a failure copying stdin) are returned unchanged.
func FromWaitError(cmd *exec.Cmd, err error) (Outcome, error) {
	if err == nil {
		return FromState(cmd.ProcessState), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return FromState(exitErr.ProcessState), nil
	}
	if cmd.ProcessState != nil {
		return FromState(cmd.ProcessState), err
	}
	return Outcome{ExitCode: -1, Unknown: true, Reason: err.Error()}, err
}

// Code returns the exit code the wrapper should use to mirror this outcome.
func (o Outcome) Code() int {
	if o.Unknown || o.Signaled || o.ExitCode < 0 {
		return SignalExitCode
	}
	return o.ExitCode
}

// String renders the outcome as "exit status: 1" or "signal: 9 (SIGKILL)".
func (o Outcome) String() string {
	if o.Unknown {
		return fmt.Sprintf("status: unknown (%s)", o.Reason)
	}
	if !o.Signaled {
		return fmt.Sprintf("exit status: %d", o.ExitCode)
	}
	s := fmt.Sprintf("signal: %d (%s)", int(o.Signal), SignalName(o.Signal))
	if o.CoreDumped {
		s += " (core dumped)"
	}
	return s
}
