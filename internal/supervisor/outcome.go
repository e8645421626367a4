package supervisor

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"

	"timeback/internal/services"
)

// State is the lifecycle position of one supervised attempt.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Exit describes how a child process ended.
type Exit struct {
	ExitCode int
	Signal   syscall.Signal
	Signaled bool
	Err      error
}

// Outcome is the classified result of a supervised run. It reflects the last
// attempt; Attempts counts every attempt made.
type Outcome struct {
	State        State
	Success      bool
	ExitCode     int
	Signal       string
	TimedOut     bool
	MemoryKilled bool
	Retryable    bool
	Attempts     int
	StderrTail   string
}

// classify turns a raw exit into an outcome. timedOut is set when the
// supervisor's deadline fired; forced is set when the supervisor itself sent
// SIGKILL, which must not be mistaken for the OS out-of-memory killer.
func classify(exit Exit, timedOut, forced bool) Outcome {
	out := Outcome{ExitCode: exit.ExitCode, TimedOut: timedOut}
	if exit.Signaled {
		out.Signal = unix.SignalName(exit.Signal)
		if out.Signal == "" {
			out.Signal = exit.Signal.String()
		}
	}
	switch {
	case timedOut:
		out.State = StateTimedOut
		out.Retryable = true
	case exit.Signaled && exit.Signal == unix.SIGKILL && !forced:
		out.State = StateFailed
		out.MemoryKilled = true
		out.Retryable = true
	case exit.Signaled && exit.Signal == unix.SIGTERM:
		out.State = StateTimedOut
		out.Retryable = true
	case exit.Err == nil && !exit.Signaled && exit.ExitCode == 0:
		out.State = StateCompleted
		out.Success = true
	default:
		out.State = StateFailed
	}
	return out
}

// Err maps a failed outcome onto the service error taxonomy.
func (o Outcome) Err(binary string) error {
	switch {
	case o.Success:
		return nil
	case o.MemoryKilled:
		return services.Wrap(services.ErrResourceExhausted, "supervisor", binary,
			fmt.Sprintf("killed by %s after %d attempt(s)", o.Signal, o.Attempts), nil)
	case o.TimedOut:
		return services.Wrap(services.ErrTimeout, "supervisor", binary,
			fmt.Sprintf("timed out after %d attempt(s)", o.Attempts), nil)
	case o.State == StateTimedOut:
		return services.Wrap(services.ErrTimeout, "supervisor", binary,
			fmt.Sprintf("terminated by %s after %d attempt(s)", o.Signal, o.Attempts), nil)
	case o.Signal != "":
		return services.Wrap(services.ErrExternalTool, "supervisor", binary,
			fmt.Sprintf("killed by %s: %s", o.Signal, o.StderrTail), nil)
	default:
		return services.Wrap(services.ErrExternalTool, "supervisor", binary,
			fmt.Sprintf("exit status %d: %s", o.ExitCode, o.StderrTail), nil)
	}
}
