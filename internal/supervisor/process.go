package supervisor

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// CommandSpec is the external command to supervise.
type CommandSpec struct {
	Binary string
	Args   []string
	Dir    string
	Env    []string
}

// Process is a started child.
type Process interface {
	Pid() int
	// Signal delivers sig to the child's whole process group.
	Signal(sig syscall.Signal) error
	// Wait blocks until the child exits. It is called exactly once.
	Wait() Exit
}

// Launcher starts child processes.
type Launcher interface {
	Start(ctx context.Context, spec CommandSpec, stderr io.Writer) (Process, error)
}

// ExecLauncher starts real processes in their own process group.
type ExecLauncher struct{}

// Start implements Launcher. The child is not bound to ctx; the supervisor
// owns termination so it can escalate from SIGTERM to SIGKILL.
func (ExecLauncher) Start(_ context.Context, spec CommandSpec, stderr io.Writer) (Process, error) {
	cmd := exec.Command(spec.Binary, spec.Args...) //nolint:gosec
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.Env...)
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Signal(sig syscall.Signal) error {
	err := unix.Kill(-p.cmd.Process.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func (p *execProcess) Wait() Exit {
	err := p.cmd.Wait()
	state := p.cmd.ProcessState
	if state == nil {
		return Exit{ExitCode: -1, Err: err}
	}
	exit := Exit{ExitCode: state.ExitCode()}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		exit.Signaled = true
		exit.Signal = ws.Signal()
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		exit.Err = err
	}
	return exit
}
