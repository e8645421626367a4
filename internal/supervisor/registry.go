package supervisor

import (
	"sort"
	"sync"

	"golang.org/x/sys/unix"
)

// Registry tracks the processes currently running under any Supervisor that
// shares it. It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	active map[int]Process
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[int]Process)}
}

// Register records a started process.
func (r *Registry) Register(p Process) {
	if r == nil || p == nil {
		return
	}
	r.mu.Lock()
	r.active[p.Pid()] = p
	r.mu.Unlock()
}

// Deregister forgets a process once it has exited.
func (r *Registry) Deregister(p Process) {
	if r == nil || p == nil {
		return
	}
	r.mu.Lock()
	delete(r.active, p.Pid())
	r.mu.Unlock()
}

// Active returns the pids of registered processes in ascending order.
func (r *Registry) Active() []int {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	pids := make([]int, 0, len(r.active))
	for pid := range r.active {
		pids = append(pids, pid)
	}
	r.mu.Unlock()
	sort.Ints(pids)
	return pids
}

// TerminateAll sends SIGTERM to every registered process group and returns
// how many were signalled. Supervisors escalate to SIGKILL on their own once
// their context is cancelled and the grace window passes.
func (r *Registry) TerminateAll() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	procs := make([]Process, 0, len(r.active))
	for _, p := range r.active {
		procs = append(procs, p)
	}
	r.mu.Unlock()

	count := 0
	for _, p := range procs {
		if err := p.Signal(unix.SIGTERM); err == nil {
			count++
		}
	}
	return count
}
