package subprocess

import (
	"math"
	"os/exec"
	"runtime"
	"sync"

	"github.com/duskline/subprocess/internal/errs"
)

const (
	// exitCodeSentinel is Process.exitCode's value before the completion
	// callback has run (spec.md §3, "INT64_MIN").
	exitCodeSentinel = math.MinInt64
	// termSignalSentinel is Process.termSignal's value before the
	// completion callback has run ("INT32_MIN").
	termSignalSentinel = math.MinInt32
)

// execHandle is this module's "loop handle": an opaque, non-owning
// reference the Registry keys associations on (spec.md GLOSSARY).
type execHandle struct {
	cmd *exec.Cmd
}

// Process is the long-lived entity representing one leaf command
// (spec.md §3). It is created on successful spawn, mutated only by the
// completion callback and by Kill/Pid under the event-loop lock, and
// becomes eligible for finalization once unreachable.
type Process struct {
	spec CommandSpec

	mu         sync.Mutex
	handle     *execHandle // nil exactly once handle has been torn down
	pid        int
	exitCode   int64
	termSignal int32

	done     chan struct{}
	doneOnce sync.Once

	syncTasks []*SyncCloseFD
}

// CommandSpec returns the immutable spec this process was spawned from.
func (p *Process) CommandSpec() CommandSpec { return p.spec }

// Running reports whether the process still has a live handle
// (spec.md §4.5, process_running).
func (p *Process) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle != nil
}

// Exited is the negation of Running.
func (p *Process) Exited() bool { return !p.Running() }

// Signaled reports whether the process was terminated by a signal. Only
// meaningful after Wait has returned.
func (p *Process) Signaled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.termSignal > 0
}

// ExitCode returns the exit status, or the sentinel if the process has
// not yet completed. On POSIX a process terminated by a signal reports
// 128 plus the signal number.
func (p *Process) ExitCode() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// TermSignal returns the terminating signal number, 0 if the process
// exited without being signaled, or the sentinel if it has not yet
// completed.
func (p *Process) TermSignal() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.termSignal
}

// Wait blocks until the completion callback has fired, then — if
// joinSync is true — joins every forwarder task associated with this
// process's SyncCloseFD slots, in order (spec.md §4.5).
func (p *Process) Wait(joinSync bool) error {
	<-p.done

	if !joinSync {
		return nil
	}

	var first error
	for _, s := range p.syncTasks {
		if err := s.Task.join(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Pid returns the OS process ID, failing with PidError if the handle is
// already gone (spec.md §4.6).
func (p *Process) Pid() (int, error) {
	loopMu.Lock()
	defer loopMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == nil || p.pid <= 0 {
		return 0, translate(errs.New(errs.CodePidError, "process handle is gone"))
	}
	return p.pid, nil
}

// Kill sends sig to the process's group (DefaultKillSignal is the usual
// choice). Killing an already-exited process is a no-op, matching §4.6's
// "ESRCH is treated as success" rule; any other failure is a KillError.
func (p *Process) Kill(sig Signal) error {
	loopMu.Lock()
	defer loopMu.Unlock()

	p.mu.Lock()
	h := p.handle
	p.mu.Unlock()

	if h == nil || h.cmd.Process == nil {
		return nil
	}

	if err := killProcessGroup(h.cmd.Process.Pid, sig); err != nil {
		return translate(errs.New(errs.CodeKillError, "kill failed").WithCause(err))
	}
	return nil
}

// finalizeProcess is the handle-close hook run by the Go garbage
// collector when a Process has no remaining external references
// (spec.md §5, "Finalization"). It force-closes a still-live handle so
// an abandoned running process does not leak an OS handle.
func finalizeProcess(p *Process) {
	p.mu.Lock()
	h := p.handle
	p.mu.Unlock()

	if h == nil {
		return
	}
	_ = p.Kill(SIGKILL)
}

func newProcess(spec CommandSpec, h *execHandle, pid int, syncTasks []*SyncCloseFD) *Process {
	p := &Process{
		spec:       spec,
		handle:     h,
		pid:        pid,
		exitCode:   exitCodeSentinel,
		termSignal: termSignalSentinel,
		done:       make(chan struct{}),
		syncTasks:  syncTasks,
	}
	runtime.SetFinalizer(p, finalizeProcess)
	return p
}

func (p *Process) markComplete(exitCode int64, termSignal int32) {
	p.mu.Lock()
	p.exitCode = exitCode
	p.termSignal = termSignal
	p.handle = nil
	p.mu.Unlock()

	p.doneOnce.Do(func() { close(p.done) })
}
