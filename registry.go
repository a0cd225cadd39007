package subprocess

import (
	"sync"

	"github.com/duskline/subprocess/internal/obslog"
	"github.com/duskline/subprocess/internal/telemetry"
)

var registryLog = obslog.Component("registry")

// loopMu is the event-loop lock (spec.md §5, "iolock"): a process-wide
// singleton guarding spawn, kill, getpid, associate/disassociate, and the
// completion-callback body. It is initialized once at package load and
// never torn down (§9, "Global state").
var loopMu sync.Mutex

// registry associates a live execHandle with its owning Process so the
// completion callback can recover it from a single pointer read
// (spec.md §4.5, §9 "Cyclic ownership avoided" — the map key is the
// handle's identity, not a strong reference cycle).
var registry = struct {
	mu sync.Mutex
	m  map[*execHandle]*Process
}{m: make(map[*execHandle]*Process)}

// associate records that h now belongs to p. Must be called while
// holding loopMu, and must complete before the loop can possibly dispatch
// a completion callback for h — in this module that means before the
// waiting goroutine is started (spec.md §9, reentrancy note).
func associate(h *execHandle, p *Process) {
	registry.mu.Lock()
	registry.m[h] = p
	registry.mu.Unlock()
}

// disassociate removes h from the registry, returning the Process it was
// bound to (nil if already torn down).
func disassociate(h *execHandle) *Process {
	registry.mu.Lock()
	p := registry.m[h]
	delete(registry.m, h)
	registry.mu.Unlock()
	return p
}

// completionCallback is invoked — conceptually from "an unspecified
// thread" (spec.md §1) — once the child has exited. It writes exit
// status, tears down the registry association, and broadcasts exit_notify
// at most once (spec.md §4.5 steps 1-4).
func completionCallback(h *execHandle, exitCode int64, termSignal int32, span completionSpan) {
	loopMu.Lock()
	p := disassociate(h)
	loopMu.Unlock()

	if p == nil {
		// Already torn down (e.g. raced with finalization); nothing to do.
		return
	}

	p.markComplete(exitCode, termSignal)

	registryLog.Debug().
		Str("cmd", p.spec.Display()).
		Int("pid", p.pid).
		Int64("exit_code", exitCode).
		Int32("term_signal", termSignal).
		Msg("process completed")

	if span.span != nil {
		telemetry.EndSpawn(span.ctx, span.span, p.pid, exitCode, span.elapsedSeconds())
	}
}
