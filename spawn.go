package subprocess

import (
	"context"
	"os"
	"os/exec"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/duskline/subprocess/internal/errs"
	"github.com/duskline/subprocess/internal/obslog"
	"github.com/duskline/subprocess/internal/telemetry"
)

var spawnLog = obslog.Component("spawn")

// completionSpan threads the telemetry span opened at associate-time
// through to the completion callback, where it is closed with the final
// exit status (spec.md §4.5 step 2-3 happen-before the span close).
type completionSpan struct {
	ctx   context.Context
	span  trace.Span
	start time.Time
}

func (s completionSpan) elapsedSeconds() float64 {
	return time.Since(s.start).Seconds()
}

// spawnOne is SpawnPrimitive (spec.md §4.3): marshals one CommandSpec and
// its resolved SpawnSlot vector into a single exec.Cmd, starts it under
// the event-loop lock, and registers the resulting Process for the
// completion callback before releasing the lock — guaranteeing
// associate() happens-before the loop can dispatch that callback.
func spawnOne(spec CommandSpec, slots []SpawnSlot, syncs []*SyncCloseFD) (*Process, error) {
	if len(spec.Argv) == 0 {
		return nil, errs.New(errs.CodeInvalidArgument, "argv must be non-empty")
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = mergeEnv(spec.Env)
	cmd.SysProcAttr = sysProcAttrFor(spec)
	applyStdio(cmd, slots)

	// Step 5: toggle the Windows flag bit relative to caller semantics
	// (spec.md §4.3). os/exec takes no loop flag word, so the toggled
	// value is computed and discarded; the platform-specific SysProcAttr
	// already consumed spec.Flags directly in sysProcAttrFor.
	_ = toggleWindowsFlag(spec.Flags)

	display := spec.Display()
	ctx, span := telemetry.StartSpawn(context.Background(), display)
	cspan := completionSpan{ctx: ctx, span: span, start: time.Now()}

	loopMu.Lock()

	if err := cmd.Start(); err != nil {
		loopMu.Unlock()
		telemetry.EndSpawn(ctx, span, 0, -1, cspan.elapsedSeconds())
		spawnLog.Warn().Str("cmd", display).Err(err).Msg("spawn failed")
		return nil, errs.New(errs.CodeSpawnError, display).WithCause(err)
	}

	h := &execHandle{cmd: cmd}
	p := newProcess(spec, h, cmd.Process.Pid, syncs)
	associate(h, p)

	go waitForCompletion(h, p, cspan)

	loopMu.Unlock()

	spawnLog.Debug().Str("cmd", display).Int("pid", p.pid).Msg("process spawned")
	return p, nil
}

// waitForCompletion runs on its own goroutine per spawned process,
// modeling the spec's "completion callback fires on an unspecified
// thread" (spec.md §1). It blocks on cmd.Wait() and then invokes
// completionCallback with the resolved exit status.
func waitForCompletion(h *execHandle, p *Process, span completionSpan) {
	err := h.cmd.Wait()

	var exitCode int64
	var termSignal int32
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode, termSignal = exitInfo(exitErr.ProcessState)
		} else {
			exitCode, termSignal = -1, 0
		}
	} else {
		exitCode, termSignal = exitInfo(h.cmd.ProcessState)
	}

	completionCallback(h, exitCode, termSignal, span)
}

// toggleWindowsFlag XORs the spec's flag bit the way step 5 of §4.3
// requires: the loop's default sense is inverted relative to caller
// semantics.
func toggleWindowsFlag(flags Flags) Flags {
	return flags ^ FlagWindowsDisableExactName
}

// mergeEnv merges CommandSpec.Env into the current environment, or
// returns nil (inherit unmodified) when no extra entries were given
// (spec.md §3, "absent ⇒ inherit").
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	env := os.Environ()
	return append(env, extra...)
}

// applyStdio maps a SpawnSlot vector onto an exec.Cmd: slots 0/1/2 become
// Stdin/Stdout/Stderr, anything beyond becomes ExtraFiles — Go's natural
// analogue of the spec's "array of (tag, handle) in slot order" wire
// format (spec.md §6), since os/exec already exposes fd 3+ as a file
// slice rather than a flat array.
func applyStdio(cmd *exec.Cmd, slots []SpawnSlot) {
	get := func(i int) *os.File {
		if i >= len(slots) {
			return nil
		}
		return slotFile(slots[i])
	}

	// Assigned through a local *os.File first and only copied into the
	// interface fields when non-nil: a typed-nil *os.File stored directly
	// in an io.Reader/io.Writer field is a non-nil interface, which would
	// defeat os/exec's own "nil means /dev/null" check.
	if f := get(0); f != nil {
		cmd.Stdin = f
	}
	if f := get(1); f != nil {
		cmd.Stdout = f
	}
	if f := get(2); f != nil {
		cmd.Stderr = f
	}

	for i := 3; i < len(slots); i++ {
		f := get(i)
		if f == nil {
			f, _ = os.OpenFile(os.DevNull, os.O_RDWR, 0)
		}
		cmd.ExtraFiles = append(cmd.ExtraFiles, f)
	}
}

// slotFile resolves a SpawnSlot to the *os.File exec.Cmd wants, or nil
// for KindNull (which os/exec already maps to /dev/null semantics).
func slotFile(s SpawnSlot) *os.File {
	switch s.Kind {
	case KindNull:
		return nil
	case KindFD:
		return os.NewFile(s.FD, "fd")
	case KindLoopHandle:
		return s.File
	default:
		return nil
	}
}

