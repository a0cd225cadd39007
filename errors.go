package subprocess

import (
	"errors"
	"fmt"

	"github.com/duskline/subprocess/internal/errs"
)

// InvalidArgument reports an empty argv or a contradictory stdio mode
// combination (spec.md §7).
type InvalidArgument struct{ Message string }

func (e *InvalidArgument) Error() string { return "invalid argument: " + e.Message }

// SpawnError reports that the loop's spawn call itself failed; the
// process never started (spec.md §7).
type SpawnError struct {
	Code       string
	CmdDisplay string
	Cause      error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %s", e.CmdDisplay, e.Code)
}
func (e *SpawnError) Unwrap() error { return e.Cause }

// KillError reports that signaling a process failed with something other
// than ESRCH (spec.md §7 — ESRCH itself is treated as success and never
// surfaces here).
type KillError struct{ Cause error }

func (e *KillError) Error() string { return fmt.Sprintf("kill failed: %v", e.Cause) }
func (e *KillError) Unwrap() error { return e.Cause }

// PidError reports that a Pid() query hit a process whose handle is
// already gone (spec.md §7).
type PidError struct{}

func (e *PidError) Error() string { return "process handle is gone" }

// ProcessFailed reports that one or more chain members exited non-zero
// without IgnoreStatus set (spec.md §7).
type ProcessFailed struct{ Results []Results }

func (e *ProcessFailed) Error() string {
	for _, r := range e.Results {
		if r.ExitCode != 0 || r.TermSignal != 0 {
			return fmt.Sprintf("process %q failed: exit_code=%d term_signal=%d", r.Command, r.ExitCode, r.TermSignal)
		}
	}
	return "process chain failed"
}

// IoForwardError reports that a forwarder task ended with an error other
// than clean EOF (spec.md §7).
type IoForwardError struct{ Cause error }

func (e *IoForwardError) Error() string { return fmt.Sprintf("io forward failed: %v", e.Cause) }
func (e *IoForwardError) Unwrap() error { return e.Cause }

// PipeError is this module's UV_EPIPE: Open's scoped-execution helper
// raises it when the callback returned without the child's stdout
// reaching EOF (spec.md §4.7 step 4, §7).
type PipeError struct{}

func (e *PipeError) Error() string { return "stdout was not fully drained before exit" }

// translate maps the internal *errs.Error codes produced by the lower
// layers onto the public error kinds above. Anything that isn't an
// *errs.Error (e.g. a plain io error from a forwarder's underlying
// stream) passes through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var ie *errs.Error
	if !errors.As(err, &ie) {
		return err
	}
	switch ie.Code {
	case errs.CodeInvalidArgument:
		return &InvalidArgument{Message: ie.Message}
	case errs.CodeSpawnError:
		return &SpawnError{Code: string(ie.Code), CmdDisplay: ie.Message, Cause: ie.Cause}
	case errs.CodeKillError:
		return &KillError{Cause: ie}
	case errs.CodePidError:
		return &PidError{}
	case errs.CodeIoForwardError:
		return &IoForwardError{Cause: ie.Cause}
	case errs.CodePipeError:
		return &PipeError{}
	default:
		return err
	}
}

// processFailedFrom scans chain for any member that exited non-zero (or
// was signaled) without IgnoreStatus set, returning a *ProcessFailed
// carrying every member's outcome if so (spec.md §7, "ignore_status
// suppresses ProcessFailed for that single command").
func processFailedFrom(chain *ProcessChain) error {
	failed := false
	for _, p := range chain.Processes() {
		if p.CommandSpec().IgnoreStatus {
			continue
		}
		if p.ExitCode() != 0 || p.Signaled() {
			failed = true
			break
		}
	}
	if !failed {
		return nil
	}
	return &ProcessFailed{Results: chain.Results()}
}
