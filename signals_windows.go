//go:build windows

package subprocess

import (
	"os"
	"syscall"
)

// Signal is the cross-platform signal number type exposed by this module
// (spec.md §4.6). Windows has no native SIGQUIT/SIGPIPE; they are kept as
// numeric constants for API parity. Kill does not reject any of them:
// killProcessGroup turns every signal into os.Kill, the only signal the
// standard library supports here.
type Signal int32

const (
	SIGHUP  Signal = 1
	SIGINT  Signal = 2
	SIGQUIT Signal = 3
	SIGKILL Signal = 9
	SIGPIPE Signal = 13
	SIGTERM Signal = 15
)

// DefaultKillSignal is the signal this module sends when it kills on the
// caller's behalf (composition-failure cleanup, WithOpen's grace timer).
const DefaultKillSignal = SIGKILL

func sysProcAttrFor(spec CommandSpec) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{}
	// Non-goal per spec.md §1: Windows console quirks beyond this bit are
	// out of scope. CREATE_NEW_PROCESS_GROUP is the nearest analogue to
	// the spec's WINDOWS_DISABLE_EXACT_NAME toggle living at the
	// SysProcAttr level. This is the only place spec.Flags affects the
	// child: the XOR toggle computed in spawn.go is not passed anywhere.
	if spec.Flags&FlagWindowsDisableExactName != 0 {
		attr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
	}
	return attr
}

// killProcessGroup has no process-group equivalent of syscall.Kill(-pid)
// on Windows; it falls back to killing the process itself via the
// standard library, which is the supported surface on this platform.
func killProcessGroup(pid int, sig Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil // ESRCH-equivalent: already gone
	}
	if sig == SIGKILL {
		return proc.Kill()
	}
	return proc.Signal(os.Kill)
}

func exitInfo(state *os.ProcessState) (exitCode int64, termSignal int32) {
	if state == nil {
		return -1, 0
	}
	return int64(state.ExitCode()), 0
}
