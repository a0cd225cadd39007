//go:build !windows

package subprocess

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signal is the cross-platform signal number type exposed by this module
// (spec.md §4.6).
type Signal int32

// POSIX signal numbers (spec.md §4.6). Windows lacks SIGQUIT/SIGPIPE; see
// signals_windows.go.
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
const DefaultKillSignal = SIGTERM

func sysProcAttrFor(spec CommandSpec) *syscall.SysProcAttr {
	_ = spec
	return &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup signals the whole process group so pipeline children
// spawned by the target (if any) are reached too. ESRCH is treated as
// success and returns nil.
func killProcessGroup(pid int, sig Signal) error {
	err := unix.Kill(-pid, unix.Signal(sig))
	if err != nil && errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func exitInfo(state *os.ProcessState) (exitCode int64, termSignal int32) {
	if state == nil {
		return -1, 0
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		uws := unix.WaitStatus(ws)
		if uws.Signaled() {
			return int64(128 + int(uws.Signal())), int32(uws.Signal())
		}
		return int64(uws.ExitStatus()), 0
	}
	return int64(state.ExitCode()), 0
}
