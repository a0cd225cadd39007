package subprocess

import "strings"

// Flags is the loop-level spawn flag bitset (spec.md §6). Bit 0 is the
// Windows "disable exact name matching" flag. os/exec has no flag word to
// pass, so Flags never reaches the spawn call as a whole: on Windows,
// sysProcAttrFor maps bit 0 to CREATE_NEW_PROCESS_GROUP, and all higher
// bits are ignored.
type Flags uint32

const (
	// FlagWindowsDisableExactName mirrors the loop's native flag bit. The
	// loop's default sense is inverted relative to caller semantics, so
	// SpawnPrimitive computes the XOR-toggled value (§4.3 step 5); that
	// toggled value is not passed to os/exec.
	FlagWindowsDisableExactName Flags = 1 << 0
)

// CommandSpec is the immutable description of one leaf command: argv, an
// optional environment and working directory, a cpu affinity mask, loop
// flags, and whether a non-zero exit should be ignored when aggregating
// ProcessFailed across a chain.
type CommandSpec struct {
	// Argv is the ordered argument vector; Argv[0] is the program to exec.
	// Must be non-empty — SpawnPrimitive rejects an empty Argv with
	// InvalidArgument.
	Argv []string
	// Env holds additional "KEY=VALUE" entries. A nil Env means inherit
	// the parent's environment unmodified.
	Env []string
	// Dir is the child's working directory; empty means inherit.
	Dir string
	// Flags are loop-level spawn flags, before the Windows bit toggle.
	Flags Flags
	// CPUMask holds CPU indices for the child's affinity. It is carried
	// on the spec only: spawnOne does not apply it, so the child is not
	// pinned.
	CPUMask []int
	// IgnoreStatus suppresses ProcessFailed for this command alone when
	// it exits non-zero.
	IgnoreStatus bool
}

// Display renders the command the way SpawnError and logging want it:
// a single shell-quoted-ish string, good enough for diagnostics.
func (c CommandSpec) Display() string {
	return strings.Join(c.Argv, " ")
}

// NewCommand builds a CommandSpec from a program name and arguments,
// mirroring the teacher's NewProcess(cmd, args) constructor. Further
// options are applied with the With* methods, each returning the
// (mutated) CommandSpec by value so calls chain naturally:
//
//	cmd := NewCommand("grep", "-n", "TODO").WithDir("/srv").IgnoringStatus()
func NewCommand(program string, args ...string) CommandSpec {
	return CommandSpec{Argv: append([]string{program}, args...)}
}

// WithEnv returns a copy of c with Env set to env.
func (c CommandSpec) WithEnv(env []string) CommandSpec {
	c.Env = env
	return c
}

// WithDir returns a copy of c with Dir set.
func (c CommandSpec) WithDir(dir string) CommandSpec {
	c.Dir = dir
	return c
}

// WithFlags returns a copy of c with Flags set.
func (c CommandSpec) WithFlags(flags Flags) CommandSpec {
	c.Flags = flags
	return c
}

// WithCPUMask returns a copy of c with CPUMask set to the given CPU
// indices (not applied at spawn; see CPUMask).
func (c CommandSpec) WithCPUMask(cpus ...int) CommandSpec {
	c.CPUMask = cpus
	return c
}

// IgnoringStatus returns a copy of c with IgnoreStatus set, so a non-zero
// exit from this single command does not surface as ProcessFailed.
func (c CommandSpec) IgnoringStatus() CommandSpec {
	c.IgnoreStatus = true
	return c
}
