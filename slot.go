package subprocess

// HandleKind tags a SpawnSlot's payload, mirroring the wire tags spec.md
// §3/§6 hands to the event loop.
type HandleKind int32

const (
	// KindNull is an unused slot (/dev/null semantics).
	KindNull HandleKind = 0
	// KindFD is a native OS file descriptor (tag=2 in spec.md).
	KindFD HandleKind = 2
	// KindLoopHandle is an event-loop-owned handle: a pipe end created by
	// PipeFactory (tag=4 in spec.md). This module's "loop" is a thin
	// shim over os/exec (see fileHandle in pipefactory.go), so a loop handle is in
	// practice an *os.File wrapping one end of an os.Pipe().
	KindLoopHandle HandleKind = 4
)

// SpawnSlot is the tagged union handed to SpawnPrimitive for one stdio
// slot, matching the wire tuple (tag, handle) of spec.md §3/§6.
type SpawnSlot struct {
	Kind HandleKind
	// FD holds the native descriptor when Kind == KindFD.
	FD uintptr
	// File holds the loop handle when Kind == KindLoopHandle.
	File fileHandle
}

// nullSlot is the zero-value slot: KindNull, no handle.
func nullSlot() SpawnSlot { return SpawnSlot{Kind: KindNull} }

// SyncCloseFD pairs a child-side slot whose EOF semantics require joining
// a forwarder task before wait() can complete (spec.md §3). SlotIndex
// is the position in the slot vector this entry belongs to.
type SyncCloseFD struct {
	SlotIndex int
	Close     func() error
	Task      *forwarderTask
}
