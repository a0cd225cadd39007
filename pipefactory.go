package subprocess

import (
	"fmt"
	"os"
)

// fileHandle is this module's stand-in for the spec's "loop handle": the
// event loop this module sits on is os/exec plus os.Pipe, so a loop
// handle is simply an *os.File wrapping one end of a pipe.
type fileHandle = *os.File

// PipeFactory creates OS pipe pairs for StdioSetup and PipelineComposer,
// and guarantees synchronous closure of both ends on any setup failure
// (spec.md §4.1).
type PipeFactory struct{}

// linkPipe creates a unidirectional OS pipe. Go's os.Pipe does not expose
// per-end nonblocking flags directly, and linkPipe takes none: both ends
// are always created in the mode os.Pipe provides (blocking, which is
// what io.Copy-based forwarder tasks and exec.Cmd's stdio plumbing both
// expect).
func (PipeFactory) linkPipe() (readEnd, writeEnd fileHandle, err error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("subprocess: create pipe: %w", err)
	}
	return r, w, nil
}

// closeSync closes a single pipe end. Closing an already-closed end is a
// programming error in this module, same as the spec: callers must track
// which ends they still own.
func (PipeFactory) closeSync(end fileHandle) error {
	if end == nil {
		return nil
	}
	return end.Close()
}

// closeAll closes every non-nil handle in ends, collecting the first
// error but still attempting to close the rest — used on the
// scoped-acquisition failure paths in StdioSetup and PipelineComposer.
func closeAll(ends ...fileHandle) error {
	var first error
	pf := PipeFactory{}
	for _, e := range ends {
		if err := pf.closeSync(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
