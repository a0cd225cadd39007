package subprocess

import (
	"context"
	"os"

	"github.com/duskline/subprocess/internal/errs"
)

// stdioResult is what StdioSetup produces for one slot: the SpawnSlot to
// hand to the loop, an optional close-after-spawn hook (the caller must
// invoke it once the spawn call returns, success or failure), and an
// optional SyncCloseFD when a forwarder task was started.
type stdioResult struct {
	slot       SpawnSlot
	closeAfter func() error
	sync       *SyncCloseFD
}

// setupOneStdio converts a single Redirectable into a stdioResult
// (spec.md §4.2). stdIndex identifies the slot (0=stdin,1=stdout,2=stderr)
// for Inherit resolution; childReadable is true exactly for stdin-like
// slots where the child reads and the parent writes.
func setupOneStdio(ctx context.Context, r Redirectable, stdIndex int, childReadable bool, bufSize int) (res stdioResult, err error) {
	switch v := r.(type) {
	case nil, Null:
		res.slot = nullSlot()
		return res, nil

	case Inherit:
		f := stdFile(stdIndex)
		res.slot = SpawnSlot{Kind: KindFD, FD: f.Fd()}
		return res, nil

	case FD:
		res.slot = SpawnSlot{Kind: KindFD, FD: v.Fd}
		return res, nil

	case File:
		file, ferr := openRedirectFile(v, childReadable)
		if ferr != nil {
			return res, errs.Newf(errs.CodeInvalidArgument, "open redirect file %q", v.Path).WithCause(ferr)
		}
		res.slot = SpawnSlot{Kind: KindFD, FD: file.Fd()}
		res.closeAfter = file.Close
		return res, nil

	case *PipeEndpoint:
		return setupPipeEndpoint(v, childReadable)

	case Stream:
		return setupStreamForward(ctx, v, childReadable, bufSize)

	default:
		return res, errs.Newf(errs.CodeInvalidArgument, "unsupported redirectable type %T", r)
	}
}

func stdFile(stdIndex int) *os.File {
	switch stdIndex {
	case 0:
		return os.Stdin
	case 1:
		return os.Stdout
	default:
		return os.Stderr
	}
}

func openRedirectFile(v File, childReadable bool) (*os.File, error) {
	if childReadable {
		return os.OpenFile(v.Path, os.O_RDONLY, 0)
	}
	flag := os.O_WRONLY | os.O_CREATE
	if v.Append {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	return os.OpenFile(v.Path, flag, 0644)
}

func setupPipeEndpoint(v *PipeEndpoint, childReadable bool) (stdioResult, error) {
	var res stdioResult

	if v.linked != nil {
		// Bidirectional pipe object: an earlier slot already linked this
		// endpoint, so the OS pipe exists. Hand this slot the end matching
		// its own direction instead of allocating a second pipe, and skip
		// close-after-spawn entirely — the caller owns both fds once a
		// PipeEndpoint is shared this way (spec.md §4.2, "Bidirectional
		// pipe object").
		var handle fileHandle
		if childReadable {
			handle, _ = v.linked.ReadCloser.(fileHandle)
		} else {
			handle, _ = v.linked.WriteCloser.(fileHandle)
		}
		if handle == nil {
			return res, errs.New(errs.CodeInvalidArgument, "pipe endpoint has no end matching the requested direction")
		}
		res.slot = SpawnSlot{Kind: KindLoopHandle, File: handle}
		return res, nil
	}

	pf := PipeFactory{}
	readEnd, writeEnd, err := pf.linkPipe()
	if err != nil {
		return res, err
	}

	if childReadable {
		// Child reads; parent keeps the write end.
		v.linked = &linkedPipe{WriteCloser: writeEnd}
		res.slot = SpawnSlot{Kind: KindLoopHandle, File: readEnd}
		childEnd := readEnd
		res.closeAfter = func() error { return pf.closeSync(childEnd) }
	} else {
		// Child writes; parent keeps the read end.
		v.linked = &linkedPipe{ReadCloser: readEnd}
		res.slot = SpawnSlot{Kind: KindLoopHandle, File: writeEnd}
		childEnd := writeEnd
		res.closeAfter = func() error { return pf.closeSync(childEnd) }
	}

	return res, nil
}

func setupStreamForward(ctx context.Context, v Stream, childReadable bool, bufSize int) (stdioResult, error) {
	var res stdioResult
	pf := PipeFactory{}

	readEnd, writeEnd, err := pf.linkPipe()
	if err != nil {
		return res, err
	}

	var childEnd, parentEnd fileHandle
	if childReadable {
		childEnd, parentEnd = readEnd, writeEnd
	} else {
		childEnd, parentEnd = writeEnd, readEnd
	}

	task := startForwarder(ctx, childReadable, parentEnd, v, bufSize)
	idxCloser := func() error { return pf.closeSync(childEnd) }

	res.slot = SpawnSlot{Kind: KindLoopHandle, File: childEnd}
	res.closeAfter = idxCloser
	res.sync = &SyncCloseFD{Close: idxCloser, Task: task}
	return res, nil
}

// setupStdioVector converts a 3-or-more-length Redirectable vector
// (stdin, stdout, stderr, ...) into parallel SpawnSlot/close-after/
// sync-task vectors, closing every partially acquired endpoint if any
// slot fails (spec.md §4.2 "scoped acquisition with guaranteed release").
func setupStdioVector(ctx context.Context, rs []Redirectable, bufSize int) (slots []SpawnSlot, closers []func() error, syncs []*SyncCloseFD, err error) {
	slots = make([]SpawnSlot, len(rs))
	closers = make([]func() error, 0, len(rs))
	syncs = make([]*SyncCloseFD, 0)

	for i, r := range rs {
		childReadable := i == 0 // only fd 0 (stdin) is child-readable by convention
		res, serr := setupOneStdio(ctx, r, i, childReadable, bufSize)
		if serr != nil {
			for _, c := range closers {
				_ = c()
			}
			return nil, nil, nil, serr
		}
		slots[i] = res.slot
		if res.closeAfter != nil {
			closers = append(closers, res.closeAfter)
		}
		if res.sync != nil {
			res.sync.SlotIndex = i
			syncs = append(syncs, res.sync)
		}
	}

	return slots, closers, syncs, nil
}
