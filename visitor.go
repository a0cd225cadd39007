package subprocess

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/duskline/subprocess/internal/errs"
	"github.com/duskline/subprocess/internal/obslog"
)

var pipelineLog = obslog.Component("pipeline")

// composeVisitor is PipelineComposer (spec.md §4.4): it walks a
// CommandExpr tree, allocating intermediate pipes for Pipe/ErrPipe nodes
// and resolved redirect slots for Redirect nodes, spawning each Single
// leaf it reaches and recording the result into chain. Kept as a visitor
// over the expression's own type switch (rather than a method per node)
// because unlike the builder methods in pipeline.go, the walk needs to
// thread two pieces of state — the live slot vector and the pending
// sync-task map — that don't belong on the expression nodes themselves.
type composeVisitor struct {
	bufSize int
	chain   *ProcessChain
}

// visit lowers expr against the given slot vector and pending sync-task
// map, spawning leaves into v.chain as it goes. slots and syncByIndex are
// never mutated in place — each combinator clones before overriding a
// slot, so sibling subtrees never see each other's substitutions.
func (v *composeVisitor) visit(expr CommandExpr, slots []SpawnSlot, syncByIndex map[int]*SyncCloseFD) error {
	switch e := expr.(type) {
	case *Single:
		return v.visitSingle(e, slots, syncByIndex)
	case *Pipe:
		return v.visitPipe(e, slots, syncByIndex)
	case *ErrPipe:
		return v.visitErrPipe(e, slots, syncByIndex)
	case *Seq:
		return v.visitSeq(e, slots, syncByIndex)
	case *Redirect:
		return v.visitRedirect(e, slots, syncByIndex)
	default:
		return errs.Newf(errs.CodeInvalidArgument, "unknown command expression %T", expr)
	}
}

// visitSingle is SpawnPrimitive's call site: it collects every pending
// forwarder task whose slot survived into this leaf's own vector and
// attaches them to the spawned Process's syncTasks (spec.md §4.3 step 3).
func (v *composeVisitor) visitSingle(s *Single, slots []SpawnSlot, syncByIndex map[int]*SyncCloseFD) error {
	syncs := collectSyncs(syncByIndex)
	p, err := spawnOne(s.Spec, slots, syncs)
	if err != nil {
		return err
	}
	v.chain.processes = append(v.chain.processes, p)
	return nil
}

// visitPipe allocates one OS pipe, substitutes it for A's stdout (slot 1)
// and B's stdin (slot 0), runs both subtrees, then synchronously closes
// both local pipe ends — the children now hold their own duplicates
// (spec.md §4.4, "Pipe").
func (v *composeVisitor) visitPipe(p *Pipe, slots []SpawnSlot, syncByIndex map[int]*SyncCloseFD) error {
	return v.lowerThroughPipe(p.A, p.B, 1, slots, syncByIndex)
}

// visitErrPipe is visitPipe's stderr-sourced sibling: the pipe feeds B's
// stdin from A's stderr (slot 2) instead of A's stdout (spec.md §4.4,
// "ErrPipe").
func (v *composeVisitor) visitErrPipe(e *ErrPipe, slots []SpawnSlot, syncByIndex map[int]*SyncCloseFD) error {
	return v.lowerThroughPipe(e.A, e.B, 2, slots, syncByIndex)
}

// lowerThroughPipe allocates one OS pipe and lowers A and B concurrently
// via errgroup — each side gets its own scratch ProcessChain so the two
// goroutines never touch v.chain.processes at once, and their leaves are
// appended to v.chain in A-then-B order once both have returned,
// preserving spec.md §5's "spawn order equals listing order" guarantee
// even though the two sides may have actually started in either order.
// Running both sides concurrently matters once a side's own StdioSetup
// does blocking work (opening a File, wiring a Stream forwarder): serial
// lowering would needlessly delay the second side's spawn behind the
// first side's setup cost.
func (v *composeVisitor) lowerThroughPipe(a, b CommandExpr, sourceSlot int, slots []SpawnSlot, syncByIndex map[int]*SyncCloseFD) error {
	pf := PipeFactory{}
	readEnd, writeEnd, err := pf.linkPipe()
	if err != nil {
		return err
	}

	aSlots := cloneSlots(slots, sourceSlot, SpawnSlot{Kind: KindLoopHandle, File: writeEnd})
	aSync := cloneSyncMap(syncByIndex)
	delete(aSync, sourceSlot)

	bSlots := cloneSlots(slots, 0, SpawnSlot{Kind: KindLoopHandle, File: readEnd})
	bSync := cloneSyncMap(syncByIndex)
	delete(bSync, 0)

	aChain := &ProcessChain{}
	bChain := &ProcessChain{}
	aVisitor := &composeVisitor{bufSize: v.bufSize, chain: aChain}
	bVisitor := &composeVisitor{bufSize: v.bufSize, chain: bChain}

	var g errgroup.Group
	g.Go(func() error { return aVisitor.visit(a, aSlots, aSync) })
	g.Go(func() error { return bVisitor.visit(b, bSlots, bSync) })
	lowerErr := g.Wait()

	v.chain.processes = append(v.chain.processes, aChain.processes...)
	v.chain.processes = append(v.chain.processes, bChain.processes...)

	// Both local ends are duplicated into whichever child actually
	// started; closing the parent's copies here is safe even for a side
	// that never spawned (os.Pipe ends are independent of exec having
	// run at all).
	closeErr := closeAll(readEnd, writeEnd)

	if lowerErr != nil {
		return lowerErr
	}
	return closeErr
}

// visitSeq runs A's entire subtree to completion (every leaf spawned and
// appended to the chain), then lowers B over the identical slot vector
// and sync map — no pipe is allocated (spec.md §4.4, "Seq").
func (v *composeVisitor) visitSeq(s *Seq, slots []SpawnSlot, syncByIndex map[int]*SyncCloseFD) error {
	if err := v.visit(s.A, slots, syncByIndex); err != nil {
		return err
	}
	return v.visit(s.B, slots, syncByIndex)
}

// visitRedirect resolves Handle via StdioSetup, substitutes it into slot
// FD for Inner's subtree, lowers Inner, then runs the resolved
// close-after-spawn hook — mirroring StdioSetup's own per-slot contract
// (spec.md §4.2) but scoped to one node of the expression tree instead of
// the whole initial vector.
func (v *composeVisitor) visitRedirect(r *Redirect, slots []SpawnSlot, syncByIndex map[int]*SyncCloseFD) error {
	res, err := setupOneStdio(context.Background(), r.Handle, r.FD, r.Readable, v.bufSize)
	if err != nil {
		return err
	}

	newSlots := cloneSlots(slots, r.FD, res.slot)
	newSync := cloneSyncMap(syncByIndex)
	if res.sync != nil {
		res.sync.SlotIndex = r.FD
		newSync[r.FD] = res.sync
	} else {
		delete(newSync, r.FD)
	}

	err = v.visit(r.Inner, newSlots, newSync)

	if res.closeAfter != nil {
		if cerr := res.closeAfter(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// cloneSlots copies slots, growing it with null slots if idx is beyond
// its current length, and sets index idx to replacement.
func cloneSlots(slots []SpawnSlot, idx int, replacement SpawnSlot) []SpawnSlot {
	n := len(slots)
	if idx >= n {
		n = idx + 1
	}
	out := make([]SpawnSlot, n)
	copy(out, slots)
	for i := len(slots); i < n; i++ {
		out[i] = nullSlot()
	}
	out[idx] = replacement
	return out
}

func cloneSyncMap(m map[int]*SyncCloseFD) map[int]*SyncCloseFD {
	out := make(map[int]*SyncCloseFD, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// collectSyncs flattens the pending sync-task map into the slice order
// spawnOne/Process.syncTasks expects, in ascending slot-index order for
// determinism.
func collectSyncs(m map[int]*SyncCloseFD) []*SyncCloseFD {
	if len(m) == 0 {
		return nil
	}
	idxs := make([]int, 0, len(m))
	for k := range m {
		idxs = append(idxs, k)
	}
	// Small maps (stdio slot counts rarely exceed single digits):
	// insertion sort keeps this file free of a sort import for what is
	// never more than a handful of entries.
	for i := 1; i < len(idxs); i++ {
		for j := i; j > 0 && idxs[j-1] > idxs[j]; j-- {
			idxs[j-1], idxs[j] = idxs[j], idxs[j-1]
		}
	}
	out := make([]*SyncCloseFD, len(idxs))
	for i, idx := range idxs {
		out[i] = m[idx]
	}
	return out
}
