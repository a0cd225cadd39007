package subprocess

import "context"

// Compose turns a declarative CommandExpr into a running ProcessChain: it
// resolves the initial stdio vector once via StdioSetup, then walks expr
// with PipelineComposer, spawning one Process per Single leaf it reaches
// (spec.md §4.4). stdios must have at least 3 entries (stdin, stdout,
// stderr); Redirect nodes may extend the vector further.
//
// If any spawn in the tree fails partway through, every process already
// spawned in this composition is killed and drained before the error is
// returned — this module's kill-and-drain composition-failure policy
// (spec.md §9 open question, resolved in favor of leaving no orphaned
// children behind a failed pipeline).
func Compose(expr CommandExpr, stdios []Redirectable, bufSize int) (*ProcessChain, error) {
	slots, closers, syncs, err := setupStdioVector(context.Background(), stdios, bufSize)
	if err != nil {
		return nil, err
	}

	syncByIndex := make(map[int]*SyncCloseFD, len(syncs))
	for _, s := range syncs {
		syncByIndex[s.SlotIndex] = s
	}

	chain := &ProcessChain{}
	v := &composeVisitor{bufSize: bufSize, chain: chain}
	lowerErr := v.visit(expr, slots, syncByIndex)

	for _, c := range closers {
		_ = c()
	}

	if lowerErr != nil {
		_ = chain.Kill(DefaultKillSignal)
		_ = chain.Wait(false)
		pipelineLog.Warn().Err(lowerErr).Msg("pipeline composition failed, killed partial chain")
		return nil, lowerErr
	}

	return chain, nil
}
