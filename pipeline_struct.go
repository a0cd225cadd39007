package subprocess

// ProcessChain is the ordered collection of Process values spawned while
// lowering one CommandExpr (spec.md §3, supplemented feature: callers get
// back every leaf process in a pipeline, not just the last one, so they
// can inspect intermediate exit codes the way a shell's $PIPESTATUS does).
type ProcessChain struct {
	processes []*Process

	// In/Out/Err are the parent-side pipe endpoints for slots 0/1/2
	// (spec.md §4.7): Open sets In and Out to the endpoints it creates for
	// the requested directions, and Run with wait=false sets each one to
	// the *PipeEndpoint the caller passed for that slot. A field stays nil
	// when its slot is bound to anything else. They describe the chain as a whole — from
	// outside, a multi-stage pipeline still has exactly one stdin and one
	// stdout — rather than any single leaf Process.
	In  *PipeEndpoint
	Out *PipeEndpoint
	Err *PipeEndpoint
}

// Processes returns the chain's leaves in left-to-right spawn order.
func (c *ProcessChain) Processes() []*Process { return c.processes }

// Wait blocks until every process in the chain has exited, joining
// forwarder tasks too when joinSync is true, and returns the first
// error encountered (in spawn order).
func (c *ProcessChain) Wait(joinSync bool) error {
	var first error
	for _, p := range c.processes {
		if err := p.Wait(joinSync); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Success reports whether every process in the chain exited with code 0
// and was not signaled. Must be called after Wait.
func (c *ProcessChain) Success() bool {
	for _, p := range c.processes {
		if p.ExitCode() != 0 || p.Signaled() {
			return false
		}
	}
	return true
}

// Kill signals every still-running process in the chain, continuing past
// individual failures and returning the first error seen (spec.md §4.6,
// this module's kill-and-drain composition-failure policy).
func (c *ProcessChain) Kill(sig Signal) error {
	var first error
	for _, p := range c.processes {
		if err := p.Kill(sig); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Results reports each leaf's exit code and termination signal once the
// chain has completed, in spawn order — the $PIPESTATUS-style view
// SPEC_FULL.md's pipeline composer supplements the base spec with.
type Results struct {
	ExitCode   int64
	TermSignal int32
	Command    string
}

// Results returns the per-leaf outcome vector. Call after Wait.
func (c *ProcessChain) Results() []Results {
	out := make([]Results, len(c.processes))
	for i, p := range c.processes {
		out[i] = Results{
			ExitCode:   p.ExitCode(),
			TermSignal: p.TermSignal(),
			Command:    p.CommandSpec().Display(),
		}
	}
	return out
}
