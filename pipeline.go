package subprocess

import "fmt"

// CommandExpr is the composable command-expression algebra pipelines are
// built from (spec.md §3/§4.4): a Single leaf, or one of the structural
// combinators below composing two sub-expressions over a shared stdio
// vector. Every concrete type embeds chainable so the fluent builder
// methods (Pipe/ErrPipe/Then/Redirect) are available without repeating
// their bodies per type — mirroring the teacher's ExecutableProcess /
// Pipeline duplication, collapsed into one embeddable mixin.
type CommandExpr interface {
	// Pipe connects this expression's stdout to next's stdin (spec.md
	// §4.4, "Pipe").
	Pipe(next CommandExpr) CommandExpr
	// ErrPipe connects this expression's stderr to next's stdin
	// (spec.md §4.4, "ErrPipe").
	ErrPipe(next CommandExpr) CommandExpr
	// Then spawns next after this expression's entire subtree has been
	// spawned, reusing the same stdio vector (spec.md §4.4, "Seq"). It
	// does not wait for this expression's processes to exit; both sides
	// run concurrently.
	Then(next CommandExpr) CommandExpr
	// Redirect overrides slot fd with handle for the duration of this
	// expression's subtree (spec.md §4.4, "Redirect"). fd is the
	// caller-facing, zero-based descriptor number and maps directly onto
	// the SpawnSlot vector index of the same number.
	Redirect(fd int, handle Redirectable, readable bool) CommandExpr

	describe() string
}

// chainable gives every CommandExpr node the four builder methods by
// delegating to whichever concrete value embeds it, recorded at
// construction time by the newXxx helpers below.
type chainable struct{ self CommandExpr }

func (c chainable) Pipe(next CommandExpr) CommandExpr    { return newPipe(c.self, next) }
func (c chainable) ErrPipe(next CommandExpr) CommandExpr { return newErrPipe(c.self, next) }
func (c chainable) Then(next CommandExpr) CommandExpr    { return newSeq(c.self, next) }
func (c chainable) Redirect(fd int, handle Redirectable, readable bool) CommandExpr {
	return newRedirect(fd, handle, readable, c.self)
}

// Single is one leaf command (spec.md §4.4).
type Single struct {
	chainable
	Spec CommandSpec
}

// Cmd wraps a CommandSpec as a leaf CommandExpr, the entry point for
// building up a pipeline with Pipe/ErrPipe/Then/Redirect.
func Cmd(spec CommandSpec) CommandExpr {
	s := &Single{Spec: spec}
	s.self = s
	return s
}

func (s *Single) describe() string { return s.Spec.Display() }

// Pipe connects A's stdout to B's stdin via an internal OS pipe
// (spec.md §4.4).
type Pipe struct {
	chainable
	A, B CommandExpr
}

func newPipe(a, b CommandExpr) CommandExpr {
	p := &Pipe{A: a, B: b}
	p.self = p
	return p
}

func (p *Pipe) describe() string { return fmt.Sprintf("%s | %s", p.A.describe(), p.B.describe()) }

// ErrPipe connects A's stderr to B's stdin via an internal OS pipe
// (spec.md §4.4).
type ErrPipe struct {
	chainable
	A, B CommandExpr
}

func newErrPipe(a, b CommandExpr) CommandExpr {
	e := &ErrPipe{A: a, B: b}
	e.self = e
	return e
}

func (e *ErrPipe) describe() string {
	return fmt.Sprintf("%s .| %s", e.A.describe(), e.B.describe())
}

// Seq spawns A's entire subtree (every leaf recorded in the chain), then
// B's, over the same stdio vector (spec.md §4.4). B is spawned without
// waiting for A's processes to exit, so both run concurrently, and
// writes from both to a shared stdout or stderr may interleave in any
// order. Unlike Pipe/ErrPipe this never allocates a pipe of its own.
type Seq struct {
	chainable
	A, B CommandExpr
}

func newSeq(a, b CommandExpr) CommandExpr {
	s := &Seq{A: a, B: b}
	s.self = s
	return s
}

func (s *Seq) describe() string { return fmt.Sprintf("%s & %s", s.A.describe(), s.B.describe()) }

// Redirect overrides slot FD with Handle (resolved via StdioSetup) for
// Inner's entire subtree, restoring the prior binding once Inner has
// been fully lowered (spec.md §4.4).
type Redirect struct {
	chainable
	FD       int
	Handle   Redirectable
	Readable bool
	Inner    CommandExpr
}

func newRedirect(fd int, handle Redirectable, readable bool, inner CommandExpr) CommandExpr {
	r := &Redirect{FD: fd, Handle: handle, Readable: readable, Inner: inner}
	r.self = r
	return r
}

func (r *Redirect) describe() string {
	return fmt.Sprintf("%s %d<>redirect", r.Inner.describe(), r.FD)
}
