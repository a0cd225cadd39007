package subprocess

import (
	"bufio"
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/duskline/subprocess/config"
	"github.com/duskline/subprocess/internal/errs"
	"github.com/duskline/subprocess/internal/obslog"
)

var lifecycleLog = obslog.Component("lifecycle")

const defaultBufSize = 32 * 1024

// Run is the high-level entry point (spec.md §4.7). With wait=true it
// spawns using inherited stdio defaults (stdin=fd0, stdout=fd1,
// stderr=fd2), waits for the whole chain, and returns ProcessFailed if
// any member exited non-zero without IgnoreStatus. With wait=false it
// spawns using swallow (Null) defaults and returns immediately; any
// caller-supplied Redirectable in stdio for slots 0-2 is used as given,
// and a *PipeEndpoint among them is also attached as the chain's
// In/Out/Err.
func Run(expr CommandExpr, wait bool, stdio ...Redirectable) (*ProcessChain, error) {
	stdios := defaultStdio(stdio, wait)

	chain, err := Compose(expr, stdios, defaultBufSize)
	if err != nil {
		return nil, translate(err)
	}

	if !wait {
		chain.In, _ = stdios[0].(*PipeEndpoint)
		chain.Out, _ = stdios[1].(*PipeEndpoint)
		chain.Err, _ = stdios[2].(*PipeEndpoint)
		return chain, nil
	}

	if err := chain.Wait(true); err != nil {
		return chain, translate(err)
	}
	if err := processFailedFrom(chain); err != nil {
		return chain, err
	}
	return chain, nil
}

func defaultStdio(user []Redirectable, wait bool) []Redirectable {
	def := Redirectable(Null{})
	if wait {
		def = Inherit{}
	}

	out := []Redirectable{def, def, def}
	for i, r := range user {
		if i < len(out) {
			out[i] = r
		} else {
			out = append(out, r)
		}
	}
	return out
}

// OpenMode selects which direction(s) Open creates in-process pipe
// endpoints for (spec.md §4.7).
type OpenMode struct {
	Read  bool
	Write bool
}

// ReadMode and WriteMode are the two common single-direction modes; use
// OpenMode{Read: true, Write: true} directly for the rare bidirectional
// case (rejected when a non-Null stdio is also given for that slot).
var (
	ReadMode  = OpenMode{Read: true}
	WriteMode = OpenMode{Write: true}
)

// Open creates in-process pipe endpoints for the requested mode,
// attaches the caller-supplied stdio to the opposite slot, leaves
// stderr inherited, and spawns expr (spec.md §4.7). Rejects a
// bidirectional mode combined with a non-Null stdio, since there would
// be no slot left for it.
func Open(expr CommandExpr, mode OpenMode, stdio Redirectable) (*ProcessChain, error) {
	if mode.Read && mode.Write {
		if stdio != nil {
			if _, isNull := stdio.(Null); !isNull {
				return nil, translate(errs.New(errs.CodeInvalidArgument, "bidirectional open cannot also take a non-Null stdio"))
			}
		}
	}

	if stdio == nil {
		stdio = Null{}
	}

	stdios := []Redirectable{stdio, stdio, Inherit{}}
	var inEnd, outEnd *PipeEndpoint

	if mode.Write {
		inEnd = NewPipeEndpoint()
		stdios[0] = inEnd
	}
	if mode.Read {
		outEnd = NewPipeEndpoint()
		stdios[1] = outEnd
	}

	chain, err := Compose(expr, stdios, defaultBufSize)
	if err != nil {
		return nil, translate(err)
	}
	chain.In = inEnd
	chain.Out = outEnd
	return chain, nil
}

// WithOpen runs expr via Open, invokes fn with the resulting chain, and
// performs the scoped-execution cleanup spec.md §4.7 step 2-5 describes:
// on fn's error, close stdin, start a 2-second grace timer before
// SIGTERM, drain without joining forwarders, and rethrow; on success,
// close stdin, require the chain's stdout reached EOF (else PipeError),
// and require overall Success.
func WithOpen(expr CommandExpr, mode OpenMode, stdio Redirectable, fn func(*ProcessChain) error) error {
	chain, err := Open(expr, mode, stdio)
	if err != nil {
		return err
	}

	if ferr := fn(chain); ferr != nil {
		closeWriteSide(chain.In)
		stop := killAfterGrace(chain, config.Defaults().KillGrace)
		_ = chain.Wait(false)
		stop()
		return ferr
	}

	closeWriteSide(chain.In)

	eof := drainToEOF(chain.Out)

	doneWait := make(chan error, 1)
	go func() { doneWait <- chain.Wait(true) }()
	waitErr := <-doneWait

	if !eof {
		stop := killAfterGrace(chain, config.Defaults().KillGrace)
		_ = chain.Wait(false)
		stop()
		return &PipeError{}
	}

	if waitErr != nil {
		return translate(waitErr)
	}
	if err := processFailedFrom(chain); err != nil {
		return err
	}
	return nil
}

func closeWriteSide(in *PipeEndpoint) {
	if in == nil {
		return
	}
	if w := in.ParentWrite(); w != nil {
		_ = w.Close()
	}
}

// drainToEOF consumes whatever remains of the read end and reports
// whether it was already at a clean EOF, i.e. whether the caller read
// everything inside fn. Any leftover bytes are discarded and make it
// report false.
func drainToEOF(out *PipeEndpoint) bool {
	if out == nil {
		return true
	}
	r := out.ParentRead()
	if r == nil {
		return true
	}
	n, err := io.Copy(io.Discard, r)
	_ = r.Close()
	return err == nil && n == 0
}

// killAfterGrace schedules a SIGTERM for grace from now without blocking
// the caller, so Wait(false) can race the timer and return as soon as the
// process actually exits (spec.md §4.7 step 2: "schedule timer, then
// wait(process, join_sync=false)"). The returned stop func cancels the
// pending kill; callers invoke it once their own Wait returns so a child
// that exits well inside the grace window never gets signaled at all.
func killAfterGrace(chain *ProcessChain, grace time.Duration) (stop func()) {
	timer := time.NewTimer(grace)
	cancel := make(chan struct{})

	go func() {
		select {
		case <-timer.C:
			for _, p := range chain.Processes() {
				if p.Running() {
					_ = p.Kill(DefaultKillSignal)
				}
			}
		case <-cancel:
			timer.Stop()
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(cancel) })
	}
}

// Read runs expr with stdout captured via Open(ReadMode) and returns the
// fully drained bytes (spec.md §4.7, "read(expr) -> bytes").
func Read(expr CommandExpr) ([]byte, error) {
	var buf bytes.Buffer
	err := readInto(expr, &buf)
	return buf.Bytes(), err
}

// ReadString is Read, decoded as text (spec.md §4.7,
// "read(expr, String) -> text").
func ReadString(expr CommandExpr) (string, error) {
	b, err := Read(expr)
	return string(b), err
}

func readInto(expr CommandExpr, w io.Writer) error {
	chain, err := Open(expr, ReadMode, Null{})
	if err != nil {
		return err
	}

	var copyErr error
	if r := chain.Out.ParentRead(); r != nil {
		_, copyErr = io.Copy(w, r)
	}

	if waitErr := chain.Wait(true); waitErr != nil {
		if copyErr == nil {
			copyErr = translate(waitErr)
		}
	}
	if copyErr == nil {
		copyErr = processFailedFrom(chain)
	}
	return copyErr
}

// EachLine streams expr's stdout line by line, calling fn for each one
// (without its trailing newline unless keep is true), and asserts
// Success once the stream ends (spec.md §4.7, "eachline").
func EachLine(expr CommandExpr, keep bool, fn func(line string) error) error {
	chain, err := Open(expr, ReadMode, Null{})
	if err != nil {
		return err
	}

	r := chain.Out.ParentRead()
	if r == nil {
		return chain.Wait(true)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var scanErr error
	for scanner.Scan() {
		line := scanner.Text()
		if keep {
			line += "\n"
		}
		if scanErr = fn(line); scanErr != nil {
			break
		}
	}
	if scanErr == nil {
		scanErr = scanner.Err()
	}

	if waitErr := chain.Wait(true); waitErr != nil {
		if scanErr == nil {
			scanErr = translate(waitErr)
		}
	}
	if scanErr == nil {
		scanErr = processFailedFrom(chain)
	}
	return scanErr
}

// Success runs expr to completion with swallowed stdio and reports
// whether every member exited zero, discarding any error detail (spec.md
// §4.7's convenience check, used the way callers write `if success(...)`
// rather than branching on an error type).
func Success(expr CommandExpr) bool {
	chain, err := Run(expr, true, Null{}, Null{}, Null{})
	if err != nil {
		return false
	}
	return chain.Success()
}
