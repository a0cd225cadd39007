package subprocess

import (
	"context"
	"io"

	"github.com/duskline/subprocess/internal/errs"
	"github.com/duskline/subprocess/internal/obslog"
)

var forwardLog = obslog.Component("forwarder")

// forwarderTask copies bytes between an in-process Stream and the
// parent-side end of an internal pipe until EOF, then closes its owned
// endpoint (spec.md §4.2, GLOSSARY "Forwarder task"). It is a plain
// goroutine + channel, not a source-language coroutine (§9 design note).
type forwarderTask struct {
	done chan struct{}
	err  error
}

// startForwarder launches a goroutine moving bytes in the given
// direction. readable=true means the child reads from the pipe, so this
// task copies user.Reader -> parentEnd (parent writes into the pipe);
// readable=false means the child writes into the pipe, so this task
// copies parentEnd -> user.Writer.
func startForwarder(ctx context.Context, readable bool, parentEnd fileHandle, user Stream, bufSize int) *forwarderTask {
	t := &forwarderTask{done: make(chan struct{})}

	go func() {
		buf := make([]byte, bufSize)
		var err error
		if readable {
			if user.Reader != nil {
				_, err = io.CopyBuffer(parentEnd, user.Reader, buf)
			}
		} else {
			if user.Writer != nil {
				_, err = io.CopyBuffer(user.Writer, parentEnd, buf)
			} else {
				_, err = io.CopyBuffer(io.Discard, parentEnd, buf)
			}
		}

		closeErr := parentEnd.Close()
		if err == nil {
			err = closeErr
		}
		if err != nil && err != io.EOF {
			forwardLog.Warn().Err(err).Msg("forwarder task ended with error")
			err = errs.New(errs.CodeIoForwardError, "forwarder task failed").WithCause(err)
		} else {
			err = nil
		}
		t.err = err
		close(t.done)
	}()

	_ = ctx
	return t
}

// join blocks until the forwarder task has terminated, returning its
// error (nil on clean EOF). done is closed rather than sent-on so that a
// task shared by more than one Process's syncTasks (e.g. a Seq node's two
// leaves sharing the same stdio vector) can be joined from either side
// without the second joiner blocking forever.
func (t *forwarderTask) join() error {
	<-t.done
	return t.err
}
