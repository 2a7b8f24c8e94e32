package agent

import "context"

// Execution is a handle to an in-flight asynchronous agent invocation.
// Each handle carries its own cancelation, independent of any sibling
// execution.
type Execution struct {
	done   chan struct{}
	cancel context.CancelFunc

	output string
	err    error
}

// ExecuteAsync starts the agent in a new goroutine and returns
// immediately. The returned handle settles exactly once.
func (a *Agent) ExecuteAsync(ctx context.Context, task string) *Execution {
	ctx, cancel := context.WithCancel(ctx)
	e := &Execution{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer cancel()
		e.output, e.err = a.Execute(ctx, task)
		close(e.done)
	}()

	return e
}

// Done is closed when the execution has settled.
func (e *Execution) Done() <-chan struct{} { return e.done }

// Cancel aborts the in-flight invocation. The execution still settles,
// reporting the cancelation as its error.
func (e *Execution) Cancel() { e.cancel() }

// Wait blocks until the execution settles or ctx is done.
func (e *Execution) Wait(ctx context.Context) (string, error) {
	select {
	case <-e.done:
		return e.output, e.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Result returns the settled outcome. It must only be called after
// Done is closed.
func (e *Execution) Result() (string, error) {
	<-e.done
	return e.output, e.err
}
