package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/pngopt-mcp/internal/engine"
	"github.com/ironsheep/pngopt-mcp/internal/options"
	"github.com/ironsheep/pngopt-mcp/internal/pngerr"
	"github.com/ironsheep/pngopt-mcp/internal/resolver"
)

// ErrPending is returned by Task.Result before the task has finished.
var ErrPending = errors.New("optimization still running")

// Bridge connects option resolution to an engine.
type Bridge struct {
	engine engine.Engine
	exec   Executor
}

// New returns a bridge that runs eng. Deferred work is handed to exec;
// nil means Goroutine.
func New(eng engine.Engine, exec Executor) *Bridge {
	if exec == nil {
		exec = Goroutine
	}
	return &Bridge{engine: eng, exec: exec}
}

// OptimizeSync resolves opts and runs the engine on the calling goroutine.
func (b *Bridge) OptimizeSync(data []byte, opts options.Options) ([]byte, error) {
	cfg, err := resolver.Resolve(opts)
	if err != nil {
		return nil, err
	}
	return b.dispatch(data, cfg, Inline).Result()
}

// OptimizeRequestSync is OptimizeSync for a tagged request.
func (b *Bridge) OptimizeRequestSync(data []byte, req options.Request) ([]byte, error) {
	cfg, err := resolver.ResolveRequest(req)
	if err != nil {
		return nil, err
	}
	return b.dispatch(data, cfg, Inline).Result()
}

// Optimize resolves opts and schedules the engine call. A validation error
// is returned directly and nothing is scheduled.
func (b *Bridge) Optimize(data []byte, opts options.Options) (*Task, error) {
	cfg, err := resolver.Resolve(opts)
	if err != nil {
		return nil, err
	}
	return b.dispatch(bytes.Clone(data), cfg, b.exec), nil
}

// OptimizeRequest is Optimize for a tagged request.
func (b *Bridge) OptimizeRequest(data []byte, req options.Request) (*Task, error) {
	cfg, err := resolver.ResolveRequest(req)
	if err != nil {
		return nil, err
	}
	return b.dispatch(bytes.Clone(data), cfg, b.exec), nil
}

// dispatch runs one engine call for cfg through exec.
func (b *Bridge) dispatch(data []byte, cfg *engine.Config, exec Executor) *Task {
	t := &Task{done: make(chan struct{})}
	exec.Submit(func() {
		defer close(t.done)
		t.out, t.err = b.run(data, cfg)
	})
	return t
}

func (b *Bridge) run(data []byte, cfg *engine.Config) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, pngerr.EngineFailure(fmt.Errorf("engine panic: %v", r))
		}
	}()

	out, err = b.engine.Optimize(data, cfg)
	if err != nil {
		return nil, pngerr.EngineFailure(err)
	}
	return out, nil
}

// Task is a scheduled optimization.
type Task struct {
	done chan struct{}
	out  []byte
	err  error
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result returns the outcome, or ErrPending if the task is still running.
func (t *Task) Result() ([]byte, error) {
	select {
	case <-t.done:
		return t.out, t.err
	default:
		return nil, ErrPending
	}
}

// Wait blocks until the task finishes or ctx is done. Cancelling ctx
// abandons the wait; the task keeps running.
func (t *Task) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-t.done:
		return t.out, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
