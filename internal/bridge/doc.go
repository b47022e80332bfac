// Package bridge runs resolved optimizations on an engine, either on the
// calling goroutine or as a deferred task.
//
// Both entry points share one resolution step. Validation errors are
// returned to the caller before anything is scheduled, so an Executor only
// ever sees work that can reach the engine. The deferred path owns a copy
// of the input and its *engine.Config, so callers may reuse their buffers
// as soon as Optimize returns.
//
// Basic usage:
//
//	b := bridge.New(engine.NewNative(), bridge.Goroutine)
//	task, err := b.Optimize(data, opts)
//	if err != nil {
//	    return err // validation failure, nothing was scheduled
//	}
//	out, err := task.Wait(ctx)
//
// Engine errors come back as *pngerr.Error with KindEngineFailure and the
// engine's message unchanged.
package bridge
