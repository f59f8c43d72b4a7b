package orchestrator

import (
	"context"
	"time"
)

// Runner drives a State synchronously: each event's effects are executed
// and their completions fed back until the state settles. It is the
// non-interactive counterpart of the popup's event loop.
type Runner struct {
	Dispatcher *Dispatcher
	// OnChange, when set, observes every intermediate state
	OnChange func(State)
}

// Dispatch applies ev to s and runs the resulting effects to completion
func (r *Runner) Dispatch(ctx context.Context, s State, ev Event) State {
	for ev != nil {
		var eff Effect
		s, eff = s.Next(ev)
		if r.OnChange != nil {
			r.OnChange(s)
		}
		if eff == nil {
			return s
		}
		ev = r.run(ctx, s.Options.Watchdog, eff)
	}
	return s
}

// run executes eff, racing it against the watchdog when one is set. A
// result that arrives after the watchdog fired is dropped; the state
// machine would ignore it as stale anyway.
func (r *Runner) run(ctx context.Context, watchdog time.Duration, eff Effect) Event {
	seq := Seq(eff)
	if watchdog <= 0 || seq == 0 {
		return r.Dispatcher.Run(ctx, eff)
	}

	done := make(chan Event, 1)
	go func() {
		done <- r.Dispatcher.Run(ctx, eff)
	}()

	timer := time.NewTimer(watchdog)
	defer timer.Stop()
	select {
	case ev := <-done:
		return ev
	case <-timer.C:
		return TimedOut{Seq: seq}
	}
}
