// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"sync/atomic"
	"time"
)

// Runtime binds a Scheduler to the interpreter (spec.md §6). A Runtime has
// no type parameters of its own — UnsafeRun/UnsafeRunSync are top-level
// generic functions rather than generic methods, since Go methods cannot
// introduce their own type parameters; this is the same adaptation the
// teacher makes throughout (Run/Handle/RunReader/... are all top-level
// generic functions, never generic methods on a concrete receiver).
type Runtime struct {
	scheduler Scheduler
	nextID    atomic.Int64
	debug     DebugSink
}

// NewRuntime creates a Runtime bound to the given Scheduler.
func NewRuntime(s Scheduler) *Runtime {
	return &Runtime{scheduler: s, debug: noopDebugSink{}}
}

// WithScheduler returns a new Runtime bound to s, leaving the receiver
// untouched (spec.md §6: "withScheduler(s) → Runtime").
func (rt *Runtime) WithScheduler(s Scheduler) *Runtime {
	return &Runtime{scheduler: s, debug: rt.debug}
}

// WithDebugSink returns a new Runtime that reports fiber/scheduler
// lifecycle events to sink (C8, out of scope for correctness — see
// debug.go).
func (rt *Runtime) WithDebugSink(sink DebugSink) *Runtime {
	if sink == nil {
		sink = noopDebugSink{}
	}
	return &Runtime{scheduler: rt.scheduler, debug: sink}
}

func (rt *Runtime) allocID() int64 {
	return rt.nextID.Add(1)
}

// spawn creates a fiber evaluating start under env and schedules its
// first tick via the Runtime's Scheduler.Asap (spec.md §4.3 step 5: Fork
// "allocate a new fiber; schedule its initial tick via rt.asap").
func spawn[E, A, R any](rt *Runtime, start node, env R) *Fiber[E, A] {
	fb := &Fiber[E, A]{
		id:  rt.allocID(),
		rt:  rt,
		env: env,
	}
	fb.current = start
	rt.scheduler.Asap(func() { fb.run() })
	rt.debug.Event(DebugEvent{Kind: EventForked, FiberID: fb.id})
	return fb
}

// UnsafeRun creates a root fiber evaluating e under env and returns
// immediately with a CancelHandle that aborts the root fiber. onExit, if
// non-nil, is called exactly once with the fiber's terminal Outcome
// (spec.md §6: "unsafeRun(eff, onExit) → CancelHandle").
func UnsafeRun[E, A, R any](rt *Runtime, e Eff[E, A, R], env R, onExit func(Outcome[E, A])) CancelHandle {
	fb := &Fiber[E, A]{
		id:  rt.allocID(),
		rt:  rt,
		env: env,
	}
	fb.current = e.n
	if onExit != nil {
		fb.addWaiter(onExit)
	}
	rt.scheduler.Asap(func() { fb.run() })
	rt.debug.Event(DebugEvent{Kind: EventForked, FiberID: fb.id})
	return rootCancelHandle[E, A]{fiber: fb}
}

type rootCancelHandle[E, A any] struct{ fiber *Fiber[E, A] }

func (h rootCancelHandle[E, A]) Cancel() {
	h.fiber.rt.scheduler.Asap(func() { h.fiber.abortNow() })
}

// UnsafeRunSync drives rt's Scheduler synchronously (it must be a
// TestScheduler or another synchronously-drainable Scheduler) until e's
// root fiber terminates, then returns its success value, its failure
// value, or (zero, zero, false) if it never terminated or settled as
// Interrupted — used by tests (spec.md §6).
func UnsafeRunSync[E, A, R any](rt *Runtime, e Eff[E, A, R], env R) (A, E, bool) {
	ts, ok := rt.scheduler.(*TestScheduler)
	if !ok {
		panic("eff: UnsafeRunSync requires a *TestScheduler-backed Runtime")
	}

	var outcome Outcome[E, A]
	settled := false
	UnsafeRun(rt, e, env, func(o Outcome[E, A]) {
		outcome = o
		settled = true
	})

	for i := 0; i < 1_000_000 && !settled; i++ {
		if len(ts.asapQ) == 0 && len(ts.delayQ) == 0 {
			break
		}
		if len(ts.asapQ) == 0 {
			ts.Advance(minDeadline(ts) - ts.now)
			continue
		}
		ts.Tick()
	}

	if !settled {
		var zeroA A
		var zeroE E
		return zeroA, zeroE, false
	}
	if a, ok := outcome.GetSuccess(); ok {
		var zeroE E
		return a, zeroE, true
	}
	if e, ok := outcome.GetFailure(); ok {
		var zeroA A
		return zeroA, e, true
	}
	var zeroA A
	var zeroE E
	return zeroA, zeroE, false
}

func minDeadline(ts *TestScheduler) time.Duration {
	var d time.Duration
	first := true
	for _, t := range ts.delayQ {
		if t.cancelled {
			continue
		}
		if first || t.deadline < d {
			d = t.deadline
			first = false
		}
	}
	return d
}
