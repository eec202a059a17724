// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

// fiberStatus is the three-state status spec.md §3 assigns a fiber:
// Pending (still running or suspended awaiting an Async resumption),
// Completed (settled with a Success or Failure Outcome), or Aborted
// (settled as Interrupted). Once non-Pending, status never changes again
// (spec.md §3 invariant).
type fiberStatus uint8

const (
	fiberPending fiberStatus = iota
	fiberCompleted
	fiberAborted
)

// Fiber is the external handle to a running evaluation (spec.md §3, §4.4).
// Its zero value is never useful; fibers are only produced by Fork,
// UnsafeRun, or internally by race-style combinators.
//
// A Fiber's interpreter state (current, stack, env) is only ever touched
// from inside a Scheduler-dispatched callback, so — exactly as spec.md §5
// requires of any compliant host — no field here needs a mutex.
type Fiber[E, A any] struct {
	id int64
	rt *Runtime

	status  fiberStatus
	outcome Outcome[E, A]
	waiters []func(Outcome[E, A])

	cancelHandle CancelHandle

	current node
	stack   frameStack
	env     erased
}

// ID returns a value unique among fibers sharing a Runtime, useful for
// correlating DebugSink events.
func (f *Fiber[E, A]) ID() int64 { return f.id }

// addWaiter registers fn to run with the fiber's terminal Outcome. If the
// fiber has already settled, fn runs immediately.
func (f *Fiber[E, A]) addWaiter(fn func(Outcome[E, A])) {
	if f.status != fiberPending {
		fn(f.outcome)
		return
	}
	f.waiters = append(f.waiters, fn)
}

// run drives the trampoline until the fiber suspends (awaiting an Async
// resumption) or settles. It is only ever invoked from inside a
// Scheduler.Asap/Delay callback (spec.md §4.3).
func (f *Fiber[E, A]) run() {
	for {
		if f.status != fiberPending {
			return
		}
		switch n := f.current.(type) {

		case *constNode:
			if !f.advance(n.value, false) {
				return
			}

		case *rejectNode:
			if !f.advance(n.err, true) {
				return
			}

		case *tryNode:
			v, err := n.thunk()
			if err != nil {
				if !f.advance(erased(err), true) {
					return
				}
			} else if !f.advance(v, false) {
				return
			}

		case *tryMNode:
			f.current = n.thunk()

		case *mapNode:
			f.stack.push(acquireApplyFrame(func(a erased) node {
				return &constNode{value: n.f(a)}
			}))
			f.current = n.src

		case *chainNode:
			f.stack.push(acquireApplyFrame(n.k))
			f.current = n.src

		case *catchNode:
			f.stack.push(acquireRecoverFrame(n.h))
			f.current = n.src

		case *provideNode:
			f.stack.push(acquireWithEnvFrame(f.env))
			f.env = n.env
			f.current = n.src

		case *accessNode:
			if !f.advance(n.f(f.env), false) {
				return
			}

		case *runtimeNode:
			if !f.advance(erased(f.rt), false) {
				return
			}

		case *forkNode:
			child := n.spawn(f.rt, f.env)
			if !f.advance(child, false) {
				return
			}

		case *neverNode:
			return

		case *callNode:
			f.current = n.f(n.args...)

		case *asyncNode:
			f.suspendAsync(n)
			return

		case *interruptibleAsyncNode:
			f.suspendInterruptibleAsync(n)
			return

		case *envAsyncNode:
			f.suspendEnvAsync(n)
			return

		default:
			panic("eff: interpreter: unknown node type")
		}
	}
}

// advance propagates v (a success value, or a failure value if isFailure)
// through the frame stack. It returns true and leaves f.current set to the
// next node to evaluate when the stack produced one; it returns false after
// having already settled the fiber via complete.
func (f *Fiber[E, A]) advance(v erased, isFailure bool) bool {
	next, ok := f.propagate(v, isFailure)
	if !ok {
		if isFailure {
			f.complete(Failure[E, A](v.(E)))
		} else {
			f.complete(Success[E, A](v.(A)))
		}
		return false
	}
	f.current = next
	return true
}

// propagate pops frames until one consumes v on its matching channel
// (frameApply for a success, frameRecover for a failure), restoring the
// environment at every frameWithEnv it passes on the way — whether or not
// that frame's channel matched, since environment restoration is
// unconditional on any exit path (spec.md §3 invariant 4). It returns
// (nil, false) once the stack is empty: v is the fiber's final value on
// its channel.
func (f *Fiber[E, A]) propagate(v erased, isFailure bool) (node, bool) {
	for {
		fr, ok := f.stack.pop()
		if !ok {
			return nil, false
		}
		switch fr.kind {
		case frameWithEnv:
			f.env = fr.prevEnv
			releaseFrame(fr)
		case frameApply:
			if isFailure {
				releaseFrame(fr)
				continue
			}
			next := fr.apply(v)
			releaseFrame(fr)
			return next, true
		case frameRecover:
			if !isFailure {
				releaseFrame(fr)
				continue
			}
			next := fr.recoverFn(v)
			releaseFrame(fr)
			return next, true
		}
	}
}

// complete settles the fiber exactly once and drains its waiters.
func (f *Fiber[E, A]) complete(o Outcome[E, A]) {
	if f.status != fiberPending {
		return
	}
	if o.IsInterrupted() {
		f.status = fiberAborted
	} else {
		f.status = fiberCompleted
	}
	f.outcome = o
	f.cancelHandle = nil
	waiters := f.waiters
	f.waiters = nil
	if f.status == fiberAborted {
		f.rt.debug.Event(DebugEvent{Kind: EventAborted, FiberID: f.id})
	} else {
		f.rt.debug.Event(DebugEvent{Kind: EventCompleted, FiberID: f.id})
	}
	for _, w := range waiters {
		w(o)
	}
}

// abortNow interrupts the fiber immediately: any pending cancelHandle
// (an outstanding Async registration) is cancelled, the frame stack is
// unwound restoring environments but invoking no frameApply/frameRecover
// (interruption bypasses Catch entirely — spec.md §7), and the fiber
// settles as Interrupted.
func (f *Fiber[E, A]) abortNow() {
	if f.status != fiberPending {
		return
	}
	if f.cancelHandle != nil {
		f.cancelHandle.Cancel()
		f.cancelHandle = nil
	}
	f.stack.reset(func(prevEnv erased) { f.env = prevEnv })
	f.complete(Interrupted[E, A]())
}

// Abort requests interruption of f. It is itself an Eff so it can be
// composed inside other computations (e.g. the losing side of a race);
// running it is synchronous and always succeeds.
func (f *Fiber[E, A]) Abort() Eff[struct{}, struct{}, any] {
	return Eff[struct{}, struct{}, any]{n: &tryNode{thunk: func() (erased, error) {
		f.abortNow()
		return struct{}{}, nil
	}}}
}

// Await returns an effect that resumes with f's terminal Outcome once f
// settles — Success, Failure, or Interrupted — without itself ever failing
// or interrupting the awaiting fiber (spec.md §4.4: "await ... None if
// aborted, Some with the exit value otherwise"; Outcome's own Interrupted
// case already carries that "None").
func (f *Fiber[E, A]) Await() Eff[struct{}, Outcome[E, A], any] {
	return Eff[struct{}, Outcome[E, A], any]{n: &asyncNode{
		register: func(rej func(erased), res func(erased)) CancelHandle {
			f.addWaiter(func(o Outcome[E, A]) { res(o) })
			return noopCancelHandle{}
		},
	}}
}

// Join awaits f and propagates its exit into the calling fiber: a success
// becomes a success, a failure becomes a failure, and — since neither
// channel can carry "the joined fiber was interrupted" — an Interrupted
// exit interrupts the calling fiber too, the same transitive-interruption
// rule ZIO-style runtimes apply to Fiber#join (spec.md §4.4: "join is await
// followed by propagation ... into the current fiber").
func (f *Fiber[E, A]) Join() Eff[E, A, any] {
	return Eff[E, A, any]{n: &interruptibleAsyncNode{
		register: func(rej func(erased), res func(erased), interrupt func()) CancelHandle {
			f.addWaiter(func(o Outcome[E, A]) {
				MatchOutcome(o,
					func(a A) any { res(a); return nil },
					func(e E) any { rej(e); return nil },
					func() any { interrupt(); return nil },
				)
			})
			return noopCancelHandle{}
		},
	}}
}

// JoinAs is Join with its required-environment parameter retargeted to R.
// Join's own node never touches the environment (it only ever registers a
// waiter and, on the interrupted path, calls interrupt()), so relabeling its
// R is safe — the same reasoning Widen (eff.go) applies to the error
// channel.
func JoinAs[E, A, R any](f *Fiber[E, A]) Eff[E, A, R] {
	j := f.Join()
	return Eff[E, A, R]{n: j.n}
}

// AwaitAs is Await with its required-environment parameter retargeted to R.
func AwaitAs[E, A, R any](f *Fiber[E, A]) Eff[struct{}, Outcome[E, A], R] {
	a := f.Await()
	return Eff[struct{}, Outcome[E, A], R]{n: a.n}
}

// suspendAsync implements spec.md §4.3 step 4 for the public Async
// constructor: register is invoked directly — the interpreter loop is
// already executing inside a Scheduler-dispatched turn, so there is no
// separate reentrancy guard to arrange the way a JS host needs one.
// Resumption, however, always redispatches through Scheduler.Asap, so that
// a register implementation calling back from another goroutine (the
// common case — I/O completion, a timer, another OS thread) can never
// race the fiber's own single-threaded evaluation, and so that resumptions
// triggered synchronously from within register still happen-after the
// current turn (spec.md §4.3 step 4: "never synchronously within
// register").
func (f *Fiber[E, A]) suspendAsync(n *asyncNode) {
	f.rt.debug.Event(DebugEvent{Kind: EventSuspended, FiberID: f.id})
	resumed := false
	rej := func(e erased) {
		if resumed {
			return
		}
		resumed = true
		f.rt.scheduler.Asap(func() {
			f.cancelHandle = nil
			if f.status != fiberPending {
				return
			}
			f.rt.debug.Event(DebugEvent{Kind: EventResumed, FiberID: f.id})
			f.current = &rejectNode{err: e}
			f.run()
		})
	}
	res := func(a erased) {
		if resumed {
			return
		}
		resumed = true
		f.rt.scheduler.Asap(func() {
			f.cancelHandle = nil
			if f.status != fiberPending {
				return
			}
			f.rt.debug.Event(DebugEvent{Kind: EventResumed, FiberID: f.id})
			f.current = &constNode{value: a}
			f.run()
		})
	}
	f.cancelHandle = n.register(rej, res)
}

// suspendInterruptibleAsync is suspendAsync's analogue for Join: a third
// resumption path aborts the calling fiber directly instead of resuming it
// with any E or A value.
func (f *Fiber[E, A]) suspendInterruptibleAsync(n *interruptibleAsyncNode) {
	resumed := false
	rej := func(e erased) {
		if resumed {
			return
		}
		resumed = true
		f.rt.scheduler.Asap(func() {
			f.cancelHandle = nil
			if f.status != fiberPending {
				return
			}
			f.current = &rejectNode{err: e}
			f.run()
		})
	}
	res := func(a erased) {
		if resumed {
			return
		}
		resumed = true
		f.rt.scheduler.Asap(func() {
			f.cancelHandle = nil
			if f.status != fiberPending {
				return
			}
			f.current = &constNode{value: a}
			f.run()
		})
	}
	interrupt := func() {
		if resumed {
			return
		}
		resumed = true
		f.rt.scheduler.Asap(func() {
			f.cancelHandle = nil
			f.abortNow()
		})
	}
	f.cancelHandle = n.register(rej, res, interrupt)
}

// suspendEnvAsync is suspendAsync's analogue for envAsyncNode, passing the
// fiber's current environment to register.
func (f *Fiber[E, A]) suspendEnvAsync(n *envAsyncNode) {
	resumed := false
	rej := func(e erased) {
		if resumed {
			return
		}
		resumed = true
		f.rt.scheduler.Asap(func() {
			f.cancelHandle = nil
			if f.status != fiberPending {
				return
			}
			f.current = &rejectNode{err: e}
			f.run()
		})
	}
	res := func(a erased) {
		if resumed {
			return
		}
		resumed = true
		f.rt.scheduler.Asap(func() {
			f.cancelHandle = nil
			if f.status != fiberPending {
				return
			}
			f.current = &constNode{value: a}
			f.run()
		})
	}
	f.cancelHandle = n.register(f.rt, f.env, rej, res)
}

// cancelFiber adapts a *Fiber to CancelHandle by aborting it — used to let
// the loser of a race (combinators.go) be cancelled through the same
// CancelHandle mechanism Async registrations use.
type cancelFiber[E, A any] struct{ f *Fiber[E, A] }

func (c cancelFiber[E, A]) Cancel() {
	c.f.rt.scheduler.Asap(func() { c.f.abortNow() })
}

type cancelBoth struct{ fa, fb CancelHandle }

func (c cancelBoth) Cancel() {
	c.fa.Cancel()
	c.fb.Cancel()
}
