// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import "time"

// UIO is an effect that never fails — the same shape Access, CurrentRuntime,
// and Fork already return.
type UIO[A, R any] = Eff[struct{}, A, R]

// Task is the common failing-effect shape, error channel fixed to error.
type Task[A, R any] = Eff[error, A, R]

// AsyncIO is Task's name when the effect in question wraps an external
// asynchronous call rather than a synchronous thunk; the two are the same
// Go type, the alias exists purely for call-site readability (spec.md §4.2:
// "asyncIO/Task/UIO → adapters producing the appropriate Try/Async
// constructor").
type AsyncIO[A, R any] = Eff[error, A, R]

// And sequences a then b, discarding a's result (spec.md §4.2: "and, do →
// Chain").
func And[E, A, B, R any](a Eff[E, A, R], b Eff[E, B, R]) Eff[E, B, R] {
	return Chain(a, func(A) Eff[E, B, R] { return b })
}

// Do is And's name for the same combinator, matching the two spec.md names
// for a single underlying definition.
func Do[E, A, B, R any](a Eff[E, A, R], b Eff[E, B, R]) Eff[E, B, R] {
	return And(a, b)
}

// ConstOf runs e for effect, then succeeds with x regardless of e's own
// result (spec.md §4.2: "const(x) → Chain(_ → Const(x))").
func ConstOf[E, A, B, R any](e Eff[E, A, R], x B) Eff[E, B, R] {
	return Chain(e, func(A) Eff[E, B, R] { return Const[E, B, R](x) })
}

// VoidEff discards e's result (spec.md §4.2: "void → const(unit)").
func VoidEff[E, A, R any](e Eff[E, A, R]) Eff[E, struct{}, R] {
	return ConstOf[E, A, struct{}, R](e, struct{}{})
}

// Sleep suspends for at least d, then succeeds with struct{}{} (spec.md
// §4.2: "delay(ms) → Async scheduling resumption after ms").
func Sleep[E, R any](d time.Duration) Eff[E, struct{}, R] {
	return Widen[struct{}, E, struct{}, R](Eff[struct{}, struct{}, R]{n: &envAsyncNode{
		register: func(rt *Runtime, env erased, rej func(erased), res func(erased)) CancelHandle {
			return rt.scheduler.Delay(func() { res(struct{}{}) }, d)
		},
	}})
}

// Timeout succeeds with v after d has elapsed (spec.md §4.2: "timeout(v,
// ms) → Async that resolves with v after ms").
func Timeout[E, A, R any](v A, d time.Duration) Eff[E, A, R] {
	return Widen[struct{}, E, A, R](Eff[struct{}, A, R]{n: &envAsyncNode{
		register: func(rt *Runtime, env erased, rej func(erased), res func(erased)) CancelHandle {
			return rt.scheduler.Delay(func() { res(v) }, d)
		},
	}})
}

// Seq runs the effects in list strictly left to right, collecting their
// results in order: a left fold by Chain that appends each result to a
// copy of the accumulator.
func Seq[E, A, R any](list []Eff[E, A, R]) Eff[E, []A, R] {
	acc := Const[E, []A, R](make([]A, 0, len(list)))
	for _, e := range list {
		acc = Chain(acc, func(xs []A) Eff[E, []A, R] {
			return Chain(e, func(x A) Eff[E, []A, R] {
				return Const[E, []A, R](append(append([]A{}, xs...), x))
			})
		})
	}
	return acc
}

// Race runs a and b as sibling fibers and resolves with whichever settles
// first — success or failure — aborting the loser (spec.md §4.3 raceWith;
// §4.2: "race(a, b) ... defined via raceWith"; §7: "race aborts the losing
// fiber").
func Race[E, A, R any](a, b Eff[E, A, R]) Eff[E, A, R] {
	return Eff[E, A, R]{n: &envAsyncNode{
		register: func(rt *Runtime, env erased, rej func(erased), res func(erased)) CancelHandle {
			r := env.(R)
			fa := spawn[E, A](rt, a.n, r)
			fb := spawn[E, A](rt, b.n, r)

			settled := false
			finish := func(o Outcome[E, A], loser CancelHandle) {
				if settled {
					return
				}
				settled = true
				loser.Cancel()
				MatchOutcome(o,
					func(v A) any { res(v); return nil },
					func(e E) any { rej(e); return nil },
					func() any { return nil },
				)
			}
			fa.addWaiter(func(o Outcome[E, A]) { finish(o, cancelFiber[E, A]{fb}) })
			fb.addWaiter(func(o Outcome[E, A]) { finish(o, cancelFiber[E, A]{fa}) })

			return cancelBoth{fa: cancelFiber[E, A]{fa}, fb: cancelFiber[E, A]{fb}}
		},
	}}
}

// ZipWithPar runs a and b in parallel (as sibling fibers) and combines their
// successes with f once both complete; the first failure on either side
// aborts the other and becomes the overall failure (spec.md §4.2:
// "zipWithPar(a, b, f) → defined via raceWith"; §7: "par/zipPar abort
// siblings on first error").
func ZipWithPar[E, A, B, C, R any](a Eff[E, A, R], b Eff[E, B, R], f func(A, B) C) Eff[E, C, R] {
	return Eff[E, C, R]{n: &envAsyncNode{
		register: func(rt *Runtime, env erased, rej func(erased), res func(erased)) CancelHandle {
			r := env.(R)
			fa := spawn[E, A](rt, a.n, r)
			fb := spawn[E, B](rt, b.n, r)

			var aVal A
			var bVal B
			aDone, bDone, settled := false, false, false

			tryFinish := func() {
				if settled || !aDone || !bDone {
					return
				}
				settled = true
				res(f(aVal, bVal))
			}
			fail := func(e E, loser CancelHandle) {
				if settled {
					return
				}
				settled = true
				loser.Cancel()
				rej(e)
			}

			fa.addWaiter(func(o Outcome[E, A]) {
				MatchOutcome(o,
					func(v A) any { aVal = v; aDone = true; tryFinish(); return nil },
					func(e E) any { fail(e, cancelFiber[E, B]{fb}); return nil },
					func() any { return nil },
				)
			})
			fb.addWaiter(func(o Outcome[E, B]) {
				MatchOutcome(o,
					func(v B) any { bVal = v; bDone = true; tryFinish(); return nil },
					func(e E) any { fail(e, cancelFiber[E, A]{fa}); return nil },
					func() any { return nil },
				)
			})

			return cancelBoth{fa: cancelFiber[E, A]{fa}, fb: cancelFiber[E, B]{fb}}
		},
	}}
}

// Par runs every effect in list in parallel, collecting results in their
// declared left-to-right order regardless of completion order, aborting the
// remaining siblings on first failure (spec.md §4.2: "par(list) → left fold
// by zipWithPar").
func Par[E, A, R any](list []Eff[E, A, R]) Eff[E, []A, R] {
	acc := Const[E, []A, R](nil)
	for _, e := range list {
		acc = ZipWithPar(acc, e, func(xs []A, x A) []A {
			return append(append([]A{}, xs...), x)
		})
	}
	return acc
}

// ParN runs list in chunks of at most n effects at a time, each chunk fully
// parallel, chunks themselves sequential (spec.md §4.2: "parN(n, list) →
// chunked par of size ≤ n").
func ParN[E, A, R any](n int, list []Eff[E, A, R]) Eff[E, []A, R] {
	if n <= 0 {
		n = 1
	}
	acc := Const[E, []A, R](make([]A, 0, len(list)))
	for i := 0; i < len(list); i += n {
		end := i + n
		if end > len(list) {
			end = len(list)
		}
		chunk := Par(list[i:end])
		acc = Chain(acc, func(xs []A) Eff[E, []A, R] {
			return Chain(chunk, func(ys []A) Eff[E, []A, R] {
				return Const[E, []A, R](append(append([]A{}, xs...), ys...))
			})
		})
	}
	return acc
}

// FromEither lifts an Either into an Eff: Left(e) becomes Reject(e), Right(a)
// becomes Const(a) (spec.md §4.2).
func FromEither[E, A, R any](e Either[E, A]) Eff[E, A, R] {
	if a, ok := e.GetRight(); ok {
		return Const[E, A, R](a)
	}
	err, _ := e.GetLeft()
	return Reject[E, A, R](err)
}

// onceCell is the lazily-created Await backing Once.
type onceCell[E, A any] struct {
	started bool
	aw      *Await[E, A]
}

// Once returns a function producing an effect that forks e at most once
// across any number of calls and observers; every call shares that single
// fork's exit (spec.md §4.2: "once(eff) → lazily creates an Await, first
// observer stores eff, all observers return Await.get"; §4.3: "once
// guarantees the inner effect is forked exactly once").
func Once[E, A, R any](e Eff[E, A, R]) func() Eff[E, A, R] {
	cell := &onceCell[E, A]{aw: NewAwait[E, A]()}
	return func() Eff[E, A, R] {
		return Eff[E, A, R]{n: &envAsyncNode{
			register: func(rt *Runtime, env erased, rej func(erased), res func(erased)) CancelHandle {
				if !cell.started {
					cell.started = true
					child := spawn[E, A](rt, e.n, env.(R))
					child.addWaiter(func(o Outcome[E, A]) {
						MatchOutcome(o,
							func(a A) any { cell.aw.SetSuccess(a); return nil },
							func(e E) any { cell.aw.SetFailure(e); return nil },
							func() any { return nil },
						)
					})
				}
				if cell.aw.done {
					deliver(cell.aw.outcome, rej, res)
					return noopCancelHandle{}
				}
				cell.aw.waiters = append(cell.aw.waiters, func(v Either[E, A]) { deliver(v, rej, res) })
				return noopCancelHandle{}
			},
		}}
	}
}

// Encase adapts a function that reports failure through a returned error
// (rather than a panic) into a Task, without Try's panic-reification
// (spec.md §4.2: "encase ... adapters producing the appropriate
// Try/Async constructor").
func Encase[A, R any](f func() (A, error)) Eff[error, A, R] {
	return Eff[error, A, R]{n: &tryNode{thunk: func() (erased, error) {
		v, err := f()
		return v, err
	}}}
}

// EncaseP is Encase for a one-argument function, curried so it can be
// reused across many calls with different p (spec.md §4.2: "encaseP").
func EncaseP[P, A, R any](f func(P) (A, error)) func(P) Eff[error, A, R] {
	return func(p P) Eff[error, A, R] {
		return Encase[A, R](func() (A, error) { return f(p) })
	}
}

// Node adapts a Node.js-style "callback(err, value)" API into a Task
// (spec.md §4.2: "node ... adapters producing the appropriate Try/Async
// constructor"). register must invoke its callback exactly once.
func Node[A, R any](register func(callback func(error, A))) Eff[error, A, R] {
	return Eff[error, A, R]{n: &asyncNode{
		register: func(rej func(erased), res func(erased)) CancelHandle {
			register(func(err error, v A) {
				if err != nil {
					rej(err)
				} else {
					res(v)
				}
			})
			return noopCancelHandle{}
		},
	}}
}

// Cb adapts a single-value callback API (no error channel) into a UIO
// (spec.md §4.2: "cb ... adapters producing the appropriate Try/Async
// constructor"). register must invoke its callback exactly once.
func Cb[A, R any](register func(callback func(A))) Eff[struct{}, A, R] {
	return Eff[struct{}, A, R]{n: &asyncNode{
		register: func(rej func(erased), res func(erased)) CancelHandle {
			register(func(v A) { res(v) })
			return noopCancelHandle{}
		},
	}}
}

// UninterruptibleIO is a thin adapter (spec.md §4.2 names it alongside
// encase/node/cb as one of the pure-sugar adapters, not a new primitive):
// it does not introduce fiber-level interruption masking — a fiber running
// e can still be aborted like any other — it only documents, at the call
// site, that e's own in-flight operation should not be expected to observe
// cancellation before it completes. Implementing true masking would need
// the interpreter to track a per-fiber mask depth consulted by abortNow,
// which spec.md does not describe; this is the "adapter, not new
// semantics" reading of the derived-combinators list.
func UninterruptibleIO[E, A, R any](e Eff[E, A, R]) Eff[E, A, R] {
	return TryM(func() Eff[E, A, R] { return e })
}
