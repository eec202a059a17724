// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package eff provides a pure-effect runtime: effect descriptions that
// compose like values, a trampolined interpreter that runs them without
// growing the host call stack, and a single-threaded cooperative fiber
// scheduler on top.
//
// The core type [Eff] represents a description of a computation with an
// error channel, a success channel, and an environment requirement,
// parameterized as Eff[E, A, R]. Building an Eff never runs anything — only
// [UnsafeRun], [UnsafeRunSync], or a [Fiber] interprets one.
//
// # Design Philosophy
//
// eff provides:
//   - A closed algebra of effect constructors (construction, not
//     interpretation) composed via ordinary Go generic functions
//   - A defunctionalized interpreter: Eff values wrap a type-erased node
//     tree walked by an explicit continuation-frame stack, not native Go
//     call recursion, so deeply chained compositions do not exhaust the
//     host stack
//   - Single-threaded cooperative scheduling: at most one fiber's
//     interpreter runs at a time; concurrency is logical interleaving
//     driven by a pluggable [Scheduler], never OS-thread parallelism
//
// # Core Algebra
//
// Effect constructors (§4.2 of the originating design):
//
//   - [Const]: succeed synchronously with a value
//   - [Reject]: fail synchronously with an error
//   - [Try]: run a thunk, reifying any panic as a failure
//   - [TryM]: run a thunk that itself returns an Eff to substitute
//   - [Map]: transform a success value with a pure function
//   - [Chain]: monadic bind — sequence into a function of the prior result
//   - [Catch]: recover from a failure; never intercepts interruption
//   - [Async]: suspend until a register callback resolves or rejects
//   - [Access]: read the current environment
//   - [Provide]: install an environment for the duration of an Eff
//   - [CurrentRuntime]: obtain the driving [Runtime]
//   - [Fork]: spawn a child [Fiber] without suspending the caller
//   - [Never]: suspend forever, interruptible only by an external abort
//   - [Call]: invoke a function inside the interpreter loop so recursion
//     through it becomes loop iteration, not native call-stack growth
//   - [Widen]: reinterpret an Eff that can never fail under a different
//     error-channel type
//
// # Derived Combinators
//
// Built atop the core algebra; several (Sleep, Timeout, Race, ZipWithPar,
// Once, Encase, Node, Cb) construct the interpreter's internal nodes
// directly rather than going through the public constructors:
//
//   - [And], [Do]: sequence two Eff values, keeping the right-hand result
//   - [ConstOf], [VoidEff]: convenience lifts
//   - [Sleep], [Timeout]: delay-based combinators over a [Scheduler]
//   - [Seq]: sequential fold of a slice of Eff values
//   - [Race]: run two Eff values concurrently; the first to settle wins,
//     the loser is aborted
//   - [ZipWithPar], [Par], [ParN]: parallel combination, aborting siblings
//     on first failure
//   - [FromEither]: lift an [Either] into Const/Reject
//   - [Once]: memoize an Eff so it runs at most once across any number of
//     callers
//   - [Encase], [EncaseP]: adapt an error-returning Go function
//   - [Node], [Cb]: adapt Node.js-style and single-value callbacks
//   - [UninterruptibleIO]: a shallow adapter marking intent; it does not
//     implement true interpreter-level interruption masking
//
// Type aliases for common instantiations: [UIO] (never fails), [Task] and
// [AsyncIO] (fail with error).
//
// # Fibers and the Runtime
//
// A [Runtime] binds a [Scheduler] and drives fibers through it:
//
//   - [NewRuntime]: construct a Runtime over a Scheduler
//   - [UnsafeRun]: start a root [Fiber] for an Eff, invoking onExit with
//     its [Outcome] once settled; returns a [CancelHandle]
//   - [UnsafeRunSync]: drain a [TestScheduler] synchronously and return the
//     settled result, for tests
//   - [Fiber]: a running evaluation; [Fiber.Await] observes its outcome
//     without interruption coupling, [Fiber.Join] additionally propagates
//     the joined fiber's interruption into the caller, [Fiber.Abort]
//     requests cooperative cancellation
//
// Fiber status is monotonic: Pending, then exactly one of Completed or
// Aborted ([Outcome]'s three cases: Success, Failure, Interrupted).
//
// # Await
//
// [Await] is a one-shot latch: the first [Await.Set] (or [Await.SetSuccess]
// / [Await.SetFailure]) wins; [Await.Get] returns an Eff that resolves
// immediately if already set, or suspends until it is.
//
// # Managed
//
// [Managed] describes a scoped resource — acquire paired with release.
// [Use] runs a body against the acquired value and guarantees release
// exactly once on every exit path: success, failure, or abort of the
// enclosing fiber. [ChainManaged], [MapManaged], and [ZipManaged] compose
// Managed values, releasing in LIFO order (ZipManaged releases its whole
// set in parallel).
//
// # Queue
//
// [Queue] is a bounded or unbounded FIFO ([NewBounded], [NewUnbounded])
// supporting suspending [Queue.Take] and non-blocking (or
// capacity-suspending) [Queue.Offer], plus [Queue.TakeN] and observable
// snapshots via [Queue.Size], [Queue.Length], and [Queue.AsArray].
//
// # Either and Outcome
//
// [Either] is a two-case success/failure sum used internally by Await and
// Queue plumbing; [Outcome] is the three-case Success/Failure/Interrupted
// sum a Fiber settles with. [MatchEither] and [MatchOutcome] pattern-match
// both.
//
// # Scheduling
//
// [Scheduler] is the minimal "asap" / "delay" interface a Runtime consumes.
// [RealtimeScheduler] drains its queue on a background goroutine against
// the wall clock; [TestScheduler] drives a virtual clock so tests can
// advance time deterministically without sleeping.
//
// # Debugging
//
// [DebugSink] receives lifecycle [DebugEvent]s (fiber forked, suspended,
// resumed, completed, aborted; Managed acquired/released/release-error)
// from a Runtime configured with [Runtime.WithDebugSink]. This is strictly
// an observability hook — it has no bearing on interpreter correctness.
//
// # Example
//
//	rt := eff.NewRuntime(eff.NewRealtimeScheduler())
//	prog := eff.Chain(eff.Const[error, int, any](21), func(n int) eff.Eff[error, int, any] {
//		return eff.Const[error, int, any](n * 2)
//	})
//	eff.UnsafeRun(rt, prog, any(nil), func(o eff.Outcome[error, int]) {
//		v, _ := o.GetSuccess()
//		_ = v // 42
//	})
package eff
