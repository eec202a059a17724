// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import "fmt"

// Eff[E, A, R] is an immutable description of a computation with an error
// channel E, a success channel A, and an environment requirement R
// (spec.md §3). It carries no identity and is freely shareable — building
// one never runs anything; only a Fiber (fiber.go) or UnsafeRun (runtime.go)
// interprets it.
//
// Internally Eff wraps a type-erased node (node.go); E, A, and R exist only
// at the Go-generics boundary to keep composition well-typed, the same
// erase-then-reassert boundary the teacher's Expr/Frame pair uses for its
// BindFrame/MapFrame chains.
type Eff[E, A, R any] struct {
	n node
}

// Const succeeds synchronously with a.
func Const[E, A, R any](a A) Eff[E, A, R] {
	return Eff[E, A, R]{n: &constNode{value: a}}
}

// Reject fails synchronously with e.
func Reject[E, A, R any](e E) Eff[E, A, R] {
	return Eff[E, A, R]{n: &rejectNode{err: e}}
}

// Try runs thunk. A normal return succeeds with its value; a panic inside
// thunk is recovered and reified as a failure of type error (spec.md §7:
// "Thrown host exceptions ... type Error for Try").
func Try[A, R any](thunk func() A) Eff[error, A, R] {
	return Eff[error, A, R]{n: &tryNode{thunk: func() (v erased, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicToError(r)
			}
		}()
		v = thunk()
		return v, nil
	}}}
}

// TryM runs thunk and substitutes the Eff it returns at this point. Unlike
// Try, a panic inside thunk is not reified — it propagates as an ordinary
// Go panic, since spec.md §4.2 only specifies exception reification for
// Try.
func TryM[E, A, R any](thunk func() Eff[E, A, R]) Eff[E, A, R] {
	return Eff[E, A, R]{n: &tryMNode{thunk: func() node { return thunk().n }}}
}

// Map transforms a successful value of e with the pure function f
// (spec.md §4.2: "f thrown → failure"). E is fixed by e's own type, so a
// panic inside f cannot be reified into an arbitrary E without knowing its
// concrete shape the way Try does for the fixed error channel; it
// propagates as an ordinary Go panic instead. Compose Map with Try (via
// Chain) when f's own failure needs to land in the error channel.
func Map[E, A, B, R any](e Eff[E, A, R], f func(A) B) Eff[E, B, R] {
	return Eff[E, B, R]{n: &mapNode{src: e.n, f: func(a erased) erased { return f(a.(A)) }}}
}

// Chain sequences e into k(a) on success, propagating failure unchanged
// (monadic bind).
func Chain[E, A, B, R any](e Eff[E, A, R], k func(A) Eff[E, B, R]) Eff[E, B, R] {
	return Eff[E, B, R]{n: &chainNode{src: e.n, k: func(a erased) node { return k(a.(A)).n }}}
}

// Catch recovers from a failure of e by evaluating h(err); a success
// propagates unchanged. Catch never intercepts interruption (spec.md §7):
// the interpreter short-circuits interruption before it reaches any
// recoverFrame produced by Catch.
func Catch[E, A, R any](e Eff[E, A, R], h func(E) Eff[E, A, R]) Eff[E, A, R] {
	return Eff[E, A, R]{n: &catchNode{src: e.n, h: func(errv erased) node { return h(errv.(E)).n }}}
}

// Async suspends the fiber; it resumes with the first call to reject or
// resolve made by register, whichever comes first — subsequent calls are
// ignored (spec.md §4.2 row Async). The CancelHandle register returns is
// stored as the fiber's current cancellation handle until resumption.
func Async[E, A, R any](register func(reject func(E), resolve func(A)) CancelHandle) Eff[E, A, R] {
	return Eff[E, A, R]{n: &asyncNode{register: func(rej func(erased), res func(erased)) CancelHandle {
		return register(func(e E) { rej(e) }, func(a A) { res(a) })
	}}}
}

// Access succeeds with f(currentEnv). It never fails through the error
// channel (spec.md §4.2 row Access); a panic inside f propagates as an
// ordinary Go panic.
func Access[R, A any](f func(R) A) Eff[struct{}, A, R] {
	return Eff[struct{}, A, R]{n: &accessNode{f: func(r erased) erased { return f(r.(R)) }}}
}

// Provide installs env for the duration of e, restoring whatever
// environment was previously active on any exit path — success, failure,
// or interruption (spec.md §3 invariant 4). The result no longer requires
// an environment from its own caller; R2 is phantom and unconstrained.
func Provide[E, A, R, R2 any](e Eff[E, A, R], env R) Eff[E, A, R2] {
	return Eff[E, A, R2]{n: &provideNode{src: e.n, env: env}}
}

// CurrentRuntime succeeds with the *Runtime driving the enclosing fiber.
// This realizes spec.md §4.2's "Runtime" constructor; it is named
// CurrentRuntime in Go to avoid colliding with the exported Runtime type
// (runtime.go).
func CurrentRuntime[R any]() Eff[struct{}, *Runtime, R] {
	return Eff[struct{}, *Runtime, R]{n: &runtimeNode{}}
}

// Fork succeeds immediately with a handle to a new, paused Fiber whose
// evaluator is scheduled via the current Runtime's Asap; the parent fiber
// is not descheduled (spec.md §4.2 row Fork). The child fiber inherits the
// parent's current environment — the "inherit current" resolution of
// spec.md §9's open question on Fork environment handling.
func Fork[E, A, R any](e Eff[E, A, R]) Eff[struct{}, *Fiber[E, A], R] {
	return Eff[struct{}, *Fiber[E, A], R]{n: &forkNode{
		src: e.n,
		spawn: func(rt *Runtime, parentEnv erased) erased {
			return spawn[E, A](rt, e.n, parentEnv.(R))
		},
	}}
}

// Never suspends forever; only an external abort of the enclosing fiber
// terminates it (spec.md §4.2 row Never).
func Never[E, A, R any]() Eff[E, A, R] {
	return Eff[E, A, R]{n: &neverNode{}}
}

// Call is equivalent to f(args...), but evaluated inside the interpreter
// so that deep recursion through Call becomes loop iteration rather than
// native call-stack growth (spec.md §4.2 row Call; spec.md §8 property 4:
// "Call-based recursion of depth N (N ≥ 10^5) completes without host-stack
// exhaustion").
func Call[E, A, R any](f func(args ...any) Eff[E, A, R], args ...any) Eff[E, A, R] {
	return Eff[E, A, R]{n: &callNode{
		f:    func(as ...erased) node { return f(as...).n },
		args: args,
	}}
}

// Widen reinterprets e under a different error-channel type. It is sound
// exactly when e can never actually produce a failure — the node
// underneath carries no type information of its own; E only exists at this
// Go-generics boundary. Access, CurrentRuntime, and Fork all return
// Eff[struct{}, ...] for this reason, and Widen is how a larger composition
// with a real error type E folds one of them in without a spurious Chain
// step that would otherwise force every link of the chain to share
// struct{} as its error channel.
func Widen[E2, E, A, R any](e Eff[E2, A, R]) Eff[E, A, R] {
	return Eff[E, A, R]{n: e.n}
}

// panicToError reifies an arbitrary recovered panic value into an error,
// the way Try's "any thrown value → Reject(Error)" rule requires.
func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicError{value: r}
}

type panicError struct{ value any }

func (p *panicError) Error() string {
	return fmt.Sprintf("eff: panic: %v", p.value)
}
