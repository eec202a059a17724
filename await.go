// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

// Await is a one-shot, single-assignment latch (spec.md §4.4): the first
// call to Set wins, every later call is ignored, and any fiber blocked on
// Get before that first Set resumes with it. Get called after the latch is
// already set resolves immediately with the stored value — the same
// at-most-once discipline the interpreter gives Async's reject/resolve
// pair, here surfaced as a standalone primitive for fan-out coordination
// (a single producer, many consumers) rather than producer/consumer
// handoff inside one Async registration.
type Await[E, A any] struct {
	done    bool
	outcome Either[E, A]
	waiters []func(Either[E, A])
}

// NewAwait returns an unset latch.
func NewAwait[E, A any]() *Await[E, A] {
	return &Await[E, A]{}
}

// Set assigns the latch's value if it is still unset; later calls (from
// any fiber) are no-ops. Returns true if this call performed the
// assignment.
func (aw *Await[E, A]) Set(v Either[E, A]) bool {
	if aw.done {
		return false
	}
	aw.done = true
	aw.outcome = v
	waiters := aw.waiters
	aw.waiters = nil
	for _, w := range waiters {
		w(v)
	}
	return true
}

// SetSuccess is shorthand for Set(Right(a)).
func (aw *Await[E, A]) SetSuccess(a A) bool { return aw.Set(Right[E, A](a)) }

// SetFailure is shorthand for Set(Left(e)).
func (aw *Await[E, A]) SetFailure(e E) bool { return aw.Set(Left[E, A](e)) }

// Get returns an effect that resumes with the latch's value once it is
// set — immediately if it is already set, or suspended until the next Set
// otherwise.
func (aw *Await[E, A]) Get() Eff[E, A, any] {
	return Eff[E, A, any]{n: &asyncNode{
		register: func(rej func(erased), res func(erased)) CancelHandle {
			if aw.done {
				deliver(aw.outcome, rej, res)
				return noopCancelHandle{}
			}
			aw.waiters = append(aw.waiters, func(v Either[E, A]) { deliver(v, rej, res) })
			return noopCancelHandle{}
		},
	}}
}

func deliver[E, A any](v Either[E, A], rej func(erased), res func(erased)) {
	if a, ok := v.GetRight(); ok {
		res(a)
		return
	}
	e, _ := v.GetLeft()
	rej(e)
}
