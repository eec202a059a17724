// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

// Outcome is the three-case sum a fiber finally settles on (spec.md §7):
// Success(A), Failure(E), or Interrupted. It widens the teacher's two-case
// Either (error.go) with the interruption case spec.md §7 requires:
// "Interruption is distinct from failure ... Catch does NOT recover from
// Interrupted."
type outcomeKind uint8

const (
	outcomeSuccess outcomeKind = iota
	outcomeFailure
	outcomeInterrupted
)

// Outcome represents the terminal state of a Fiber[E, A].
type Outcome[E, A any] struct {
	kind outcomeKind
	val  A
	err  E
}

// Success builds a successful Outcome.
func Success[E, A any](a A) Outcome[E, A] {
	return Outcome[E, A]{kind: outcomeSuccess, val: a}
}

// Failure builds a failed Outcome.
func Failure[E, A any](e E) Outcome[E, A] {
	return Outcome[E, A]{kind: outcomeFailure, err: e}
}

// Interrupted builds an interrupted Outcome.
func Interrupted[E, A any]() Outcome[E, A] {
	return Outcome[E, A]{kind: outcomeInterrupted}
}

// IsSuccess reports whether the Outcome is Success.
func (o Outcome[E, A]) IsSuccess() bool { return o.kind == outcomeSuccess }

// IsFailure reports whether the Outcome is Failure.
func (o Outcome[E, A]) IsFailure() bool { return o.kind == outcomeFailure }

// IsInterrupted reports whether the Outcome is Interrupted.
func (o Outcome[E, A]) IsInterrupted() bool { return o.kind == outcomeInterrupted }

// GetSuccess returns the success value and true, or zero and false.
func (o Outcome[E, A]) GetSuccess() (A, bool) {
	if o.kind == outcomeSuccess {
		return o.val, true
	}
	var zero A
	return zero, false
}

// GetFailure returns the failure value and true, or zero and false.
func (o Outcome[E, A]) GetFailure() (E, bool) {
	if o.kind == outcomeFailure {
		return o.err, true
	}
	var zero E
	return zero, false
}

// MatchOutcome pattern-matches on an Outcome.
func MatchOutcome[E, A, T any](o Outcome[E, A], onSuccess func(A) T, onFailure func(E) T, onInterrupted func() T) T {
	switch o.kind {
	case outcomeSuccess:
		return onSuccess(o.val)
	case outcomeFailure:
		return onFailure(o.err)
	default:
		return onInterrupted()
	}
}

// Either represents a value that is either Left (error) or Right (success).
// Kept from the teacher's error.go for the two-case results internal
// combinators traffic in (FromEither, the value an Await stores) — Outcome
// is reserved for fiber exits,
// which additionally need the Interrupted case Either cannot express.
type Either[E, A any] struct {
	isRight bool
	left    E
	right   A
}

// Left creates a Left (error) value.
func Left[E, A any](e E) Either[E, A] {
	return Either[E, A]{isRight: false, left: e}
}

// Right creates a Right (success) value.
func Right[E, A any](a A) Either[E, A] {
	return Either[E, A]{isRight: true, right: a}
}

// IsRight returns true if this is a Right value.
func (e Either[E, A]) IsRight() bool { return e.isRight }

// IsLeft returns true if this is a Left value.
func (e Either[E, A]) IsLeft() bool { return !e.isRight }

// GetRight returns the Right value and true, or zero and false.
func (e Either[E, A]) GetRight() (A, bool) {
	if e.isRight {
		return e.right, true
	}
	var zero A
	return zero, false
}

// GetLeft returns the Left value and true, or zero and false.
func (e Either[E, A]) GetLeft() (E, bool) {
	if !e.isRight {
		return e.left, true
	}
	var zero E
	return zero, false
}

// MatchEither pattern-matches on an Either.
func MatchEither[E, A, T any](e Either[E, A], onLeft func(E) T, onRight func(A) T) T {
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}
