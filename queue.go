// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import "math"

// blockedOffer is an offer that could not be placed because a bounded
// Queue was at capacity; it is parked until a Take frees a slot.
type blockedOffer[A any] struct {
	value A
	ready *Await[struct{}, struct{}]
}

// Queue is a mutable FIFO shared across fibers (spec.md §4.6, C7). Like
// Await, it is built entirely out of the Eff algebra plus a mutable core —
// no locks, because every mutation happens on the scheduler's single
// cooperative thread (spec.md §5's shared resource policy). Grounded on
// asmsh/promise's bounded channel pattern adapted from callback-queues to
// Await-queues: an offer into a full queue, and a take from an empty one,
// both suspend by enqueueing an Await and resuming it from the other side
// once state changes.
//
// Invariant (spec.md §3): items is empty or takers is empty, never both —
// enforced by construction, since Offer always prefers delivering directly
// to a waiting taker over enqueueing into items, and Take always prefers
// draining items over registering a taker.
type Queue[A any] struct {
	capacity int
	items    []A
	takers   []*Await[struct{}, A]
	blocked  []blockedOffer[A]
}

// NewBounded creates a Queue that suspends Offer once capacity items are
// pending.
func NewBounded[A any](capacity int) *Queue[A] {
	if capacity <= 0 {
		panic("eff: NewBounded requires a positive capacity")
	}
	return &Queue[A]{capacity: capacity}
}

// NewUnbounded creates a Queue whose Offer never suspends.
func NewUnbounded[A any]() *Queue[A] {
	return &Queue[A]{capacity: math.MaxInt}
}

// Offer delivers a directly to a waiting Take if one exists; otherwise it
// enqueues a if the queue has spare capacity; otherwise it suspends until a
// later Take frees a slot (spec.md §4.6 row offer).
func (q *Queue[A]) Offer(a A) Eff[struct{}, struct{}, any] {
	return TryM(func() Eff[struct{}, struct{}, any] {
		if len(q.takers) > 0 {
			taker := q.takers[0]
			q.takers = q.takers[1:]
			taker.SetSuccess(a)
			return Const[struct{}, struct{}, any](struct{}{})
		}
		if len(q.items) < q.capacity {
			q.items = append(q.items, a)
			return Const[struct{}, struct{}, any](struct{}{})
		}
		ready := NewAwait[struct{}, struct{}]()
		q.blocked = append(q.blocked, blockedOffer[A]{value: a, ready: ready})
		return ready.Get()
	})
}

// Take dequeues the oldest pending item, suspending if the queue is empty
// until some Offer delivers one (spec.md §4.6 row take).
func (q *Queue[A]) Take() Eff[struct{}, A, any] {
	return TryM(func() Eff[struct{}, A, any] {
		if len(q.items) > 0 {
			v := q.items[0]
			q.items = q.items[1:]
			q.wakeBlockedOffer()
			return Const[struct{}, A, any](v)
		}
		aw := NewAwait[struct{}, A]()
		q.takers = append(q.takers, aw)
		return aw.Get()
	})
}

// wakeBlockedOffer admits one parked offer into items once a Take has just
// freed a slot. This is the resolution of spec.md §9's open question on
// whether a woken offer reinserts through items or is delivered directly:
// here items and takers stay strictly complementary (Offer never enqueues
// into items while a taker is waiting, so a newly-freed slot from Take can
// only ever be claimed by a blocked offer, never a blocked taker) and a
// woken offer always lands in items rather than being handed to a taker
// directly — Take already checked items/takers and found both empty or
// items non-empty before this runs, so there is no taker left to hand it
// to.
func (q *Queue[A]) wakeBlockedOffer() {
	if len(q.blocked) == 0 {
		return
	}
	b := q.blocked[0]
	q.blocked = q.blocked[1:]
	q.items = append(q.items, b.value)
	b.ready.SetSuccess(struct{}{})
}

// TakeN collects n values in arrival order, suspending on each Take in
// turn (spec.md §4.6 row takeN).
func (q *Queue[A]) TakeN(n int) Eff[struct{}, []A, any] {
	acc := Const[struct{}, []A, any]([]A{})
	for i := 0; i < n; i++ {
		acc = Chain(acc, func(xs []A) Eff[struct{}, []A, any] {
			return Map(q.Take(), func(v A) []A { return append(xs, v) })
		})
	}
	return acc
}

// Size returns the number of items currently pending, a snapshot not
// synchronized with any in-flight Take (spec.md §4.6 row size).
func (q *Queue[A]) Size() int { return len(q.items) }

// Length is a synonym for Size, matching the pair of accessor names spec.md
// lists side by side.
func (q *Queue[A]) Length() int { return len(q.items) }

// AsArray snapshots the pending items in FIFO order.
func (q *Queue[A]) AsArray() []A {
	out := make([]A, len(q.items))
	copy(out, q.items)
	return out
}

// AsStream returns an effect that takes the next value; chaining it
// repeatedly unfolds the queue's contents one Take at a time (spec.md §4.6
// row asStream — actual stream adapters are an external collaborator this
// core only hands values to, per spec.md §1's Out of scope).
func (q *Queue[A]) AsStream() Eff[struct{}, A, any] {
	return q.Take()
}
