// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

// DebugEventKind enumerates the fiber/scheduler lifecycle events a
// DebugSink observes (C8 in the system overview, explicitly out of scope
// for correctness). Grounded on asmsh/promise's debug.go debugEvent enum —
// same idea (a closed set of lifecycle markers a host can log or count),
// narrowed to the events this interpreter actually raises.
type DebugEventKind int

const (
	_ DebugEventKind = iota

	// EventForked fires when a fiber is spawned, by Fork, UnsafeRun, or a
	// combinator that runs its work on fibers of its own (Race, ZipWithPar,
	// Once, Use).
	EventForked
	// EventSuspended fires when a fiber suspends on an Async node.
	EventSuspended
	// EventResumed fires when a suspended fiber's Async resumption runs.
	EventResumed
	// EventCompleted fires when a fiber settles with Success or Failure.
	EventCompleted
	// EventAborted fires when a fiber settles as Interrupted.
	EventAborted
	// EventManagedAcquired fires when a Managed's acquire step completes.
	EventManagedAcquired
	// EventManagedReleased fires when a Managed's release step completes.
	EventManagedReleased
	// EventManagedReleaseError fires when a Managed's release step itself
	// fails; spec.md §9 resolves this by reporting to the DebugSink rather
	// than surfacing a second failure alongside the body's own outcome.
	EventManagedReleaseError
)

// DebugEvent is a single lifecycle notification delivered to a DebugSink.
type DebugEvent struct {
	Kind    DebugEventKind
	FiberID int64
	// Err carries the release error for EventManagedReleaseError — typed
	// any rather than error since a Managed's release failure is typed E,
	// an arbitrary type parameter, not necessarily the error interface.
	// Nil for every other Kind.
	Err any
}

// DebugSink receives lifecycle events from a Runtime. Implementations must
// not block — Event is called synchronously from inside the interpreter's
// single cooperative thread of control, and a slow sink stalls every fiber
// sharing the Runtime.
type DebugSink interface {
	Event(DebugEvent)
}

// noopDebugSink discards every event; it is the default for a Runtime
// constructed without WithDebugSink.
type noopDebugSink struct{}

func (noopDebugSink) Event(DebugEvent) {}

// DebugSinkFunc adapts a plain function to DebugSink.
type DebugSinkFunc func(DebugEvent)

func (f DebugSinkFunc) Event(e DebugEvent) { f(e) }
