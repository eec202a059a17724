// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

// managedHandle pairs an acquired resource with the effect that releases
// it. Carrying the release effect alongside the value (rather than
// recomputing it from the value, as the teacher's Bracket does by closing
// over a single acquire/release pair) is what lets Chain and Zip compose
// release in LIFO order without needing A to be comparable or otherwise
// identifiable — the release effect for a composite resource is just the
// handles' own release effects run in the right order.
type managedHandle[E, A, R any] struct {
	value   A
	release Eff[E, struct{}, R]
}

// Managed describes a scoped resource: acquiring it yields a
// managedHandle carrying both the value and its release effect (spec.md
// §4.5). Like Eff, a Managed carries no state of its own — only Use ever
// runs anything. Grounded on the teacher's resource.go Bracket, generalized
// from Bracket's fixed acquire→use→release sequencing to guarantee release
// on abort of the enclosing fiber too, which Bracket cannot express
// (resource.go has no notion of cancellation).
type Managed[E, A, R any] struct {
	run Eff[E, managedHandle[E, A, R], R]
}

// Make describes a Managed from its acquire and release steps (spec.md
// §4.5: "Managed.make(acquire, release)").
func Make[E, A, R any](acquire Eff[E, A, R], release func(A) Eff[E, struct{}, R]) Managed[E, A, R] {
	return Managed[E, A, R]{run: Chain(acquire, func(a A) Eff[E, managedHandle[E, A, R], R] {
		return Const[E, managedHandle[E, A, R], R](managedHandle[E, A, R]{value: a, release: release(a)})
	})}
}

// ChainManaged sequences m into f(a)'s Managed, composing their release
// effects so the inner resource is released before the outer one (spec.md
// §4.5: "managed.chain(f) ... compose release in LIFO order (inner
// released first)"). A free function, not a method — Go methods cannot
// introduce the additional type parameter B.
func ChainManaged[E, A, B, R any](m Managed[E, A, R], f func(A) Managed[E, B, R]) Managed[E, B, R] {
	return Managed[E, B, R]{run: Chain(m.run, func(ha managedHandle[E, A, R]) Eff[E, managedHandle[E, B, R], R] {
		inner := f(ha.value)
		return Chain(inner.run, func(hb managedHandle[E, B, R]) Eff[E, managedHandle[E, B, R], R] {
			return Const[E, managedHandle[E, B, R], R](managedHandle[E, B, R]{
				value:   hb.value,
				release: And(hb.release, ha.release),
			})
		})
	})}
}

// MapManaged transforms a Managed's exposed value, leaving its acquire and
// release steps untouched (spec.md §4.5: "managed.map(f)").
func MapManaged[E, A, B, R any](m Managed[E, A, R], f func(A) B) Managed[E, B, R] {
	return Managed[E, B, R]{run: Chain(m.run, func(ha managedHandle[E, A, R]) Eff[E, managedHandle[E, B, R], R] {
		return Const[E, managedHandle[E, B, R], R](managedHandle[E, B, R]{value: f(ha.value), release: ha.release})
	})}
}

// ZipManaged acquires every Managed in ms in parallel and, on use-exit,
// releases them all in parallel (spec.md §4.5: "Managed.zip(list) —
// acquire all resources in parallel (par), release all in parallel on
// use-exit").
func ZipManaged[E, A, R any](ms []Managed[E, A, R]) Managed[E, []A, R] {
	runs := make([]Eff[E, managedHandle[E, A, R], R], len(ms))
	for i, m := range ms {
		runs[i] = m.run
	}
	return Managed[E, []A, R]{run: Chain(Par(runs), func(handles []managedHandle[E, A, R]) Eff[E, managedHandle[E, []A, R], R] {
		values := make([]A, len(handles))
		releases := make([]Eff[E, struct{}, R], len(handles))
		for i, h := range handles {
			values[i] = h.value
			releases[i] = h.release
		}
		return Const[E, managedHandle[E, []A, R], R](managedHandle[E, []A, R]{
			value:   values,
			release: VoidEff(Par(releases)),
		})
	})}
}

// Use evaluates m's acquire step to a handle, runs k(handle.value)
// capturing its exit, evaluates handle.release unconditionally, then
// reproduces the captured exit — except that a release failure following a
// successful k becomes the overall failure, while a release failure
// following a failed k is only reported to the Runtime's DebugSink,
// preserving k's own failure (spec.md §4.5's use description; §9's
// resolution of the release-failure-precedence open question: "use-error
// wins; release-error reported via a sink").
//
// Release also runs — exactly once — if the fiber running the returned
// effect is aborted before k settles: Use's own suspension point carries a
// CancelHandle that aborts the in-flight k, whose own settling (as
// Interrupted) drives the same release path every other exit uses — the
// "sequencing uses Await + fork+await to translate abort-of-parent into
// release-then-propagate" pattern spec.md §4.5 describes, realized here
// directly against Fiber rather than through a literal Await value.
func Use[E, A, B, R any](m Managed[E, A, R], k func(A) Eff[E, B, R]) Eff[E, B, R] {
	return Chain(m.run, func(h managedHandle[E, A, R]) Eff[E, B, R] {
		return Eff[E, B, R]{n: &envAsyncNode{
			register: func(rt *Runtime, env erased, rej func(erased), res func(erased)) CancelHandle {
				r := env.(R)
				child := spawn[E, B](rt, k(h.value).n, r)
				rt.debug.Event(DebugEvent{Kind: EventManagedAcquired, FiberID: child.id})

				released := false
				release := func(after func(relFailed bool, relErr E)) {
					if released {
						var zero E
						after(false, zero)
						return
					}
					released = true
					relFiber := spawn[E, struct{}](rt, h.release.n, r)
					relFiber.addWaiter(func(ro Outcome[E, struct{}]) {
						if relErr, ok := ro.GetFailure(); ok {
							rt.debug.Event(DebugEvent{Kind: EventManagedReleaseError, FiberID: child.id, Err: relErr})
							after(true, relErr)
						} else {
							rt.debug.Event(DebugEvent{Kind: EventManagedReleased, FiberID: child.id})
							var zero E
							after(false, zero)
						}
					})
				}

				child.addWaiter(func(o Outcome[E, B]) {
					switch {
					case o.IsSuccess():
						v, _ := o.GetSuccess()
						release(func(relFailed bool, relErr E) {
							if relFailed {
								rej(relErr)
							} else {
								res(v)
							}
						})
					case o.IsFailure():
						e, _ := o.GetFailure()
						release(func(bool, E) { rej(e) })
					default:
						release(func(bool, E) {})
					}
				})

				return managedCancel{cancel: func() {
					rt.scheduler.Asap(func() { child.abortNow() })
				}}
			},
		}}
	})
}

type managedCancel struct{ cancel func() }

func (c managedCancel) Cancel() { c.cancel() }
