// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

// The continuation stack is a LIFO of frames, each one of the three kinds
// spec.md §3 names:
//
//   - applyFrame  — Apply(a→Eff): consume a success value, produce the
//     next node.
//   - recoverFrame — Recover(e→Eff): consume a failure value, produce the
//     next node.
//   - withEnvFrame — WithEnv(prev R): restore a previously-active
//     environment on the way out of a Provide.
//
// This is the teacher's defunctionalized continuation-frame technique
// (frame.go's BindFrame/MapFrame/EffectFrame/ReturnFrame) generalized from
// a fixed Bind/Map/Then/Effect shape to the three frame kinds spec.md's
// interpreter names directly. Frames are pooled (pool.go), not garbage
// collected eagerly, matching the teacher's AcquireEffectFrame/release
// discipline.
type frameKind uint8

const (
	frameApply frameKind = iota
	frameRecover
	frameWithEnv
)

// stackFrame is one entry on a fiber's continuation stack.
type stackFrame struct {
	kind frameKind

	// apply is set for frameApply: consumes the current success value and
	// produces the node to evaluate next.
	apply func(erased) node

	// recoverFn is set for frameRecover: consumes the current failure value
	// and produces the node to evaluate next.
	recoverFn func(erased) node

	// prevEnv is set for frameWithEnv: the environment to restore once this
	// frame is popped, whether the inner Provide exits by success, failure,
	// or unwind (spec.md §3 invariant 4).
	prevEnv erased

	pooled bool
}

// frameStack is a fiber-owned LIFO of *stackFrame. Never shared across
// fibers — each fiber's evaluator is the sole owner of its stack
// (spec.md §3: "Fiber state ... mutable record owned by exactly one
// evaluator").
type frameStack struct {
	frames []*stackFrame
}

func (s *frameStack) push(f *stackFrame) {
	s.frames = append(s.frames, f)
}

func (s *frameStack) pop() (*stackFrame, bool) {
	n := len(s.frames)
	if n == 0 {
		return nil, false
	}
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return f, true
}

// reset releases every remaining frame back to the pool and empties the
// stack, restoring any still-pending WithEnv frames on the way out. Used
// when a fiber aborts (spec.md's cancellation protocol: "drop remaining
// stack"); unwinding to ordinary completion goes through Fiber.propagate.
func (s *frameStack) reset(restoreEnv func(erased)) {
	for {
		f, ok := s.pop()
		if !ok {
			break
		}
		if f.kind == frameWithEnv && restoreEnv != nil {
			restoreEnv(f.prevEnv)
		}
		releaseFrame(f)
	}
}
