// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import "sync"

// stackFrame pool: the interpreter acquires a frame, fills it, pushes it,
// and releases it back to the pool the moment it is popped and consumed.
// Pooled frames are affine (at-most-once) — a frame is popped exactly once
// by the fiber that pushed it, matching the teacher's pool.go discipline
// for EffectFrame/BindFrame/ThenFrame.
var stackFramePool = sync.Pool{New: func() any { return new(stackFrame) }}

func acquireApplyFrame(apply func(erased) node) *stackFrame {
	f := stackFramePool.Get().(*stackFrame)
	f.kind = frameApply
	f.apply = apply
	f.pooled = true
	return f
}

func acquireRecoverFrame(recoverFn func(erased) node) *stackFrame {
	f := stackFramePool.Get().(*stackFrame)
	f.kind = frameRecover
	f.recoverFn = recoverFn
	f.pooled = true
	return f
}

func acquireWithEnvFrame(prevEnv erased) *stackFrame {
	f := stackFramePool.Get().(*stackFrame)
	f.kind = frameWithEnv
	f.prevEnv = prevEnv
	f.pooled = true
	return f
}

// releaseFrame zeroes and returns f to the pool; no-op if not pooled.
func releaseFrame(f *stackFrame) {
	if !f.pooled {
		return
	}
	f.apply = nil
	f.recoverFn = nil
	f.prevEnv = nil
	f.pooled = false
	stackFramePool.Put(f)
}
