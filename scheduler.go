// Copyright 2026 The eff Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff

import (
	"sync"
	"time"
)

// Scheduler is the only contract the interpreter requires of its host
// (spec.md §4.1): run a thunk as soon as possible, or after a delay, each
// returning an idempotently-cancellable handle. All callbacks a Scheduler
// invokes must execute on a single cooperative thread of control — no
// handler preempts another mid-run (spec.md §5).
type Scheduler interface {
	// Asap runs f on the scheduler's next tick.
	Asap(f func()) CancelHandle
	// Delay runs f after at least d has elapsed.
	Delay(f func(), d time.Duration) CancelHandle
}

// CancelHandle cancels a previously-scheduled thunk. Cancelling after the
// thunk has already run is a no-op (spec.md §4.1); cancelling twice is
// also a no-op.
type CancelHandle interface {
	Cancel()
}

// noopCancelHandle is returned where nothing needs cancelling, e.g. by
// Async registrations such as Await.Get or Fiber.Await that hold no
// scheduler handle of their own.
type noopCancelHandle struct{}

func (noopCancelHandle) Cancel() {}

// RealtimeScheduler is a wall-clock scheduler backed by one dedicated
// goroutine draining a FIFO queue of thunks for Asap, and time.AfterFunc
// for Delay. This is the single point where the package touches a
// goroutine or channel — everything built on Scheduler (fiber, Await,
// Managed, Queue) is written as if single-threaded, exactly as spec.md §5
// requires of any host. Neither shape has a direct analogue in the
// retrieval pack: b97tsk/async's executor.go is a purely synchronous
// priority-queue drain driven by a caller-supplied autorun hook, with no
// internal goroutine or channel of its own, and asmsh/promise's own delay
// mechanism (safe.go's delayCall) spawns a goroutine that calls
// time.Sleep, never time.AfterFunc. This is a case spec.md §5's
// single-cooperative-thread requirement forces a construction the
// zero-dependency, all-synchronous pack has no precedent for; see
// DESIGN.md's stdlib justification for RealtimeScheduler.
type RealtimeScheduler struct {
	mu      sync.Mutex
	tasks   chan func()
	closeCh chan struct{}
	once    sync.Once
}

// NewRealtimeScheduler starts the drain goroutine and returns a ready
// Scheduler. The goroutine runs until Close is called; most programs keep
// one RealtimeScheduler (and one Runtime) for their whole lifetime and
// never call Close.
func NewRealtimeScheduler() *RealtimeScheduler {
	s := &RealtimeScheduler{
		tasks:   make(chan func(), 256),
		closeCh: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *RealtimeScheduler) loop() {
	for {
		select {
		case f := <-s.tasks:
			f()
		case <-s.closeCh:
			return
		}
	}
}

// Close stops the drain goroutine. Pending Asap thunks that have not yet
// been picked up are dropped.
func (s *RealtimeScheduler) Close() {
	s.once.Do(func() { close(s.closeCh) })
}

type cancelFlag struct {
	mu        sync.Mutex
	cancelled bool
}

func (c *cancelFlag) Cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
}

func (c *cancelFlag) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Asap enqueues f to run on the drain goroutine's next turn.
func (s *RealtimeScheduler) Asap(f func()) CancelHandle {
	flag := &cancelFlag{}
	s.tasks <- func() {
		if !flag.isCancelled() {
			f()
		}
	}
	return flag
}

// Delay runs f after at least d has elapsed, still on the drain goroutine
// (time.AfterFunc's own goroutine only enqueues; it never calls f
// directly), preserving the single-cooperative-thread invariant.
func (s *RealtimeScheduler) Delay(f func(), d time.Duration) CancelHandle {
	flag := &cancelFlag{}
	timer := time.AfterFunc(d, func() {
		if flag.isCancelled() {
			return
		}
		s.tasks <- func() {
			if !flag.isCancelled() {
				f()
			}
		}
	})
	return &timerCancelHandle{flag: flag, timer: timer}
}

type timerCancelHandle struct {
	flag  *cancelFlag
	timer *time.Timer
}

func (h *timerCancelHandle) Cancel() {
	h.flag.Cancel()
	h.timer.Stop()
}

// TestScheduler is a virtual-clock Scheduler for deterministic tests
// (spec.md §8 property 5 requires "a deterministic test scheduler"). Asap
// thunks queue until Tick or Run drains them; Delay thunks queue against a
// virtual deadline and release as Advance moves the virtual clock forward.
// Single-threaded by construction: a TestScheduler must only ever be
// driven from the goroutine that also runs Tick/Run/Advance.
type TestScheduler struct {
	now     time.Duration
	asapQ   []*testTask
	delayQ  []*testTask
	seq     int
}

type testTask struct {
	f         func()
	deadline  time.Duration
	seq       int
	cancelled bool
}

func (t *testTask) Cancel() { t.cancelled = true }

// NewTestScheduler returns a TestScheduler with its virtual clock at zero.
func NewTestScheduler() *TestScheduler {
	return &TestScheduler{}
}

// Asap queues f for the next Tick/Run.
func (s *TestScheduler) Asap(f func()) CancelHandle {
	t := &testTask{f: f, deadline: s.now, seq: s.nextSeq()}
	s.asapQ = append(s.asapQ, t)
	return t
}

// Delay queues f to run once the virtual clock reaches now+d.
func (s *TestScheduler) Delay(f func(), d time.Duration) CancelHandle {
	t := &testTask{f: f, deadline: s.now + d, seq: s.nextSeq()}
	s.delayQ = append(s.delayQ, t)
	return t
}

func (s *TestScheduler) nextSeq() int {
	s.seq++
	return s.seq
}

// Tick runs every currently-queued Asap thunk once, in FIFO order, then
// returns. Thunks those thunks themselves schedule are not run by this
// call (spec.md §5: "every callback scheduled by asap(f) happens-before
// the next tick's asap-enqueued callback").
func (s *TestScheduler) Tick() int {
	batch := s.asapQ
	s.asapQ = nil
	ran := 0
	for _, t := range batch {
		if t.cancelled {
			continue
		}
		t.f()
		ran++
	}
	return ran
}

// Run drains Asap thunks, including ones newly scheduled by prior thunks,
// until none remain.
func (s *TestScheduler) Run() {
	for len(s.asapQ) > 0 {
		s.Tick()
	}
}

// Advance moves the virtual clock forward by d, releasing any Delay
// thunks whose deadline has passed (in deadline order, then FIFO for ties)
// into the Asap queue, then drains everything via Run.
func (s *TestScheduler) Advance(d time.Duration) {
	s.now += d
	s.releaseDue()
	s.Run()
}

func (s *TestScheduler) releaseDue() {
	var remaining []*testTask
	var due []*testTask
	for _, t := range s.delayQ {
		if !t.cancelled && t.deadline <= s.now {
			due = append(due, t)
		} else if !t.cancelled {
			remaining = append(remaining, t)
		}
	}
	s.delayQ = remaining
	sortTasks(due)
	for _, t := range due {
		s.asapQ = append(s.asapQ, t)
	}
}

func sortTasks(tasks []*testTask) {
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasksLess(tasks[j], tasks[j-1]); j-- {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
		}
	}
}

func tasksLess(a, b *testTask) bool {
	if a.deadline != b.deadline {
		return a.deadline < b.deadline
	}
	return a.seq < b.seq
}

// Now returns the scheduler's current virtual time.
func (s *TestScheduler) Now() time.Duration { return s.now }
