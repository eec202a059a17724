// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eff_test

import (
	"math/rand/v2"
	"testing"
	"time"

	eff "code.hybscloud.com/eff"
)

const propertyN = 1000

// randInt returns a random int in [-1000, 1000].
func randInt(rng *rand.Rand) int {
	return rng.IntN(2001) - 1000
}

// randString returns a random ASCII string of length [0, 8].
func randString(rng *rand.Rand) string {
	n := rng.IntN(9)
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rng.IntN(95) + 32) // printable ASCII
	}
	return string(b)
}

func runSync[A any](e eff.Eff[string, A, any]) (A, string, bool) {
	rt := eff.NewRuntime(eff.NewTestScheduler())
	return eff.UnsafeRunSync(rt, e, any(nil))
}

// --- Group 1: Monad laws on Chain/Const ---

// TestPropertyChainLeftIdentity: Const(a).chain(f) ≡ f(a)
func TestPropertyChainLeftIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range propertyN {
		a := randInt(rng)
		f := func(x int) eff.Eff[string, int, any] { return eff.Const[string, int, any](x * 3) }
		left, _, _ := runSync(eff.Chain(eff.Const[string, int, any](a), f))
		right, _, _ := runSync(f(a))
		if left != right {
			t.Fatalf("left identity: %d != %d (a=%d)", left, right, a)
		}
	}
}

// TestPropertyChainRightIdentity: m.chain(Const) ≡ m
func TestPropertyChainRightIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range propertyN {
		a := randInt(rng)
		m := eff.Const[string, int, any](a)
		left, _, _ := runSync(eff.Chain(m, func(x int) eff.Eff[string, int, any] {
			return eff.Const[string, int, any](x)
		}))
		right, _, _ := runSync(m)
		if left != right {
			t.Fatalf("right identity: %d != %d (a=%d)", left, right, a)
		}
	}
}

// TestPropertyChainAssociativity: m.chain(f).chain(g) ≡ m.chain(x → f(x).chain(g))
func TestPropertyChainAssociativity(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range propertyN {
		a := randInt(rng)
		m := eff.Const[string, int, any](a)
		f := func(x int) eff.Eff[string, int, any] { return eff.Const[string, int, any](x + 3) }
		g := func(x int) eff.Eff[string, int, any] { return eff.Const[string, int, any](x * 2) }
		left, _, _ := runSync(eff.Chain(eff.Chain(m, f), g))
		right, _, _ := runSync(eff.Chain(m, func(x int) eff.Eff[string, int, any] {
			return eff.Chain(f(x), g)
		}))
		if left != right {
			t.Fatalf("associativity: %d != %d (a=%d)", left, right, a)
		}
	}
}

// --- Group 2: Catch identity ---

// TestPropertyCatchConstIdentity: Const(a).catch(h) ≡ Const(a)
func TestPropertyCatchConstIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range propertyN {
		a := randInt(rng)
		m := eff.Const[string, int, any](a)
		h := func(e string) eff.Eff[string, int, any] { return eff.Const[string, int, any](-1) }
		left, _, _ := runSync(eff.Catch(m, h))
		right, _, _ := runSync(m)
		if left != right {
			t.Fatalf("catch const identity: %d != %d (a=%d)", left, right, a)
		}
	}
}

// TestPropertyCatchRejectIdentity: Reject(e).catch(h) ≡ h(e)
func TestPropertyCatchRejectIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range propertyN {
		e := randString(rng)
		h := func(s string) eff.Eff[string, int, any] { return eff.Const[string, int, any](len(s)) }
		left, _, _ := runSync(eff.Catch(eff.Reject[string, int, any](e), h))
		right, _, _ := runSync(h(e))
		if left != right {
			t.Fatalf("catch reject identity: %d != %d (e=%q)", left, right, e)
		}
	}
}

// --- Group 3: Fork independence ---

// TestPropertyForkIndependence: the success value of eff.fork.chain(f→f.join)
// equals that of eff for any non-aborted eff.
func TestPropertyForkIndependence(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range propertyN {
		a := randInt(rng)
		base := eff.Const[string, int, any](a)
		fork := eff.Widen[struct{}, string, *eff.Fiber[string, int], any](eff.Fork(base))
		forked := eff.Chain(fork, func(f *eff.Fiber[string, int]) eff.Eff[string, int, any] {
			return eff.JoinAs[string, int, any](f)
		})

		directVal, _, _ := runSync(base)
		forkedVal, _, ok := runSync(forked)
		if !ok {
			t.Fatalf("forked computation did not settle (a=%d)", a)
		}
		if directVal != forkedVal {
			t.Fatalf("fork independence: %d != %d (a=%d)", directVal, forkedVal, a)
		}
	}
}

// --- Group 4: Stack safety ---

// TestPropertyStackSafety: Call-based recursion of depth N (N >= 1e5)
// completes without host-stack exhaustion.
func TestPropertyStackSafety(t *testing.T) {
	const depth = 200_000

	var countdown func(args ...any) eff.Eff[string, int, any]
	countdown = func(args ...any) eff.Eff[string, int, any] {
		n := args[0].(int)
		if n == 0 {
			return eff.Const[string, int, any](0)
		}
		return eff.Call(countdown, n-1)
	}

	result, _, ok := runSync(eff.Call(countdown, depth))
	if !ok || result != 0 {
		t.Fatalf("stack safety: got (%d, ok=%v), want (0, true)", result, ok)
	}
}

// --- Group 5: Race determinism ---

// TestPropertyRaceDeterminism: with advertised delays da < db, race(delay(da,
// A), delay(db, B)) always yields A. Race does not expose B's fiber, so this
// test does not observe that B ends as Aborted.
func TestPropertyRaceDeterminism(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range 200 {
		da := time.Duration(rng.IntN(50)+1) * time.Millisecond
		db := da + time.Duration(rng.IntN(50)+1)*time.Millisecond

		a := eff.Timeout[string, int, any](1, da)
		b := eff.Timeout[string, int, any](2, db)
		winner, _, ok := runSync(eff.Race(a, b))
		if !ok || winner != 1 {
			t.Fatalf("race determinism: got (%d, ok=%v), want (1, true) (da=%v db=%v)", winner, ok, da, db)
		}
	}
}

// --- Group 6: once idempotence ---

// TestPropertyOnceIdempotence: if e = counter.incr.once and it is forked K
// >= 2 times on the same runtime, counter advances exactly once.
func TestPropertyOnceIdempotence(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range 100 {
		k := rng.IntN(8) + 2
		counter := 0
		incr := eff.Try(func() int { counter++; return counter })
		once := eff.Once[error, int, any](incr)

		forks := make([]eff.Eff[struct{}, *eff.Fiber[error, int], any], k)
		for i := range forks {
			forks[i] = eff.Fork(once())
		}
		forkSeq := eff.Widen[struct{}, error, []*eff.Fiber[error, int], any](eff.Seq(forks))
		prog := eff.Chain(forkSeq, func(fibers []*eff.Fiber[error, int]) eff.Eff[error, []int, any] {
			joins := make([]eff.Eff[error, int, any], len(fibers))
			for i, f := range fibers {
				joins[i] = eff.JoinAs[error, int, any](f)
			}
			return eff.Seq(joins)
		})

		rt := eff.NewRuntime(eff.NewTestScheduler())
		vals, _, ok := eff.UnsafeRunSync(rt, prog, any(nil))
		if !ok {
			t.Fatalf("once idempotence: program did not settle (k=%d)", k)
		}
		for _, v := range vals {
			if v != 1 {
				t.Fatalf("once idempotence: fork saw %d, want 1 (k=%d)", v, k)
			}
		}
		if counter != 1 {
			t.Fatalf("once idempotence: counter=%d, want 1 (k=%d)", counter, k)
		}
	}
}

// --- Group 7: Managed release count ---

// TestPropertyManagedReleaseCount: for any sequence of use exits (success,
// failure), release invocations exactly equal acquire invocations.
func TestPropertyManagedReleaseCount(t *testing.T) {
	for _, fails := range []bool{false, true} {
		acquires, releases := 0, 0
		acquire := eff.Try(func() int { acquires++; return acquires })
		release := func(int) eff.Eff[string, struct{}, any] {
			return eff.Widen[error, string, struct{}, any](eff.Try(func() struct{} { releases++; return struct{}{} }))
		}
		m := eff.Make[string, int, any](eff.Widen[error, string, int, any](acquire), release)

		body := func(int) eff.Eff[string, int, any] { return eff.Const[string, int, any](42) }
		if fails {
			body = func(int) eff.Eff[string, int, any] { return eff.Reject[string, int, any]("boom") }
		}
		_, _, _ = runSync(eff.Use(m, body))

		if acquires != releases {
			t.Fatalf("managed release count: acquires=%d releases=%d (fails=%v)", acquires, releases, fails)
		}
	}
}

// --- Group 8: Queue FIFO ---

// TestPropertyQueueFIFO: the sequence of values returned by takes equals the
// sequence of values passed to offers.
func TestPropertyQueueFIFO(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range 100 {
		n := rng.IntN(20) + 1
		q := eff.NewUnbounded[int]()
		rt := eff.NewRuntime(eff.NewTestScheduler())
		values := make([]int, n)
		for i := range values {
			values[i] = randInt(rng)
			_, _, _ = eff.UnsafeRunSync(rt, q.Offer(values[i]), any(nil))
		}
		got, _, ok := eff.UnsafeRunSync(rt, q.TakeN(n), any(nil))
		if !ok {
			t.Fatalf("queue fifo: takeN did not settle")
		}
		for i := range values {
			if got[i] != values[i] {
				t.Fatalf("queue fifo: got %v, want %v", got, values)
			}
		}
	}
}

// --- Concrete end-to-end scenarios (spec.md §8) ---

// S1: Try(() -> 42) run -> Success(42)
func TestScenarioTrySuccess(t *testing.T) {
	v, _, ok := runSync(eff.Widen[error, string, int, any](eff.Try(func() int { return 42 })))
	if !ok || v != 42 {
		t.Fatalf("S1: got (%d, ok=%v), want (42, true)", v, ok)
	}
}

// S2: Try(() -> { throw "FAILED" }) run -> Failure(Error("FAILED"))
func TestScenarioTryThrowing(t *testing.T) {
	rt := eff.NewRuntime(eff.NewTestScheduler())
	e := eff.Try(func() int { panic("FAILED") })
	_, errv, ok := eff.UnsafeRunSync(rt, e, any(nil))
	if !ok {
		t.Fatalf("S2: program did not settle")
	}
	if errv == nil || errv.Error() != "eff: panic: FAILED" {
		t.Fatalf("S2: got error %v, want a reified panic carrying FAILED", errv)
	}
}

// S3: with counter c initially 0, effect e = Try(() -> ++c).once; run
// e.chain(a -> e.chain(b -> Const([a,b]))) -> result [1, 1], final c == 1.
func TestScenarioOnceMemoization(t *testing.T) {
	c := 0
	e := eff.Once[error, int, any](eff.Try(func() int { c++; return c }))

	prog := eff.Chain(e(), func(a int) eff.Eff[error, []int, any] {
		return eff.Chain(e(), func(b int) eff.Eff[error, []int, any] {
			return eff.Const[error, []int, any]([]int{a, b})
		})
	})

	rt := eff.NewRuntime(eff.NewTestScheduler())
	got, _, ok := eff.UnsafeRunSync(rt, prog, any(nil))
	if !ok || got[0] != 1 || got[1] != 1 {
		t.Fatalf("S3: got %v, want [1 1]", got)
	}
	if c != 1 {
		t.Fatalf("S3: counter=%d, want 1", c)
	}
}

// S4: with r counting acquires minus releases,
// Managed.make(r.acquire, r.release).use(_ -> Reject("x")) -> r == 0 and
// Failure("x").
func TestScenarioManagedOnFailure(t *testing.T) {
	r := 0
	acquire := eff.Try(func() struct{} { r++; return struct{}{} })
	release := func(struct{}) eff.Eff[string, struct{}, any] {
		return eff.Widen[error, string, struct{}, any](eff.Try(func() struct{} { r--; return struct{}{} }))
	}
	m := eff.Make[string, struct{}, any](eff.Widen[error, string, struct{}, any](acquire), release)

	rt := eff.NewRuntime(eff.NewTestScheduler())
	prog := eff.Use(m, func(struct{}) eff.Eff[string, int, any] { return eff.Reject[string, int, any]("x") })
	_, errv, ok := eff.UnsafeRunSync(rt, prog, any(nil))
	if !ok || errv != "x" {
		t.Fatalf("S4: got (err=%q, ok=%v), want (\"x\", true)", errv, ok)
	}
	if r != 0 {
		t.Fatalf("S4: r=%d, want 0", r)
	}
}

// S5: fork the effect Managed.make(r.acquire, r.release).use(_ ->
// timeout(0, 1000)), then after 500ms abort the fiber -> r == 0.
func TestScenarioManagedOnAbort(t *testing.T) {
	r := 0
	acquire := eff.Try(func() struct{} { r++; return struct{}{} })
	release := func(struct{}) eff.Eff[string, struct{}, any] {
		return eff.Widen[error, string, struct{}, any](eff.Try(func() struct{} { r--; return struct{}{} }))
	}
	m := eff.Make[string, struct{}, any](eff.Widen[error, string, struct{}, any](acquire), release)
	body := eff.Use(m, func(struct{}) eff.Eff[string, int, any] {
		return eff.Timeout[string, int, any](0, 1000*time.Millisecond)
	})

	ts := eff.NewTestScheduler()
	rt := eff.NewRuntime(ts)
	settled := false
	cancel := eff.UnsafeRun(rt, body, any(nil), func(eff.Outcome[string, int]) { settled = true })
	ts.Run()
	ts.Advance(500 * time.Millisecond)
	cancel.Cancel()
	ts.Run()

	if !settled {
		t.Fatalf("S5: fiber did not settle after abort")
	}
	if r != 0 {
		t.Fatalf("S5: r=%d, want 0", r)
	}
}

// S6: with three resources producing values 11, 101, 1001 on acquire,
// Managed.zip([M1,M2,M3]).use(values -> Const(values)) -> [11, 101, 1001].
func TestScenarioManagedZipParallel(t *testing.T) {
	mk := func(v int) eff.Managed[string, int, any] {
		return eff.Make[string, int, any](
			eff.Widen[error, string, int, any](eff.Try(func() int { return v })),
			func(int) eff.Eff[string, struct{}, any] { return eff.Const[string, struct{}, any](struct{}{}) },
		)
	}
	zipped := eff.ZipManaged([]eff.Managed[string, int, any]{mk(11), mk(101), mk(1001)})
	prog := eff.Use(zipped, func(values []int) eff.Eff[string, []int, any] {
		return eff.Const[string, []int, any](values)
	})

	rt := eff.NewRuntime(eff.NewTestScheduler())
	got, _, ok := eff.UnsafeRunSync(rt, prog, any(nil))
	if !ok || len(got) != 3 || got[0] != 11 || got[1] != 101 || got[2] != 1001 {
		t.Fatalf("S6: got %v, want [11 101 1001]", got)
	}
}

// S7: on empty bounded(10) queue, forking take then offering 99 -> the
// forked fiber completes with 99.
func TestScenarioQueueSuspendingTake(t *testing.T) {
	q := eff.NewBounded[int](10)
	prog := eff.Chain(eff.Fork(q.Take()), func(f *eff.Fiber[struct{}, int]) eff.Eff[struct{}, int, any] {
		return eff.And(q.Offer(99), eff.JoinAs[struct{}, int, any](f))
	})

	rt := eff.NewRuntime(eff.NewTestScheduler())
	got, _, ok := eff.UnsafeRunSync(rt, prog, any(nil))
	if !ok || got != 99 {
		t.Fatalf("S7: got (%d, ok=%v), want (99, true)", got, ok)
	}
}
