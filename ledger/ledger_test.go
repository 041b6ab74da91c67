package ledger

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestIncrementTripsAtThreshold(t *testing.T) {
	l := New(ScopeChat)
	k := l.KeyFor(1, 10)

	for want := 1; want <= 2; want++ {
		got, tripped := l.Increment(k, 3)
		if got != want || tripped {
			t.Fatalf("increment %d: got=%d tripped=%v", want, got, tripped)
		}
	}
	got, tripped := l.Increment(k, 3)
	if got != 3 || !tripped {
		t.Fatalf("expected trip at 3, got=%d tripped=%v", got, tripped)
	}
	if l.Count(k) != 0 {
		t.Fatalf("expected reset after trip, got %d", l.Count(k))
	}
	if got, _ := l.Increment(k, 3); got != 1 {
		t.Fatalf("expected fresh cycle, got %d", got)
	}
}

func TestScopeKeys(t *testing.T) {
	chat := New(ScopeChat)
	chat.Increment(chat.KeyFor(1, 10), 3)
	if chat.Count(chat.KeyFor(2, 10)) != 0 {
		t.Fatalf("chat scope must not leak across chats")
	}

	global := New(ScopeGlobal)
	global.Increment(global.KeyFor(1, 10), 3)
	if global.Count(global.KeyFor(2, 10)) != 1 {
		t.Fatalf("global scope must share counts across chats")
	}
}

func TestParseScope(t *testing.T) {
	if s, err := ParseScope("GLOBAL"); err != nil || s != ScopeGlobal {
		t.Fatalf("unexpected parse: %v %v", s, err)
	}
	if s, err := ParseScope(""); err != nil || s != ScopeChat {
		t.Fatalf("empty must default to chat: %v %v", s, err)
	}
	if _, err := ParseScope("room"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResetAndLen(t *testing.T) {
	l := New(ScopeChat)
	l.Increment(l.KeyFor(1, 1), 3)
	l.Increment(l.KeyFor(1, 2), 3)
	if l.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", l.Len())
	}
	l.Reset(l.KeyFor(1, 1))
	if l.Len() != 1 || l.Count(l.KeyFor(1, 1)) != 0 {
		t.Fatalf("expected key removed")
	}
}

func TestConcurrentIncrementsSameKey(t *testing.T) {
	l := New(ScopeChat)
	k := l.KeyFor(5, 50)

	const n = 200
	var trips atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, tripped := l.Increment(k, 0); tripped {
				trips.Add(1)
			}
		}()
	}
	wg.Wait()
	if l.Count(k) != n {
		t.Fatalf("lost updates: got %d want %d", l.Count(k), n)
	}
	if trips.Load() != 0 {
		t.Fatalf("threshold 0 must never trip")
	}
}

func TestConcurrentIncrementsTripOnce(t *testing.T) {
	l := New(ScopeChat)
	k := l.KeyFor(5, 51)

	var trips atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, tripped := l.Increment(k, 3); tripped {
				trips.Add(1)
			}
		}()
	}
	wg.Wait()
	if trips.Load() != 1 {
		t.Fatalf("expected exactly one trip, got %d", trips.Load())
	}
	if l.Count(k) != 0 {
		t.Fatalf("expected reset, got %d", l.Count(k))
	}
}
