package callgroup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeduplication(t *testing.T) {
	var g Group[int, string]
	var calls atomic.Int32
	started := make(chan struct{})

	fn := func() (string, error) {
		calls.Add(1)
		close(started)
		time.Sleep(50 * time.Millisecond)
		return "shared", nil
	}

	const n = 10
	var wg sync.WaitGroup
	results := make([]Result[string], n)

	// First caller starts the work.
	wg.Go(func() {
		results[0] = <-g.DoChan(1, fn)
	})

	// Wait for fn to start, then pile on.
	<-started
	for i := 1; i < n; i++ {
		wg.Go(func() {
			results[i] = <-g.DoChan(1, fn)
		})
	}

	wg.Wait()

	for i, r := range results {
		if r.Err != nil {
			t.Errorf("caller %d got error: %v", i, r.Err)
		}
		if r.Val != "shared" {
			t.Errorf("caller %d got %q, want shared", i, r.Val)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fn called %d times, want 1", got)
	}
}

func TestIndependentKeys(t *testing.T) {
	var g Group[int, int]
	var calls atomic.Int32

	fn := func() (int, error) {
		calls.Add(1)
		return 0, nil
	}

	var wg sync.WaitGroup
	for _, key := range []int{1, 2, 3} {
		wg.Go(func() {
			<-g.DoChan(key, fn)
		})
	}

	wg.Wait()

	if got := calls.Load(); got != 3 {
		t.Errorf("fn called %d times, want 3", got)
	}
}

func TestWaiterReceivesResult(t *testing.T) {
	var g Group[int, int]
	started := make(chan struct{})

	fn := func() (int, error) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		return 42, nil
	}

	// First caller.
	ch1 := g.DoChan(1, fn)
	<-started

	// Second caller joins.
	ch2 := g.DoChan(1, func() (int, error) {
		t.Error("second fn should not execute")
		return 0, errors.New("unexpected")
	})

	r1 := <-ch1
	r2 := <-ch2

	if r1.Err != nil || r1.Val != 42 {
		t.Errorf("caller 1: got (%v, %v), want (42, nil)", r1.Val, r1.Err)
	}
	if r2.Err != nil || r2.Val != 42 {
		t.Errorf("caller 2: got (%v, %v), want (42, nil)", r2.Val, r2.Err)
	}
}

func TestErrorPropagation(t *testing.T) {
	var g Group[int, int]
	sentinel := errors.New("failed")
	started := make(chan struct{})

	ch1 := g.DoChan(1, func() (int, error) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		return 0, sentinel
	})
	<-started

	ch2 := g.DoChan(1, func() (int, error) {
		t.Error("should not execute")
		return 0, nil
	})

	r1 := <-ch1
	r2 := <-ch2

	if !errors.Is(r1.Err, sentinel) {
		t.Errorf("caller 1: got %v, want %v", r1.Err, sentinel)
	}
	if !errors.Is(r2.Err, sentinel) {
		t.Errorf("caller 2: got %v, want %v", r2.Err, sentinel)
	}
}

func TestReuseAfterCompletion(t *testing.T) {
	var g Group[int, int]
	var calls atomic.Int32

	fn := func() (int, error) {
		calls.Add(1)
		return int(calls.Load()), nil
	}

	// First call completes.
	if r := <-g.DoChan(1, fn); r.Err != nil {
		t.Fatalf("first call: %v", r.Err)
	}

	// Second call for same key should trigger a new execution.
	r := <-g.DoChan(1, fn)
	if r.Err != nil {
		t.Fatalf("second call: %v", r.Err)
	}
	if r.Val != 2 {
		t.Fatalf("second call saw stale result: %d", r.Val)
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("fn called %d times, want 2", got)
	}
}

func TestDoReturnsResult(t *testing.T) {
	var g Group[string, int]

	v, err := g.Do(context.Background(), "k", func() (int, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if v != 7 {
		t.Fatalf("got %d, want 7", v)
	}
}

func TestDoCancelledWaiter(t *testing.T) {
	var g Group[string, int]
	started := make(chan struct{})
	release := make(chan struct{})

	// Occupy the key.
	ch := g.DoChan("k", func() (int, error) {
		close(started)
		<-release
		return 1, nil
	})
	<-started

	// A waiter with a cancelled context gives up without killing the call.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Do(ctx, "k", func() (int, error) {
		t.Error("should not execute")
		return 0, nil
	}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The in-flight call still completes for the original caller.
	close(release)
	if r := <-ch; r.Err != nil || r.Val != 1 {
		t.Fatalf("original caller: got (%v, %v), want (1, nil)", r.Val, r.Err)
	}
}
