package promise

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func awaitT[T any](t *testing.T, p *Promise[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := p.Await(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("promise did not settle")
	}
	return v, err
}

func TestResolve(t *testing.T) {
	d := Defer[int]()
	p := d.Promise()
	if p.Settled() {
		t.Fatal("new promise must be pending")
	}

	go d.Resolve(42)

	v, err := awaitT(t, p)
	if err != nil || v != 42 {
		t.Fatalf("expected 42, got %d %v", v, err)
	}
	if !p.Settled() {
		t.Error("expected promise to be settled")
	}
}

func TestReject(t *testing.T) {
	boom := errors.New("boom")
	d := Defer[string]()
	d.Reject(boom)

	v, err := awaitT(t, d.Promise())
	if err != boom {
		t.Fatalf("expected the exact rejection error, got %v", err)
	}
	if v != "" {
		t.Errorf("expected zero value, got %q", v)
	}
}

func TestRejectNil(t *testing.T) {
	_, err := awaitT(t, Rejected[int](nil))
	if !errors.Is(err, ErrNilReason) {
		t.Fatalf("expected ErrNilReason, got %v", err)
	}
}

func TestFirstSettlementWins(t *testing.T) {
	d := Defer[int]()
	if !d.Resolve(1) {
		t.Fatal("first Resolve must settle")
	}
	if d.Resolve(2) {
		t.Error("second Resolve must report false")
	}
	if d.Reject(errors.New("late")) {
		t.Error("Reject after Resolve must report false")
	}

	v, err := awaitT(t, d.Promise())
	if v != 1 || err != nil {
		t.Errorf("expected first value to win, got %d %v", v, err)
	}
}

func TestConcurrentSettle(t *testing.T) {
	d := Defer[int]()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.Resolve(i) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Errorf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestAwaitContextDoesNotSettle(t *testing.T) {
	d := Defer[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Promise().Await(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if d.Promise().Settled() {
		t.Fatal("cancelled wait must not settle the promise")
	}

	d.Resolve(7)
	if v, _ := awaitT(t, d.Promise()); v != 7 {
		t.Errorf("expected 7 after late resolve, got %d", v)
	}
}

func TestAwaitManyTimes(t *testing.T) {
	p := Resolved("x")
	for range 3 {
		if v, err := p.Wait(); v != "x" || err != nil {
			t.Fatalf("unexpected %q %v", v, err)
		}
	}
}

func TestNodeifyResolve(t *testing.T) {
	d := Defer[int]()
	calls := make(chan struct {
		err error
		v   int
	}, 2)

	ret := d.Promise().Nodeify(func(err error, v int) {
		calls <- struct {
			err error
			v   int
		}{err, v}
	})
	if ret != d.Promise() {
		t.Error("Nodeify must return the same promise")
	}

	d.Resolve(5)

	select {
	case c := <-calls:
		if c.err != nil || c.v != 5 {
			t.Errorf("expected (nil, 5), got (%v, %d)", c.err, c.v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback not called")
	}

	select {
	case <-calls:
		t.Error("callback called more than once")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNodeifyReject(t *testing.T) {
	boom := errors.New("boom")
	got := make(chan error, 1)
	Rejected[int](boom).Nodeify(func(err error, v int) {
		if v != 0 {
			t.Errorf("expected zero value on rejection, got %d", v)
		}
		got <- err
	})

	select {
	case err := <-got:
		if err != boom {
			t.Errorf("expected boom, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback not called")
	}
}

func TestNodeifyNil(t *testing.T) {
	p := Resolved(1)
	if p.Nodeify(nil) != p {
		t.Error("nil callback must return the same promise")
	}
}

func TestNodeifyDoesNotBlockSettler(t *testing.T) {
	d := Defer[int]()
	release := make(chan struct{})
	d.Promise().Nodeify(func(error, int) { <-release })
	defer close(release)

	settled := make(chan struct{})
	go func() {
		d.Resolve(1)
		close(settled)
	}()

	select {
	case <-settled:
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve blocked on a slow callback")
	}
}

func TestTry(t *testing.T) {
	v, err := awaitT(t, Try(func() (int, error) { return 3, nil }))
	if v != 3 || err != nil {
		t.Errorf("unexpected %d %v", v, err)
	}

	boom := errors.New("boom")
	if _, err := awaitT(t, Try(func() (int, error) { return 0, boom })); err != boom {
		t.Errorf("expected boom, got %v", err)
	}

	if _, err := awaitT(t, Try(func() (int, error) { panic("bad") })); err == nil {
		t.Error("expected panic to reject")
	}
}

func TestThen(t *testing.T) {
	p := Then(Resolved(2), func(v int) (string, error) {
		return string(rune('a' + v)), nil
	})
	if v, err := awaitT(t, p); v != "c" || err != nil {
		t.Errorf("unexpected %q %v", v, err)
	}

	boom := errors.New("boom")
	called := false
	rejected := Then(Rejected[int](boom), func(int) (int, error) {
		called = true
		return 0, nil
	})
	if _, err := awaitT(t, rejected); err != boom {
		t.Errorf("expected rejection to pass through, got %v", err)
	}
	if called {
		t.Error("fn must not run on rejection")
	}
}
