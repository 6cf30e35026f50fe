package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestResourceLifecycle(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	r := New(tr, "post", "1", func(context.Context) (string, error) {
		return "hello", nil
	})

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("resource did not settle")
	}

	if r.State() != Ready {
		t.Errorf("State() = %v, want Ready", r.State())
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}

	s := NewScope(tr.Context())
	v, err := r.Read(s)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != "hello" {
		t.Errorf("Read = %q, want %q", v, "hello")
	}
}

func TestResourcePendingRead(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	release := make(chan struct{})
	r := New(tr, "slow", "", func(ctx context.Context) (int, error) {
		<-release
		return 42, nil
	})

	s := NewScope(tr.Context())
	v, err := r.Read(s)
	if !errors.Is(err, ErrPending) {
		t.Fatalf("Read = %v, want ErrPending", err)
	}
	if v != 0 {
		t.Errorf("pending Read value = %d, want zero", v)
	}
	if r.State() != Pending {
		t.Errorf("State() = %v, want Pending", r.State())
	}

	close(release)
	<-r.Done()

	v, err = r.Read(s)
	if err != nil || v != 42 {
		t.Errorf("Read after settle = (%d, %v), want (42, nil)", v, err)
	}
}

func TestResourceFailure(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	cause := errors.New("not found")
	r := New(tr, "post", "404", func(context.Context) (string, error) {
		return "", cause
	})
	<-r.Done()

	if r.State() != Failed {
		t.Errorf("State() = %v, want Failed", r.State())
	}
	if !errors.Is(r.Err(), cause) {
		t.Errorf("Err() = %v, want %v", r.Err(), cause)
	}

	s := NewScope(tr.Context())
	if _, err := r.Read(s); !errors.Is(err, cause) {
		t.Errorf("Read error = %v, want %v", err, cause)
	}
}

func TestResourceMemoization(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		return "v", nil
	}

	a := New(tr, "post", "1", fetch)
	b := New(tr, "post", "1", fetch)
	c := New(tr, "post", "2", fetch)

	if a != b {
		t.Error("same key should return the same resource")
	}
	if a == c {
		t.Error("different input should return a different resource")
	}

	<-a.Done()
	<-c.Done()
	if n := calls.Load(); n != 2 {
		t.Errorf("fetch calls = %d, want 2", n)
	}
	if tr.Len() != 2 {
		t.Errorf("tracker Len() = %d, want 2", tr.Len())
	}
}

func TestResourceConcurrentNew(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := New(tr, "shared", "x", fetch)
			<-r.Done()
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
}

func TestResourceKeyConflict(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	a := New(tr, "post", "1", func(context.Context) (string, error) { return "s", nil })
	<-a.Done()

	b := New(tr, "post", "1", func(context.Context) (int, error) { return 1, nil })
	<-b.Done()

	if b.State() != Failed {
		t.Fatalf("State() = %v, want Failed", b.State())
	}
	if !errors.Is(b.Err(), ErrKeyConflict) {
		t.Errorf("Err() = %v, want ErrKeyConflict", b.Err())
	}
	// The original resource is untouched.
	if a.State() != Ready {
		t.Errorf("original State() = %v, want Ready", a.State())
	}
}

func TestResourcePanicBecomesFailure(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	r := New(tr, "bad", "", func(context.Context) (string, error) {
		panic("boom")
	})
	<-r.Done()

	if r.State() != Failed {
		t.Fatalf("State() = %v, want Failed", r.State())
	}
	if r.Err() == nil {
		t.Fatal("Err() should carry the panic")
	}
}

func TestTrackerCancellation(t *testing.T) {
	tr := NewTracker(context.Background())

	r := New(tr, "slow", "", func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	tr.Close()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Close should cancel in-flight evaluations")
	}
	if !errors.Is(r.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", r.Err())
	}
	if tr.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", tr.Len())
	}
}

func TestBlockingOption(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	b := New(tr, "post", "1", func(context.Context) (string, error) { return "", nil }, Blocking())
	n := New(tr, "comments", "1", func(context.Context) (string, error) { return "", nil })

	if !b.Blocking() {
		t.Error("Blocking() = false, want true")
	}
	if n.Blocking() {
		t.Error("Blocking() = true, want false")
	}
}

func TestScopeObservation(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	release := make(chan struct{})
	slow := New(tr, "slow", "", func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	})
	fast := New(tr, "fast", "", func(context.Context) (string, error) { return "soon", nil })
	<-fast.Done()

	s := NewScope(tr.Context())
	slow.Read(s)
	fast.Read(s)
	slow.Read(s) // repeat reads deduplicate

	obs := s.Observed()
	if len(obs) != 2 {
		t.Fatalf("len(Observed) = %d, want 2", len(obs))
	}
	if obs[0].Key().Scope != "slow" || obs[1].Key().Scope != "fast" {
		t.Errorf("observation order = %v, %v", obs[0].Key(), obs[1].Key())
	}

	pending := s.Pending()
	if len(pending) != 1 || pending[0].Key().Scope != "slow" {
		t.Errorf("Pending = %v, want just the slow resource", pending)
	}

	close(release)
	<-slow.Done()
	if len(s.Pending()) != 0 {
		t.Error("Pending should be empty after settle")
	}
}

func TestScopeFailed(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	causeA := errors.New("a")
	a := New(tr, "a", "", func(context.Context) (string, error) { return "", causeA })
	ok := New(tr, "ok", "", func(context.Context) (string, error) { return "v", nil })
	<-a.Done()
	<-ok.Done()

	s := NewScope(tr.Context())
	a.Read(s)
	ok.Read(s)

	failed := s.Failed()
	if len(failed) != 1 {
		t.Fatalf("len(Failed) = %d, want 1", len(failed))
	}
	e := failed[0]
	if e.Key.Scope != "a" {
		t.Errorf("failed key = %v", e.Key)
	}
	if !errors.Is(e, causeA) {
		t.Errorf("error should unwrap to the cause, got %v", e)
	}
	if e.Error() == "" {
		t.Error("Error() should describe the failure")
	}
}

func TestScopeBlocking(t *testing.T) {
	tr := NewTracker(context.Background())
	defer tr.Close()

	b := New(tr, "post", "1", func(context.Context) (string, error) { return "", nil }, Blocking())
	n := New(tr, "c", "1", func(context.Context) (string, error) { return "", nil })

	s := NewScope(tr.Context())
	n.Read(s)
	if s.Blocking() {
		t.Error("scope without blocking reads should not block")
	}
	b.Read(s)
	if !s.Blocking() {
		t.Error("scope with a blocking read should block")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Pending, "Pending"},
		{Ready, "Ready"},
		{Failed, "Failed"},
		{State(9), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKeyString(t *testing.T) {
	k := Key{Scope: "post", Input: "42"}
	if got := k.String(); got != "post(42)" {
		t.Errorf("String() = %q", got)
	}
}
