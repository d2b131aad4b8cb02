package apply

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/barter/internal/errors"
)

func TestDeferRunsStepsInOrder(t *testing.T) {
	l := NewLoop(16, nil)
	defer l.Close()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	for i := 1; i <= 5; i++ {
		n := i
		err := l.Defer(func() {
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
			if n == 5 {
				close(done)
			}
		})
		if err != nil {
			t.Fatalf("Defer() unexpected error: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("steps did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, n := range got {
		if n != i+1 {
			t.Fatalf("steps ran out of order: %v", got)
		}
	}
}

func TestDeferAfterCloseFails(t *testing.T) {
	l := NewLoop(1, nil)
	l.Close()

	err := l.Defer(func() {})
	if !errors.Is(err, errors.ErrLoopClosed) {
		t.Errorf("Defer() after Close error = %v, want ErrLoopClosed", err)
	}
}

func TestDeferFullQueue(t *testing.T) {
	l := NewLoop(1, nil)
	defer l.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	_ = l.Defer(func() { close(started); <-block })
	<-started

	// The drain goroutine is blocked; fill the queue, then overflow it.
	_ = l.Defer(func() {})
	var err error
	for i := 0; i < 8; i++ {
		if err = l.Defer(func() {}); err != nil {
			break
		}
	}
	if !errors.Is(err, errors.ErrQueueFull) {
		t.Errorf("Defer() on full queue error = %v, want ErrQueueFull", err)
	}
	close(block)
}

func TestCloseDrainsQueuedSteps(t *testing.T) {
	l := NewLoop(16, nil)

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		if err := l.Defer(func() { count.Add(1) }); err != nil {
			t.Fatalf("Defer() unexpected error: %v", err)
		}
	}

	l.Close()
	if got := count.Load(); got != 5 {
		t.Errorf("steps run before Close returned = %d, want 5", got)
	}
}

func TestStepPanicDoesNotKillLoop(t *testing.T) {
	l := NewLoop(16, nil)
	defer l.Close()

	done := make(chan struct{})
	_ = l.Defer(func() { panic("boom") })
	if err := l.Defer(func() { close(done) }); err != nil {
		t.Fatalf("Defer() unexpected error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop stopped after a panicking step")
	}
}

func TestEveryTicksUntilStopped(t *testing.T) {
	l := NewLoop(64, nil)
	defer l.Close()

	var count atomic.Int32
	ticker := l.Every(10*time.Millisecond, func() { count.Add(1) })

	deadline := time.After(2 * time.Second)
	for count.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("ticker did not fire enough")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ticker.Stop()
	if !ticker.Stopped() {
		t.Error("Stopped() = false after Stop")
	}
	ticker.Stop() // idempotent

	at := count.Load()
	time.Sleep(50 * time.Millisecond)
	// One enqueued tick may still land; after that the count must freeze.
	if got := count.Load(); got > at+1 {
		t.Errorf("ticks after Stop = %d, want at most 1", got-at)
	}
}

func TestEveryFirstTickIsImmediate(t *testing.T) {
	l := NewLoop(64, nil)
	defer l.Close()

	fired := make(chan struct{}, 1)
	ticker := l.Every(time.Hour, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	defer ticker.Stop()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("first tick did not fire before the period elapsed")
	}
}
