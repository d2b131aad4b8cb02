package request

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/errors"
)

func TestRegisterAndHas(t *testing.T) {
	r := NewRegistry()

	if r.Has("a", "b") {
		t.Error("Has() = true on empty registry")
	}

	r.Register("a", "b")
	if !r.Has("a", "b") {
		t.Error("Has() = false after Register")
	}
	if r.Has("b", "a") {
		t.Error("Has() = true for the reverse direction")
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("a", "b")
	r.Register("a", "b")

	if err := r.Unregister("a", "b"); err != nil {
		t.Fatalf("Unregister() unexpected error: %v", err)
	}
	if r.Has("a", "b") {
		t.Error("Has() = true after single Unregister of doubly-registered pair")
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("a", "b")

	if err := r.Unregister("a", "b"); err != nil {
		t.Fatalf("Unregister() unexpected error: %v", err)
	}
	if r.Has("a", "b") {
		t.Error("Has() = true after Unregister")
	}
}

func TestUnregisterAbsentPair(t *testing.T) {
	r := NewRegistry()

	err := r.Unregister("a", "b")
	if err == nil {
		t.Fatal("Unregister() of absent pair returned nil error")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("IsNotFound(err) = false for %v", err)
	}
	if !errors.Is(err, errors.ErrRequestNotFound) {
		t.Errorf("err does not wrap ErrRequestNotFound: %v", err)
	}
}

func TestClearSentPrunesBothIndexes(t *testing.T) {
	r := NewRegistry()
	r.Register("a", "b")
	r.Register("a", "c")
	r.Register("x", "b")

	cleared := r.ClearSent("a")
	slices.Sort(cleared)
	if want := []actor.ID{"b", "c"}; !slices.Equal(cleared, want) {
		t.Errorf("ClearSent() = %v, want %v", cleared, want)
	}

	if r.Has("a", "b") || r.Has("a", "c") {
		t.Error("requests from a survived ClearSent")
	}
	if !r.Has("x", "b") {
		t.Error("unrelated request was cleared")
	}
}

func TestClearReceivedPrunesBothIndexes(t *testing.T) {
	r := NewRegistry()
	r.Register("a", "b")
	r.Register("c", "b")
	r.Register("a", "x")

	cleared := r.ClearReceived("b")
	slices.Sort(cleared)
	if want := []actor.ID{"a", "c"}; !slices.Equal(cleared, want) {
		t.Errorf("ClearReceived() = %v, want %v", cleared, want)
	}

	if r.Has("a", "b") || r.Has("c", "b") {
		t.Error("requests to b survived ClearReceived")
	}
	if !r.Has("a", "x") {
		t.Error("unrelated request was cleared")
	}
}

func TestClearReturnsNilWhenEmpty(t *testing.T) {
	r := NewRegistry()

	if got := r.ClearSent("nobody"); got != nil {
		t.Errorf("ClearSent() = %v, want nil", got)
	}
	if got := r.ClearReceived("nobody"); got != nil {
		t.Errorf("ClearReceived() = %v, want nil", got)
	}
}

func TestConcurrentRegistration(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sender := actor.ID(fmt.Sprintf("sender-%d", n))
			recipient := actor.ID(fmt.Sprintf("recipient-%d", n))
			r.Register(sender, recipient)
			if !r.Has(sender, recipient) {
				t.Errorf("Has(%s, %s) = false after Register", sender, recipient)
			}
			if err := r.Unregister(sender, recipient); err != nil {
				t.Errorf("Unregister() unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
