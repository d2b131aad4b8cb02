package trade

import (
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/config"
	"github.com/Iron-Ham/barter/internal/gate"
	"github.com/Iron-Ham/barter/internal/grid"
	"github.com/Iron-Ham/barter/internal/negotiate"
	"github.com/Iron-Ham/barter/internal/notify"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[actor.ID][]notify.Message
}

func (r *recordingNotifier) Notify(to actor.ID, msg notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[to] = append(r.sent[to], msg)
}

func (r *recordingNotifier) count(to actor.ID, kind notify.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, msg := range r.sent[to] {
		if msg.Kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	hub      *Hub
	roster   *actor.Roster
	sessions *actor.MemorySessions
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Trade.CountdownTicks = 3
	cfg.Trade.TickIntervalMs = 10

	f := &fixture{
		roster:   actor.NewRoster(),
		sessions: actor.NewMemorySessions(),
		notifier: &recordingNotifier{sent: make(map[actor.ID][]notify.Message)},
	}
	f.hub = New(cfg, f.roster, f.sessions, f.notifier, nil, nil)
	t.Cleanup(f.hub.Close)

	f.sessions.OnClose(func(id actor.ID) {
		_ = f.hub.ViewClosed(id)
	})

	f.roster.Add("alice", "Alice")
	f.roster.Add("bob", "Bob")
	return f
}

func (f *fixture) openTrade(t *testing.T) {
	t.Helper()
	if outcome := f.hub.Request("alice", "Bob"); outcome != negotiate.OK {
		t.Fatalf("Request() = %q, want ok", outcome)
	}
	if outcome := f.hub.Accept("bob", "Alice"); outcome != negotiate.OK {
		t.Fatalf("Accept() = %q, want ok", outcome)
	}
	f.sessions.Open("alice")
	f.sessions.Open("bob")
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func totalOf(stacks []grid.Unit, unitType string) int {
	total := 0
	for _, s := range stacks {
		if s.Type == unitType {
			total += s.Quantity
		}
	}
	return total
}

func TestFullExchange(t *testing.T) {
	f := newFixture(t)
	f.openTrade(t)

	if !f.hub.InTrade("alice") || !f.hub.InTrade("bob") {
		t.Fatal("participants not in trade after acceptance")
	}

	if result := f.hub.Edit("alice", map[int]grid.Unit{
		grid.OfferSlots[0]: {Type: "gold", Quantity: 40, MaxStack: 64},
	}); result != gate.Admitted {
		t.Fatalf("Edit() = %q, want admitted", result)
	}
	remainder, result := f.hub.Move("bob", grid.Unit{Type: "silver", Quantity: 10, MaxStack: 64})
	if result != gate.Admitted || !remainder.IsEmpty() {
		t.Fatalf("Move() = %+v, %q, want empty remainder admitted", remainder, result)
	}

	// Bob sees Alice's staged gold in his viewer once the mirror pass ran.
	mirrored := grid.ViewerSlot(grid.OfferSlots[0])
	waitFor(t, "mirror pass", func() bool {
		return f.sessions.ViewerUnit("bob", mirrored).Quantity == 40
	})

	if err := f.hub.ToggleReady("alice"); err != nil {
		t.Fatalf("ToggleReady(alice) error: %v", err)
	}
	if err := f.hub.ToggleReady("bob"); err != nil {
		t.Fatalf("ToggleReady(bob) error: %v", err)
	}

	waitFor(t, "settlement", func() bool { return !f.hub.InTrade("alice") })

	waitFor(t, "deliveries", func() bool {
		return totalOf(f.sessions.Storage("alice"), "silver") == 10 &&
			totalOf(f.sessions.Storage("bob"), "gold") == 40
	})
	if f.notifier.count("alice", notify.KindCompleted) != 1 {
		t.Error("alice missing completion notification")
	}
}

func TestCancelMidTradeReturnsUnits(t *testing.T) {
	f := newFixture(t)
	f.openTrade(t)

	if result := f.hub.Edit("alice", map[int]grid.Unit{
		grid.OfferSlots[0]: {Type: "gold", Quantity: 7, MaxStack: 64},
	}); result != gate.Admitted {
		t.Fatalf("Edit() = %q, want admitted", result)
	}

	if err := f.hub.Cancel("alice"); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	waitFor(t, "cancellation", func() bool { return !f.hub.InTrade("alice") })
	waitFor(t, "unit return", func() bool {
		return totalOf(f.sessions.Storage("alice"), "gold") == 7
	})
	if f.notifier.count("bob", notify.KindCancelled) != 1 {
		t.Error("bob missing cancellation notification")
	}
}

func TestViewCloseCancelsTrade(t *testing.T) {
	f := newFixture(t)
	f.openTrade(t)

	f.sessions.Close("alice")

	waitFor(t, "cancellation via view close", func() bool { return !f.hub.InTrade("bob") })
}

func TestDisconnectSweepsRequests(t *testing.T) {
	f := newFixture(t)

	if outcome := f.hub.Request("alice", "Bob"); outcome != negotiate.OK {
		t.Fatalf("Request() = %q, want ok", outcome)
	}

	if err := f.hub.Disconnect("alice"); err != nil {
		t.Fatalf("Disconnect() error: %v", err)
	}

	waitFor(t, "request sweep", func() bool {
		// Once swept, Bob accepting finds nothing.
		return f.hub.Accept("bob", "Alice") == negotiate.NoRequestFound
	})
}

func TestEditLockedAfterReady(t *testing.T) {
	f := newFixture(t)
	f.openTrade(t)

	if err := f.hub.ToggleReady("alice"); err != nil {
		t.Fatalf("ToggleReady() error: %v", err)
	}
	waitFor(t, "ready flag", func() bool {
		return f.hub.Edit("alice", map[int]grid.Unit{
			grid.OfferSlots[0]: {Type: "gold", Quantity: 1, MaxStack: 64},
		}) == gate.RejectedReady
	})
}
