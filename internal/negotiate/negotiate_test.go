package negotiate

import (
	"sync"
	"testing"

	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/event"
	"github.com/Iron-Ham/barter/internal/notify"
	"github.com/Iron-Ham/barter/internal/request"
	"github.com/Iron-Ham/barter/internal/transaction"
)

type fakeDirectory struct {
	names        map[string]actor.ID
	disconnected map[actor.ID]bool
}

func (f *fakeDirectory) Resolve(name string) (actor.ID, bool) {
	id, ok := f.names[name]
	if !ok {
		return "", false
	}
	return id, !f.disconnected[id]
}

func (f *fakeDirectory) Connected(id actor.ID) bool { return !f.disconnected[id] }

func (f *fakeDirectory) Name(id actor.ID) string {
	for name, nid := range f.names {
		if nid == id {
			return name
		}
	}
	return ""
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[actor.ID][]notify.Message
}

func (f *fakeNotifier) Notify(to actor.ID, msg notify.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[to] = append(f.sent[to], msg)
}

func (f *fakeNotifier) to(id actor.ID) []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[id]
}

type fixture struct {
	negotiator   *Negotiator
	requests     *request.Registry
	transactions *transaction.Registry
	directory    *fakeDirectory
	notifier     *fakeNotifier
	bus          *event.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		requests:     request.NewRegistry(),
		transactions: transaction.NewRegistry(),
		directory: &fakeDirectory{
			names: map[string]actor.ID{
				"Alice": "alice",
				"Bob":   "bob",
				"Carol": "carol",
			},
			disconnected: make(map[actor.ID]bool),
		},
		notifier: &fakeNotifier{sent: make(map[actor.ID][]notify.Message)},
		bus:      event.NewBus(),
	}
	f.negotiator = NewNegotiator(f.requests, f.transactions, f.directory, f.notifier, f.bus, nil)
	return f
}

func (f *fixture) startTrade(a, b actor.ID) *transaction.Transaction {
	tx := transaction.New(a, b)
	f.transactions.Register(tx)
	return tx
}

func TestRequestGuardOrder(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fixture)
		sender    actor.ID
		recipient string
		want      Outcome
	}{
		{
			name:      "ok",
			sender:    "alice",
			recipient: "Bob",
			want:      OK,
		},
		{
			name:      "sender trading beats unreachable recipient",
			setup:     func(f *fixture) { f.startTrade("alice", "carol") },
			sender:    "alice",
			recipient: "Nobody",
			want:      SenderAlreadyTrading,
		},
		{
			name:      "unknown recipient",
			sender:    "alice",
			recipient: "Nobody",
			want:      RecipientUnavailable,
		},
		{
			name:      "disconnected recipient",
			setup:     func(f *fixture) { f.directory.disconnected["bob"] = true },
			sender:    "alice",
			recipient: "Bob",
			want:      RecipientUnavailable,
		},
		{
			name:      "self trade",
			sender:    "alice",
			recipient: "Alice",
			want:      SelfTrade,
		},
		{
			name:      "recipient trading",
			setup:     func(f *fixture) { f.startTrade("bob", "carol") },
			sender:    "alice",
			recipient: "Bob",
			want:      RecipientAlreadyTrading,
		},
		{
			name:      "duplicate request",
			setup:     func(f *fixture) { f.requests.Register("alice", "bob") },
			sender:    "alice",
			recipient: "Bob",
			want:      DuplicateRequest,
		},
		{
			name:      "reciprocal request pending",
			setup:     func(f *fixture) { f.requests.Register("bob", "alice") },
			sender:    "alice",
			recipient: "Bob",
			want:      ReciprocalPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			if got := f.negotiator.Request(tt.sender, tt.recipient); got != tt.want {
				t.Errorf("Request() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestNotifiesRecipientWithAffordances(t *testing.T) {
	f := newFixture(t)

	if got := f.negotiator.Request("alice", "Bob"); got != OK {
		t.Fatalf("Request() = %q, want %q", got, OK)
	}
	if !f.requests.Has("alice", "bob") {
		t.Error("request not registered")
	}

	msgs := f.notifier.to("bob")
	if len(msgs) != 1 {
		t.Fatalf("notifications to bob = %d, want 1", len(msgs))
	}
	msg := msgs[0]
	if msg.Kind != notify.KindRequestReceived || msg.From != "alice" {
		t.Errorf("message = %+v, want request.received from alice", msg)
	}
	if len(msg.Actions) != 2 {
		t.Fatalf("actions = %d, want accept and deny", len(msg.Actions))
	}
	if msg.Actions[0].Command != "/trade accept Alice" {
		t.Errorf("accept command = %q", msg.Actions[0].Command)
	}
}

func TestAcceptCreatesTransaction(t *testing.T) {
	f := newFixture(t)
	f.requests.Register("alice", "bob")

	var accepted *event.RequestAcceptedEvent
	f.bus.Subscribe("request.accepted", func(e event.Event) {
		if ev, ok := e.(event.RequestAcceptedEvent); ok {
			accepted = &ev
		}
	})

	tx, outcome := f.negotiator.Accept("bob", "Alice")
	if outcome != OK {
		t.Fatalf("Accept() = %q, want %q", outcome, OK)
	}
	if tx == nil {
		t.Fatal("Accept() returned nil transaction on OK")
	}
	if tx.A() != "alice" || tx.B() != "bob" {
		t.Errorf("parties = %s/%s, want alice/bob", tx.A(), tx.B())
	}
	if f.transactions.FindByActor("alice") != tx || f.transactions.FindByActor("bob") != tx {
		t.Error("transaction not indexed by both participants")
	}
	if accepted == nil {
		t.Fatal("no request.accepted event published")
	}
	if accepted.Requester != "alice" || accepted.Acceptor != "bob" {
		t.Errorf("event parties = %s/%s, want alice/bob", accepted.Requester, accepted.Acceptor)
	}

	for _, id := range []actor.ID{"alice", "bob"} {
		msgs := f.notifier.to(id)
		if len(msgs) != 1 || msgs[0].Kind != notify.KindRequestAccepted {
			t.Errorf("notifications to %s = %+v, want one request.accepted", id, msgs)
		}
	}
}

func TestAcceptSweepsAllPendingRequests(t *testing.T) {
	f := newFixture(t)
	f.requests.Register("alice", "bob")
	f.requests.Register("bob", "carol")
	f.requests.Register("carol", "alice")

	if _, outcome := f.negotiator.Accept("bob", "Alice"); outcome != OK {
		t.Fatalf("Accept() = %q, want %q", outcome, OK)
	}

	if f.requests.Has("alice", "bob") {
		t.Error("accepted request survived")
	}
	if f.requests.Has("bob", "carol") {
		t.Error("acceptor's outgoing request survived")
	}
	if f.requests.Has("carol", "alice") {
		t.Error("requester's incoming request survived")
	}
}

func TestAcceptGuards(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		want  Outcome
	}{
		{
			name:  "acceptor already trading",
			setup: func(f *fixture) { f.startTrade("bob", "carol") },
			want:  AcceptorAlreadyTrading,
		},
		{
			name:  "no request",
			setup: func(f *fixture) {},
			want:  NoRequestFound,
		},
		{
			name: "requester already trading",
			setup: func(f *fixture) {
				f.requests.Register("alice", "bob")
				f.startTrade("alice", "carol")
			},
			want: RequesterAlreadyTrading,
		},
		{
			// Accepting a trade sweeps all of a party's pending requests,
			// so a mid-trade requester usually has none left. Their trade
			// status must still win over the missing request.
			name:  "requester trading beats missing request",
			setup: func(f *fixture) { f.startTrade("alice", "carol") },
			want:  RequesterAlreadyTrading,
		},
		{
			name: "requester disconnected",
			setup: func(f *fixture) {
				f.requests.Register("alice", "bob")
				f.directory.disconnected["alice"] = true
			},
			want: RecipientUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			if _, got := f.negotiator.Accept("bob", "Alice"); got != tt.want {
				t.Errorf("Accept() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConcurrentAcceptsRegisterOneTransaction(t *testing.T) {
	f := newFixture(t)
	f.requests.Register("alice", "bob")
	f.requests.Register("alice", "carol")

	acceptors := []actor.ID{"bob", "carol"}
	outcomes := make([]Outcome, len(acceptors))

	var wg sync.WaitGroup
	for i, acceptor := range acceptors {
		wg.Add(1)
		go func(i int, acceptor actor.ID) {
			defer wg.Done()
			_, outcomes[i] = f.negotiator.Accept(acceptor, "Alice")
		}(i, acceptor)
	}
	wg.Wait()

	oks := 0
	for _, outcome := range outcomes {
		if outcome == OK {
			oks++
		}
	}
	if oks != 1 {
		t.Fatalf("concurrent accepts produced %d OK outcomes, want exactly 1: %v", oks, outcomes)
	}

	tx := f.transactions.FindByActor("alice")
	if tx == nil {
		t.Fatal("no transaction registered for the requester")
	}
	if f.transactions.Len() != 1 {
		t.Errorf("Len() = %d, want 1", f.transactions.Len())
	}
	for _, acceptor := range acceptors {
		if acceptor == tx.B() {
			continue
		}
		if f.transactions.FindByActor(acceptor) != nil {
			t.Errorf("losing acceptor %s still indexed in the registry", acceptor)
		}
	}
}

func TestDeny(t *testing.T) {
	f := newFixture(t)
	f.requests.Register("alice", "bob")

	if got := f.negotiator.Deny("bob", "Alice"); got != OK {
		t.Fatalf("Deny() = %q, want %q", got, OK)
	}
	if f.requests.Has("alice", "bob") {
		t.Error("denied request survived")
	}

	msgs := f.notifier.to("alice")
	if len(msgs) != 1 || msgs[0].Kind != notify.KindRequestDenied {
		t.Errorf("notifications to alice = %+v, want one request.denied", msgs)
	}
}

func TestDenyWithoutRequest(t *testing.T) {
	f := newFixture(t)

	if got := f.negotiator.Deny("bob", "Alice"); got != NoRequestFound {
		t.Errorf("Deny() = %q, want %q", got, NoRequestFound)
	}
}
