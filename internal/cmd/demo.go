package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/audit"
	"github.com/Iron-Ham/barter/internal/config"
	"github.com/Iron-Ham/barter/internal/event"
	"github.com/Iron-Ham/barter/internal/gate"
	"github.com/Iron-Ham/barter/internal/grid"
	"github.com/Iron-Ham/barter/internal/logging"
	"github.com/Iron-Ham/barter/internal/negotiate"
	"github.com/Iron-Ham/barter/internal/notify"
	"github.com/Iron-Ham/barter/internal/trade"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted two-actor exchange",
	Long: `Run a complete scripted exchange between two in-memory actors:
request, acceptance, offer staging, readiness, countdown and settlement.
Useful for verifying a configuration and for seeing the event stream.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// printNotifier surfaces notifications on stdout.
type printNotifier struct {
	directory actor.Directory
}

func (p printNotifier) Notify(to actor.ID, msg notify.Message) {
	name := p.directory.Name(to)
	if name == "" {
		name = string(to)
	}
	switch msg.Kind {
	case notify.KindCountdown:
		fmt.Printf("  [%s] countdown: %d\n", name, msg.Remaining)
	case notify.KindReadyChanged:
		fmt.Printf("  [%s] %s ready: %v\n", name, msg.FromName, msg.Ready)
	default:
		fmt.Printf("  [%s] %s from %s\n", name, msg.Kind, msg.FromName)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	// A scripted run should finish promptly regardless of the configured
	// interval.
	cfg.Trade.TickIntervalMs = 200

	log, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	var sink audit.Sink
	if cfg.Audit.Dir != "" {
		store, err := audit.NewStore(cfg.Audit.Dir)
		if err != nil {
			return fmt.Errorf("failed to create audit store: %w", err)
		}
		sink = store
	}

	config.Watch(func(*config.Config) {
		log.Info("configuration reloaded")
	})

	roster := actor.NewRoster()
	sessions := actor.NewMemorySessions()
	notifier := printNotifier{directory: roster}

	hub := trade.New(cfg, roster, sessions, notifier, sink, log)
	defer hub.Close()

	sessions.OnClose(func(id actor.ID) {
		_ = hub.ViewClosed(id)
	})

	hub.Bus().SubscribeAll(func(e event.Event) {
		fmt.Printf("  event: %s\n", e.EventType())
	})

	alice, bob := actor.ID("alice"), actor.ID("bob")
	roster.Add(alice, "Alice")
	roster.Add(bob, "Bob")

	fmt.Println("Alice requests a trade with Bob:")
	if outcome := hub.Request(alice, "Bob"); outcome != negotiate.OK {
		return fmt.Errorf("request failed: %s", outcome)
	}

	fmt.Println("Bob accepts:")
	if outcome := hub.Accept(bob, "Alice"); outcome != negotiate.OK {
		return fmt.Errorf("accept failed: %s", outcome)
	}
	sessions.Open(alice)
	sessions.Open(bob)

	fmt.Println("Alice stages 40 gold, Bob stages 64 silver:")
	if result := hub.Edit(alice, map[int]grid.Unit{
		grid.OfferSlots[0]: {Type: "gold", Quantity: 40, MaxStack: 64},
	}); result != gate.Admitted {
		return fmt.Errorf("edit failed: %s", result)
	}
	if _, result := hub.Move(bob, grid.Unit{Type: "silver", Quantity: 64, MaxStack: 64}); result != gate.Admitted {
		return fmt.Errorf("move failed: %s", result)
	}

	fmt.Println("Both flag ready:")
	if err := hub.ToggleReady(alice); err != nil {
		return err
	}
	if err := hub.ToggleReady(bob); err != nil {
		return err
	}

	// Wait out the countdown plus a tick of slack.
	deadline := time.After(time.Duration(cfg.Trade.CountdownTicks+2) * cfg.Trade.TickInterval())
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()
	for hub.InTrade(alice) {
		select {
		case <-deadline:
			return fmt.Errorf("trade did not settle in time")
		case <-poll.C:
		}
	}

	fmt.Println("Settled. Final storages:")
	for _, p := range []struct {
		id   actor.ID
		name string
	}{{alice, "Alice"}, {bob, "Bob"}} {
		for _, stack := range sessions.Storage(p.id) {
			fmt.Printf("  %s: %d x %s\n", p.name, stack.Quantity, stack.Type)
		}
	}
	return nil
}
