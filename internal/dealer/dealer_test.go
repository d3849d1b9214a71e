package dealer

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bguspl/setengine/internal/config"
	"github.com/bguspl/setengine/internal/oracle"
	"github.com/bguspl/setengine/internal/table"
	"github.com/bguspl/setengine/internal/ui"
)

// testConfig builds a 9-card, 9-slot deck: small enough to reason about by
// hand (base 3, 2 features) but large enough to hold three disjoint legal
// sets — {0,1,2}, {3,4,5}, {6,7,8} — each all-different on feature 0 and
// all-same on feature 1.
func testConfig(names ...string) config.Config {
	if len(names) == 0 {
		names = []string{"p0", "p1"}
	}
	humans := make([]bool, len(names))
	for i := range humans {
		humans[i] = true
	}
	return config.Config{
		DeckSize:            9,
		TableSize:           9,
		FeatureSize:         3,
		TurnTimeoutMillis:   200,
		TableDelayMillis:    0,
		PointFreezeMillis:   1,
		PenaltyFreezeMillis: 1,
		AISleepMillis:       1,
		PlayerNames:         names,
		HumanPlayers:        humans,
		WSAddr:              ":0",
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func newTestDealer(cfg config.Config) *Dealer {
	oc := oracle.NewNative(cfg.FeatureSize, cfg.DeckSize)
	return New(cfg, oc, ui.Null{}, zap.NewNop(), 1)
}

func TestPlaceCardsOnTableFillsEmptySlots(t *testing.T) {
	d := newTestDealer(testConfig())
	d.placeCardsOnTable()

	if got := len(d.table.Cards()); got != d.cfg.TableSize {
		t.Fatalf("table has %d cards, want %d", got, d.cfg.TableSize)
	}
	if len(d.deck) != 0 {
		t.Fatalf("deck has %d cards left, want 0", len(d.deck))
	}
}

func TestShouldFinishDetectsCancelledContext(t *testing.T) {
	d := newTestDealer(testConfig())
	// Deck still holds all 9 cards, full of legal sets — shouldFinish must
	// report true anyway once the context is cancelled.

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if !d.shouldFinish(ctx) {
		t.Fatal("expected shouldFinish to report true once the context is cancelled")
	}
}

func TestShouldFinishFalseWhileLegalSetsRemain(t *testing.T) {
	d := newTestDealer(testConfig())
	// Deck still holds the full 9 cards — plenty of legal combinations.
	if d.shouldFinish(context.Background()) {
		t.Fatal("expected shouldFinish false while the deck still has legal sets")
	}
}

// TestCheckSetsFIFOScoringAndWinners drives the full submission protocol
// (key press -> self-disable -> Submit -> dealer drains -> checkSets ->
// Verdict) across two players, exercising invariant 5 (FIFO arbitration
// order) and the winner computation together.
func TestCheckSetsFIFOScoringAndWinners(t *testing.T) {
	d := newTestDealer(testConfig())
	d.Start()
	defer func() {
		d.gate.RequestTermination()
		for _, p := range d.players {
			p.Terminate()
		}
	}()

	d.gate.Enable(d.players)
	for slot, card := range []table.Card{0, 1, 2, 3, 4, 5, 6, 7, 8} {
		d.table.PlaceCard(card, table.Slot(slot))
	}

	d.KeyPress(0, 0)
	d.KeyPress(0, 1)
	d.KeyPress(0, 2) // player 0 submits the legal set {0,1,2}

	d.KeyPress(1, 3)
	d.KeyPress(1, 4)
	d.KeyPress(1, 5) // player 1 submits the legal set {3,4,5}

	waitUntil(t, time.Second, func() bool { return len(d.submissions) == 2 })

	first := <-d.submissions
	ids := d.drainSubmissions(first)
	if len(ids) != 2 {
		t.Fatalf("drainSubmissions returned %d ids, want 2", len(ids))
	}
	if ids[0] != 0 || ids[1] != 1 {
		t.Fatalf("drainSubmissions order = %v, want [0 1] (FIFO)", ids)
	}

	d.checkSets(ids)
	waitUntil(t, time.Second, func() bool {
		return d.players[0].Score() == 1 && d.players[1].Score() == 1
	})

	if d.table.SlotOccupied(table.Slot(0)) || d.table.SlotOccupied(table.Slot(3)) {
		t.Fatal("expected both winning sets' cards removed from the table")
	}

	// A tie: both players have scored once and no more submissions happen.
	winners := d.winners()
	if len(winners) != 2 {
		t.Fatalf("winners = %v, want both players tied at score 1", winners)
	}

	// Player 0 claims the remaining disjoint set {6,7,8} to break the tie.
	// Re-admit players the way the dealer's own notifyPlayers would at the
	// start of the next round — both self-disabled after their first
	// submission.
	d.gate.Enable(d.players)
	d.KeyPress(0, 6)
	d.KeyPress(0, 7)
	d.KeyPress(0, 8)
	waitUntil(t, time.Second, func() bool { return len(d.submissions) == 1 })

	second := <-d.submissions
	d.checkSets(d.drainSubmissions(second))
	waitUntil(t, time.Second, func() bool { return d.players[0].Score() == 2 })

	winners = d.winners()
	if len(winners) != 1 || winners[0] != 0 {
		t.Fatalf("winners = %v, want [0]", winners)
	}
}

func TestHintsDisabledByDefault(t *testing.T) {
	d := newTestDealer(testConfig())
	if _, enabled := d.Hints(0); enabled {
		t.Fatal("expected hints disabled when cfg.Hints is false")
	}
}

func TestHintsReportsLegalSetsOnTable(t *testing.T) {
	cfg := testConfig()
	cfg.Hints = true
	d := newTestDealer(cfg)
	for slot, card := range []table.Card{0, 1, 2} {
		d.table.PlaceCard(card, table.Slot(slot))
	}

	hints, enabled := d.Hints(0)
	if !enabled {
		t.Fatal("expected hints enabled")
	}
	if len(hints) != 1 {
		t.Fatalf("got %d hints, want 1 for the single legal set {0,1,2}", len(hints))
	}
	if len(hints[0].Features) != 3 {
		t.Fatalf("hint has %d feature vectors, want 3", len(hints[0].Features))
	}
}

func TestCheckSetsStaleSubmissionResetsWithoutFreeze(t *testing.T) {
	d := newTestDealer(testConfig())
	d.Start()
	defer func() {
		d.gate.RequestTermination()
		for _, p := range d.players {
			p.Terminate()
		}
	}()

	d.gate.Enable(d.players)
	d.table.PlaceCard(table.Card(0), table.Slot(0))
	d.table.PlaceCard(table.Card(1), table.Slot(1))
	d.table.PlaceCard(table.Card(2), table.Slot(2))

	d.KeyPress(0, 0)
	d.KeyPress(0, 1)
	d.KeyPress(0, 2)
	waitUntil(t, time.Second, func() bool { return len(d.submissions) == 1 })
	pid := <-d.submissions

	// Simulate the table having lost one of the player's cards to an
	// earlier resolution this tick by removing it out from under the
	// pending submission before checkSets runs.
	d.table.RemoveCard(table.Slot(0))

	d.checkSets([]int{pid})

	// No Verdict was ever sent for this submission, so the player's Run
	// loop is still parked in waitForVerdict. It must be released by the
	// next round boundary rather than leak forever.
	d.gate.Disable(d.players)
	d.gate.Enable(d.players)

	// Prove the player is actually responsive again: a fresh key press on
	// a newly placed card must still toggle a token.
	d.table.PlaceCard(table.Card(5), table.Slot(3))
	d.KeyPress(0, 3)
	waitUntil(t, time.Second, func() bool { return d.table.HasToken(0, table.Slot(3)) })

	if d.players[0].Score() != 0 {
		t.Fatalf("player 0 score = %d, want 0 (stale submission must not score)", d.players[0].Score())
	}
}
