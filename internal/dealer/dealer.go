// Package dealer implements the round orchestrator (spec.md §4.4): deal,
// run the round timer, arbitrate submissions in FIFO order, and terminate.
package dealer

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bguspl/setengine/internal/aipresser"
	"github.com/bguspl/setengine/internal/config"
	"github.com/bguspl/setengine/internal/oracle"
	"github.com/bguspl/setengine/internal/player"
	"github.com/bguspl/setengine/internal/table"
	"github.com/bguspl/setengine/internal/ui"
)

// Dealer owns the table, the deck, the round timer, and every player.
type Dealer struct {
	cfg    config.Config
	table  *table.Table
	oracle oracle.Oracle
	sink   ui.Sink
	logger *zap.Logger
	rng    *rand.Rand

	gate     *player.Gate
	players  []*player.Player
	pressers []*aipresser.Presser

	deck []table.Card

	submissions chan int
	shutdown    atomic.Bool

	reshuffleAt time.Time

	wg sync.WaitGroup
}

// New builds a Dealer and its players (but does not start any goroutines;
// call Start or Run for that).
func New(cfg config.Config, oc oracle.Oracle, sink ui.Sink, logger *zap.Logger, seed int64) *Dealer {
	t := table.New(cfg.TableSize, cfg.DeckSize, time.Duration(cfg.TableDelayMillis)*time.Millisecond, sink, logger)

	d := &Dealer{
		cfg:         cfg,
		table:       t,
		oracle:      oc,
		sink:        sink,
		logger:      logger,
		rng:         rand.New(rand.NewSource(seed)),
		gate:        player.NewGate(),
		submissions: make(chan int, len(cfg.PlayerNames)),
	}

	pointFreeze := time.Duration(cfg.PointFreezeMillis) * time.Millisecond
	penaltyFreeze := time.Duration(cfg.PenaltyFreezeMillis) * time.Millisecond
	aiSleep := time.Duration(cfg.AISleepMillis) * time.Millisecond

	for id, name := range cfg.PlayerNames {
		human := id < len(cfg.HumanPlayers) && cfg.HumanPlayers[id]
		p := player.New(id, name, human, cfg.FeatureSize, t, d, sink, d.gate, pointFreeze, penaltyFreeze,
			logger.Named("player").With(zap.Int("player_id", id)))
		if !human {
			pr := aipresser.New(p, cfg.TableSize, aiSleep, seed+int64(id)+1,
				logger.Named("aipresser").With(zap.Int("player_id", id)))
			p.AttachPresser(pr)
			d.pressers = append(d.pressers, pr)
		}
		d.players = append(d.players, p)
	}

	d.deck = make([]table.Card, cfg.DeckSize)
	for i := range d.deck {
		d.deck[i] = table.Card(i)
	}

	return d
}

// Submit implements player.Arbiter: a player queues itself for
// arbitration after filling its token quota.
func (d *Dealer) Submit(playerID int) {
	d.submissions <- playerID
}

// KeyPress forwards to the named player's key-press queue — the entry
// point an external human key-press source calls through (spec.md §6).
func (d *Dealer) KeyPress(playerID, slot int) {
	if playerID < 0 || playerID >= len(d.players) {
		return
	}
	d.players[playerID].KeyPress(slot)
}

// Hint is one legal set currently on the table, decoded into its per-card
// feature vectors for printing (spec.md §6: cardsToFeatures is "only used
// for hint printing").
type Hint struct {
	Cards    []int   `json:"cards"`
	Features [][]int `json:"features"`
}

// Hints returns every legal set currently on the table, up to limit (<= 0
// means unlimited), plus whether hint emission is enabled at all
// (spec.md §6's `hints` config flag). Safe to call concurrently with the
// dealer's own loop: it only reads table state and calls into the Oracle,
// both of which are themselves safe for concurrent use.
func (d *Dealer) Hints(limit int) ([]Hint, bool) {
	if !d.cfg.Hints {
		return nil, false
	}
	sets := d.oracle.FindSets(toInts(d.table.Cards()), limit)
	hints := make([]Hint, len(sets))
	for i, cards := range sets {
		hints[i] = Hint{Cards: cards, Features: d.oracle.CardsToFeatures(cards)}
	}
	return hints, true
}

// Start launches every player's main-loop goroutine and, for non-human
// players, their AI presser goroutine. All players begin disabled.
func (d *Dealer) Start() {
	for _, p := range d.players {
		d.wg.Add(1)
		go func(p *player.Player) {
			defer d.wg.Done()
			p.Run()
		}(p)
	}
	for _, pr := range d.pressers {
		go pr.Run()
	}
}

// RequestTermination sets the sticky shutdown flag; Run exits at its next
// loop boundary.
func (d *Dealer) RequestTermination() {
	d.shutdown.Store(true)
}

// Run is the dealer's main loop (spec.md §4.4). It blocks until the game
// ends (ctx is cancelled, RequestTermination is called, or the oracle
// reports no legal set remains in the deck), runs the termination
// choreography, and returns.
func (d *Dealer) Run(ctx context.Context) {
	d.Start()

	round := 0
	for !d.shouldFinish(ctx) {
		round++
		roundID := uuid.NewString()
		d.logger.Info("round start", zap.Int("round", round), zap.String("round_id", roundID), zap.Int("deck_remaining", len(d.deck)))

		d.shuffleDeck()
		d.placeCardsOnTable()
		d.ensureSetOnTable()
		d.updateTimer(true)
		d.notifyPlayers()
		d.timerLoop(ctx)
		d.suspendPlayers()
		d.clearActions()

		removed := d.table.RemoveAllCards()
		d.deck = append(d.deck, removed...)

		d.logger.Info("round end", zap.Int("round", round), zap.String("round_id", roundID))
	}

	d.terminateChoreography()
}

func (d *Dealer) shouldFinish(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		d.shutdown.Store(true)
	default:
	}
	if d.shutdown.Load() {
		return true
	}
	return len(d.oracle.FindSets(toInts(d.deck), 1)) == 0
}

func (d *Dealer) shuffleDeck() {
	d.rng.Shuffle(len(d.deck), func(i, j int) { d.deck[i], d.deck[j] = d.deck[j], d.deck[i] })
}

// placeCardsOnTable fills every empty slot until the table is full or the
// deck is empty (spec.md §9 open question: resolved in favor of this
// simple invariant over a separately tracked placed-count).
func (d *Dealer) placeCardsOnTable() {
	for _, slot := range d.table.EmptySlots() {
		if len(d.deck) == 0 {
			return
		}
		card := d.deck[0]
		d.deck = d.deck[1:]
		d.table.PlaceCard(card, slot)
	}
}

// ensureSetOnTable guarantees a legal set exists on the table, reshuffling
// the whole table back into the deck and redealing until one does.
func (d *Dealer) ensureSetOnTable() {
	maxAttempts := d.cfg.DeckSize + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if len(d.oracle.FindSets(toInts(d.table.Cards()), 1)) > 0 {
			return
		}
		removed := d.table.RemoveAllCards()
		if len(removed) == 0 && len(d.deck) == 0 {
			return
		}
		d.deck = append(d.deck, removed...)
		d.shuffleDeck()
		d.placeCardsOnTable()
	}
	d.logger.Warn("ensureSetOnTable: exceeded retry budget")
}

func (d *Dealer) updateTimer(reset bool) {
	if reset {
		d.reshuffleAt = time.Now().Add(time.Duration(d.cfg.TurnTimeoutMillis) * time.Millisecond)
	}
	left := time.Until(d.reshuffleAt)
	if left < 0 {
		left = 0
	}
	warn := left <= time.Duration(d.cfg.TurnTimeoutMillis)*time.Millisecond
	d.sink.SetCountdown(int(left.Milliseconds()), warn)
}

func (d *Dealer) tickInterval() time.Duration {
	left := time.Until(d.reshuffleAt)
	warn := left <= time.Duration(d.cfg.TurnTimeoutMillis)*time.Millisecond
	if warn {
		return 10 * time.Millisecond
	}
	return time.Second
}

func (d *Dealer) notifyPlayers() {
	d.gate.Enable(d.players)
}

func (d *Dealer) suspendPlayers() {
	d.gate.Disable(d.players)
}

func (d *Dealer) clearActions() {
	for _, p := range d.players {
		p.ClearActions()
	}
}

// timerLoop sleeps until a submission arrives or the tick interval
// elapses, checks any queued submissions, refills the table, and repeats
// until the round's deadline or termination.
func (d *Dealer) timerLoop(ctx context.Context) {
	for !d.shutdown.Load() && time.Now().Before(d.reshuffleAt) {
		timer := time.NewTimer(d.tickInterval())
		var ids []int
		select {
		case pid := <-d.submissions:
			ids = d.drainSubmissions(pid)
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			d.shutdown.Store(true)
			return
		}
		timer.Stop()

		d.updateTimer(false)
		if len(ids) > 0 {
			d.checkSets(ids)
		}
		d.placeCardsOnTable()
	}
}

// drainSubmissions collects every submission already queued this tick,
// in FIFO order, starting with first (the one that woke the select).
func (d *Dealer) drainSubmissions(first int) []int {
	ids := []int{first}
	for {
		select {
		case pid := <-d.submissions:
			ids = append(ids, pid)
		default:
			return ids
		}
	}
}

// checkSets arbitrates queued submissions in FIFO order (spec.md §4.4,
// §8 invariant 5).
func (d *Dealer) checkSets(ids []int) {
	for _, pid := range ids {
		p := d.players[pid]
		cards, slots := d.table.PlayerCardsAndSlots(pid)
		if len(cards) < d.cfg.FeatureSize {
			// Stale submission: a set resolved earlier in this pass took
			// one of this player's cards. Per spec.md §9, reset status
			// without notifying — the player is released by the next
			// round boundary, not an individual wakeup.
			p.ResetStatusNoNotify()
			continue
		}
		if d.oracle.TestSet(toInts(cards)) {
			for _, s := range slots {
				d.table.RemoveCard(s)
			}
			p.Verdict(player.StatusPoint)
		} else {
			p.Verdict(player.StatusPenalty)
		}
	}
}

func (d *Dealer) winners() []int {
	best := -1
	var ids []int
	for _, p := range d.players {
		s := p.Score()
		switch {
		case s > best:
			best = s
			ids = []int{p.ID()}
		case s == best:
			ids = append(ids, p.ID())
		}
	}
	return ids
}

func (d *Dealer) terminateChoreography() {
	d.gate.RequestTermination()
	for _, p := range d.players {
		p.Terminate()
	}
	d.wg.Wait()

	winners := d.winners()
	d.logger.Info("game over", zap.Ints("winner_ids", winners))
	d.sink.AnnounceWinner(winners)
}

func toInts(cards []table.Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = int(c)
	}
	return out
}
