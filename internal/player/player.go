// Package player implements one player: its key-press queue, its freeze
// protocol, and the two-lock rendezvous with the dealer described in
// spec.md §4.2/§9 — a bounded action queue (mapped to a buffered channel
// of capacity featureSize) kept independent of the per-player
// dealer-arbitration wait (mapped to a "verdict" channel of capacity 1), so
// a key press never blocks on an unrelated submission wait.
package player

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bguspl/setengine/internal/table"
	"github.com/bguspl/setengine/internal/ui"
)

// Status is the dealer's verdict on a player, or Continue/Terminated.
type Status int32

const (
	StatusContinue Status = iota
	StatusPoint
	StatusPenalty
	StatusTerminated
)

// Arbiter is the dealer's half of the submission protocol: a player that
// fills its token quota calls Submit to be queued for arbitration.
type Arbiter interface {
	Submit(playerID int)
}

// Presser is the AI-presser half a non-human Player owns; satisfied by
// *aipresser.Presser, referenced here only through this narrow interface
// so this package never imports aipresser.
type Presser interface {
	RequestStop()
	Join()
}

// Player is one seat at the table.
type Player struct {
	id          int
	name        string
	human       bool
	featureSize int

	table   *table.Table
	arbiter Arbiter
	sink    ui.Sink
	gate    *Gate

	pointFreeze   time.Duration
	penaltyFreeze time.Duration

	enabled bool // guarded by gate.mu

	actions chan table.Slot
	verdict chan Status

	status atomic.Int32
	score  atomic.Int64

	presser Presser

	logger *zap.Logger
}

// New builds a Player. gate is the shared players-gate; arbiter is
// normally the Dealer.
func New(id int, name string, human bool, featureSize int, t *table.Table, arbiter Arbiter, sink ui.Sink, gate *Gate, pointFreeze, penaltyFreeze time.Duration, logger *zap.Logger) *Player {
	return &Player{
		id:            id,
		name:          name,
		human:         human,
		featureSize:   featureSize,
		table:         t,
		arbiter:       arbiter,
		sink:          sink,
		gate:          gate,
		pointFreeze:   pointFreeze,
		penaltyFreeze: penaltyFreeze,
		actions:       make(chan table.Slot, featureSize),
		verdict:       make(chan Status, 1),
		logger:        logger,
	}
}

// AttachPresser wires the AI presser that key-presses on this player's
// behalf. Human players never get one.
func (p *Player) AttachPresser(pr Presser) { p.presser = pr }

// Presser returns the attached presser, or nil for human players.
func (p *Player) Presser() Presser { return p.presser }

func (p *Player) ID() int       { return p.id }
func (p *Player) Name() string  { return p.name }
func (p *Player) Human() bool   { return p.human }
func (p *Player) Score() int    { return int(p.score.Load()) }
func (p *Player) Status() Status { return Status(p.status.Load()) }

// Enabled reports the dealer-controlled enable bit.
func (p *Player) Enabled() bool {
	p.gate.mu.Lock()
	defer p.gate.mu.Unlock()
	return p.enabled
}

func (p *Player) selfDisable() {
	p.gate.mu.Lock()
	p.enabled = false
	p.gate.mu.Unlock()
}

// awaitEnabled blocks until this player is enabled or the gate is
// terminated, returning the round's current boundary channel so the
// caller can also race it against other waits (actions, verdict).
func (p *Player) awaitEnabled() (chan struct{}, bool) {
	p.gate.mu.Lock()
	defer p.gate.mu.Unlock()
	for !p.enabled && !p.gate.terminate {
		p.gate.cond.Wait()
	}
	return p.gate.roundCh, p.gate.terminate
}

// AwaitTurn blocks until enabled or terminated; used by the AI presser,
// which doesn't need the round channel since it never waits on it.
func (p *Player) AwaitTurn() (terminated bool) {
	_, terminated = p.awaitEnabled()
	return terminated
}

func (p *Player) currentRoundChannel() chan struct{} {
	p.gate.mu.Lock()
	defer p.gate.mu.Unlock()
	return p.gate.roundCh
}

// KeyPress is the external input contract (spec.md §4.2/§6): dropped
// unless the player is currently accepting input, otherwise it blocks the
// caller until the slot can be enqueued (queue capacity = featureSize).
func (p *Player) KeyPress(slot int) {
	if p.gate.Terminated() || !p.Enabled() || p.Status() != StatusContinue || !p.table.SlotOccupied(table.Slot(slot)) {
		return
	}
	p.actions <- table.Slot(slot)
}

// ClearActions drains any queued-but-not-yet-handled key presses. Called
// by the dealer between rounds and, for AI players, after a penalty.
func (p *Player) ClearActions() {
	for {
		select {
		case <-p.actions:
		default:
			return
		}
	}
}

// Run is the player's main loop (spec.md §4.2): wait for the dealer's
// gate, then wait for a key press or the round ending underneath it,
// handle the action, then handle any freeze the dealer's verdict set.
func (p *Player) Run() {
	for {
		roundCh, terminated := p.awaitEnabled()
		if terminated {
			return
		}
		select {
		case slot := <-p.actions:
			p.handleAction(slot)
		case <-roundCh:
			continue
		}
		p.handleFreeze()
	}
}

// Terminate sets this player's own shutdown bookkeeping: stopping and
// joining its AI presser, if it has one. The gate's termination (which
// wakes Run out of awaitEnabled) is the dealer's responsibility and is
// shared across every player.
func (p *Player) Terminate() {
	if p.presser != nil {
		p.presser.RequestStop()
		p.presser.Join()
	}
}

// handleAction pops one slot, toggling a token as spec.md §4.2 describes.
// If the slot went empty in the interim (a legal set just cleared it) the
// press is silently discarded.
func (p *Player) handleAction(slot table.Slot) {
	if !p.table.SlotOccupied(slot) {
		return
	}
	if p.table.HasToken(p.id, slot) {
		p.table.RemoveToken(p.id, slot)
		return
	}
	if p.table.CountPlayerTokens(p.id) >= p.featureSize {
		return
	}
	p.table.PlaceToken(p.id, slot)
	if p.table.CountPlayerTokens(p.id) != p.featureSize {
		return
	}

	p.selfDisable()
	p.arbiter.Submit(p.id)
	p.status.Store(int32(p.waitForVerdict()))
}

// waitForVerdict blocks for the dealer's arbitration of this submission.
// It also races the current round-boundary channel: if checkSets decided
// this submission is stale (too few cards left, per spec.md §9's "do not
// guess intent" open question) it resets status to Continue without
// sending on verdict — this player is released only when the dealer's
// suspendPlayers closes the round boundary at the end of the round (it then
// parks on the gate until the next notifyPlayers), rather than leaking a
// goroutine parked forever on an individual notify that will never come.
func (p *Player) waitForVerdict() Status {
	roundCh := p.currentRoundChannel()
	select {
	case s := <-p.verdict:
		return s
	case <-roundCh:
		return StatusContinue
	}
}

// Verdict is the dealer's half of the arbitration rendezvous.
func (p *Player) Verdict(s Status) {
	p.verdict <- s
}

// ResetStatusNoNotify implements the "too few cards left" branch of
// checkSets (spec.md §4.4): the submission is stale, so status resets to
// Continue without releasing the waiting player via the verdict channel.
func (p *Player) ResetStatusNoNotify() {
	p.status.Store(int32(StatusContinue))
}

// handleFreeze runs the freeze side effect for whatever verdict was just
// written, then resets status to Continue.
func (p *Player) handleFreeze() {
	switch Status(p.status.Load()) {
	case StatusPoint:
		p.point()
	case StatusPenalty:
		p.penalty()
	}
}

func (p *Player) point() {
	newScore := p.score.Add(1)
	p.sink.SetScore(p.id, int(newScore))
	p.freezeFor(p.pointFreeze)
	p.status.Store(int32(StatusContinue))
}

// penalty freezes the player and, for AI players, drops any presses their
// presser queued up between filling its quota and this verdict arriving
// (spec.md §4.2: "for AI clear residual actions") — they targeted slots
// chosen before the penalty, not after it.
func (p *Player) penalty() {
	if !p.human {
		p.ClearActions()
	}
	p.freezeFor(p.penaltyFreeze)
	p.status.Store(int32(StatusContinue))
}

func (p *Player) freezeFor(d time.Duration) {
	p.sink.SetFreeze(p.id, int(d/time.Millisecond))
	time.Sleep(d)
	p.sink.SetFreeze(p.id, 0)
}
