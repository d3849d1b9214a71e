// Package aipresser implements the AI presser thread (spec.md §4.3): no
// skill, no memory, just a seedable uniform-random slot presser pacing
// itself against keyPress the same way a human's input source would.
package aipresser

import (
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// keypresser is the narrow slice of Player this package depends on, kept
// as a local interface so aipresser never imports the player package
// (player likewise refers to the presser only through its own Presser
// interface).
type keypresser interface {
	KeyPress(slot int)
	AwaitTurn() bool
}

// Presser drives one non-human player's key presses.
type Presser struct {
	player    keypresser
	tableSize int
	sleep     time.Duration
	rng       *rand.Rand

	stop atomic.Bool
	done chan struct{}

	logger *zap.Logger
}

// New builds a Presser for player, picking uniformly among tableSize
// slots and sleeping sleep between presses. seed makes the sequence
// reproducible for tests.
func New(player keypresser, tableSize int, sleep time.Duration, seed int64, logger *zap.Logger) *Presser {
	return &Presser{
		player:    player,
		tableSize: tableSize,
		sleep:     sleep,
		rng:       rand.New(rand.NewSource(seed)),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Run is the presser loop; call it in its own goroutine.
func (a *Presser) Run() {
	defer close(a.done)
	for {
		if terminated := a.player.AwaitTurn(); terminated || a.stop.Load() {
			return
		}
		slot := a.rng.Intn(a.tableSize)
		a.player.KeyPress(slot)
		time.Sleep(a.sleep)
		if a.stop.Load() {
			return
		}
	}
}

// RequestStop sets the sticky stop flag; Run exits at its next check.
func (a *Presser) RequestStop() { a.stop.Store(true) }

// Join blocks until Run has returned.
func (a *Presser) Join() { <-a.done }
