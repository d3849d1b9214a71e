package player

import "sync"

// Gate is the single shared "players-gate" from spec.md §4.4/§9: one
// condition, broadcast by the dealer, that admits or suspends every
// player thread at once. Per-player enablement still lives on each
// Player (the dealer sets it in lockstep across all players at
// notifyPlayers/suspendPlayers, and a player may also clear its own bit
// when it self-disables after a submission) but the wakeup and the
// round-boundary signal are shared.
type Gate struct {
	mu        sync.Mutex
	cond      *sync.Cond
	terminate bool
	roundCh   chan struct{}
}

// NewGate builds a fresh, disabled gate.
func NewGate() *Gate {
	g := &Gate{roundCh: make(chan struct{})}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Enable marks every player enabled and opens a fresh round-boundary
// channel, then wakes everyone parked on the gate.
func (g *Gate) Enable(players []*Player) {
	g.mu.Lock()
	for _, p := range players {
		p.enabled = true
	}
	g.roundCh = make(chan struct{})
	g.mu.Unlock()
	g.cond.Broadcast()
}

// Disable marks every player disabled and closes the round-boundary
// channel, releasing anyone parked waiting on a key press or a verdict.
func (g *Gate) Disable(players []*Player) {
	g.mu.Lock()
	for _, p := range players {
		p.enabled = false
	}
	ch := g.roundCh
	g.mu.Unlock()
	close(ch)
}

// RequestTermination sets the sticky terminate flag and wakes everyone
// parked on the gate.
func (g *Gate) RequestTermination() {
	g.mu.Lock()
	g.terminate = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

// Terminated reports whether termination has been requested.
func (g *Gate) Terminated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.terminate
}
