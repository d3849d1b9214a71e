package player

import "sync"

// fakeArbiter records submissions in order, for assertions on which
// player submitted without needing a real Dealer.
type fakeArbiter struct {
	mu  sync.Mutex
	ids []int
}

func (a *fakeArbiter) Submit(playerID int) {
	a.mu.Lock()
	a.ids = append(a.ids, playerID)
	a.mu.Unlock()
}

func (a *fakeArbiter) submitted() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.ids...)
}

// fakeSink is a ui.Sink recording SetScore and SetFreeze calls (every other
// event is discarded), for assertions on what a player's freeze/score side
// effects actually emit.
type fakeSink struct {
	mu     sync.Mutex
	scores map[int]int
	freeze map[int]int
}

func newFakeSink() *fakeSink {
	return &fakeSink{scores: map[int]int{}, freeze: map[int]int{}}
}

func (s *fakeSink) PlaceCard(card, slot int)    {}
func (s *fakeSink) RemoveCard(slot int)         {}
func (s *fakeSink) PlaceToken(player, slot int) {}
func (s *fakeSink) RemoveToken(player, slot int) {}
func (s *fakeSink) SetScore(player, score int) {
	s.mu.Lock()
	s.scores[player] = score
	s.mu.Unlock()
}
func (s *fakeSink) SetFreeze(player, remainingMillis int) {
	s.mu.Lock()
	s.freeze[player] = remainingMillis
	s.mu.Unlock()
}
func (s *fakeSink) SetCountdown(millisLeft int, warn bool) {}
func (s *fakeSink) AnnounceWinner(playerIDs []int)         {}

func (s *fakeSink) score(player int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[player]
}
