package ui

// Null discards every event. Used by tests and by any caller that does not
// want a live viewer.
type Null struct{}

func (Null) PlaceCard(card, slot int)             {}
func (Null) RemoveCard(slot int)                  {}
func (Null) PlaceToken(player, slot int)          {}
func (Null) RemoveToken(player, slot int)         {}
func (Null) SetScore(player, score int)           {}
func (Null) SetFreeze(player, remainingMillis int) {}
func (Null) SetCountdown(millisLeft int, warn bool) {}
func (Null) AnnounceWinner(playerIDs []int)       {}
