// Package ui defines the fire-and-forget UI sink the core engine talks to
// and two implementations: Hub, which broadcasts events over a local
// websocket, and Null, which discards them (used by tests).
package ui

// Sink is the external UI collaborator from spec.md §6. Every method is
// fire-and-forget: a call must never block the caller on a slow or absent
// viewer.
type Sink interface {
	PlaceCard(card, slot int)
	RemoveCard(slot int)
	PlaceToken(player, slot int)
	RemoveToken(player, slot int)
	SetScore(player, score int)
	SetFreeze(player, remainingMillis int)
	SetCountdown(millisLeft int, warn bool)
	AnnounceWinner(playerIDs []int)
}
