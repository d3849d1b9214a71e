// Package table implements the shared table: the slot<->card bidirection
// and the per-slot token lists that player threads and the dealer thread
// mutate concurrently.
package table

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bguspl/setengine/internal/ui"
)

// Card is an opaque card identifier. NoCard marks an empty slot/unmapped card.
type Card int

// NoCard is the sentinel for "no card here".
const NoCard Card = -1

// Slot is a table position. NoSlot marks "not on the table".
type Slot int

// NoSlot is the sentinel for "not on the table".
const NoSlot Slot = -1

// Table holds slotToCard/cardToSlot and the per-slot token lists behind a
// single mutex. Every operation on a given slot is serialized through this
// one lock; the table never spans two slots atomically, matching the
// "ordering between slots is not observable" rule.
type Table struct {
	mu sync.Mutex

	size       int
	slotToCard []Card
	cardToSlot []Slot
	tokens     [][]int

	delay  time.Duration
	sink   ui.Sink
	logger *zap.Logger
}

// New builds an empty table of the given size for a deck of deckSize cards.
func New(size, deckSize int, delay time.Duration, sink ui.Sink, logger *zap.Logger) *Table {
	slotToCard := make([]Card, size)
	for i := range slotToCard {
		slotToCard[i] = NoCard
	}
	cardToSlot := make([]Slot, deckSize)
	for i := range cardToSlot {
		cardToSlot[i] = NoSlot
	}
	return &Table{
		size:       size,
		slotToCard: slotToCard,
		cardToSlot: cardToSlot,
		tokens:     make([][]int, size),
		delay:      delay,
		sink:       sink,
		logger:     logger,
	}
}

// Size returns the number of slots.
func (t *Table) Size() int { return t.size }

// PlaceCard puts card into slot. Dealer-only: precondition is that both
// slot and card are currently unmapped.
func (t *Table) PlaceCard(card Card, slot Slot) {
	time.Sleep(t.delay)

	t.mu.Lock()
	t.slotToCard[slot] = card
	t.cardToSlot[card] = slot
	t.mu.Unlock()

	t.sink.PlaceCard(int(card), int(slot))
}

// RemoveCard clears slot, removing every token on it first. No-op if the
// slot is already empty.
func (t *Table) RemoveCard(slot Slot) {
	time.Sleep(t.delay)

	t.mu.Lock()
	card := t.slotToCard[slot]
	if card == NoCard {
		t.mu.Unlock()
		return
	}
	toks := t.tokens[slot]
	t.tokens[slot] = nil
	t.slotToCard[slot] = NoCard
	t.cardToSlot[card] = NoSlot
	t.mu.Unlock()

	for _, playerID := range toks {
		t.sink.RemoveToken(playerID, int(slot))
	}
	t.sink.RemoveCard(int(slot))
}

// PlaceToken appends player to slot's token list. No-op if slot is empty.
// The caller (Player.handleAction) is expected to have already checked
// HasToken to keep this idempotent against duplicate calls.
func (t *Table) PlaceToken(player int, slot Slot) bool {
	t.mu.Lock()
	if t.slotToCard[slot] == NoCard {
		t.mu.Unlock()
		return false
	}
	t.tokens[slot] = append(t.tokens[slot], player)
	t.mu.Unlock()

	t.sink.PlaceToken(player, int(slot))
	return true
}

// RemoveToken removes one occurrence of player from slot's token list.
func (t *Table) RemoveToken(player int, slot Slot) bool {
	t.mu.Lock()
	list := t.tokens[slot]
	idx := -1
	for i, id := range list {
		if id == player {
			idx = i
			break
		}
	}
	if idx == -1 {
		t.mu.Unlock()
		return false
	}
	t.tokens[slot] = append(list[:idx], list[idx+1:]...)
	t.mu.Unlock()

	t.sink.RemoveToken(player, int(slot))
	return true
}

// HasToken reports whether player currently has a token on slot.
func (t *Table) HasToken(player int, slot Slot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range t.tokens[slot] {
		if id == player {
			return true
		}
	}
	return false
}

// SlotOccupied reports whether slot currently holds a card.
func (t *Table) SlotOccupied(slot Slot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slotToCard[slot] != NoCard
}

// CountPlayerTokens returns how many tokens player currently has on the table.
func (t *Table) CountPlayerTokens(player int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for s := 0; s < t.size; s++ {
		for _, id := range t.tokens[s] {
			if id == player {
				n++
			}
		}
	}
	return n
}

// PlayerCards returns the cards (not slots) player currently has tokened,
// in slot order.
func (t *Table) PlayerCards(player int) []Card {
	cards, _ := t.PlayerCardsAndSlots(player)
	return cards
}

// PlayerCardsAndSlots is PlayerCards plus the parallel slot each card sits
// in — the dealer needs the slots to remove a winning set's cards.
func (t *Table) PlayerCardsAndSlots(player int) ([]Card, []Slot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var cards []Card
	var slots []Slot
	for s := 0; s < t.size; s++ {
		for _, id := range t.tokens[s] {
			if id == player {
				cards = append(cards, t.slotToCard[s])
				slots = append(slots, Slot(s))
			}
		}
	}
	return cards, slots
}

// RemoveAllCards clears every occupied slot and returns the cards removed.
func (t *Table) RemoveAllCards() []Card {
	var removed []Card
	for s := 0; s < t.size; s++ {
		slot := Slot(s)
		t.mu.Lock()
		card := t.slotToCard[slot]
		t.mu.Unlock()
		if card == NoCard {
			continue
		}
		t.RemoveCard(slot)
		removed = append(removed, card)
	}
	return removed
}

// Cards returns every card currently on the table, slot order.
func (t *Table) Cards() []Card {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Card
	for _, c := range t.slotToCard {
		if c != NoCard {
			out = append(out, c)
		}
	}
	return out
}

// EmptySlots returns every slot with no card, ascending order.
func (t *Table) EmptySlots() []Slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Slot
	for s, c := range t.slotToCard {
		if c == NoCard {
			out = append(out, Slot(s))
		}
	}
	return out
}
