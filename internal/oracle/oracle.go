// Package oracle implements the legal-set predicate and feature encoder
// spec.md §6 treats as an external collaborator. Two implementations are
// provided: Native (pure Go) and Lua (the same rule expressed as an
// embedded script run through gopher-lua, so the rule is hot-swappable
// without a recompile).
package oracle

// Oracle is the external legal-set collaborator from spec.md §6. All
// methods must be pure and safe for concurrent use from multiple
// goroutines — the dealer and any hint emitter may call into the same
// Oracle concurrently.
type Oracle interface {
	// TestSet reports whether cards (length == the engine's SET_SIZE)
	// form a legal set.
	TestSet(cards []int) bool
	// FindSets returns up to limit legal sets drawn from deck. limit <= 0
	// means unlimited.
	FindSets(deck []int, limit int) [][]int
	// CardsToFeatures decodes each card into its feature vector, used
	// only for hint printing.
	CardsToFeatures(cards []int) [][]int
}

// combinations enumerates every k-combination of items, calling yield for
// each. yield returns false to stop early (used to implement FindSets'
// limit without generating every combination).
func combinations(items []int, k int, yield func([]int) bool) {
	if k <= 0 || k > len(items) {
		return
	}
	combo := make([]int, k)
	var rec func(start, depth int) bool
	rec = func(start, depth int) bool {
		if depth == k {
			return yield(combo)
		}
		for i := start; i < len(items); i++ {
			combo[depth] = items[i]
			if !rec(i+1, depth+1) {
				return false
			}
		}
		return true
	}
	rec(0, 0)
}

// featuresOf decodes card into numFeatures base-digit features. This is
// the classic Set-game encoding: a deck of base^numFeatures cards, each
// digit of the base-`base` representation being one independent feature
// (count/color/shape/shading when numFeatures == 4 and base == 3).
func featuresOf(card, numFeatures, base int) []int {
	f := make([]int, numFeatures)
	x := card
	for i := 0; i < numFeatures; i++ {
		f[i] = x % base
		x /= base
	}
	return f
}

// numFeaturesFor returns the smallest k such that base^k >= deckSize.
func numFeaturesFor(deckSize, base int) int {
	n := 1
	k := 0
	for n < deckSize {
		n *= base
		k++
	}
	if k == 0 {
		k = 1
	}
	return k
}

// legal implements the general Set-game rule: a group of cards is legal
// iff, on every feature dimension, the values across all cards are either
// all the same or pairwise all different.
func legal(cards []int, numFeatures, base int) bool {
	feats := make([][]int, len(cards))
	for i, c := range cards {
		feats[i] = featuresOf(c, numFeatures, base)
	}
	for dim := 0; dim < numFeatures; dim++ {
		seen := map[int]bool{}
		allSame := true
		first := feats[0][dim]
		for i := range cards {
			if feats[i][dim] != first {
				allSame = false
			}
			seen[feats[i][dim]] = true
		}
		allDifferent := len(seen) == len(cards)
		if !allSame && !allDifferent {
			return false
		}
	}
	return true
}
