package oracle

// Native is a pure-Go Oracle: no external runtime, used where Lua's
// per-call interpreter overhead isn't wanted (tests, benchmarks).
type Native struct {
	setSize     int
	numFeatures int
	base        int
}

// NewNative builds a Native oracle for a deck of deckSize cards where a
// submission is setSize cards.
func NewNative(setSize, deckSize int) *Native {
	const base = 3
	return &Native{
		setSize:     setSize,
		numFeatures: numFeaturesFor(deckSize, base),
		base:        base,
	}
}

func (n *Native) TestSet(cards []int) bool {
	if len(cards) != n.setSize {
		return false
	}
	return legal(cards, n.numFeatures, n.base)
}

func (n *Native) FindSets(deck []int, limit int) [][]int {
	var out [][]int
	combinations(deck, n.setSize, func(combo []int) bool {
		if legal(combo, n.numFeatures, n.base) {
			out = append(out, append([]int(nil), combo...))
			if limit > 0 && len(out) >= limit {
				return false
			}
		}
		return true
	})
	return out
}

func (n *Native) CardsToFeatures(cards []int) [][]int {
	out := make([][]int, len(cards))
	for i, c := range cards {
		out[i] = featuresOf(c, n.numFeatures, n.base)
	}
	return out
}
