package oracle

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// legalSetScript implements the same rule as legal() in oracle.go, in Lua,
// so the predicate can be hot-swapped by replacing the script without a
// recompile.
const legalSetScript = `
local function features_of(card, num_features, base)
  local f = {}
  local x = card
  for i = 1, num_features do
    f[i] = x % base
    x = math.floor(x / base)
  end
  return f
end

function test_set(cards, num_features, base)
  local n = #cards
  local feats = {}
  for i = 1, n do
    feats[i] = features_of(cards[i], num_features, base)
  end
  for dim = 1, num_features do
    local seen = {}
    local count = 0
    local allSame = true
    local first = feats[1][dim]
    for i = 1, n do
      if feats[i][dim] ~= first then allSame = false end
      if not seen[feats[i][dim]] then
        seen[feats[i][dim]] = true
        count = count + 1
      end
    end
    local allDifferent = (count == n)
    if not allSame and not allDifferent then
      return false
    end
  end
  return true
end

function card_features(card, num_features, base)
  return features_of(card, num_features, base)
end
`

// Lua is an Oracle whose legality rule runs in an embedded Lua VM. A
// *lua.LState is not safe for concurrent calls, so every method takes mu.
type Lua struct {
	mu          sync.Mutex
	state       *lua.LState
	setSize     int
	numFeatures int
	base        int
}

// NewLua builds a Lua-backed oracle for a deck of deckSize cards where a
// submission is setSize cards.
func NewLua(setSize, deckSize int) (*Lua, error) {
	const base = 3
	L := lua.NewState()
	if err := L.DoString(legalSetScript); err != nil {
		L.Close()
		return nil, fmt.Errorf("oracle: load legal-set script: %w", err)
	}
	return &Lua{
		state:       L,
		setSize:     setSize,
		numFeatures: numFeaturesFor(deckSize, base),
		base:        base,
	}, nil
}

// Close releases the underlying Lua state.
func (o *Lua) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Close()
}

func intsToLuaTable(L *lua.LState, vals []int) *lua.LTable {
	t := L.NewTable()
	for _, v := range vals {
		t.Append(lua.LNumber(v))
	}
	return t
}

func (o *Lua) TestSet(cards []int) bool {
	if len(cards) != o.setSize {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	L := o.state
	fn := L.GetGlobal("test_set")
	cardsTbl := intsToLuaTable(L, cards)
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		cardsTbl, lua.LNumber(o.numFeatures), lua.LNumber(o.base)); err != nil {
		return false
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret)
}

func (o *Lua) FindSets(deck []int, limit int) [][]int {
	var out [][]int
	combinations(deck, o.setSize, func(combo []int) bool {
		if o.TestSet(combo) {
			out = append(out, append([]int(nil), combo...))
			if limit > 0 && len(out) >= limit {
				return false
			}
		}
		return true
	})
	return out
}

func (o *Lua) CardsToFeatures(cards []int) [][]int {
	o.mu.Lock()
	defer o.mu.Unlock()

	L := o.state
	fn := L.GetGlobal("card_features")
	out := make([][]int, len(cards))
	for i, c := range cards {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
			lua.LNumber(c), lua.LNumber(o.numFeatures), lua.LNumber(o.base)); err != nil {
			continue
		}
		ret := L.Get(-1)
		L.Pop(1)
		tbl, ok := ret.(*lua.LTable)
		if !ok {
			continue
		}
		feat := make([]int, 0, o.numFeatures)
		tbl.ForEach(func(_, v lua.LValue) {
			if n, ok := v.(lua.LNumber); ok {
				feat = append(feat, int(n))
			}
		})
		out[i] = feat
	}
	return out
}
