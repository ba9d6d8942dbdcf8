// cards/registry.go
package cards

import (
	"fmt"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/wfunc/dungeonserver/roll"
)

// DefaultStarterDeckSize is the number of cards dealt to each player.
const DefaultStarterDeckSize = 10

// DefaultDefinitions is the stock card catalog.
var DefaultDefinitions = []Definition{
	{
		Type:                       "explore",
		Name:                       "Explore",
		Description:                "Cross up to 3 connected squares in a room.",
		SelectionTarget:            TargetRoom,
		SelectionMode:              ModeSquares,
		MinSelections:              1,
		MaxSelections:              3,
		RequiresConnected:          true,
		RequiresRoomStartAdjacency: true,
		DefenseSymbol:              DefenseEmpty,
		Color:                      "green",
	},
	{
		Type:                       "sprint",
		Name:                       "Sprint",
		Description:                "Cross up to 5 connected squares in a room.",
		SelectionTarget:            TargetRoom,
		SelectionMode:              ModeSquares,
		MinSelections:              1,
		MaxSelections:              5,
		RequiresConnected:          true,
		RequiresRoomStartAdjacency: true,
		DefenseSymbol:              DefenseBlock,
		Color:                      "green",
	},
	{
		Type:                       "sweep",
		Name:                       "Sweep",
		Description:                "Cross a whole row of a room up to the nearest walls.",
		SelectionTarget:            TargetRoom,
		SelectionMode:              ModeRow,
		MinSelections:              1,
		RequiresRoomStartAdjacency: true,
		DefenseSymbol:              DefenseEmpty,
		Color:                      "blue",
	},
	{
		Type:            "leap",
		Name:            "Leap",
		Description:     "Cross two horizontal pairs of squares, one pair at a time.",
		SelectionTarget: TargetRoom,
		SelectionMode:   ModeHorizontalPairTwice,
		MinSelections:   2,
		MaxSelections:   4,
		DefenseSymbol:   DefenseCounter,
		Color:           "blue",
	},
	{
		Type:                          "strike",
		Name:                          "Strike",
		Description:                   "Cross up to 2 connected squares of one of your monsters.",
		SelectionTarget:               TargetMonster,
		SelectionMode:                 ModeSquares,
		MinSelections:                 1,
		MaxSelections:                 2,
		RequiresConnected:             true,
		RequiresMonsterStartAdjacency: true,
		DefenseSymbol:                 DefenseCounter,
		Color:                         "red",
	},
	{
		Type:                          "cleave",
		Name:                          "Cleave",
		Description:                   "Cross up to 3 squares of one monster, diagonals count as connected.",
		SelectionTarget:               TargetMonster,
		SelectionMode:                 ModeSquares,
		MinSelections:                 1,
		MaxSelections:                 3,
		RequiresConnected:             true,
		RequiresMonsterStartAdjacency: true,
		DiagonalConnectivity:          true,
		DefenseSymbol:                 DefenseBlock,
		Color:                         "red",
	},
	{
		Type:            "whirlwind",
		Name:            "Whirlwind",
		Description:     "Cross one square on each of your monsters.",
		SelectionTarget: TargetMonsterEach,
		SelectionMode:   ModeSquares,
		MinSelections:   1,
		DefenseSymbol:   DefenseEmpty,
		Color:           "red",
	},
	{
		Type:                          "scout",
		Name:                          "Scout",
		Description:                   "Cross up to 2 connected squares in a room or on a monster, then draw a card.",
		SelectionTarget:               TargetRoomOrMonster,
		SelectionMode:                 ModeSquares,
		MinSelections:                 1,
		MaxSelections:                 2,
		RequiresConnected:             true,
		RequiresRoomStartAdjacency:    true,
		RequiresMonsterStartAdjacency: true,
		DefenseSymbol:                 DefenseEmpty,
		Color:                         "yellow",
		DrawCardsOnResolve:            1,
	},
	{
		Type:                       "second_wind",
		Name:                       "Second Wind",
		Description:                "Cross 1 square in a room, then draw 2 cards.",
		SelectionTarget:            TargetRoom,
		SelectionMode:              ModeSquares,
		MinSelections:              1,
		MaxSelections:              1,
		RequiresRoomStartAdjacency: true,
		DefenseSymbol:              DefenseBlock,
		Color:                      "yellow",
		DrawCardsOnResolve:         2,
	},
}

// Registry is a read-only card catalog.
type Registry struct {
	defs   []Definition
	byType map[string]Definition
}

// NewRegistry indexes the given definitions. Duplicate types are rejected.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{byType: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.Type == "" {
			return nil, fmt.Errorf("card definition %q has no type", d.Name)
		}
		if _, dup := r.byType[d.Type]; dup {
			return nil, fmt.Errorf("duplicate card definition %q", d.Type)
		}
		r.byType[d.Type] = d
		r.defs = append(r.defs, d)
	}
	if len(r.defs) == 0 {
		return nil, fmt.Errorf("card registry is empty")
	}
	return r, nil
}

// DefaultRegistry returns the stock catalog.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDefinitions)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns a definition by type.
func (r *Registry) Lookup(cardType string) (Definition, bool) {
	d, ok := r.byType[cardType]
	return d, ok
}

// Definitions returns the catalog in declaration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// CreateCardFromDefinition stamps a unique card for the given type.
func (r *Registry) CreateCardFromDefinition(cardType string) (Card, error) {
	d, ok := r.Lookup(cardType)
	if !ok {
		return Card{}, fmt.Errorf("unknown card type %q", cardType)
	}
	return NewCard(d), nil
}

// CreateStarterDeck deals size cards, each of a random definition, shuffled.
func (r *Registry) CreateStarterDeck(roller dice.Roller, size int) []Card {
	deck := make([]Card, 0, size)
	for i := 0; i < size; i++ {
		deck = append(deck, NewCard(r.defs[roll.Intn(roller, len(r.defs))]))
	}
	Shuffle(roller, deck)
	return deck
}

// Shuffle is an in-place Fisher-Yates shuffle.
func Shuffle(roller dice.Roller, deck []Card) {
	roll.Shuffle(roller, len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}
