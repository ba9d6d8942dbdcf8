// cards/cards.go
package cards

import (
	"github.com/google/uuid"
)

// SelectionTarget says what a card may cross.
type SelectionTarget string

const (
	TargetRoom          SelectionTarget = "room"
	TargetMonster       SelectionTarget = "monster"
	TargetRoomOrMonster SelectionTarget = "room_or_monster"
	TargetMonsterEach   SelectionTarget = "monster_each"
)

// AllowsRoom reports whether room squares can be selected.
func (t SelectionTarget) AllowsRoom() bool {
	return t == TargetRoom || t == TargetRoomOrMonster
}

// AllowsMonster reports whether monster squares can be selected.
func (t SelectionTarget) AllowsMonster() bool {
	return t == TargetMonster || t == TargetRoomOrMonster || t == TargetMonsterEach
}

// SelectionMode says how selections are shaped.
type SelectionMode string

const (
	ModeSquares             SelectionMode = "squares"
	ModeRow                 SelectionMode = "row"
	ModeHorizontalPairTwice SelectionMode = "horizontal_pair_twice"
)

// DefenseSymbol decides what happens when the card is hit by a monster attack.
type DefenseSymbol string

const (
	DefenseEmpty   DefenseSymbol = "empty"
	DefenseBlock   DefenseSymbol = "block"
	DefenseCounter DefenseSymbol = "counter"
)

// Definition is one entry of the card catalog.
type Definition struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`

	SelectionTarget               SelectionTarget `json:"selectionTarget"`
	SelectionMode                 SelectionMode   `json:"selectionMode"`
	MinSelections                 int             `json:"minSelections"`
	MaxSelections                 int             `json:"maxSelections"` // 0 = unbounded
	RequiresConnected             bool            `json:"requiresConnected"`
	RequiresRoomStartAdjacency    bool            `json:"requiresRoomStartAdjacency"`
	RequiresMonsterStartAdjacency bool            `json:"requiresMonsterStartAdjacency"`
	DiagonalConnectivity          bool            `json:"diagonalConnectivity"`
	AllowMixed                    bool            `json:"allowMixed"`

	DefenseSymbol      DefenseSymbol `json:"defenseSymbol"`
	Color              string        `json:"color"`
	DrawCardsOnResolve int           `json:"drawCardsOnResolve"`
}

// Card is a unique instance of a definition.
type Card struct {
	ID string `json:"id"`
	Definition
	IsActive bool `json:"isActive"`
}

// NewCard stamps a definition into a new card instance.
func NewCard(def Definition) Card {
	return Card{
		ID:         uuid.NewString(),
		Definition: def,
	}
}
