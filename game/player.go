// game/player.go
package game

import (
	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/wfunc/dungeonserver/cards"
)

// TurnStatus is the per-player turn state.
type TurnStatus string

const (
	TurnNotStarted TurnStatus = "not_started"
	TurnPlaying    TurnStatus = "playing_turn"
	TurnComplete   TurnStatus = "turn_complete"
)

// Player holds one participant's piles. Front of each slice is the top.
type Player struct {
	SessionID    string       `json:"sessionId"`
	Name         string       `json:"name"`
	Deck         []cards.Card `json:"deck"`
	DrawnCards   []cards.Card `json:"drawnCards"`
	DiscardPile  []cards.Card `json:"discardPile"`
	TurnStatus   TurnStatus   `json:"turnStatus"`
	HasDrawnCard bool         `json:"hasDrawnCard"`
}

// NewPlayer creates a player holding the given starting deck.
func NewPlayer(sessionID, name string, deck []cards.Card) *Player {
	return &Player{
		SessionID:  sessionID,
		Name:       name,
		Deck:       deck,
		TurnStatus: TurnNotStarted,
	}
}

// CardCount is the size of the player's card multiset across all piles.
func (p *Player) CardCount() int {
	return len(p.Deck) + len(p.DrawnCards) + len(p.DiscardPile)
}

// drawTop moves the top deck card into the drawn cards.
func (p *Player) drawTop() (cards.Card, bool) {
	c, ok := p.popDeck()
	if !ok {
		return cards.Card{}, false
	}
	p.DrawnCards = append(p.DrawnCards, c)
	return c, true
}

func (p *Player) popDeck() (cards.Card, bool) {
	if len(p.Deck) == 0 {
		return cards.Card{}, false
	}
	c := p.Deck[0]
	p.Deck = p.Deck[1:]
	return c, true
}

func (p *Player) pushDeckTop(c cards.Card) {
	p.Deck = append([]cards.Card{c}, p.Deck...)
}

func (p *Player) drawnIndex(cardID string) int {
	for i := range p.DrawnCards {
		if p.DrawnCards[i].ID == cardID {
			return i
		}
	}
	return -1
}

// discardDrawn moves a drawn card to the discard pile.
func (p *Player) discardDrawn(cardID string) bool {
	i := p.drawnIndex(cardID)
	if i < 0 {
		return false
	}
	c := p.DrawnCards[i]
	c.IsActive = false
	p.DrawnCards = append(p.DrawnCards[:i], p.DrawnCards[i+1:]...)
	p.DiscardPile = append(p.DiscardPile, c)
	return true
}

func (p *Player) setActive(cardID string, active bool) {
	if i := p.drawnIndex(cardID); i >= 0 {
		p.DrawnCards[i].IsActive = active
	}
}

// reshuffle merges every pile into a fresh deck.
func (p *Player) reshuffle(roller dice.Roller) {
	all := make([]cards.Card, 0, p.CardCount())
	all = append(all, p.Deck...)
	all = append(all, p.DrawnCards...)
	all = append(all, p.DiscardPile...)
	for i := range all {
		all[i].IsActive = false
	}
	cards.Shuffle(roller, all)
	p.Deck = all
	p.DrawnCards = nil
	p.DiscardPile = nil
}

func (p *Player) resetTurn() {
	p.TurnStatus = TurnNotStarted
	p.HasDrawnCard = false
}
