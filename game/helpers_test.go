package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wfunc/dungeonserver/cards"
	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/monster"
	"github.com/wfunc/dungeonserver/roll"
)

func newTestGame(t *testing.T, cfg Config, players ...string) *Game {
	t.Helper()
	g := New(cfg, roll.NewSeeded(7))
	for _, id := range players {
		require.NoError(t, g.AddPlayer(id, "player-"+id))
	}
	return g
}

// openRoom swaps the starting room for a 6x4 wall-free room with its
// entrance at (3,3).
func openRoom(g *Game) *dungeon.Room {
	r := dungeon.NewEmptyRoom(6, 4)
	r.SetEntrance(dungeon.South)
	g.s.dungeon.Rooms[0] = r
	return r
}

func newCard(t *testing.T, cardType string) cards.Card {
	t.Helper()
	c, err := cards.DefaultRegistry().CreateCardFromDefinition(cardType)
	require.NoError(t, err)
	return c
}

// stack puts cards on top of the player's deck, first argument on top.
func stack(p *Player, cs ...cards.Card) {
	p.Deck = append(append([]cards.Card(nil), cs...), p.Deck...)
}

// drawAndPlay stacks a card of the given type, draws it and plays it.
func drawAndPlay(t *testing.T, g *Game, sessionID, cardType string) cards.Card {
	t.Helper()
	p, ok := g.Player(sessionID)
	require.True(t, ok)
	c := newCard(t, cardType)
	stack(p, c)
	res := g.Turns.DrawCard(sessionID)
	require.True(t, res.Success, res.Error)
	res = g.Selection.PlayCard(sessionID, c.ID)
	require.True(t, res.Success, res.Error)
	return c
}

// ownMonster adds a monster already claimed by sessionID.
func ownMonster(g *Game, sessionID string, p monster.Pattern, id string) *monster.Card {
	m := p.Instantiate(id, 0)
	m.Claim(sessionID)
	g.s.activeMonsters = append(g.s.activeMonsters, m)
	return m
}

func inDiscard(p *Player, cardID string) bool {
	for _, c := range p.DiscardPile {
		if c.ID == cardID {
			return true
		}
	}
	return false
}
