// game/snapshot.go
package game

import (
	"github.com/wfunc/dungeonserver/cards"
	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/monster"
)

// PlayerView is a player as other clients see it.
type PlayerView struct {
	SessionID    string       `json:"sessionId"`
	Name         string       `json:"name"`
	DeckCount    int          `json:"deckCount"`
	DrawnCards   []cards.Card `json:"drawnCards"`
	DiscardCount int          `json:"discardCount"`
	TurnStatus   TurnStatus   `json:"turnStatus"`
	HasDrawnCard bool         `json:"hasDrawnCard"`
	ActiveCardID string       `json:"activeCardId,omitempty"`
	Selections   []Selection  `json:"selections,omitempty"`
}

// Snapshot is a detached copy of the game state, safe to hand to another
// goroutine.
type Snapshot struct {
	Turn             TurnState        `json:"turn"`
	CurrentRoomIndex int              `json:"currentRoomIndex"`
	RoomDeck         dungeon.RoomDeck `json:"roomDeck"`
	Rooms            []dungeon.Room   `json:"rooms"`
	Monsters         []monster.Card   `json:"monsters"`
	Players          []PlayerView     `json:"players"`
}

// Snapshot copies the current state.
func (g *Game) Snapshot() Snapshot {
	s := g.s
	snap := Snapshot{
		Turn:             s.turn,
		CurrentRoomIndex: s.dungeon.CurrentRoomIndex,
		RoomDeck:         s.dungeon.Deck,
		Rooms:            make([]dungeon.Room, 0, len(s.dungeon.Rooms)),
		Monsters:         make([]monster.Card, 0, len(s.activeMonsters)),
		Players:          make([]PlayerView, 0, len(s.turnOrder)),
	}
	for _, r := range s.dungeon.Rooms {
		c := *r
		c.Squares = append([]dungeon.Square(nil), r.Squares...)
		c.Exits = append([]dungeon.Exit(nil), r.Exits...)
		snap.Rooms = append(snap.Rooms, c)
	}
	for _, m := range s.activeMonsters {
		c := *m
		c.Squares = append([]monster.Square(nil), m.Squares...)
		snap.Monsters = append(snap.Monsters, c)
	}
	for _, id := range s.turnOrder {
		p, found := s.players[id]
		if !found {
			continue
		}
		v := PlayerView{
			SessionID:    p.SessionID,
			Name:         p.Name,
			DeckCount:    len(p.Deck),
			DrawnCards:   append([]cards.Card(nil), p.DrawnCards...),
			DiscardCount: len(p.DiscardPile),
			TurnStatus:   p.TurnStatus,
			HasDrawnCard: p.HasDrawnCard,
		}
		if st, ok := s.selections[id]; ok {
			v.ActiveCardID = st.ActiveCardID
			v.Selections = append([]Selection(nil), st.Selections...)
		}
		snap.Players = append(snap.Players, v)
	}
	return snap
}

// Summary is the final tally of a finished game.
type Summary struct {
	Status        Status   `json:"status"`
	Day           int      `json:"day"`
	Turns         int      `json:"turns"`
	RoomsExplored int      `json:"roomsExplored"`
	BossDefeated  bool     `json:"bossDefeated"`
	Players       []string `json:"players"`
}

// Summary tallies the game so far.
func (g *Game) Summary() Summary {
	sum := Summary{
		Status:        g.s.turn.GameStatus,
		Day:           g.s.turn.CurrentDay,
		Turns:         g.s.turn.CurrentTurn - 1,
		RoomsExplored: len(g.s.dungeon.Rooms),
		BossDefeated:  g.s.turn.BossDefeated,
	}
	for _, id := range g.s.turnOrder {
		if p, found := g.s.players[id]; found {
			sum.Players = append(sum.Players, p.Name)
		}
	}
	return sum
}
