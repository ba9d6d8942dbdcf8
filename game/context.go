// game/context.go
package game

import (
	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/wfunc/dungeonserver/cards"
	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/monster"
)

// Status is the overall game outcome.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// TurnState holds the round and day counters.
type TurnState struct {
	CurrentTurn    int    `json:"currentTurn"`
	CurrentDay     int    `json:"currentDay"`
	MaxDays        int    `json:"maxDays"`
	TurnInProgress bool   `json:"turnInProgress"`
	GameStatus     Status `json:"gameStatus"`
	BossMonsterID  string `json:"bossMonsterId,omitempty"`
	BossDefeated   bool   `json:"bossDefeated"`
}

// sessionContext is the single mutation surface shared by the engine
// components of one game. The per-session selection cache is kept apart
// from durable state; it may be rebuilt from a confirm payload.
type sessionContext struct {
	cfg      Config
	roller   dice.Roller
	registry *cards.Registry

	dungeon        *dungeon.Graph
	monsters       *monster.Deck
	activeMonsters []*monster.Card
	players        map[string]*Player
	turnOrder      []string
	turn           TurnState

	selections map[string]*selectionState
}

func (s *sessionContext) terminal() bool {
	return s.turn.GameStatus != StatusInProgress
}

func (s *sessionContext) player(sessionID string) (*Player, error) {
	p, ok := s.players[sessionID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// selection returns the session's cache, creating it on first use.
func (s *sessionContext) selection(sessionID string) *selectionState {
	st, ok := s.selections[sessionID]
	if !ok {
		st = &selectionState{}
		s.selections[sessionID] = st
	}
	return st
}

func (s *sessionContext) monster(id string) *monster.Card {
	for _, m := range s.activeMonsters {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// ownedIncomplete lists the monsters a player still has to finish.
func (s *sessionContext) ownedIncomplete(sessionID string) []*monster.Card {
	var out []*monster.Card
	for _, m := range s.activeMonsters {
		if m.PlayerOwnerID == sessionID && !m.Completed() {
			out = append(out, m)
		}
	}
	return out
}

// spawnMonster populates a newly discovered room.
func (s *sessionContext) spawnMonster(index int, room *dungeon.Room) {
	var m *monster.Card
	if room.IsBossRoom {
		m = s.monsters.DrawBoss(index)
		s.turn.BossMonsterID = m.ID
	} else {
		m = s.monsters.Draw(index)
	}
	if m == nil {
		return
	}
	if sq := room.At(room.Width/2, room.Height/2); sq != nil && sq.Walkable() {
		sq.Monster = true
	}
	s.activeMonsters = append(s.activeMonsters, m)
	logger.Log.Infof("monster %s (%s) appeared in room %d", m.Name, m.ID, index)
}

// checkBossDefeat ends the game as won once the boss is fully crossed.
func (s *sessionContext) checkBossDefeat() bool {
	if s.turn.BossDefeated {
		return true
	}
	if s.turn.BossMonsterID == "" {
		return false
	}
	boss := s.monster(s.turn.BossMonsterID)
	if boss == nil || !boss.Completed() {
		return false
	}
	s.turn.BossDefeated = true
	s.turn.GameStatus = StatusWon
	s.turn.TurnInProgress = false
	logger.Log.Infof("boss %s defeated on day %d turn %d", boss.Name, s.turn.CurrentDay, s.turn.CurrentTurn)
	return true
}
