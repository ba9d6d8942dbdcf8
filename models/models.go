package models

import (
	"time"
)

// Outcomes of an archived run.
const (
	OutcomeWon  = "won"
	OutcomeLost = "lost"
)

// GameRecord 一局结束后的存档
type GameRecord struct {
	ID            uint      `json:"id"`
	RoomID        string    `json:"room_id"`
	Outcome       string    `json:"outcome"`
	Day           int       `json:"day"`
	Turns         int       `json:"turns"`
	RoomsExplored int       `json:"rooms_explored"`
	BossDefeated  bool      `json:"boss_defeated"`
	Players       []string  `json:"players"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasPlayer reports whether name took part in the run.
func (r *GameRecord) HasPlayer(name string) bool {
	for _, p := range r.Players {
		if p == name {
			return true
		}
	}
	return false
}

// PlayerStats 玩家统计信息
type PlayerStats struct {
	Name       string    `json:"name"`
	TotalGames int       `json:"total_games"`
	Wins       int       `json:"wins"`
	Losses     int       `json:"losses"`
	LastPlayed time.Time `json:"last_played"`
}
