package models

import (
	"gorm.io/gorm"
)

// GormGameRecord 游戏记录表
type GormGameRecord struct {
	gorm.Model
	RoomID        string            `gorm:"index;not null"`
	Outcome       string            `gorm:"index;not null"`
	Day           int               `gorm:"not null"`
	Turns         int               `gorm:"not null"`
	RoomsExplored int               `gorm:"not null"`
	BossDefeated  bool              `gorm:"default:false"`
	Players       []string          `gorm:"serializer:json;type:jsonb"`
	Participants  []GormParticipant `gorm:"foreignKey:GameRecordID"`
}

func (GormGameRecord) TableName() string { return "game_records" }

// GormParticipant 每局每个玩家一行，用于统计查询
type GormParticipant struct {
	ID           uint   `gorm:"primaryKey"`
	GameRecordID uint   `gorm:"index;not null"`
	Name         string `gorm:"index;not null"`
	Outcome      string `gorm:"not null"`
}

func (GormParticipant) TableName() string { return "game_participants" }

// ToGorm builds the table row and its participants.
func (r *GameRecord) ToGorm() *GormGameRecord {
	row := &GormGameRecord{
		RoomID:        r.RoomID,
		Outcome:       r.Outcome,
		Day:           r.Day,
		Turns:         r.Turns,
		RoomsExplored: r.RoomsExplored,
		BossDefeated:  r.BossDefeated,
		Players:       r.Players,
	}
	for _, name := range r.Players {
		row.Participants = append(row.Participants, GormParticipant{Name: name, Outcome: r.Outcome})
	}
	return row
}

// FromGorm converts a table row back to the archive model.
func FromGorm(row *GormGameRecord) GameRecord {
	return GameRecord{
		ID:            row.ID,
		RoomID:        row.RoomID,
		Outcome:       row.Outcome,
		Day:           row.Day,
		Turns:         row.Turns,
		RoomsExplored: row.RoomsExplored,
		BossDefeated:  row.BossDefeated,
		Players:       row.Players,
		CreatedAt:     row.CreatedAt,
	}
}
