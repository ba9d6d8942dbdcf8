package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wfunc/dungeonserver/game"
	"github.com/wfunc/dungeonserver/models"
	"github.com/wfunc/dungeonserver/persistence"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ErrGameNotFinished is returned when asked to archive a running game.
var ErrGameNotFinished = errors.New("game not finished")

// RecordService 对局存档与战绩查询
type RecordService struct {
	archive persistence.Archive
}

func NewRecordService(archive persistence.Archive) *RecordService {
	return &RecordService{archive: archive}
}

// RecordGame archives a finished run. It satisfies state.Recorder.
func (s *RecordService) RecordGame(roomID string, summary game.Summary) error {
	var outcome string
	switch summary.Status {
	case game.StatusWon:
		outcome = models.OutcomeWon
	case game.StatusLost:
		outcome = models.OutcomeLost
	default:
		return fmt.Errorf("%w: room %s is %s", ErrGameNotFinished, roomID, summary.Status)
	}

	record := &models.GameRecord{
		RoomID:        roomID,
		Outcome:       outcome,
		Day:           summary.Day,
		Turns:         summary.Turns,
		RoomsExplored: summary.RoomsExplored,
		BossDefeated:  summary.BossDefeated,
		Players:       append([]string(nil), summary.Players...),
	}
	if err := s.archive.SaveGameRecord(record); err != nil {
		return fmt.Errorf("save record for room %s: %w", roomID, err)
	}
	return nil
}

// GetPlayerStats 获取玩家战绩
func (s *RecordService) GetPlayerStats(name string) (*models.PlayerStats, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, persistence.ErrRecordNotFound
	}
	return s.archive.GetPlayerStats(name)
}

// ListRecentGames returns the newest records. limit is clamped to
// [1, MaxListLimit]; zero means DefaultListLimit.
func (s *RecordService) ListRecentGames(limit int) ([]models.GameRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.archive.ListGameRecords(limit)
}
