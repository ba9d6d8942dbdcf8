package persistence

import (
	"sync"
	"time"

	"github.com/wfunc/dungeonserver/models"
)

// Memory keeps the archive in process. It is the default when no database
// is configured and backs the tests.
type Memory struct {
	mu      sync.RWMutex
	records []models.GameRecord
	nextID  uint
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, now: time.Now}
}

func (m *Memory) SaveGameRecord(record *models.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.ID = m.nextID
	m.nextID++
	if record.CreatedAt.IsZero() {
		record.CreatedAt = m.now()
	}
	stored := *record
	stored.Players = append([]string(nil), record.Players...)
	m.records = append(m.records, stored)
	return nil
}

func (m *Memory) ListGameRecords(limit int) ([]models.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}
	out := make([]models.GameRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.records[i]
		r.Players = append([]string(nil), r.Players...)
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) GetPlayerStats(name string) (*models.PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.PlayerStats{Name: name}
	for i := range m.records {
		r := &m.records[i]
		if !r.HasPlayer(name) {
			continue
		}
		stats.TotalGames++
		switch r.Outcome {
		case models.OutcomeWon:
			stats.Wins++
		case models.OutcomeLost:
			stats.Losses++
		}
		if r.CreatedAt.After(stats.LastPlayed) {
			stats.LastPlayed = r.CreatedAt
		}
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	return stats, nil
}

func (m *Memory) Close() error { return nil }
