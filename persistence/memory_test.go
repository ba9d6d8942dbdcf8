package persistence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/dungeonserver/models"
)

func TestOpen_Drivers(t *testing.T) {
	a, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, a)

	_, err = Open("mongo", "")
	assert.True(t, errors.Is(err, ErrUnknownDriver))
}

func TestMemory_SaveAndList(t *testing.T) {
	m := NewMemory()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i, outcome := range []string{models.OutcomeLost, models.OutcomeWon, models.OutcomeLost} {
		rec := &models.GameRecord{RoomID: "r", Outcome: outcome, Day: i + 1, Players: []string{"ana"}}
		require.NoError(t, m.SaveGameRecord(rec))
		assert.Equal(t, uint(i+1), rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
	}

	list, err := m.ListGameRecords(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(3), list[0].ID, "newest first")
	assert.Equal(t, uint(2), list[1].ID)

	list[0].Players[0] = "mallory"
	again, _ := m.ListGameRecords(1)
	assert.Equal(t, "ana", again[0].Players[0], "callers get copies")
}

func TestMemory_PlayerStats(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.SaveGameRecord(&models.GameRecord{Outcome: models.OutcomeWon, Players: []string{"ana", "bo"}}))
	require.NoError(t, m.SaveGameRecord(&models.GameRecord{Outcome: models.OutcomeLost, Players: []string{"ana"}}))

	stats, err := m.GetPlayerStats("ana")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalGames)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)

	stats, err = m.GetPlayerStats("bo")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalGames)

	_, err = m.GetPlayerStats("cy")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
