package rpc

import (
	"net/rpc"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/dungeonserver/game"
	"github.com/wfunc/dungeonserver/persistence"
	"github.com/wfunc/dungeonserver/services"
)

func TestGameService_OverTheWire(t *testing.T) {
	records := services.NewRecordService(persistence.NewMemory())
	require.NoError(t, records.RecordGame("r1", game.Summary{Status: game.StatusWon, Players: []string{"ana"}}))
	require.NoError(t, records.RecordGame("r2", game.Summary{Status: game.StatusLost, Players: []string{"ana", "bo"}}))

	srv, err := NewServer("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, srv.Register(NewGameService(records)))
	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	t.Cleanup(func() {
		srv.Stop()
		assert.NoError(t, <-done)
	})

	client, err := rpc.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer client.Close()

	var stats GetPlayerStatsReply
	require.NoError(t, client.Call("GameService.GetPlayerStats", &GetPlayerStatsArgs{Name: "ana"}, &stats))
	assert.Equal(t, 2, stats.Stats.TotalGames)
	assert.Equal(t, 1, stats.Stats.Wins)

	err = client.Call("GameService.GetPlayerStats", &GetPlayerStatsArgs{Name: "cy"}, &GetPlayerStatsReply{})
	require.Error(t, err)
	assert.Equal(t, persistence.ErrRecordNotFound.Error(), err.Error())

	var games ListRecentGamesReply
	require.NoError(t, client.Call("GameService.ListRecentGames", &ListRecentGamesArgs{Limit: 1}, &games))
	require.Len(t, games.Games, 1)
	assert.Equal(t, "r2", games.Games[0].RoomID)
}
