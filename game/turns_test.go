package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/dungeonserver/monster"
)

func TestDrawCard_EleventhDrawFails(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a", "b")
	a, _ := g.Player("a")
	b, _ := g.Player("b")
	for i := 0; i < 10; i++ {
		b.Deck = append(b.Deck, newCard(t, "explore"))
	}
	total := a.CardCount()
	require.Equal(t, 10, total)

	for turn := 1; turn <= 10; turn++ {
		res := g.Turns.DrawCard("a")
		require.True(t, res.Success, "draw %d: %s", turn, res.Error)
		require.True(t, g.Turns.EndTurn("a").Success)
		require.True(t, g.Turns.DrawCard("b").Success)
		require.True(t, g.Turns.EndTurn("b").Success)
		assert.Equal(t, total, a.CardCount(), "cards are conserved within the day")
	}

	assert.Equal(t, 1, g.Turn().CurrentDay)
	assert.Empty(t, a.Deck)

	res := g.Turns.DrawCard("a")
	assert.False(t, res.Success)
	assert.Equal(t, "No cards left in deck", res.Error)
	assert.Len(t, a.DrawnCards, 10)

	require.True(t, g.Turns.EndTurn("a").Success, "an empty deck may pass")
	assert.Equal(t, TurnComplete, a.TurnStatus)
}

func TestCanPlayerPerformAction(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a")

	assert.NoError(t, g.Turns.CanPlayerPerformAction("a", ActionDrawCard))
	assert.Error(t, g.Turns.CanPlayerPerformAction("a", ActionPlayCard))
	assert.Error(t, g.Turns.CanPlayerPerformAction("a", ActionEndTurn))
	assert.Equal(t, ErrPlayerNotFound, g.Turns.CanPlayerPerformAction("ghost", ActionDrawCard))

	p, _ := g.Player("a")
	stack(p, newCard(t, "explore"))
	require.True(t, g.Turns.DrawCard("a").Success)
	assert.Error(t, g.Turns.CanPlayerPerformAction("a", ActionDrawCard), "one draw per turn")
	assert.NoError(t, g.Turns.CanPlayerPerformAction("a", ActionPlayCard))
	assert.NoError(t, g.Turns.CanPlayerPerformAction("a", ActionEndTurn))

	require.True(t, g.Selection.PlayCard("a", p.DrawnCards[0].ID).Success)
	assert.Error(t, g.Turns.CanPlayerPerformAction("a", ActionEndTurn), "active card blocks end turn")
}

func TestUpdatePlayerTurnStatus_RejectsIllegalTransitions(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a", "b")

	assert.Error(t, g.Turns.UpdatePlayerTurnStatus("a", TurnComplete))
	assert.Error(t, g.Turns.UpdatePlayerTurnStatus("a", TurnNotStarted))
	assert.NoError(t, g.Turns.UpdatePlayerTurnStatus("a", TurnPlaying))
	assert.Error(t, g.Turns.UpdatePlayerTurnStatus("a", TurnNotStarted))
	assert.NoError(t, g.Turns.UpdatePlayerTurnStatus("a", TurnComplete))
	assert.NoError(t, g.Turns.UpdatePlayerTurnStatus("a", TurnNotStarted))
	assert.Equal(t, ErrPlayerNotFound, g.Turns.UpdatePlayerTurnStatus("ghost", TurnPlaying))
}

func TestAdvanceTurn_OnlyWhenAllReady(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a", "b")
	b, _ := g.Player("b")

	require.True(t, g.Turns.DrawCard("a").Success)
	require.True(t, g.Turns.EndTurn("a").Success)

	assert.False(t, g.Turns.AreAllPlayersReady())
	assert.False(t, g.Turns.AdvanceTurn())
	assert.Equal(t, 1, g.Turn().CurrentTurn)
	a, _ := g.Player("a")
	assert.Equal(t, TurnComplete, a.TurnStatus)
	assert.Equal(t, TurnNotStarted, b.TurnStatus)

	require.True(t, g.Turns.DrawCard("b").Success)
	require.True(t, g.Turns.EndTurn("b").Success)

	assert.Equal(t, 2, g.Turn().CurrentTurn)
	assert.Equal(t, TurnNotStarted, a.TurnStatus)
	assert.False(t, a.HasDrawnCard)
	assert.Equal(t, TurnNotStarted, b.TurnStatus)

	adv := g.Turns.ConsumeAdvance()
	require.NotNil(t, adv)
	assert.Equal(t, 2, adv.NewTurn)
	assert.Nil(t, g.Turns.ConsumeAdvance())
}

func TestDayRollover_ReshufflesPiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StarterDeckSize = 2
	g := newTestGame(t, cfg, "a")
	a, _ := g.Player("a")

	require.True(t, g.Turns.DrawCard("a").Success)
	require.True(t, g.Turns.EndTurn("a").Success)
	assert.Equal(t, 1, g.Turn().CurrentDay)

	require.True(t, g.Turns.DrawCard("a").Success)
	a.discardDrawn(a.DrawnCards[0].ID)
	require.True(t, g.Turns.EndTurn("a").Success)

	assert.Equal(t, 2, g.Turn().CurrentDay)
	assert.Equal(t, 3, g.Turn().CurrentTurn)
	assert.Len(t, a.Deck, 2)
	assert.Empty(t, a.DrawnCards)
	assert.Empty(t, a.DiscardPile)
	assert.True(t, g.Turn().TurnInProgress)
	for _, c := range a.Deck {
		assert.False(t, c.IsActive)
	}
}

func TestLastDayExhausted_GameLost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StarterDeckSize = 1
	cfg.MaxDays = 1
	g := newTestGame(t, cfg, "a")

	require.True(t, g.Turns.DrawCard("a").Success)
	require.True(t, g.Turns.EndTurn("a").Success)

	turn := g.Turn()
	assert.Equal(t, StatusLost, turn.GameStatus)
	assert.False(t, turn.TurnInProgress)
	assert.Equal(t, 2, turn.CurrentTurn)
	assert.Equal(t, 1, turn.CurrentDay)
	a, _ := g.Player("a")
	assert.Equal(t, TurnNotStarted, a.TurnStatus, "statuses still reset on a loss")

	res := g.Turns.DrawCard("a")
	assert.Equal(t, ErrGameComplete.Error(), res.Error)
}

func TestBossDefeat_WinsAndFreezesTurns(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a")
	boss := ownMonster(g, "a", monster.Pattern{Name: "Lich", Attack: 1, Rows: []string{"##"}, Boss: true}, "boss")
	g.s.turn.BossMonsterID = boss.ID

	drawAndPlay(t, g, "a", "strike")
	require.True(t, g.Selection.SelectMonsterSquare("a", boss.ID, 0, 0).Success)
	require.True(t, g.Selection.SelectMonsterSquare("a", boss.ID, 1, 0).Success)
	res := g.Selection.ConfirmCardAction("a", nil)
	require.True(t, res.Success, res.Error)

	turn := g.Turn()
	assert.True(t, turn.BossDefeated)
	assert.Equal(t, StatusWon, turn.GameStatus)
	assert.False(t, turn.TurnInProgress)

	a, _ := g.Player("a")
	assert.False(t, g.Turns.EndTurn("a").Success)
	assert.False(t, g.Turns.AdvanceTurn())
	assert.Equal(t, TurnPlaying, a.TurnStatus, "no reset after the win")
	assert.Equal(t, 1, turn.CurrentTurn)
}

func TestRoomDeck_ScalesUntilExplorationStarts(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a", "b", "c")
	assert.Equal(t, 20, g.Dungeon().Deck.Size)
	assert.GreaterOrEqual(t, g.Dungeon().Deck.BossDrawIndex, 15)
	assert.Less(t, g.Dungeon().Deck.BossDrawIndex, 20)

	g.RemovePlayer("c")
	assert.Equal(t, 15, g.Dungeon().Deck.Size)

	g.Dungeon().FreezeDeck()
	require.NoError(t, g.AddPlayer("d", "d"))
	assert.Equal(t, 15, g.Dungeon().Deck.Size)
}

func TestAddPlayer_Limits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPlayers = 2
	g := newTestGame(t, cfg, "a", "b")

	assert.Equal(t, ErrGameFull, g.AddPlayer("c", "c"))
	assert.Equal(t, ErrPlayerExists, g.AddPlayer("a", "a"))
	assert.Equal(t, 2, g.PlayerCount())
}

func TestRemovePlayer_TriggersAdvance(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a", "b")
	ownMonster(g, "a", monster.Pattern{Name: "Rat", Attack: 1, Rows: []string{"##"}}, "rat")

	require.True(t, g.Turns.DrawCard("a").Success)
	require.True(t, g.Turns.EndTurn("a").Success)
	assert.Equal(t, 1, g.Turn().CurrentTurn)

	events := g.RemovePlayer("b")
	assert.Equal(t, 2, g.Turn().CurrentTurn)
	require.Len(t, events, 2)
	assert.Equal(t, EventTurnAdvanced, events[0].Type)
	assert.Equal(t, EventMonsterAttackPhase, events[1].Type)
	assert.Nil(t, g.Attacks.ConsumePending(), "the attack phase is handed out once")

	assert.Nil(t, g.RemovePlayer("b"))
}
