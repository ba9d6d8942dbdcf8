package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/dungeonserver/monster"
	"github.com/wfunc/dungeonserver/roll"
)

func TestAttack_EmptyThenBlock(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a")
	a, _ := g.Player("a")
	m := ownMonster(g, "a", monster.Pattern{Name: "Orc", Attack: 2, Rows: []string{"###"}}, "orc")

	empty := newCard(t, "explore")
	block := newCard(t, "sprint")
	stack(a, empty, block)
	before := len(a.Deck)

	phase := g.Attacks.Resolve()
	require.NotNil(t, phase)
	require.Equal(t, 2, phase.TotalAttacks)
	assert.Equal(t, OutcomeDiscarded, phase.Attacks[0].Outcome)
	assert.Equal(t, OutcomeReturnedToDeck, phase.Attacks[1].Outcome)
	assert.Equal(t, 1, phase.Attacks[0].AttackNumber)
	assert.Equal(t, 2, phase.Attacks[1].AttackNumber)
	assert.Equal(t, m.ID, phase.Attacks[0].MonsterID)
	assert.Equal(t, "a", phase.Attacks[0].PlayerSessionID)
	require.NotNil(t, phase.Attacks[0].Card)
	assert.Equal(t, empty.ID, phase.Attacks[0].Card.ID)

	assert.Equal(t, before-1, len(a.Deck))
	assert.Equal(t, block.ID, a.Deck[0].ID, "blocked card goes back on top")
	assert.True(t, inDiscard(a, empty.ID))
}

func TestAttack_CountIsClamped(t *testing.T) {
	cases := []struct {
		rating int
		want   int
	}{
		{0, 1},
		{1, 1},
		{3, 3},
		{7, 3},
	}
	for _, tc := range cases {
		g := newTestGame(t, DefaultConfig(), "a")
		a, _ := g.Player("a")
		a.Deck = nil
		ownMonster(g, "a", monster.Pattern{Name: "X", Attack: tc.rating, Rows: []string{"##"}}, "x")

		phase := g.Attacks.Resolve()
		require.NotNil(t, phase)
		assert.Equal(t, tc.want, phase.TotalAttacks, "rating %d", tc.rating)
		for _, at := range phase.Attacks {
			assert.Equal(t, OutcomeNoCard, at.Outcome)
			assert.Nil(t, at.Card)
		}
	}
}

func TestAttack_CounterCrossesMonster(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a")
	a, _ := g.Player("a")
	m := ownMonster(g, "a", monster.Pattern{Name: "Slime", Attack: 1, Rows: []string{"###"}}, "slime")
	counter := newCard(t, "strike")
	stack(a, counter)

	phase := g.Attacks.Resolve()
	require.NotNil(t, phase)
	require.Len(t, phase.Attacks, 1)
	at := phase.Attacks[0]
	assert.Equal(t, OutcomeCounterAttack, at.Outcome)
	require.NotNil(t, at.CounterSquare)
	assert.True(t, m.At(at.CounterSquare.X, at.CounterSquare.Y).Checked)
	assert.Len(t, m.Uncrossed(), 2)
	assert.Equal(t, counter.ID, a.Deck[0].ID)
}

func TestAttack_CounterTargetFromRoll(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a")
	a, _ := g.Player("a")
	m := ownMonster(g, "a", monster.Pattern{Name: "Slime", Attack: 1, Rows: []string{"###"}}, "slime")
	stack(a, newCard(t, "strike"))
	g.s.roller = roll.NewScript(3)

	phase := g.Attacks.Resolve()
	require.NotNil(t, phase)
	require.NotNil(t, phase.Attacks[0].CounterSquare)
	assert.Equal(t, CounterSquare{X: 2, Y: 0}, *phase.Attacks[0].CounterSquare)
	assert.True(t, m.At(2, 0).Checked)
	assert.False(t, m.At(0, 0).Checked)
}

func TestAttack_CounterCanDefeatBoss(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a")
	a, _ := g.Player("a")
	boss := ownMonster(g, "a", monster.Pattern{Name: "Wraith", Attack: 3, Rows: []string{"#"}, Boss: true}, "boss")
	g.s.turn.BossMonsterID = boss.ID
	stack(a, newCard(t, "strike"))

	phase := g.Attacks.Resolve()
	require.NotNil(t, phase)
	assert.Len(t, phase.Attacks, 1, "a finished monster stops attacking")
	assert.True(t, g.Turn().BossDefeated)
	assert.Equal(t, StatusWon, g.Status())
}

func TestAttack_SkipsUnownedAndCompleted(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a")
	wild := monster.DefaultPatterns[0].Instantiate("wild", 0)
	g.s.activeMonsters = append(g.s.activeMonsters, wild)
	done := ownMonster(g, "a", monster.Pattern{Name: "Dead", Attack: 2, Rows: []string{"#"}}, "dead")
	done.Cross(0, 0)

	assert.Nil(t, g.Attacks.Resolve())
	assert.Nil(t, g.Attacks.ConsumePending())
}

func TestAttack_PendingConsumedOnce(t *testing.T) {
	g := newTestGame(t, DefaultConfig(), "a")
	ownMonster(g, "a", monster.Pattern{Name: "Rat", Attack: 1, Rows: []string{"##"}}, "rat")

	phase := g.Attacks.Resolve()
	require.NotNil(t, phase)
	assert.Same(t, phase, g.Attacks.ConsumePending())
	assert.Nil(t, g.Attacks.ConsumePending())
}
