package roll

import (
	"errors"
	"testing"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenRoller struct{ face int }

func (b *brokenRoller) Roll(_ int) (int, error) {
	if b.face == 0 {
		return 0, errors.New("dice jammed")
	}
	return b.face, nil
}

func (b *brokenRoller) RollN(_, _ int) ([]int, error) { return nil, errors.New("dice jammed") }

var (
	_ dice.Roller = (*Seeded)(nil)
	_ dice.Roller = (*Script)(nil)
	_ dice.Roller = (*brokenRoller)(nil)
)

func TestIntn_FaceToIndex(t *testing.T) {
	assert.Equal(t, 0, Intn(NewScript(1), 6))
	assert.Equal(t, 5, Intn(NewScript(6), 6))
	assert.Equal(t, 0, Intn(NewScript(6), 1), "a single choice needs no roll")
}

func TestIntn_BadRollCountsAsLowest(t *testing.T) {
	assert.Equal(t, 0, Intn(&brokenRoller{}, 6))
	assert.Equal(t, 0, Intn(&brokenRoller{face: 9}, 6))
}

func TestBetween_Inclusive(t *testing.T) {
	assert.Equal(t, 6, Between(NewScript(1), 6, 8))
	assert.Equal(t, 8, Between(NewScript(3), 6, 8))
	assert.Equal(t, 4, Between(NewScript(3), 4, 4))
}

func TestScript_FoldsAndCycles(t *testing.T) {
	s := NewScript(7, 2)

	v, err := s.Roll(6)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	faces, err := s.RollN(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, faces)
	assert.Equal(t, 3, s.Rolls())

	_, err = s.Roll(0)
	assert.Error(t, err)
}

func TestSeeded_Replays(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 50; i++ {
		x, err := a.Roll(20)
		require.NoError(t, err)
		y, _ := b.Roll(20)
		assert.Equal(t, x, y)
		assert.True(t, x >= 1 && x <= 20)
	}

	_, err := a.RollN(0, 6)
	assert.Error(t, err)
}

func TestPerm_IsPermutation(t *testing.T) {
	p := Perm(NewSeeded(5), 10)
	require.Len(t, p, 10)
	seen := make(map[int]bool)
	for _, v := range p {
		seen[v] = true
	}
	assert.Len(t, seen, 10)

	// Face 1 always swaps with the front: 0..3 rotates left.
	assert.Equal(t, []int{1, 2, 3, 0}, Perm(NewScript(1), 4))
}
