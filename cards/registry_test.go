package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/dungeonserver/roll"
)

func TestNewRegistry_Validation(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)

	_, err = NewRegistry([]Definition{{Name: "nameless"}})
	assert.Error(t, err)

	_, err = NewRegistry([]Definition{{Type: "a"}, {Type: "a"}})
	assert.Error(t, err)
}

func TestDefaultRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry()
	d, ok := r.Lookup("sweep")
	require.True(t, ok)
	assert.Equal(t, ModeRow, d.SelectionMode)

	_, ok = r.Lookup("nope")
	assert.False(t, ok)
	assert.Len(t, r.Definitions(), len(DefaultDefinitions))
}

func TestDefaultDefinitions_OnlyCleaveIsDiagonal(t *testing.T) {
	for _, d := range DefaultDefinitions {
		if d.Type == "cleave" {
			assert.True(t, d.DiagonalConnectivity)
			continue
		}
		assert.False(t, d.DiagonalConnectivity, d.Type)
	}
}

func TestCreateCardFromDefinition_UniqueIDs(t *testing.T) {
	r := DefaultRegistry()
	a, err := r.CreateCardFromDefinition("explore")
	require.NoError(t, err)
	b, err := r.CreateCardFromDefinition("explore")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "explore", a.Type)
	assert.False(t, a.IsActive)

	_, err = r.CreateCardFromDefinition("missing")
	assert.Error(t, err)
}

func TestCreateStarterDeck(t *testing.T) {
	r := DefaultRegistry()
	deck := r.CreateStarterDeck(roll.NewSeeded(42), DefaultStarterDeckSize)
	require.Len(t, deck, DefaultStarterDeckSize)

	ids := map[string]bool{}
	for _, c := range deck {
		ids[c.ID] = true
		_, ok := r.Lookup(c.Type)
		assert.True(t, ok)
	}
	assert.Len(t, ids, DefaultStarterDeckSize)
}

func TestCreateStarterDeck_DefinitionPerSlot(t *testing.T) {
	r := DefaultRegistry()
	deck := r.CreateStarterDeck(roll.NewScript(2), 4)
	require.Len(t, deck, 4)
	for _, c := range deck {
		assert.Equal(t, DefaultDefinitions[1].Type, c.Type)
	}
}

func TestShuffle_KeepsMultiset(t *testing.T) {
	deck := []Card{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	Shuffle(roll.NewSeeded(1), deck)
	got := map[string]bool{}
	for _, c := range deck {
		got[c.ID] = true
	}
	assert.Len(t, got, 4)
}

func TestShuffle_SwapsFromRolls(t *testing.T) {
	deck := []Card{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	script := roll.NewScript(1)
	Shuffle(script, deck)

	order := make([]string, 0, len(deck))
	for _, c := range deck {
		order = append(order, c.ID)
	}
	assert.Equal(t, []string{"b", "c", "d", "a"}, order)
	assert.Equal(t, 3, script.Rolls())
}

func TestSelectionTarget_Allows(t *testing.T) {
	assert.True(t, TargetRoom.AllowsRoom())
	assert.False(t, TargetRoom.AllowsMonster())
	assert.True(t, TargetRoomOrMonster.AllowsRoom())
	assert.True(t, TargetRoomOrMonster.AllowsMonster())
	assert.False(t, TargetMonsterEach.AllowsRoom())
	assert.True(t, TargetMonsterEach.AllowsMonster())
}
