package dungeon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/dungeonserver/roll"
)

func TestDirection_OppositeAndParse(t *testing.T) {
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, North, South.Opposite())
	assert.Equal(t, West, East.Opposite())
	assert.Equal(t, East, West.Opposite())

	_, ok := ParseDirection("up")
	assert.False(t, ok)
	d, ok := ParseDirection("east")
	require.True(t, ok)
	assert.Equal(t, East, d)
	assert.Equal(t, Direction(""), Direction("up").Opposite())
}

func TestOrthogonalNeverDiagonal(t *testing.T) {
	assert.True(t, Orthogonal(1, 1, 1, 2))
	assert.True(t, Orthogonal(1, 1, 0, 1))
	assert.False(t, Orthogonal(1, 1, 2, 2))
	assert.False(t, Orthogonal(1, 1, 1, 1))
	assert.False(t, Orthogonal(1, 1, 3, 1))
	assert.True(t, Diagonal(1, 1, 2, 2))
	assert.False(t, Diagonal(1, 1, 1, 2))
}

func TestNewRoom_DimensionsAndEntrance(t *testing.T) {
	roller := roll.NewSeeded(7)
	for i := 0; i < 200; i++ {
		r := NewRoom(roller, West, false)
		assert.GreaterOrEqual(t, r.Width, MinRoomWidth)
		assert.LessOrEqual(t, r.Width, MaxRoomWidth)
		assert.GreaterOrEqual(t, r.Height, MinRoomHeight)
		assert.LessOrEqual(t, r.Height, MaxRoomHeight)
		require.Equal(t, West, r.EntranceDirection)
		assert.Equal(t, 0, r.EntranceX)
		assert.Equal(t, r.Height/2, r.EntranceY)
		assert.True(t, r.At(r.EntranceX, r.EntranceY).Entrance)
		assert.False(t, r.At(1, r.EntranceY).Wall, "cell inside the entrance must be walkable")

		for _, e := range r.Exits {
			assert.NotEqual(t, West, e.Direction, "exits never face the entrance")
			assert.Equal(t, -1, e.ConnectedRoomIndex)
			assert.False(t, e.Connected)
			assert.True(t, r.At(e.X, e.Y).Exit)
		}
		assert.True(t, r.connected(), "walkable squares must stay reachable from the entrance")
	}
}

func TestNewRoom_ScriptedDimensions(t *testing.T) {
	// d3 -> 3 for the width, d3 -> 1 for the height, d100 -> 100 for four exits.
	r := NewRoom(roll.NewScript(3, 1, 100), North, false)
	assert.Equal(t, MaxRoomWidth, r.Width)
	assert.Equal(t, MinRoomHeight, r.Height)
	assert.Len(t, r.Exits, 3, "four exits rolled, one direction is the entrance")
}

func TestNewRoom_InvalidEntranceIgnored(t *testing.T) {
	r := NewRoom(roll.NewSeeded(1), Direction("sideways"), true)
	assert.False(t, r.HasEntrance())
	assert.True(t, r.IsBossRoom)
	assert.NotEmpty(t, r.Exits)
}

func TestGenerateExits_ClearsPreviousExits(t *testing.T) {
	roller := roll.NewSeeded(3)
	r := NewEmptyRoom(7, 5)
	r.SetEntrance(North)
	for i := 0; i < 50; i++ {
		r.GenerateExits(roller, North)
		exitSquares := 0
		for _, sq := range r.Squares {
			if sq.Exit {
				exitSquares++
			}
		}
		assert.Equal(t, len(r.Exits), exitSquares)
		assert.GreaterOrEqual(t, len(r.Exits), 1)
		assert.LessOrEqual(t, len(r.Exits), 3)
	}
}

func TestRollExitCount_Table(t *testing.T) {
	cases := []struct {
		d100 int
		want int
	}{
		{1, 1}, {20, 1},
		{21, 2}, {70, 2},
		{71, 3}, {90, 3},
		{91, 4}, {100, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rollExitCount(roll.NewScript(tc.d100)), "d100=%d", tc.d100)
	}
}

func TestRollExitCount_Distribution(t *testing.T) {
	roller := roll.NewSeeded(11)
	counts := map[int]int{}
	for i := 0; i < 10000; i++ {
		counts[rollExitCount(roller)]++
	}
	assert.InDelta(t, 2000, counts[1], 300)
	assert.InDelta(t, 5000, counts[2], 300)
	assert.InDelta(t, 2000, counts[3], 300)
	assert.InDelta(t, 1000, counts[4], 300)
}

func TestWallsNeverTouchEntranceOrExit(t *testing.T) {
	roller := roll.NewSeeded(5)
	for i := 0; i < 100; i++ {
		r := NewRoom(roller, South, false)
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				sq := r.At(x, y)
				if !sq.Entrance && !sq.Exit {
					continue
				}
				assert.False(t, sq.Wall)
				for _, n := range neighbors(x, y) {
					if nsq := r.At(n[0], n[1]); nsq != nil {
						assert.False(t, nsq.Wall, "wall next to entrance/exit at (%d,%d)", n[0], n[1])
					}
				}
			}
		}
	}
}

func TestIsStartAdjacent(t *testing.T) {
	r := NewEmptyRoom(6, 4)
	r.SetEntrance(West) // (0,2)

	assert.True(t, r.IsStartAdjacent(0, 2))
	assert.True(t, r.IsStartAdjacent(1, 2))
	assert.True(t, r.IsStartAdjacent(0, 1))
	assert.False(t, r.IsStartAdjacent(1, 1), "diagonal to the entrance does not count")
	assert.False(t, r.IsStartAdjacent(4, 1))

	require.True(t, r.Cross(4, 2))
	assert.True(t, r.IsStartAdjacent(4, 1))
	assert.False(t, r.IsStartAdjacent(5, 1))
}

func TestCross(t *testing.T) {
	r := NewEmptyRoom(6, 4)
	r.At(2, 2).Wall = true

	assert.True(t, r.Cross(1, 1))
	assert.False(t, r.Cross(1, 1), "already crossed")
	assert.False(t, r.Cross(2, 2), "wall")
	assert.False(t, r.Cross(-1, 0), "out of bounds")
	assert.False(t, r.At(2, 2).Checked)
}

func TestRowRun_StopsAtWalls(t *testing.T) {
	r := NewEmptyRoom(8, 4)
	r.At(4, 1).Wall = true
	r.At(1, 1).Checked = true

	assert.Equal(t, []int{0, 2, 3}, r.RowRun(2, 1))
	assert.Equal(t, []int{5, 6, 7}, r.RowRun(6, 1))
	assert.Nil(t, r.RowRun(4, 1))
}

func TestCreateExit_CarvesPathWhenIsolated(t *testing.T) {
	r := NewEmptyRoom(6, 4)
	r.SetEntrance(West) // (0,2)
	// Seal the east edge cell (5,2) behind a wall column.
	for y := 0; y < 4; y++ {
		r.At(4, y).Wall = true
	}
	idx := r.CreateExit(East)
	require.GreaterOrEqual(t, idx, 0)
	assert.True(t, r.connected())
}
