// dungeon/graph.go
package dungeon

import (
	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/roll"
)

// GridPoint is a coordinate on the unbounded dungeon grid.
type GridPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RoomDeck tracks how many rooms can still be discovered and where the boss sits.
type RoomDeck struct {
	Size           int  `json:"size"`
	Drawn          int  `json:"drawn"`
	BossDrawIndex  int  `json:"bossDrawIndex"`
	BossDiscovered bool `json:"bossDiscovered"`
	Frozen         bool `json:"frozen"`
}

// Remaining returns the number of undrawn room cards.
func (d RoomDeck) Remaining() int {
	if d.Drawn >= d.Size {
		return 0
	}
	return d.Size - d.Drawn
}

// SpawnFunc is invoked for every room discovered through an exit.
type SpawnFunc func(index int, room *Room)

// Graph owns every room of one dungeon and the grid index over them.
// Rooms are never removed; the dungeon only grows.
type Graph struct {
	Rooms            []*Room
	Deck             RoomDeck
	CurrentRoomIndex int

	grid    map[GridPoint]int
	roller  dice.Roller
	onSpawn SpawnFunc
}

// NewGraph creates an empty dungeon whose room deck is sized for one player.
func NewGraph(roller dice.Roller) *Graph {
	g := &Graph{
		grid:   make(map[GridPoint]int),
		roller: roller,
	}
	g.SizeDeck(1)
	return g
}

// OnSpawn registers the hook that populates newly discovered rooms.
func (g *Graph) OnSpawn(fn SpawnFunc) {
	g.onSpawn = fn
}

// AddStartingRoom places the first room at the grid origin. Its entrance
// faces south, the way the party walks in.
func (g *Graph) AddStartingRoom() int {
	room := NewRoom(g.roller, South, false)
	idx := g.AddRoom(room)
	g.AssignGridCoordinates(idx, 0, 0)
	g.CurrentRoomIndex = idx
	return idx
}

// AddRoom appends a room without placing it on the grid.
func (g *Graph) AddRoom(room *Room) int {
	g.Rooms = append(g.Rooms, room)
	return len(g.Rooms) - 1
}

// Room returns the room at index i.
func (g *Graph) Room(i int) (*Room, bool) {
	if i < 0 || i >= len(g.Rooms) {
		return nil, false
	}
	return g.Rooms[i], true
}

// AssignGridCoordinates records the room position and indexes it.
func (g *Graph) AssignGridCoordinates(i, x, y int) bool {
	room, ok := g.Room(i)
	if !ok {
		logger.Log.Errorf("assign grid coordinates: room %d out of range", i)
		return false
	}
	p := GridPoint{X: x, Y: y}
	if other, taken := g.grid[p]; taken && other != i {
		logger.Log.Errorf("assign grid coordinates: (%d,%d) already holds room %d", x, y, other)
		return false
	}
	old := GridPoint{X: room.GridX, Y: room.GridY}
	if idx, placed := g.grid[old]; placed && idx == i {
		delete(g.grid, old)
	}
	room.GridX, room.GridY = x, y
	g.grid[p] = i
	return true
}

// GridCoordinates is the inverse of AssignGridCoordinates.
func (g *Graph) GridCoordinates(i int) (int, int, bool) {
	room, ok := g.Room(i)
	if !ok {
		return 0, 0, false
	}
	if idx, placed := g.grid[GridPoint{X: room.GridX, Y: room.GridY}]; !placed || idx != i {
		return 0, 0, false
	}
	return room.GridX, room.GridY, true
}

// RoomAt returns the index of the room at a grid coordinate.
func (g *Graph) RoomAt(x, y int) (int, bool) {
	idx, ok := g.grid[GridPoint{X: x, Y: y}]
	return idx, ok
}

// SizeDeck scales the room deck to the party size (10/15/20/25 for 1-4
// players) and rolls the boss into the last five draws. It does nothing
// once exploration has frozen the deck.
func (g *Graph) SizeDeck(playerCount int) bool {
	if g.Deck.Frozen {
		return false
	}
	if playerCount < 1 {
		playerCount = 1
	}
	if playerCount > 4 {
		playerCount = 4
	}
	size := 5 + 5*playerCount
	g.Deck = RoomDeck{
		Size:          size,
		BossDrawIndex: roll.Between(g.roller, size-5, size-1),
	}
	return true
}

// FreezeDeck stops any further resizing.
func (g *Graph) FreezeDeck() {
	g.Deck.Frozen = true
}

// DrawRoomCard takes the next room card. ok is false when the deck is empty.
func (g *Graph) DrawRoomCard() (isBoss bool, ok bool) {
	if g.Deck.Drawn >= g.Deck.Size {
		return false, false
	}
	isBoss = g.Deck.Drawn == g.Deck.BossDrawIndex
	g.Deck.Drawn++
	if isBoss {
		g.Deck.BossDiscovered = true
	}
	return isBoss, true
}

// AddNewRoomFromExit follows an exit. It links to the room already at the
// target coordinate, or draws and places a new one. The returned index is
// -1 when nothing could be linked.
func (g *Graph) AddNewRoomFromExit(from int, direction string, exitIndex int) int {
	src, ok := g.Room(from)
	if !ok {
		logger.Log.Errorf("add room from exit: room %d out of range", from)
		return -1
	}
	dir, ok := ParseDirection(direction)
	if !ok {
		logger.Log.Warnf("add room from exit: invalid direction %q", direction)
		return -1
	}
	if exitIndex < 0 || exitIndex >= len(src.Exits) {
		logger.Log.Errorf("add room from exit: exit %d out of range for room %d", exitIndex, from)
		return -1
	}
	if src.Exits[exitIndex].Connected {
		return src.Exits[exitIndex].ConnectedRoomIndex
	}

	dx, dy := dir.Offset()
	tx, ty := src.GridX+dx, src.GridY+dy
	g.FreezeDeck()

	if existing, taken := g.RoomAt(tx, ty); taken {
		if g.EstablishConnection(from, exitIndex, existing) {
			g.CurrentRoomIndex = existing
			logger.Log.Infof("exit %d of room %d linked to room %d", exitIndex, from, existing)
		}
		return existing
	}

	isBoss, drawn := g.DrawRoomCard()
	if !drawn {
		logger.Log.Infof("room deck exhausted, exit %d of room %d stays closed", exitIndex, from)
		return -1
	}

	room := NewRoom(g.roller, dir.Opposite(), isBoss)
	idx := g.AddRoom(room)
	g.AssignGridCoordinates(idx, tx, ty)
	g.EstablishConnection(from, exitIndex, idx)
	g.CurrentRoomIndex = idx
	logger.Log.Infof("room %d discovered at (%d,%d) boss=%t", idx, tx, ty, isBoss)

	if g.onSpawn != nil {
		g.onSpawn(idx, room)
	}
	return idx
}

// EstablishConnection links an exit to a room in both directions. When the
// target has no exit facing back, one is created.
func (g *Graph) EstablishConnection(from, exitIndex, to int) bool {
	src, ok := g.Room(from)
	if !ok {
		logger.Log.Errorf("establish connection: room %d out of range", from)
		return false
	}
	dst, ok := g.Room(to)
	if !ok {
		logger.Log.Errorf("establish connection: room %d out of range", to)
		return false
	}
	if exitIndex < 0 || exitIndex >= len(src.Exits) {
		logger.Log.Errorf("establish connection: exit %d out of range for room %d", exitIndex, from)
		return false
	}

	exit := &src.Exits[exitIndex]
	exit.ConnectedRoomIndex = to
	exit.Connected = true

	back := exit.Direction.Opposite()
	reverse := dst.ExitFacing(back)
	if reverse < 0 {
		reverse = dst.CreateExit(back)
	}
	dst.Exits[reverse].ConnectedRoomIndex = from
	dst.Exits[reverse].Connected = true
	return true
}
