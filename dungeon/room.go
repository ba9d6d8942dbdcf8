// dungeon/room.go
package dungeon

import (
	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/wfunc/dungeonserver/roll"
)

const (
	MinRoomWidth  = 6
	MaxRoomWidth  = 8
	MinRoomHeight = 4
	MaxRoomHeight = 6
)

// Exit is one exit record of a room. Keeping the direction, position and
// connection in one struct means appends and clears always stay in lockstep.
type Exit struct {
	Direction          Direction `json:"direction"`
	X                  int       `json:"x"`
	Y                  int       `json:"y"`
	ConnectedRoomIndex int       `json:"connectedRoomIndex"`
	Connected          bool      `json:"connected"`
}

// Room is a rectangular grid of squares placed on the dungeon grid.
type Room struct {
	Width             int       `json:"width"`
	Height            int       `json:"height"`
	Squares           []Square  `json:"squares"` // row-major
	EntranceDirection Direction `json:"entranceDirection,omitempty"`
	EntranceX         int       `json:"entranceX"`
	EntranceY         int       `json:"entranceY"`
	Exits             []Exit    `json:"exits"`
	GridX             int       `json:"gridX"`
	GridY             int       `json:"gridY"`
	IsBossRoom        bool      `json:"isBossRoom"`
}

// NewEmptyRoom builds a wall-free room with no entrance or exits.
func NewEmptyRoom(width, height int) *Room {
	return &Room{
		Width:     width,
		Height:    height,
		Squares:   make([]Square, width*height),
		EntranceX: -1,
		EntranceY: -1,
	}
}

// NewRoom rolls a random room. When entrance is a valid direction the
// entrance is carved on that edge and excluded from the exit candidates.
func NewRoom(roller dice.Roller, entrance Direction, isBoss bool) *Room {
	w := roll.Between(roller, MinRoomWidth, MaxRoomWidth)
	h := roll.Between(roller, MinRoomHeight, MaxRoomHeight)

	r := NewEmptyRoom(w, h)
	r.IsBossRoom = isBoss
	if _, ok := ParseDirection(string(entrance)); ok {
		r.SetEntrance(entrance)
	} else {
		entrance = ""
	}
	r.GenerateExits(roller, entrance)
	r.placeWalls(roller)
	return r
}

// InBounds reports whether (x,y) lies inside the grid.
func (r *Room) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width && y < r.Height
}

// At returns the square at (x,y) or nil when out of bounds.
func (r *Room) At(x, y int) *Square {
	if !r.InBounds(x, y) {
		return nil
	}
	return &r.Squares[y*r.Width+x]
}

// HasEntrance reports whether an entrance has been carved.
func (r *Room) HasEntrance() bool {
	return r.EntranceDirection != ""
}

// edgePoint is the centered cell of an edge.
func (r *Room) edgePoint(d Direction) (int, int) {
	switch d {
	case North:
		return r.Width / 2, 0
	case South:
		return r.Width / 2, r.Height - 1
	case West:
		return 0, r.Height / 2
	case East:
		return r.Width - 1, r.Height / 2
	}
	return -1, -1
}

// SetEntrance carves the entrance centered on the given edge.
func (r *Room) SetEntrance(d Direction) {
	x, y := r.edgePoint(d)
	sq := r.At(x, y)
	if sq == nil {
		return
	}
	sq.Entrance = true
	sq.Wall = false
	r.EntranceDirection = d
	r.EntranceX, r.EntranceY = x, y
	r.clearAround(x, y)
}

// GenerateExits clears any previous exits and rolls a fresh set, never
// facing the previous (entrance) direction.
func (r *Room) GenerateExits(roller dice.Roller, previous Direction) {
	for _, e := range r.Exits {
		if sq := r.At(e.X, e.Y); sq != nil {
			sq.Exit = false
		}
	}
	r.Exits = nil

	count := rollExitCount(roller)
	candidates := make([]Direction, 0, 4)
	for _, d := range AllDirections() {
		if d != previous {
			candidates = append(candidates, d)
		}
	}
	roll.Shuffle(roller, len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if count > len(candidates) {
		count = len(candidates)
	}
	for _, d := range candidates[:count] {
		r.CreateExit(d)
	}
}

// rollExitCount reads a d100 as {1:20%, 2:50%, 3:20%, 4:10%}.
func rollExitCount(roller dice.Roller) int {
	d100 := roll.Intn(roller, 100) + 1
	switch {
	case d100 <= 20:
		return 1
	case d100 <= 70:
		return 2
	case d100 <= 90:
		return 3
	default:
		return 4
	}
}

// CreateExit adds an unconnected exit centered on the edge and returns its index.
func (r *Room) CreateExit(d Direction) int {
	x, y := r.edgePoint(d)
	sq := r.At(x, y)
	if sq == nil {
		return -1
	}
	sq.Exit = true
	sq.Wall = false
	r.clearAround(x, y)
	r.Exits = append(r.Exits, Exit{
		Direction:          d,
		X:                  x,
		Y:                  y,
		ConnectedRoomIndex: -1,
	})
	if !r.connected() && r.HasEntrance() {
		r.carve(x, y, r.EntranceX, r.EntranceY)
	}
	return len(r.Exits) - 1
}

// ExitIndexAt returns the index of the exit at (x,y), or -1.
func (r *Room) ExitIndexAt(x, y int) int {
	for i, e := range r.Exits {
		if e.X == x && e.Y == y {
			return i
		}
	}
	return -1
}

// ExitFacing returns the index of the first exit on the given edge, or -1.
func (r *Room) ExitFacing(d Direction) int {
	for i, e := range r.Exits {
		if e.Direction == d {
			return i
		}
	}
	return -1
}

// IsStartAdjacent reports whether (x,y) may begin a crossing: it is the
// entrance, touches the entrance, or touches an already crossed square.
func (r *Room) IsStartAdjacent(x, y int) bool {
	if r.HasEntrance() {
		if x == r.EntranceX && y == r.EntranceY {
			return true
		}
		if Orthogonal(x, y, r.EntranceX, r.EntranceY) {
			return true
		}
	}
	return r.HasCheckedNeighbor(x, y)
}

// HasCheckedNeighbor reports whether an orthogonal neighbor is crossed.
func (r *Room) HasCheckedNeighbor(x, y int) bool {
	for _, n := range neighbors(x, y) {
		if sq := r.At(n[0], n[1]); sq != nil && sq.Checked {
			return true
		}
	}
	return false
}

// Cross marks a walkable, uncrossed square as checked.
func (r *Room) Cross(x, y int) bool {
	sq := r.At(x, y)
	if sq == nil || sq.Wall || sq.Checked {
		return false
	}
	sq.Checked = true
	return true
}

// RowRun returns the x coordinates of uncrossed squares in the run of
// non-wall cells containing (x,y). Walls end the run.
func (r *Room) RowRun(x, y int) []int {
	if sq := r.At(x, y); sq == nil || sq.Wall {
		return nil
	}
	left := x
	for left > 0 && !r.At(left-1, y).Wall {
		left--
	}
	right := x
	for right < r.Width-1 && !r.At(right+1, y).Wall {
		right++
	}
	var xs []int
	for i := left; i <= right; i++ {
		if !r.At(i, y).Checked {
			xs = append(xs, i)
		}
	}
	return xs
}

// UncrossedCount counts walkable squares not yet crossed.
func (r *Room) UncrossedCount() int {
	n := 0
	for i := range r.Squares {
		if !r.Squares[i].Wall && !r.Squares[i].Checked {
			n++
		}
	}
	return n
}

func (r *Room) clearWall(x, y int) {
	if sq := r.At(x, y); sq != nil {
		sq.Wall = false
	}
}

// clearAround keeps an entrance or exit walkable: edge cells clear their
// inward neighbor, other cells clear all four neighbors.
func (r *Room) clearAround(x, y int) {
	switch {
	case y == 0:
		r.clearWall(x, 1)
	case y == r.Height-1:
		r.clearWall(x, y-1)
	case x == 0:
		r.clearWall(1, y)
	case x == r.Width-1:
		r.clearWall(x-1, y)
	default:
		for _, n := range neighbors(x, y) {
			r.clearWall(n[0], n[1])
		}
	}
}

// carve clears walls on an L-shaped path between two cells.
func (r *Room) carve(x1, y1, x2, y2 int) {
	x, y := x1, y1
	for x != x2 {
		r.clearWall(x, y)
		if x < x2 {
			x++
		} else {
			x--
		}
	}
	for y != y2 {
		r.clearWall(x, y)
		if y < y2 {
			y++
		} else {
			y--
		}
	}
	r.clearWall(x, y)
}

func (r *Room) isProtected(x, y int) bool {
	sq := r.At(x, y)
	if sq.Entrance || sq.Exit {
		return true
	}
	for _, n := range neighbors(x, y) {
		if nsq := r.At(n[0], n[1]); nsq != nil && (nsq.Entrance || nsq.Exit) {
			return true
		}
	}
	return false
}

// placeWalls drops roughly area/10 walls, skipping cells next to an
// entrance or exit and any wall that would split the walkable area.
func (r *Room) placeWalls(roller dice.Roller) {
	target := (r.Width * r.Height) / 10
	if target == 0 {
		return
	}
	target = roll.Between(roller, target/2, target)

	placed := 0
	for attempts := 0; placed < target && attempts < target*20; attempts++ {
		x, y := roll.Intn(roller, r.Width), roll.Intn(roller, r.Height)
		sq := r.At(x, y)
		if sq.Wall || r.isProtected(x, y) {
			continue
		}
		sq.Wall = true
		if !r.connected() {
			sq.Wall = false
			continue
		}
		placed++
	}
}

// connected reports whether every walkable square is reachable from the
// entrance (or the first walkable square when there is none).
func (r *Room) connected() bool {
	startX, startY, total := -1, -1, 0
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if r.At(x, y).Wall {
				continue
			}
			total++
			if startX < 0 {
				startX, startY = x, y
			}
		}
	}
	if total == 0 {
		return true
	}
	if r.HasEntrance() {
		startX, startY = r.EntranceX, r.EntranceY
	}

	seen := make([]bool, len(r.Squares))
	queue := [][2]int{{startX, startY}}
	seen[startY*r.Width+startX] = true
	reached := 0
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		reached++
		for _, n := range neighbors(c[0], c[1]) {
			sq := r.At(n[0], n[1])
			if sq == nil || sq.Wall || seen[n[1]*r.Width+n[0]] {
				continue
			}
			seen[n[1]*r.Width+n[0]] = true
			queue = append(queue, n)
		}
	}
	return reached == total
}

func neighbors(x, y int) [][2]int {
	return [][2]int{{x, y - 1}, {x + 1, y}, {x, y + 1}, {x - 1, y}}
}
