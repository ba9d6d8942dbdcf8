// dungeon/square.go
package dungeon

// Direction is one of the four room edges.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// AllDirections lists directions in a fixed order.
func AllDirections() []Direction {
	return []Direction{North, South, East, West}
}

var opposites = map[Direction]Direction{
	North: South,
	South: North,
	East:  West,
	West:  East,
}

// ParseDirection validates a direction string.
func ParseDirection(s string) (Direction, bool) {
	d := Direction(s)
	_, ok := opposites[d]
	return d, ok
}

// Opposite returns the facing direction, or "" for an invalid direction.
func (d Direction) Opposite() Direction {
	return opposites[d]
}

// Offset is the grid step taken when leaving a room through this edge.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// Square is one cell of a room.
type Square struct {
	Wall     bool `json:"wall"`
	Entrance bool `json:"entrance"`
	Exit     bool `json:"exit"`
	Checked  bool `json:"checked"`
	Treasure bool `json:"treasure"`
	Monster  bool `json:"monster"`
}

// Walkable reports whether the square can ever be crossed.
func (s *Square) Walkable() bool {
	return !s.Wall
}

// Orthogonal reports whether two cells are at Manhattan distance 1 on exactly one axis.
func Orthogonal(x1, y1, x2, y2 int) bool {
	dx, dy := abs(x1-x2), abs(y1-y2)
	return dx+dy == 1
}

// Diagonal reports whether two cells touch only at a corner.
func Diagonal(x1, y1, x2, y2 int) bool {
	return abs(x1-x2) == 1 && abs(y1-y2) == 1
}

// Adjacent applies a connectivity policy: orthogonal always, diagonal only
// when the caller opts in.
func Adjacent(x1, y1, x2, y2 int, diagonal bool) bool {
	if Orthogonal(x1, y1, x2, y2) {
		return true
	}
	return diagonal && Diagonal(x1, y1, x2, y2)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
