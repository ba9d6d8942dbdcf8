// monster/catalog.go
package monster

import (
	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/google/uuid"

	"github.com/wfunc/dungeonserver/roll"
)

// Pattern is a monster template. Rows use '#' for filled and '.' for empty cells.
type Pattern struct {
	Name   string
	Attack int
	Rows   []string
	Boss   bool
}

// DefaultPatterns is the regular monster catalog.
var DefaultPatterns = []Pattern{
	{Name: "Giant Rat", Attack: 1, Rows: []string{"##.", "###"}},
	{Name: "Slime", Attack: 1, Rows: []string{"####"}},
	{Name: "Goblin", Attack: 1, Rows: []string{".#.", "###", "#.#"}},
	{Name: "Skeleton", Attack: 2, Rows: []string{".#.", "###", ".#.", "#.#"}},
	{Name: "Orc", Attack: 2, Rows: []string{"###", "###", "#.#"}},
	{Name: "Ogre", Attack: 3, Rows: []string{"####", "####", "#..#"}},
}

// BossPattern is drawn only for the boss room.
var BossPattern = Pattern{
	Name:   "Dragon",
	Attack: 3,
	Rows:   []string{"#...#", "#####", "#####", ".###."},
	Boss:   true,
}

// Instantiate stamps the pattern into a monster card waiting in a room.
func (p Pattern) Instantiate(id string, roomIndex int) *Card {
	h := len(p.Rows)
	w := 0
	for _, row := range p.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	c := &Card{
		ID:                   id,
		Name:                 p.Name,
		Width:                w,
		Height:               h,
		Squares:              make([]Square, w*h),
		AttackRating:         p.Attack,
		ConnectedToRoomIndex: roomIndex,
		IsBoss:               p.Boss,
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := &c.Squares[y*w+x]
			s.X, s.Y = x, y
			s.Filled = x < len(p.Rows[y]) && p.Rows[y][x] == '#'
		}
	}
	return c
}

// Deck deals monsters from a shuffled catalog and reshuffles when it runs out.
type Deck struct {
	patterns []Pattern
	boss     Pattern
	order    []int
	roller   dice.Roller

	// NewID generates monster ids; tests replace it for stable ids.
	NewID func() string
}

// NewDeck builds a monster deck over the given catalog.
func NewDeck(roller dice.Roller, patterns []Pattern, boss Pattern) *Deck {
	return &Deck{
		patterns: patterns,
		boss:     boss,
		roller:   roller,
		NewID:    uuid.NewString,
	}
}

// Draw deals the next regular monster into a room.
func (d *Deck) Draw(roomIndex int) *Card {
	if len(d.patterns) == 0 {
		return nil
	}
	if len(d.order) == 0 {
		d.order = roll.Perm(d.roller, len(d.patterns))
	}
	next := d.order[0]
	d.order = d.order[1:]
	return d.patterns[next].Instantiate(d.NewID(), roomIndex)
}

// DrawBoss deals the boss monster into a room.
func (d *Deck) DrawBoss(roomIndex int) *Card {
	return d.boss.Instantiate(d.NewID(), roomIndex)
}

// Remaining is the number of monsters left before the next reshuffle.
func (d *Deck) Remaining() int {
	return len(d.order)
}
