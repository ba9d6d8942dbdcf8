// monster/monster.go
package monster

// Square is one cell of a monster pattern.
type Square struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Filled  bool `json:"filled"`
	Checked bool `json:"checked"`
}

// Card is a monster instance drawn from the monster deck.
type Card struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Width                int      `json:"width"`
	Height               int      `json:"height"`
	Squares              []Square `json:"squares"` // row-major
	AttackRating         int      `json:"attackRating"`
	PlayerOwnerID        string   `json:"playerOwnerId"`
	ConnectedToRoomIndex int      `json:"connectedToRoomIndex"`
	IsBoss               bool     `json:"isBoss"`
}

// InBounds reports whether (x,y) lies inside the pattern.
func (c *Card) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.Width && y < c.Height
}

// At returns the square at (x,y) or nil.
func (c *Card) At(x, y int) *Square {
	if !c.InBounds(x, y) {
		return nil
	}
	return &c.Squares[y*c.Width+x]
}

// Owned reports whether a player has claimed the monster.
func (c *Card) Owned() bool {
	return c.PlayerOwnerID != ""
}

// Claimable reports whether the monster still waits in its room.
func (c *Card) Claimable() bool {
	return !c.Owned() && c.ConnectedToRoomIndex >= 0
}

// Claim transfers the monster from its room to a player. Ownership moves once.
func (c *Card) Claim(playerID string) bool {
	if !c.Claimable() || playerID == "" {
		return false
	}
	c.PlayerOwnerID = playerID
	c.ConnectedToRoomIndex = -1
	return true
}

// Completed reports whether every filled square is checked.
func (c *Card) Completed() bool {
	for _, s := range c.Squares {
		if s.Filled && !s.Checked {
			return false
		}
	}
	return true
}

// Cross checks a filled, unchecked square.
func (c *Card) Cross(x, y int) bool {
	s := c.At(x, y)
	if s == nil || !s.Filled || s.Checked {
		return false
	}
	s.Checked = true
	return true
}

// Uncrossed returns every filled square still unchecked.
func (c *Card) Uncrossed() []*Square {
	var out []*Square
	for i := range c.Squares {
		if c.Squares[i].Filled && !c.Squares[i].Checked {
			out = append(out, &c.Squares[i])
		}
	}
	return out
}

// IsStartAdjacent reports whether (x,y) may open a crossing on this
// monster: a pattern edge cell, a cell bordering an empty cell, or a cell
// orthogonally next to a checked square.
func (c *Card) IsStartAdjacent(x, y int) bool {
	if !c.InBounds(x, y) {
		return false
	}
	if x == 0 || y == 0 || x == c.Width-1 || y == c.Height-1 {
		return true
	}
	for _, n := range [][2]int{{x, y - 1}, {x + 1, y}, {x, y + 1}, {x - 1, y}} {
		s := c.At(n[0], n[1])
		if s == nil {
			continue
		}
		if !s.Filled || s.Checked {
			return true
		}
	}
	return false
}
