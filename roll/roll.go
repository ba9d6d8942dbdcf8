// Package roll turns dice.Roller faces into the index and range draws the
// dungeon needs (room sizes, exit counts, shuffles, counter targets).
package roll

import (
	"fmt"
	"math/rand"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/wfunc/dungeonserver/logger"
)

// Default is the toolkit's shared roller.
func Default() dice.Roller {
	return dice.DefaultRoller
}

// Intn returns a value in [0,n). A failed roll counts as the lowest face.
func Intn(r dice.Roller, n int) int {
	if n <= 1 {
		return 0
	}
	face, err := r.Roll(n)
	if err != nil {
		logger.Log.Warnf("roll d%d: %v", n, err)
		return 0
	}
	if face < 1 || face > n {
		logger.Log.Warnf("roll d%d: face %d out of range", n, face)
		return 0
	}
	return face - 1
}

// Between returns a value in [lo,hi].
func Between(r dice.Roller, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + Intn(r, hi-lo+1)
}

// Shuffle is Fisher–Yates with each swap index drawn from r.
func Shuffle(r dice.Roller, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, Intn(r, i+1))
	}
}

// Perm returns a shuffled permutation of [0,n).
func Perm(r dice.Roller, n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	Shuffle(r, n, func(i, j int) { p[i], p[j] = p[j], p[i] })
	return p
}

// Seeded is a reproducible roller for replaying a dungeon from a seed.
type Seeded struct {
	src *rand.Rand
}

// NewSeeded returns a roller whose sequence depends only on seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{src: rand.New(rand.NewSource(seed))}
}

func (s *Seeded) Roll(size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("invalid die size %d", size)
	}
	return s.src.Intn(size) + 1, nil
}

func (s *Seeded) RollN(count, size int) ([]int, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid dice count %d", count)
	}
	out := make([]int, count)
	for i := range out {
		v, err := s.Roll(size)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Script replays fixed faces in order and wraps around. A face larger than
// the die folds back into range, so one script can drive mixed die sizes.
type Script struct {
	faces []int
	pos   int
}

// NewScript returns a roller that yields faces in order.
func NewScript(faces ...int) *Script {
	return &Script{faces: faces}
}

func (s *Script) Roll(size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("invalid die size %d", size)
	}
	if len(s.faces) == 0 {
		return 1, nil
	}
	face := s.faces[s.pos%len(s.faces)]
	s.pos++
	if face < 1 {
		face = 1
	}
	return (face-1)%size + 1, nil
}

func (s *Script) RollN(count, size int) ([]int, error) {
	out := make([]int, 0, count)
	for i := 0; i < count; i++ {
		v, err := s.Roll(size)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Rolls is how many faces have been consumed.
func (s *Script) Rolls() int {
	return s.pos
}
