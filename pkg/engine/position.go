// Package engine provides the backgammon position model and the move
// legality engine used to interpret FIBS game records.
package engine

import (
	"fmt"

	"github.com/yourusername/gofibs/internal/errs"
)

// Side identifies one of the two players.
// White is the player running the client (index 0), Black the opponent.
type Side int

const (
	Black Side = -1
	None  Side = 0
	White Side = 1
)

// Other returns the opponent of s. None stays None.
func (s Side) Other() Side {
	return -s
}

// Index returns the array index used for per-side fields (0 = White, 1 = Black).
func (s Side) Index() int {
	if s == Black {
		return 1
	}
	return 0
}

// String returns "white", "black" or "none".
func (s Side) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Board geometry
const (
	NumPoints   = 24 // Points on the board
	NumCheckers = 15 // Checkers per side
	BarPoint    = 25 // Mover's bar in mover-relative numbering
	OffPoint    = 0  // Borne off in mover-relative numbering
)

// Position is a snapshot of a backgammon board.
//
// Points[0] is White's one point and Points[23] White's 24 point. Positive
// counts are White checkers, negative counts Black checkers. White moves
// from index 23 toward index 0, Black in the opposite direction.
type Position struct {
	Players     [2]string // White (self) and Black (opponent) names
	Points      [24]int   // Signed checker counts
	Bar         [2]int    // Checkers on the bar per side
	Dice        [2]int    // Signed by owner, both zero when no roll is pending
	Cube        int       // Current cube value (>= 1)
	CubeTurned  Side      // Side the cube was turned to, or None
	MayDouble   [2]bool   // Whether each side may offer a double
	Scores      [2]int    // Match score
	MatchLength int       // 0 = unlimited
	Turn        Side      // Side on roll
	GameInfo    string    // Display only
	Status      string    // Display only
}

// NewPosition returns the standard starting position with a centered cube.
func NewPosition() Position {
	p := Position{
		Cube:      1,
		MayDouble: [2]bool{true, true},
	}
	p.ResetBoard()
	return p
}

// ResetBoard puts all checkers back to the starting layout and clears
// the dice. Names, scores and cube state are left alone.
func (p *Position) ResetBoard() {
	p.Points = [24]int{}
	p.Points[23] = 2 // White 24 point
	p.Points[12] = 5 // White 13 point
	p.Points[7] = 3  // White 8 point
	p.Points[5] = 5  // White 6 point

	p.Points[0] = -2  // Black 24 point
	p.Points[11] = -5 // Black 13 point
	p.Points[16] = -3 // Black 8 point
	p.Points[18] = -5 // Black 6 point

	p.Bar = [2]int{}
	p.Dice = [2]int{}
}

// Checkers returns the number of checkers side has on the board and the bar.
func (p Position) Checkers(side Side) int {
	n := p.Bar[side.Index()]
	for _, v := range p.Points {
		if v*int(side) > 0 {
			n += v * int(side)
		}
	}
	return n
}

// BorneOff returns the number of checkers side has removed from the board.
func (p Position) BorneOff(side Side) int {
	return NumCheckers - p.Checkers(side)
}

// PipCount returns the total number of pips side needs to bear off.
func (p Position) PipCount(side Side) int {
	pips := p.Bar[side.Index()] * BarPoint
	for i, v := range p.Points {
		switch {
		case side == White && v > 0:
			pips += (i + 1) * v
		case side == Black && v < 0:
			pips += (NumPoints - i) * -v
		}
	}
	return pips
}

// GameOverValue returns the signed number of points (before cube) won by
// the side that has borne off all its checkers: 1 for a single game, 2 for
// a gammon, 3 for a backgammon. It returns 0 while both sides still have
// checkers in play.
func (p Position) GameOverValue() int {
	for _, winner := range []Side{White, Black} {
		if p.Checkers(winner) != 0 {
			continue
		}
		loser := winner.Other()
		value := 1
		if p.BorneOff(loser) == 0 {
			value = 2
			if p.Bar[loser.Index()] > 0 || p.inHomeBoard(winner, loser) {
				value = 3
			}
		}
		return int(winner) * value
	}
	return 0
}

// inHomeBoard reports whether side has checkers in owner's home board.
func (p Position) inHomeBoard(owner, side Side) bool {
	for i := 0; i < 6; i++ {
		idx := i
		if owner == Black {
			idx = NumPoints - 1 - i
		}
		if p.Points[idx]*int(side) > 0 {
			return true
		}
	}
	return false
}

// SameBoard reports whether both positions have identical checker layouts.
func (p Position) SameBoard(o Position) bool {
	return p.Points == o.Points && p.Bar == o.Bar
}

// Validate checks the checker count and dice invariants.
func (p Position) Validate() error {
	for _, side := range []Side{White, Black} {
		if p.Bar[side.Index()] < 0 {
			return fmt.Errorf("%w: negative bar count for %s", errs.ErrInvalidPosition, side)
		}
		if n := p.Checkers(side); n > NumCheckers {
			return fmt.Errorf("%w: %s has %d checkers", errs.ErrInvalidPosition, side, n)
		}
	}
	if p.Cube < 1 {
		return fmt.Errorf("%w: cube value %d", errs.ErrInvalidPosition, p.Cube)
	}
	for _, d := range p.Dice {
		if d < -6 || d > 6 {
			return fmt.Errorf("%w: die value %d", errs.ErrInvalidPosition, d)
		}
		if d != 0 && p.Turn != None && (d > 0) != (p.Turn == White) {
			return fmt.Errorf("%w: dice do not belong to %s", errs.ErrInvalidPosition, p.Turn)
		}
	}
	return nil
}
