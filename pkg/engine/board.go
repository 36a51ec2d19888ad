package engine

import (
	"fmt"

	"github.com/yourusername/gofibs/internal/errs"
)

// board is a position seen from the side to move.
// mine[1..24] are the mover's checkers with the home board at 1..6 and
// mine[25] the mover's bar. theirs[1..24] are the opponent's checkers in the
// same numbering and theirs[0] the opponent's bar. mine[0] and theirs[25]
// stay zero.
type board struct {
	mine   [26]int
	theirs [26]int
}

// newBoard translates p into the mover-relative layout for side.
func newBoard(p Position, side Side) board {
	var b board
	for i, v := range p.Points {
		point := i + 1
		if side == Black {
			v = -v
			point = NumPoints - i
		}
		if v > 0 {
			b.mine[point] = v
		} else {
			b.theirs[point] = -v
		}
	}
	b.mine[BarPoint] = p.Bar[side.Index()]
	b.theirs[0] = p.Bar[side.Other().Index()]
	return b
}

// store writes the checker layout of b back into p.
func (b board) store(p *Position, side Side) {
	for point := 1; point <= NumPoints; point++ {
		v := b.mine[point] - b.theirs[point]
		idx := point - 1
		if side == Black {
			v = -v
			idx = NumPoints - point
		}
		p.Points[idx] = v
	}
	p.Bar[side.Index()] = b.mine[BarPoint]
	p.Bar[side.Other().Index()] = b.theirs[0]
}

// allHome reports whether every mover checker is inside the home board.
func (b *board) allHome() bool {
	for i := 7; i <= BarPoint; i++ {
		if b.mine[i] > 0 {
			return false
		}
	}
	return true
}

// backmost returns the highest occupied mover point, 0 if none is left.
func (b *board) backmost() int {
	for i := BarPoint; i >= 1; i-- {
		if b.mine[i] > 0 {
			return i
		}
	}
	return 0
}

// checkerAbove reports whether the mover has a checker on a point above
// from inside the home board.
func (b *board) checkerAbove(from int) bool {
	for i := from + 1; i <= 6; i++ {
		if b.mine[i] > 0 {
			return true
		}
	}
	return false
}

// legalStep reports whether a single checker may move from from by die pips.
func (b *board) legalStep(from, die int) bool {
	if from < 1 || from > BarPoint || b.mine[from] == 0 {
		return false
	}
	if b.mine[BarPoint] > 0 && from != BarPoint {
		return false
	}
	to := from - die
	if to >= 1 {
		return b.theirs[to] < 2
	}
	if !b.allHome() {
		return false
	}
	return to == 0 || !b.checkerAbove(from)
}

// step moves one checker from from by die pips without any legality check
// and returns the landing point (0 when borne off). A blot on the landing
// point is sent to the bar.
func (b *board) step(from, die int) int {
	b.mine[from]--
	to := from - die
	if to <= 0 {
		return OffPoint
	}
	if b.theirs[to] == 1 {
		b.theirs[to] = 0
		b.theirs[0]++
	}
	b.mine[to]++
	return to
}

// canMove reports whether at least one checker can move die pips.
func (b *board) canMove(die int) bool {
	for from := BarPoint; from >= 1; from-- {
		if b.legalStep(from, die) {
			return true
		}
	}
	return false
}

// canMove2 reports whether a legal sequence playing die1 and then die2 exists.
// b is received by value and serves as scratch board.
func (b board) canMove2(die1, die2 int) bool {
	for from := BarPoint; from >= 1; from-- {
		if !b.legalStep(from, die1) {
			continue
		}
		saved := b
		b.step(from, die1)
		if b.canMove(die2) {
			return true
		}
		b = saved
	}
	return false
}

// CanMove reports whether side can play die from position p.
func CanMove(p Position, side Side, die int) bool {
	b := newBoard(p, side)
	return b.canMove(die)
}

// CanMove2 reports whether side can play die1 followed by die2 from p.
func CanMove2(p Position, side Side, die1, die2 int) bool {
	return newBoard(p, side).canMove2(die1, die2)
}

// ApplyMove executes movements for side on p. Movements use mover-relative
// numbering (25 = bar, 0 = off). It does not check dice or bear-off rules,
// only that each movement has a checker to move and a landing point not held
// by two or more opposing checkers. On error p is left unchanged.
func ApplyMove(p *Position, side Side, movements []Movement) error {
	if side != White && side != Black {
		return errs.ErrInvalidSide
	}
	if len(movements) > 4 {
		return fmt.Errorf("%w: %d movements", errs.ErrTooManyMovements, len(movements))
	}

	b := newBoard(*p, side)
	for _, m := range movements {
		if m.From < 1 || m.From > BarPoint || m.To < OffPoint || m.To >= m.From {
			return fmt.Errorf("%w: %s", errs.ErrIllegalMovement, m)
		}
		if b.mine[m.From] == 0 {
			return fmt.Errorf("%w: no checker on %s", errs.ErrIllegalMovement, pointName(m.From))
		}
		if m.To != OffPoint && b.theirs[m.To] >= 2 {
			return fmt.Errorf("%w: %s is blocked", errs.ErrIllegalMovement, pointName(m.To))
		}
		b.step(m.From, m.From-m.To)
	}
	b.store(p, side)
	return nil
}
