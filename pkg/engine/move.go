package engine

import (
	"strconv"
	"strings"
)

// MoveStatus classifies the legality of a move.
type MoveStatus int

const (
	Legal            MoveStatus = iota // Move is legal
	Illegal                            // No legal explanation found
	Blocked                            // A landing point is held by the opponent
	Dancing                            // A checker was moved while one stayed on the bar
	TooManyMoves                       // More checkers moved than dice allow
	PrematureBearOff                   // Bore off with checkers outside the home board
	IllegalWaste                       // Bore off with a higher die while higher checkers remain
	UseAll                             // Not all usable dice were played
	UseHigher                          // Only one die playable and the lower one was used
	TrySwap                            // Both dice were playable in the other order
)

var moveStatusNames = [...]string{
	Legal:            "legal",
	Illegal:          "illegal",
	Blocked:          "blocked",
	Dancing:          "dancing",
	TooManyMoves:     "too many moves",
	PrematureBearOff: "premature bear-off",
	IllegalWaste:     "illegal waste",
	UseAll:           "use all",
	UseHigher:        "use higher",
	TrySwap:          "try swap",
}

// String returns the status name.
func (s MoveStatus) String() string {
	if s >= 0 && int(s) < len(moveStatusNames) {
		return moveStatusNames[s]
	}
	return "unknown"
}

// Movement is one checker moved by one die. Points are numbered from the
// mover's point of view: 25 is the bar, 0 means borne off.
type Movement struct {
	From int
	To   int
	Die  int
}

// String formats the movement in FIBS notation, for example "bar/22" or "3/off".
func (m Movement) String() string {
	return pointName(m.From) + "/" + pointName(m.To)
}

func pointName(point int) string {
	switch {
	case point >= BarPoint:
		return "bar"
	case point <= OffPoint:
		return "off"
	default:
		return strconv.Itoa(point)
	}
}

// Move is a sequence of up to four movements together with its
// classification.
type Move struct {
	Movements []Movement
	Status    MoveStatus
}

// String formats the movements separated by blanks.
func (m Move) String() string {
	parts := make([]string, len(m.Movements))
	for i, mv := range m.Movements {
		parts[i] = mv.String()
	}
	return strings.Join(parts, " ")
}

// candidate is one hypothesis of how the dice were played.
type candidate []Movement

func movement(from, die int) Movement {
	to := from - die
	if to < OffPoint {
		to = OffPoint
	}
	return Movement{From: from, To: to, Die: die}
}

// findNonDouble returns the candidate moves for two different dice.
// froms lists the points checkers left, highest first.
func findNonDouble(froms []int, die1, die2 int) []candidate {
	switch len(froms) {
	case 0:
		return []candidate{{}}
	case 1:
		f := froms[0]
		return []candidate{
			{movement(f, die1)},
			{movement(f, die2)},
			{movement(f, die1), movement(f-die1, die2)},
			{movement(f, die2), movement(f-die2, die1)},
			{movement(f, die1), movement(f, die2)},
		}
	case 2:
		f1, f2 := froms[0], froms[1]
		return []candidate{
			{movement(f1, die1), movement(f2, die2)},
			{movement(f1, die2), movement(f2, die1)},
		}
	}
	return nil
}

// findDouble returns the candidate moves for a double, one per entry of the
// pattern table matching the number of origins.
func findDouble(froms []int, die int) []candidate {
	if len(froms) == 0 {
		return []candidate{{}}
	}
	if len(froms) > len(movePatterns) {
		return nil
	}
	patterns := movePatterns[len(froms)-1]
	candidates := make([]candidate, 0, len(patterns))
	for _, pattern := range patterns {
		var c candidate
		for _, s := range pattern {
			from := froms[s.origin]
			for k := 0; k < s.steps; k++ {
				c = append(c, movement(from, die))
				from -= die
			}
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// replay executes c on a copy of b and returns the resulting board and the
// first rule violation seen. Soft violations do not stop the replay so that
// a matching result can still be explained.
func (b board) replay(c candidate) (board, MoveStatus) {
	status := Legal
	soft := func(s MoveStatus) {
		if status == Legal {
			status = s
		}
	}
	for _, m := range c {
		if m.From < 1 || m.From > BarPoint || b.mine[m.From] == 0 {
			return b, Illegal
		}
		if b.mine[BarPoint] > 0 && m.From != BarPoint {
			soft(Dancing)
		}
		to := m.From - m.Die
		if to >= 1 {
			if b.theirs[to] >= 2 {
				soft(Blocked)
			}
		} else if !b.allHome() {
			soft(PrematureBearOff)
		} else if to < 0 && b.checkerAbove(m.From) {
			soft(IllegalWaste)
		}
		b.step(m.From, m.Die)
	}
	return b, status
}

// froms returns the points from which the mover has fewer checkers in
// after than in before, highest first.
func (b *board) froms(after *board) []int {
	var points []int
	for i := BarPoint; i >= 1; i-- {
		if after.mine[i] < b.mine[i] {
			points = append(points, i)
		}
	}
	return points
}

// CheckMove infers the move side made to get from before to after with the
// dice of before and classifies it.
func CheckMove(before, after Position, side Side) Move {
	move := Move{Status: Illegal}

	die1, die2 := abs(before.Dice[0]), abs(before.Dice[1])
	if side == None || die1 < 1 || die1 > 6 || die2 < 1 || die2 > 6 {
		return move
	}

	b := newBoard(before, side)
	a := newBoard(after, side)

	froms := b.froms(&a)
	if len(froms) > 4 || (die1 != die2 && len(froms) > 2) {
		move.Status = TooManyMoves
		return move
	}

	var candidates []candidate
	if die1 == die2 {
		candidates = findDouble(froms, die1)
	} else {
		candidates = findNonDouble(froms, die1, die2)
	}

	var best candidate
	found := false
	for _, c := range candidates {
		result, status := b.replay(c)
		if result != a {
			continue
		}
		if status == Legal {
			best, move.Status, found = c, Legal, true
			break
		}
		if !found {
			best, move.Status, found = c, status, true
		}
	}
	if !found {
		return move
	}

	move.Movements = append([]Movement{}, best...)
	if move.Status == Legal {
		move.Status = b.checkDiceUsage(&a, move.Movements, die1, die2)
	}
	return move
}

// checkDiceUsage verifies that a move using fewer dice than rolled was
// forced.
func (b board) checkDiceUsage(after *board, movements []Movement, die1, die2 int) MoveStatus {
	used := len(movements)

	if die1 == die2 {
		if used < 4 && after.canMove(die1) {
			return UseAll
		}
		return Legal
	}

	switch used {
	case 0:
		if b.canMove(die1) || b.canMove(die2) {
			return UseAll
		}
	case 1:
		played := movements[0].Die
		other := die1
		if played == die1 {
			other = die2
		}
		if after.canMove(other) || b.canMove2(played, other) {
			return UseAll
		}
		if b.canMove2(other, played) {
			return TrySwap
		}
		if played < other && b.canMove(other) && !b.eitherDieBearsOff(die1, die2) {
			return UseHigher
		}
	}
	return Legal
}

// eitherDieBearsOff reports whether the backmost checker can be borne off
// with either die.
func (b *board) eitherDieBearsOff(die1, die2 int) bool {
	if !b.allHome() {
		return false
	}
	back := b.backmost()
	return back <= die1 && back <= die2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
