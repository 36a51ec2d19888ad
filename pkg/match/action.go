// Package match records backgammon games as sequences of actions and
// aggregates them into matches.
//
// A Game starts from an initial position. Every action appended to it
// produces exactly one new position snapshot. A Match owns the games and
// decides which of them is played under the Crawford rule.
package match

import (
	"fmt"
	"strings"

	"github.com/yourusername/gofibs/pkg/engine"
)

// Action is one event of a game. The implementations are Roll, Move,
// Double, Drop, Take, Resign, Reject, Accept and Setup.
type Action interface {
	// Name returns the lower case action name, for example "roll".
	Name() string
	isAction()
}

// Roll sets the dice of the side on roll.
type Roll struct {
	Die1, Die2 int
}

// Move executes up to four movements in the mover's numbering.
type Move struct {
	Movements []engine.Movement
}

// Double offers the cube to the opponent.
type Double struct{}

// Drop refuses a double and ends the game.
type Drop struct{}

// Take accepts a double.
type Take struct{}

// Resign offers to end the game for Value points times the cube
// (1 = single, 2 = gammon, 3 = backgammon).
type Resign struct {
	Value int
}

// Reject refuses a resignation.
type Reject struct{}

// Accept accepts a resignation and ends the game.
type Accept struct{}

// Setup replaces the position outright, for example when joining a match
// in progress.
type Setup struct {
	Position engine.Position
}

func (Roll) Name() string   { return "roll" }
func (Move) Name() string   { return "move" }
func (Double) Name() string { return "double" }
func (Drop) Name() string   { return "drop" }
func (Take) Name() string   { return "take" }
func (Resign) Name() string { return "resign" }
func (Reject) Name() string { return "reject" }
func (Accept) Name() string { return "accept" }
func (Setup) Name() string  { return "setup" }

func (Roll) isAction()   {}
func (Move) isAction()   {}
func (Double) isAction() {}
func (Drop) isAction()   {}
func (Take) isAction()   {}
func (Resign) isAction() {}
func (Reject) isAction() {}
func (Accept) isAction() {}
func (Setup) isAction()  {}

var resignNames = [...]string{1: "a single game", 2: "a gammon", 3: "a backgammon"}

// Describe returns a human readable line for action a by player.
func Describe(player string, a Action) string {
	switch a := a.(type) {
	case Roll:
		return fmt.Sprintf("%s rolls %d and %d", player, a.Die1, a.Die2)
	case Move:
		parts := make([]string, len(a.Movements))
		for i, m := range a.Movements {
			parts[i] = m.String()
		}
		if len(parts) == 0 {
			return player + " cannot move"
		}
		return player + " moves " + strings.Join(parts, " ")
	case Double:
		return player + " doubles"
	case Drop:
		return player + " refuses the double"
	case Take:
		return player + " accepts the double"
	case Resign:
		what := "the game"
		if a.Value > 0 && a.Value < len(resignNames) {
			what = resignNames[a.Value]
		}
		return player + " resigns " + what
	case Reject:
		return player + " rejects the resignation"
	case Accept:
		return player + " accepts the resignation"
	case Setup:
		return "position set up"
	}
	return player + " does something unknown"
}
