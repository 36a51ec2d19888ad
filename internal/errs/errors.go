// Package errs provides sentinel errors and structured error types shared by
// the parser, the position engine and the game state machine. Callers inspect
// them with errors.Is() and errors.As().
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for game action failures.
var (
	// ErrNotOnTurn indicates an action by the side that is not on roll.
	ErrNotOnTurn = errors.New("not on turn")

	// ErrEndOfGame indicates an action after the game has been decided.
	ErrEndOfGame = errors.New("end of game")

	// ErrUnsupportedAction indicates an action variant the game cannot apply.
	ErrUnsupportedAction = errors.New("unsupported action")

	// ErrNoResignation indicates an accept without a pending resignation.
	ErrNoResignation = errors.New("no resignation pending")

	// ErrNoDouble indicates a take or drop without a pending double.
	ErrNoDouble = errors.New("no double pending")

	// ErrMayNotDouble indicates a double by a side without access to the cube.
	ErrMayNotDouble = errors.New("may not double")

	// ErrTooManyMovements indicates a move with more than four movements.
	ErrTooManyMovements = errors.New("too many movements")

	// ErrInvalidDice indicates die values outside 1-6.
	ErrInvalidDice = errors.New("invalid dice")

	// ErrInvalidSide indicates an action without a side.
	ErrInvalidSide = errors.New("invalid side")

	// ErrIllegalMovement indicates a movement that cannot be executed.
	ErrIllegalMovement = errors.New("illegal movement")

	// ErrInvalidPosition indicates a position violating the checker invariants.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrMatchOver indicates a new game in a match that has been decided.
	ErrMatchOver = errors.New("match is over")

	// ErrNoSuchAction indicates an action index outside the recorded game.
	ErrNoSuchAction = errors.New("no such action")

	// ErrNoGame indicates a game action while no game is in progress.
	ErrNoGame = errors.New("no game in progress")

	// ErrMatchNotFound indicates a match missing from the archive.
	ErrMatchNotFound = errors.New("match not found")
)

// Sentinel errors for token stream consumers.
var (
	// ErrTokenMismatch indicates the next token has a different kind.
	ErrTokenMismatch = errors.New("token kind mismatch")

	// ErrNoTokens indicates the token stream is exhausted.
	ErrNoTokens = errors.New("no more tokens")
)

// GameError wraps a game action failure with the acting side and the action.
type GameError struct {
	Err    error  // One of the sentinel errors above
	Side   string // Acting side, "white" or "black"
	Action string // Action name, for example "roll"
	Detail string // Optional free text
}

// Error returns a formatted error message including all available context.
func (e *GameError) Error() string {
	var parts []string
	if e.Action != "" {
		parts = append(parts, e.Action)
	}
	if e.Side != "" {
		parts = append(parts, "by "+e.Side)
	}
	msg := strings.Join(parts, " ")
	if e.Detail != "" {
		if msg != "" {
			msg += ": "
		}
		msg += e.Detail
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if msg == "" {
		return "game error"
	}
	return msg
}

// Unwrap returns the underlying sentinel error.
func (e *GameError) Unwrap() error {
	return e.Err
}

// TokenError reports a token stream access failure.
type TokenError struct {
	Err      error  // ErrTokenMismatch or ErrNoTokens
	Index    int    // Position of the offending token
	Expected string // Requested kind
	Got      string // Actual kind
}

// Error returns a formatted error message.
func (e *TokenError) Error() string {
	if e.Got != "" {
		return fmt.Sprintf("token %d: expected %s, got %s: %v", e.Index, e.Expected, e.Got, e.Err)
	}
	return fmt.Sprintf("token %d: expected %s: %v", e.Index, e.Expected, e.Err)
}

// Unwrap returns the underlying error.
func (e *TokenError) Unwrap() error {
	return e.Err
}

// Wrap adds context to an error while preserving the underlying error.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf adds formatted context to an error while preserving the underlying
// error.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}
