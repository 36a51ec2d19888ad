package match

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/gofibs/internal/errs"
	"github.com/yourusername/gofibs/pkg/engine"
)

// Snapshot is one recorded action together with the position it produced.
type Snapshot struct {
	Action   Action
	Side     engine.Side
	Position engine.Position
}

// Game is an initial position plus the append-only list of snapshots
// produced by its actions. A game is over once its score is nonzero.
type Game struct {
	initial   engine.Position
	snapshots []Snapshot
	score     int
	crawford  bool
	log       *zap.Logger
}

// NewGame creates a game starting from initial. A nil logger disables
// logging.
func NewGame(initial engine.Position, crawford bool, log *zap.Logger) *Game {
	if log == nil {
		log = zap.NewNop()
	}
	return &Game{
		initial:  initial,
		crawford: crawford,
		log:      log,
	}
}

// InitialPosition returns the position the game started from.
func (g *Game) InitialPosition() engine.Position {
	return g.initial
}

// Position returns the current position.
func (g *Game) Position() engine.Position {
	if len(g.snapshots) == 0 {
		return g.initial
	}
	return g.snapshots[len(g.snapshots)-1].Position
}

// Len returns the number of recorded actions.
func (g *Game) Len() int {
	return len(g.snapshots)
}

// NthAction returns the n-th action (counting from 0) and the side that
// performed it.
func (g *Game) NthAction(n int) (Action, engine.Side, error) {
	if n < 0 || n >= len(g.snapshots) {
		return nil, engine.None, fmt.Errorf("%w: %d of %d", errs.ErrNoSuchAction, n, len(g.snapshots))
	}
	s := g.snapshots[n]
	return s.Action, s.Side, nil
}

// Snapshots returns a copy of the recorded snapshots.
func (g *Game) Snapshots() []Snapshot {
	return append([]Snapshot(nil), g.snapshots...)
}

// Score returns the points won, positive for White and negative for Black,
// or 0 while the game is in progress.
func (g *Game) Score() int {
	return g.score
}

// Over reports whether the game has been decided.
func (g *Game) Over() bool {
	return g.score != 0
}

// Winner returns the side that won, or None.
func (g *Game) Winner() engine.Side {
	switch {
	case g.score > 0:
		return engine.White
	case g.score < 0:
		return engine.Black
	}
	return engine.None
}

// IsCrawford reports whether the game is played under the Crawford rule.
func (g *Game) IsCrawford() bool {
	return g.crawford
}

// last returns the most recent snapshot, if any.
func (g *Game) last() (Snapshot, bool) {
	if len(g.snapshots) == 0 {
		return Snapshot{}, false
	}
	return g.snapshots[len(g.snapshots)-1], true
}

// AddAction applies a on behalf of side. On error the game is unchanged.
func (g *Game) AddAction(side engine.Side, a Action) error {
	fail := func(err error, detail string) error {
		e := &errs.GameError{Err: err, Side: side.String(), Detail: detail}
		if a != nil {
			e.Action = a.Name()
		}
		return e
	}

	if g.Over() {
		return fail(errs.ErrEndOfGame, "")
	}
	if _, ok := a.(Setup); !ok && side != engine.White && side != engine.Black {
		return fail(errs.ErrInvalidSide, "")
	}

	p := g.Position()
	var points int // nonzero ends the game

	switch a := a.(type) {
	case Roll:
		if p.Turn != engine.None && p.Turn != side {
			return fail(errs.ErrNotOnTurn, "")
		}
		if a.Die1 < 1 || a.Die1 > 6 || a.Die2 < 1 || a.Die2 > 6 {
			return fail(errs.ErrInvalidDice, fmt.Sprintf("%d and %d", a.Die1, a.Die2))
		}
		p.Turn = side
		p.Dice = [2]int{a.Die1 * int(side), a.Die2 * int(side)}

	case Move:
		if p.Turn != engine.None && p.Turn != side {
			return fail(errs.ErrNotOnTurn, "")
		}
		if len(a.Movements) > 4 {
			return fail(errs.ErrTooManyMovements, fmt.Sprintf("%d movements", len(a.Movements)))
		}
		if err := engine.ApplyMove(&p, side, a.Movements); err != nil {
			return fail(err, "")
		}
		p.Dice = [2]int{}
		p.Turn = side.Other()
		if v := p.GameOverValue(); v != 0 {
			points = v * p.Cube
		}

	case Double:
		// A double answered by a double is a redouble. It comes from the
		// side not on turn and doubles the cube at once.
		redouble := g.doublePendingFor(side)
		if prev, ok := g.last(); ok && !redouble {
			if _, again := prev.Action.(Double); again {
				return fail(errs.ErrMayNotDouble, "double already offered")
			}
		}
		if !redouble && p.Turn != engine.None && p.Turn != side {
			return fail(errs.ErrNotOnTurn, "")
		}
		// A redouble ignores the redoubler's cube access.
		if !redouble && !p.MayDouble[side.Index()] {
			return fail(errs.ErrMayNotDouble, "")
		}
		if redouble {
			p.Cube *= 2
		} else {
			p.Turn = side
		}
		p.CubeTurned = side.Other()

	case Drop:
		if !g.doublePendingFor(side) {
			return fail(errs.ErrNoDouble, "")
		}
		points = int(side.Other()) * p.Cube

	case Take:
		if !g.doublePendingFor(side) {
			return fail(errs.ErrNoDouble, "")
		}
		p.Cube *= 2
		p.CubeTurned = engine.None
		p.MayDouble[side.Index()] = true
		p.MayDouble[side.Other().Index()] = false

	case Resign:
		if a.Value < 1 || a.Value > 3 {
			return fail(errs.ErrUnsupportedAction, fmt.Sprintf("resignation value %d", a.Value))
		}

	case Reject:
		if _, ok := g.resignationBy(side.Other()); !ok {
			return fail(errs.ErrNoResignation, "")
		}

	case Accept:
		r, ok := g.resignationBy(side.Other())
		if !ok {
			g.log.Warn("accept without resignation",
				zap.Stringer("side", side),
				zap.Int("actions", len(g.snapshots)))
			return fail(errs.ErrNoResignation, "")
		}
		points = int(side) * r.Value * p.Cube

	case Setup:
		p = a.Position
		if err := p.Validate(); err != nil {
			return fail(err, "")
		}
		g.crawford = false

	default:
		return fail(errs.ErrUnsupportedAction, fmt.Sprintf("%T", a))
	}

	if points != 0 {
		winner := engine.White
		if points < 0 {
			winner = engine.Black
		}
		p.Scores[winner.Index()] += abs(points)
		p.Turn = engine.None
		p.Dice = [2]int{}
		p.CubeTurned = engine.None
	}
	p.Status = Describe(playerName(p, side), a)

	g.snapshots = append(g.snapshots, Snapshot{Action: a, Side: side, Position: p})
	g.score = points
	if points != 0 {
		g.log.Debug("game over",
			zap.Int("score", points),
			zap.Ints("scores", p.Scores[:]))
	}
	return nil
}

// doublePendingFor reports whether the last action was a double offered to
// side.
func (g *Game) doublePendingFor(side engine.Side) bool {
	prev, ok := g.last()
	if !ok {
		return false
	}
	_, double := prev.Action.(Double)
	return double && prev.Side == side.Other()
}

// resignationBy returns the resignation side offered with the last action.
func (g *Game) resignationBy(side engine.Side) (Resign, bool) {
	prev, ok := g.last()
	if !ok || prev.Side != side {
		return Resign{}, false
	}
	r, ok := prev.Action.(Resign)
	return r, ok
}

// playerName returns the name of side in p, or the color name when unknown.
func playerName(p engine.Position, side engine.Side) string {
	if side != engine.None {
		if name := p.Players[side.Index()]; name != "" {
			return name
		}
	}
	return side.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
