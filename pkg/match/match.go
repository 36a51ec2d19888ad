package match

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/gofibs/internal/errs"
	"github.com/yourusername/gofibs/pkg/engine"
)

// Match is an ordered list of games between two players. Names and length
// may be unknown at first and corrected later. A Match is not safe for
// concurrent use.
type Match struct {
	ID       uuid.UUID
	Players  [2]string // White (self) and Black (opponent)
	Length   int       // 0 = unlimited
	Crawford bool      // Whether the Crawford rule applies
	Started  time.Time

	games []*Game
	log   *zap.Logger
}

// Option configures a Match.
type Option func(*Match)

// WithLogger sets the logger used by the match and its games.
func WithLogger(log *zap.Logger) Option {
	return func(m *Match) {
		if log != nil {
			m.log = log
		}
	}
}

// WithID sets the match identifier instead of a random one.
func WithID(id uuid.UUID) Option {
	return func(m *Match) {
		m.ID = id
	}
}

// WithoutCrawford disables the Crawford rule.
func WithoutCrawford() Option {
	return func(m *Match) {
		m.Crawford = false
	}
}

// NewMatch creates an empty match. The Crawford rule is on by default.
func NewMatch(white, black string, length int, opts ...Option) *Match {
	m := &Match{
		ID:       uuid.New(),
		Players:  [2]string{white, black},
		Length:   length,
		Crawford: true,
		Started:  time.Now().UTC(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.String("match", m.ID.String()))
	return m
}

// Games returns the games played so far.
func (m *Match) Games() []*Game {
	return append([]*Game(nil), m.games...)
}

// CurrentGame returns the last game or nil before the first game.
func (m *Match) CurrentGame() *Game {
	if len(m.games) == 0 {
		return nil
	}
	return m.games[len(m.games)-1]
}

// Position returns the current position of the last game, or the position
// the next game would start from.
func (m *Match) Position() engine.Position {
	if g := m.CurrentGame(); g != nil {
		return g.Position()
	}
	return m.startPosition()
}

// InitialPosition returns the initial position of the last game.
func (m *Match) InitialPosition() engine.Position {
	if g := m.CurrentGame(); g != nil {
		return g.InitialPosition()
	}
	return m.startPosition()
}

// Scores returns the match score after the last game.
func (m *Match) Scores() [2]int {
	if g := m.CurrentGame(); g != nil {
		return g.Position().Scores
	}
	return [2]int{}
}

// Winner returns the side that reached the match length, or None.
func (m *Match) Winner() engine.Side {
	if m.Length <= 0 {
		return engine.None
	}
	scores := m.Scores()
	switch {
	case scores[0] >= m.Length:
		return engine.White
	case scores[1] >= m.Length:
		return engine.Black
	}
	return engine.None
}

// Over reports whether one side has won the match.
func (m *Match) Over() bool {
	return m.Winner() != engine.None
}

// startPosition returns the starting layout with the current names,
// length and scores.
func (m *Match) startPosition() engine.Position {
	p := engine.NewPosition()
	p.Players = m.Players
	p.MatchLength = m.Length
	p.Scores = m.Scores()
	return p
}

// AddGame starts a new game from the starting layout and the current
// score. It fails once the match has been decided.
func (m *Match) AddGame() (*Game, error) {
	if m.Over() {
		return nil, fmt.Errorf("%w: %v", errs.ErrMatchOver, m.Scores())
	}

	p := m.startPosition()
	crawford := m.isCrawfordNext(p.Scores)
	if crawford {
		p.MayDouble = [2]bool{false, false}
	}

	g := NewGame(p, crawford, m.log.With(zap.Int("game", len(m.games)+1)))
	m.games = append(m.games, g)
	m.log.Debug("new game",
		zap.Int("number", len(m.games)),
		zap.Ints("scores", p.Scores[:]),
		zap.Bool("crawford", crawford))
	return g, nil
}

// isCrawfordNext decides whether a game starting at scores is the
// Crawford game: exactly one side is one point away from winning, and the
// previous game was neither the Crawford game nor already played with a
// side one point away.
func (m *Match) isCrawfordNext(scores [2]int) bool {
	if !m.Crawford || m.Length <= 0 {
		return false
	}
	if scores[0] == 0 && scores[1] == 0 {
		return false
	}
	oneAway := func(s [2]int) (bool, bool) {
		return m.Length-s[0] == 1, m.Length-s[1] == 1
	}
	white, black := oneAway(scores)
	if white == black {
		return false
	}

	prev := m.CurrentGame()
	if prev == nil {
		return true
	}
	if prev.IsCrawford() {
		return false
	}
	before := prev.InitialPosition()
	if n := len(prev.snapshots); n >= 2 {
		before = prev.snapshots[n-2].Position
	}
	white, black = oneAway(before.Scores)
	return !white && !black
}
