// Package session follows a FIBS client session line by line and records
// the games it sees as matches.
//
// FIBS announces the opponent's moves in free text but the client's own
// moves only through the next board. The session reconstructs those with
// engine.CheckMove and falls back to a Setup action whenever a board does
// not agree with the recorded game.
package session

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/gofibs/internal/errs"
	"github.com/yourusername/gofibs/pkg/clip"
	"github.com/yourusername/gofibs/pkg/engine"
	"github.com/yourusername/gofibs/pkg/match"
)

// you is the name FIBS uses for the receiving player.
const you = "You"

// Session interprets parsed FIBS lines. It is not safe for concurrent use.
type Session struct {
	name    string
	log     *zap.Logger
	matches []*match.Match
	board   *clip.BoardState
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithName sets the login name of the client. Messages by this name or by
// "You" are attributed to White.
func WithName(name string) Option {
	return func(s *Session) {
		if name != "" {
			s.name = name
		}
	}
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		name: you,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Match returns the current match or nil.
func (s *Session) Match() *match.Match {
	if len(s.matches) == 0 {
		return nil
	}
	return s.matches[len(s.matches)-1]
}

// Matches returns all matches seen so far.
func (s *Session) Matches() []*match.Match {
	return append([]*match.Match(nil), s.matches...)
}

// Board returns the last board received, or nil.
func (s *Session) Board() *clip.BoardState {
	return s.board
}

// Handle parses line and applies it to the current match. Lines that do not
// parse are reported with ok == false and no error. The returned tokens are
// rewound to the message code.
func (s *Session) Handle(line string) (tokens *clip.Tokens, ok bool, err error) {
	tokens, ok = clip.Parse(line)
	if !ok {
		return nil, false, nil
	}
	err = s.apply(tokens)
	tokens.Reset()
	return tokens, true, err
}

// Stats counts the lines seen by Replay.
type Stats struct {
	Lines  int `json:"lines"`  // Lines read
	Parsed int `json:"parsed"` // Lines recognized by the parser
	Failed int `json:"failed"` // Lines that could not be applied to the match
}

// Line is the outcome of one non-blank line of a replayed log.
type Line struct {
	Number int
	Text   string
	Code   clip.Code // Zero if the line did not parse
	Parsed bool
	Err    error
}

// Replay feeds every line of r to Handle. Lines that cannot be applied are
// logged and counted; only read errors are returned.
func (s *Session) Replay(r io.Reader) (Stats, error) {
	return s.ReplayFunc(r, nil)
}

// ReplayFunc is Replay with a callback invoked after each non-blank line.
func (s *Session) ReplayFunc(r io.Reader, fn func(Line)) (Stats, error) {
	var st Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		st.Lines++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens, ok, err := s.Handle(line)
		res := Line{Number: st.Lines, Text: line, Parsed: ok, Err: err}
		if ok {
			st.Parsed++
			res.Code = tokens.MessageCode()
		}
		if err != nil {
			st.Failed++
			s.log.Warn("line not applied",
				zap.Int("line", st.Lines),
				zap.String("text", line),
				zap.Error(err))
		}
		if fn != nil {
			fn(res)
		}
	}
	if err := scanner.Err(); err != nil {
		return st, fmt.Errorf("reading session log: %w", err)
	}
	return st, nil
}

func (s *Session) apply(t *clip.Tokens) error {
	code, err := t.Code()
	if err != nil {
		return err
	}

	switch code {
	case clip.Board:
		b, err := clip.ReadBoard(t)
		if err != nil {
			return err
		}
		return s.syncBoard(b)

	case clip.BadBoard:
		board, err := t.Text()
		if err != nil {
			return err
		}
		suffix, err := t.Text()
		if err != nil {
			return err
		}
		for _, part := range []string{board, suffix} {
			if _, _, err := s.Handle(part); err != nil {
				return err
			}
		}

	case clip.StartMatch:
		opponent, err := t.Name()
		if err != nil {
			return err
		}
		length, err := t.Uint()
		if err != nil {
			return err
		}
		s.startMatch(opponent, length)

	case clip.ResumeMatch:
		opponent, err := t.Name()
		if err != nil {
			return err
		}
		s.startMatch(opponent, 0)

	case clip.Rolls:
		name, err := t.Name()
		if err != nil {
			return err
		}
		d1, err := t.Uint()
		if err != nil {
			return err
		}
		d2, err := t.Uint()
		if err != nil {
			return err
		}
		return s.act(name, match.Roll{Die1: d1, Die2: d2})

	case clip.Moves:
		return s.applyMoves(t)

	case clip.CannotMove:
		return s.nameAction(t, match.Move{})

	case clip.Doubles:
		return s.nameAction(t, match.Double{})

	case clip.AcceptsDouble:
		return s.nameAction(t, match.Take{})

	case clip.RejectsResign:
		return s.nameAction(t, match.Reject{})

	case clip.AcceptsResign:
		return s.nameAction(t, match.Accept{})

	case clip.GivesUp:
		return s.nameAction(t, match.Drop{})

	case clip.Resigns:
		name, err := t.Name()
		if err != nil {
			return err
		}
		points, err := t.Uint()
		if err != nil {
			return err
		}
		g := s.game()
		if g == nil {
			return fmt.Errorf("resign: %w", errs.ErrNoGame)
		}
		cube := g.Position().Cube
		return s.act(name, match.Resign{Value: points / cube})

	case clip.WinGame:
		name, err := t.Name()
		if err != nil {
			return err
		}
		if g := s.game(); g != nil && !g.Over() {
			s.log.Warn("game won without a deciding action", zap.String("winner", name))
		}

	case clip.WinMatch:
		winner, err := t.Name()
		if err != nil {
			return err
		}
		if m := s.Match(); m != nil {
			s.log.Info("match finished",
				zap.String("match", m.ID.String()),
				zap.String("winner", winner),
				zap.Ints("scores", scores(m)))
		}
	}
	return nil
}

func scores(m *match.Match) []int {
	sc := m.Scores()
	return sc[:]
}

// nameAction applies a whose only payload is the acting player's name.
func (s *Session) nameAction(t *clip.Tokens, a match.Action) error {
	name, err := t.Name()
	if err != nil {
		return err
	}
	return s.act(name, a)
}

// applyMoves converts the points of a moves message, which use the board
// numbering, into the mover's numbering.
func (s *Session) applyMoves(t *clip.Tokens) error {
	name, err := t.Name()
	if err != nil {
		return err
	}
	n, err := t.Uint()
	if err != nil {
		return err
	}

	dir := s.direction(s.side(name))
	movements := make([]engine.Movement, 0, n)
	for i := 0; i < n; i++ {
		from, err := t.Uint()
		if err != nil {
			return err
		}
		to, err := t.Uint()
		if err != nil {
			return err
		}
		from, to = clip.RelativePoint(from, dir), clip.RelativePoint(to, dir)
		movements = append(movements, engine.Movement{From: from, To: to, Die: from - to})
	}
	return s.act(name, match.Move{Movements: movements})
}

// direction returns the board direction in which side moves. The client
// moves from 24 to 1 until a board says otherwise.
func (s *Session) direction(side engine.Side) int {
	dir := -1
	if s.board != nil && s.board.Direction != 0 {
		dir = s.board.Direction
	}
	if side == engine.Black {
		dir = -dir
	}
	return dir
}

// side maps a player name to a side of the current match. An unknown
// opponent name is adopted.
func (s *Session) side(name string) engine.Side {
	if name == you || name == s.name {
		return engine.White
	}
	m := s.Match()
	if m == nil {
		return engine.None
	}
	switch m.Players[1] {
	case name:
		return engine.Black
	case "":
		m.Players[1] = name
		return engine.Black
	}
	if m.Players[0] == name {
		return engine.White
	}
	return engine.None
}

func (s *Session) game() *match.Game {
	m := s.Match()
	if m == nil {
		return nil
	}
	return m.CurrentGame()
}

func (s *Session) act(name string, a match.Action) error {
	g := s.game()
	if g == nil {
		return fmt.Errorf("%s by %s: %w", a.Name(), name, errs.ErrNoGame)
	}
	return g.AddAction(s.side(name), a)
}

func (s *Session) startMatch(opponent string, length int) *match.Match {
	m := match.NewMatch(s.name, opponent, length, match.WithLogger(s.log))
	s.matches = append(s.matches, m)
	if _, err := m.AddGame(); err != nil {
		s.log.Error("cannot start game", zap.Error(err))
	}
	s.log.Info("match started",
		zap.String("match", m.ID.String()),
		zap.String("opponent", opponent),
		zap.Int("length", length))
	return m
}

// syncBoard brings the current game in line with b. A board that differs
// from the game by a legal move of the side on roll is recorded as that
// move, any other difference as a Setup.
func (s *Session) syncBoard(b *clip.BoardState) error {
	s.board = b
	bp := b.Position

	m := s.Match()
	if m == nil {
		m = s.startMatch(bp.Players[1], bp.MatchLength)
	}
	m.Players = bp.Players
	m.Length = bp.MatchLength

	g := m.CurrentGame()
	if g != nil && g.Over() {
		if bp.SameBoard(g.Position()) || m.Over() {
			return nil
		}
		g = nil
	}
	if g == nil {
		var err error
		if g, err = m.AddGame(); err != nil {
			return err
		}
	}

	cur := g.Position()
	// FIBS announces the opening roll in a line that carries no action,
	// so the board is the only place its dice show up.
	if cur.SameBoard(bp) && bp.Turn != engine.None && bp.Dice != [2]int{} && cur.Dice == [2]int{} {
		roll := match.Roll{Die1: abs(bp.Dice[0]), Die2: abs(bp.Dice[1])}
		if err := g.AddAction(bp.Turn, roll); err != nil {
			s.log.Debug("board dice not applied", zap.Stringer("side", bp.Turn), zap.Error(err))
		} else {
			cur = g.Position()
		}
	}
	if agrees(cur, bp) {
		return nil
	}

	if !cur.SameBoard(bp) && cur.Turn != engine.None && cur.Dice != [2]int{} {
		mv := engine.CheckMove(cur, bp, cur.Turn)
		if mv.Status == engine.Legal {
			if err := g.AddAction(cur.Turn, match.Move{Movements: mv.Movements}); err != nil {
				return err
			}
			if g.Over() || agrees(g.Position(), bp) {
				return nil
			}
		} else {
			s.log.Debug("board differs by an unexplained move",
				zap.Stringer("side", cur.Turn),
				zap.Stringer("status", mv.Status))
		}
	}
	return g.AddAction(engine.None, match.Setup{Position: bp})
}

// agrees reports whether a recorded position matches a board in the fields
// a board is authoritative for.
func agrees(p, board engine.Position) bool {
	return p.SameBoard(board) && p.Cube == board.Cube && p.Scores == board.Scores
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
