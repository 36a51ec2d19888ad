package clip

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/gofibs/pkg/engine"
)

// boardFields is the number of colon separated fields of a board line,
// including the leading "board".
const boardFields = 53

// Field offsets of a board line.
// See: http://www.fibs.com/fibs_interface.html#board_state
const (
	fieldPlayer       = 1
	fieldOpponent     = 2
	fieldMatchLength  = 3
	fieldScore        = 4
	fieldOppScore     = 5
	fieldBoard        = 6 // 26 values, the 24 points are at 7..30
	fieldTurn         = 32
	fieldDice         = 33
	fieldOppDice      = 35
	fieldCube         = 37
	fieldMayDouble    = 38
	fieldOppMayDouble = 39
	fieldWasDoubled   = 40
	fieldColor        = 41
	fieldDirection    = 42
	fieldHome         = 43
	fieldBar          = 44
	fieldOnHome       = 45
	fieldOppOnHome    = 46
	fieldOnBar        = 47
	fieldOppOnBar     = 48
	fieldCanMove      = 49
	fieldForcedMove   = 50
	fieldDidCrawford  = 51
	fieldRedoubles    = 52
)

// BoardState is a decoded board line. The position is normalized so that
// the receiving player is always White: positive checker counts and
// Points[0] are the receiving player's, regardless of the color and
// direction FIBS assigned.
type BoardState struct {
	Position     engine.Position
	WasDoubled   bool // The opponent has just doubled
	PostCrawford bool // The Crawford game has been played
	Color        int  // FIBS color of the receiving player (1 = O, -1 = X)
	Direction    int  // FIBS direction of the receiving player
	Redoubles    int
}

// DecodeBoard decodes a well-formed board line.
func DecodeBoard(line string) (*BoardState, error) {
	f := strings.Split(strings.TrimSpace(line), ":")
	if len(f) != boardFields || f[0] != "board" {
		return nil, fmt.Errorf("invalid board: expected %d fields, got %d", boardFields, len(f))
	}

	var bad string
	num := func(i int, lo, hi int64) int {
		v, ok := extractInt(f[i], lo, hi)
		if !ok && bad == "" {
			bad = fmt.Sprintf("field %d: %q", i, f[i])
		}
		return int(v)
	}
	flag := func(i int) bool {
		return num(i, 0, 1) == 1
	}

	s := &BoardState{}
	p := &s.Position
	for i, field := range []int{fieldPlayer, fieldOpponent} {
		name, ok := extractName(f[field])
		if !ok || name != f[field] {
			return nil, fmt.Errorf("invalid board: bad player name %q", f[field])
		}
		p.Players[i] = name
	}

	p.MatchLength = num(fieldMatchLength, 0, maxUnlimited)
	if p.MatchLength == maxUnlimited {
		p.MatchLength = 0
	}
	p.Scores[0] = num(fieldScore, 0, maxPoints)
	p.Scores[1] = num(fieldOppScore, 0, maxPoints)

	s.Color = num(fieldColor, -1, 1)
	s.Direction = num(fieldDirection, -1, 1)
	if bad == "" && (s.Color == 0 || s.Direction == 0) {
		return nil, fmt.Errorf("invalid board: color %d, direction %d", s.Color, s.Direction)
	}

	num(fieldBoard, -engine.NumCheckers, engine.NumCheckers)
	num(fieldBoard+25, -engine.NumCheckers, engine.NumCheckers)
	for i := 0; i < engine.NumPoints; i++ {
		v := num(fieldBoard+1+i, -engine.NumCheckers, engine.NumCheckers) * s.Color
		if s.Direction < 0 {
			p.Points[i] = v
		} else {
			p.Points[engine.NumPoints-1-i] = v
		}
	}

	turn := num(fieldTurn, -1, 1)
	dice := [4]int{
		num(fieldDice, 0, 6), num(fieldDice+1, 0, 6),
		num(fieldOppDice, 0, 6), num(fieldOppDice+1, 0, 6),
	}
	switch {
	case turn == 0:
		p.Turn = engine.None
	case turn == s.Color:
		p.Turn = engine.White
		p.Dice = [2]int{dice[0], dice[1]}
	default:
		p.Turn = engine.Black
		p.Dice = [2]int{-dice[2], -dice[3]}
	}

	p.Cube = num(fieldCube, 1, maxCounter)
	p.MayDouble[0] = flag(fieldMayDouble)
	p.MayDouble[1] = flag(fieldOppMayDouble)
	s.WasDoubled = flag(fieldWasDoubled)
	if s.WasDoubled {
		p.CubeTurned = engine.White
	}

	num(fieldHome, 0, engine.BarPoint)
	num(fieldBar, 0, engine.BarPoint)
	num(fieldOnHome, 0, engine.NumCheckers)
	num(fieldOppOnHome, 0, engine.NumCheckers)
	p.Bar[0] = num(fieldOnBar, 0, engine.NumCheckers)
	p.Bar[1] = num(fieldOppOnBar, 0, engine.NumCheckers)
	num(fieldCanMove, 0, 4)
	num(fieldForcedMove, 0, 1)
	s.PostCrawford = flag(fieldDidCrawford)
	s.Redoubles = num(fieldRedoubles, 0, maxCounter)

	if bad != "" {
		return nil, fmt.Errorf("invalid board: %s", bad)
	}
	return s, nil
}

// Format encodes the state as a board line.
func (s *BoardState) Format() string {
	p := &s.Position
	f := make([]string, boardFields)
	itoa := strconv.Itoa
	bool01 := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}

	f[0] = "board"
	f[fieldPlayer] = p.Players[0]
	f[fieldOpponent] = p.Players[1]
	length := p.MatchLength
	if length == 0 {
		length = maxUnlimited
	}
	f[fieldMatchLength] = itoa(length)
	f[fieldScore] = itoa(p.Scores[0])
	f[fieldOppScore] = itoa(p.Scores[1])

	home, bar := 0, engine.BarPoint
	if s.Direction > 0 {
		home, bar = engine.BarPoint, 0
	}
	f[fieldBoard+bar] = itoa(p.Bar[0] * s.Color)
	f[fieldBoard+home] = itoa(-p.Bar[1] * s.Color)
	for i := 0; i < engine.NumPoints; i++ {
		v := p.Points[i]
		if s.Direction > 0 {
			v = p.Points[engine.NumPoints-1-i]
		}
		f[fieldBoard+1+i] = itoa(v * s.Color)
	}

	turn, dice := 0, [4]int{}
	switch p.Turn {
	case engine.White:
		turn = s.Color
		dice[0], dice[1] = p.Dice[0], p.Dice[1]
	case engine.Black:
		turn = -s.Color
		dice[2], dice[3] = -p.Dice[0], -p.Dice[1]
	}
	f[fieldTurn] = itoa(turn)
	for i, d := range dice {
		f[fieldDice+i] = itoa(d)
	}

	f[fieldCube] = itoa(p.Cube)
	f[fieldMayDouble] = bool01(p.MayDouble[0])
	f[fieldOppMayDouble] = bool01(p.MayDouble[1])
	f[fieldWasDoubled] = bool01(s.WasDoubled)
	f[fieldColor] = itoa(s.Color)
	f[fieldDirection] = itoa(s.Direction)
	f[fieldHome] = itoa(home)
	f[fieldBar] = itoa(bar)
	f[fieldOnHome] = itoa(p.BorneOff(engine.White))
	f[fieldOppOnHome] = itoa(p.BorneOff(engine.Black))
	f[fieldOnBar] = itoa(p.Bar[0])
	f[fieldOppOnBar] = itoa(p.Bar[1])
	f[fieldCanMove] = "0"
	f[fieldForcedMove] = "0"
	f[fieldDidCrawford] = bool01(s.PostCrawford)
	f[fieldRedoubles] = itoa(s.Redoubles)

	return strings.Join(f, ":")
}

// FormatBoard encodes p as a board line seen by the White player, who has
// the given FIBS color and direction.
func FormatBoard(p engine.Position, color, direction int) string {
	s := BoardState{Position: p, Color: color, Direction: direction}
	return s.Format()
}

// tokens appends the board payload to t.
func (s *BoardState) tokens(t *Tokens) {
	p := &s.Position
	t.add(nameToken(p.Players[0]), nameToken(p.Players[1]))
	t.add(uintToken(int64(p.MatchLength)), uintToken(int64(p.Scores[0])), uintToken(int64(p.Scores[1])))
	for _, v := range p.Points {
		t.add(intToken(int64(v)))
	}
	t.add(intToken(int64(p.Turn)), intToken(int64(p.Dice[0])), intToken(int64(p.Dice[1])))
	t.add(uintToken(int64(p.Cube)), boolToken(p.MayDouble[0]), boolToken(p.MayDouble[1]))
	t.add(uintToken(int64(p.Bar[0])), uintToken(int64(p.Bar[1])))
	t.add(boolToken(s.PostCrawford), intToken(int64(s.Color)), intToken(int64(s.Direction)))
	t.add(uintToken(int64(s.Redoubles)))
}

// ReadBoard reads the payload of a Board message from t. The message code
// must already have been consumed.
func ReadBoard(t *Tokens) (*BoardState, error) {
	s := &BoardState{}
	p := &s.Position
	var err error
	readUint := func(dst *int) {
		if err == nil {
			*dst, err = t.Uint()
		}
	}
	readInt := func(dst *int) {
		if err == nil {
			*dst, err = t.Int()
		}
	}
	readBool := func(dst *bool) {
		if err == nil {
			*dst, err = t.Bool()
		}
	}

	if p.Players[0], err = t.Name(); err != nil {
		return nil, err
	}
	if p.Players[1], err = t.Name(); err != nil {
		return nil, err
	}
	readUint(&p.MatchLength)
	readUint(&p.Scores[0])
	readUint(&p.Scores[1])
	for i := range p.Points {
		readInt(&p.Points[i])
	}
	var turn int
	readInt(&turn)
	p.Turn = engine.Side(turn)
	readInt(&p.Dice[0])
	readInt(&p.Dice[1])
	readUint(&p.Cube)
	readBool(&p.MayDouble[0])
	readBool(&p.MayDouble[1])
	readUint(&p.Bar[0])
	readUint(&p.Bar[1])
	readBool(&s.PostCrawford)
	readInt(&s.Color)
	readInt(&s.Direction)
	readUint(&s.Redoubles)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// parseBoard recognizes a board line. FIBS sometimes glues the following
// message to the last field of a board; such lines are reported as
// BadBoard with the repaired board line and the glued text.
func parseBoard(line string) *Tokens {
	if s, err := DecodeBoard(line); err == nil {
		t := newTokens(Board, 44)
		s.tokens(t)
		return t
	}

	repaired, suffix, ok := splitGluedBoard(line)
	if !ok {
		return nil
	}
	if _, err := DecodeBoard(repaired); err != nil {
		return nil
	}
	t := newTokens(BadBoard, 2)
	t.add(stringToken(repaired), stringToken(suffix))
	return t
}

// splitGluedBoard cuts a board line after the digits that start its last
// field.
func splitGluedBoard(line string) (string, string, bool) {
	colons := 0
	for i := 0; i < len(line); i++ {
		if line[i] != ':' {
			continue
		}
		colons++
		if colons < boardFields-1 {
			continue
		}
		j := i + 1
		for j < len(line) && line[j] >= '0' && line[j] <= '9' {
			j++
		}
		if j == i+1 || j == len(line) {
			return "", "", false
		}
		return line[:j], line[j:], true
	}
	return "", "", false
}

// RelativePoint converts a point of a FIBS move notation into the
// numbering of the moving player, where 25 is the bar and 0 is off. dir is
// the FIBS direction of the moving player.
func RelativePoint(point, dir int) int {
	if point <= 0 || point >= engine.BarPoint || dir < 0 {
		return point
	}
	return engine.BarPoint - point
}

// FormatMovements writes movements in FIBS move notation for a player with
// FIBS direction dir, for example "13-11 24-23" or "bar-22 3-off".
func FormatMovements(movements []engine.Movement, dir int) string {
	parts := make([]string, len(movements))
	for i, m := range movements {
		parts[i] = fibsPoint(m.From, dir) + "-" + fibsPoint(m.To, dir)
	}
	return strings.Join(parts, " ")
}

func fibsPoint(point, dir int) string {
	switch {
	case point >= engine.BarPoint:
		return "bar"
	case point <= engine.OffPoint:
		return "off"
	}
	return strconv.Itoa(RelativePoint(point, dir))
}
