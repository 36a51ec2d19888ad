package clip

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yourusername/gofibs/pkg/engine"
)

// startBoard is the starting position of a 3 point match as sent to player
// "You" (color O, moving from 24 to 1) after rolling 6-2.
const startBoard = "board:You:someplayer:3:0:0:" +
	"0:-2:0:0:0:0:5:0:3:0:0:0:-5:5:0:0:0:-3:0:-5:0:0:0:0:2:0:" +
	"1:6:2:0:0:1:1:1:0:1:-1:0:25:0:0:0:0:2:0:0:0"

func TestDecodeBoard(t *testing.T) {
	s, err := DecodeBoard(startBoard)
	if err != nil {
		t.Fatalf("DecodeBoard error: %v", err)
	}
	p := s.Position

	if p.Players != [2]string{"You", "someplayer"} {
		t.Errorf("Players = %v", p.Players)
	}
	if p.MatchLength != 3 {
		t.Errorf("MatchLength = %d, want 3", p.MatchLength)
	}
	if p.Points != engine.NewPosition().Points {
		t.Errorf("Points = %v, want starting position", p.Points)
	}
	if p.Turn != engine.White {
		t.Errorf("Turn = %v, want %v", p.Turn, engine.White)
	}
	if p.Dice != [2]int{6, 2} {
		t.Errorf("Dice = %v, want [6 2]", p.Dice)
	}
	if p.Cube != 1 || p.MayDouble != [2]bool{true, true} {
		t.Errorf("Cube = %d, MayDouble = %v", p.Cube, p.MayDouble)
	}
	if s.Color != 1 || s.Direction != -1 {
		t.Errorf("Color = %d, Direction = %d, want 1, -1", s.Color, s.Direction)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestDecodeBoardOpponentTurn(t *testing.T) {
	f := strings.Split(startBoard, ":")
	f[fieldTurn] = "-1"
	f[fieldDice], f[fieldDice+1] = "0", "0"
	f[fieldOppDice], f[fieldOppDice+1] = "5", "3"

	s, err := DecodeBoard(strings.Join(f, ":"))
	if err != nil {
		t.Fatalf("DecodeBoard error: %v", err)
	}
	if s.Position.Turn != engine.Black {
		t.Errorf("Turn = %v, want %v", s.Position.Turn, engine.Black)
	}
	if s.Position.Dice != [2]int{-5, -3} {
		t.Errorf("Dice = %v, want [-5 -3]", s.Position.Dice)
	}
}

func TestDecodeBoardErrors(t *testing.T) {
	f := strings.Split(startBoard, ":")
	mutate := func(i int, v string) string {
		g := append([]string{}, f...)
		g[i] = v
		return strings.Join(g, ":")
	}

	tests := []struct {
		name string
		line string
	}{
		{"too few fields", strings.Join(f[:40], ":")},
		{"no prefix", "noboard" + startBoard[5:]},
		{"empty name", mutate(fieldPlayer, "")},
		{"bad die", mutate(fieldDice, "7")},
		{"bad color", mutate(fieldColor, "0")},
		{"bad point", mutate(fieldBoard+3, "x")},
		{"zero cube", mutate(fieldCube, "0")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeBoard(tc.line); err == nil {
				t.Error("DecodeBoard succeeded, want error")
			}
		})
	}
}

func TestParseBoardTokens(t *testing.T) {
	tokens := mustParse(t, startBoard)
	if code, _ := tokens.Code(); code != Board {
		t.Fatalf("Code() = %v, want %v", code, Board)
	}
	s, err := ReadBoard(tokens)
	if err != nil {
		t.Fatalf("ReadBoard error: %v", err)
	}
	if err := tokens.End(); err != nil {
		t.Errorf("End() error: %v", err)
	}

	want, _ := DecodeBoard(startBoard)
	want.WasDoubled = false
	want.Position.CubeTurned = engine.None
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("ReadBoard mismatch (-want +got):\n%s", diff)
	}
}

func TestBoardRoundTrip(t *testing.T) {
	p := engine.NewPosition()
	p.Players = [2]string{"gflohr", "jdoe"}
	p.Points[5] = 4
	p.Points[3] = 1
	p.Bar[1] = 1
	p.Points[18] = -4
	p.Scores = [2]int{2, 1}
	p.MatchLength = 5
	p.Turn = engine.Black
	p.Dice = [2]int{-4, -2}

	for _, color := range []int{1, -1} {
		for _, direction := range []int{1, -1} {
			line := FormatBoard(p, color, direction)
			s, err := DecodeBoard(line)
			if err != nil {
				t.Fatalf("color %d direction %d: DecodeBoard(%q) error: %v", color, direction, line, err)
			}
			if diff := cmp.Diff(p, s.Position); diff != "" {
				t.Errorf("color %d direction %d: position mismatch (-want +got):\n%s", color, direction, diff)
			}
			if again := s.Format(); again != line {
				t.Errorf("color %d direction %d: Format() = %q, want %q", color, direction, again, line)
			}
		}
	}
}

func TestBoardPointsRoundTrip(t *testing.T) {
	s, err := DecodeBoard(startBoard)
	if err != nil {
		t.Fatalf("DecodeBoard error: %v", err)
	}
	got := strings.Split(FormatBoard(s.Position, s.Color, s.Direction), ":")
	want := strings.Split(startBoard, ":")
	if diff := cmp.Diff(want[fieldBoard+1:fieldBoard+25], got[fieldBoard+1:fieldBoard+25]); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBadBoard(t *testing.T) {
	line := startBoard + "You can't move."
	tokens := mustParse(t, line)

	want := []Token{uintToken(int64(BadBoard)), stringToken(startBoard), stringToken("You can't move.")}
	if diff := cmp.Diff(want, tokens.All()); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}

	// Both halves parse on their own.
	if tokens, ok := Parse(startBoard); !ok || tokens.MessageCode() != Board {
		t.Error("repaired board does not parse")
	}
	if tokens, ok := Parse("You can't move."); !ok || tokens.MessageCode() != CannotMove {
		t.Error("suffix does not parse")
	}
}

func TestRelativePoint(t *testing.T) {
	tests := []struct {
		point, dir, want int
	}{
		{13, -1, 13},
		{13, 1, 12},
		{1, 1, 24},
		{25, 1, 25},
		{0, 1, 0},
	}
	for _, tc := range tests {
		if got := RelativePoint(tc.point, tc.dir); got != tc.want {
			t.Errorf("RelativePoint(%d, %d) = %d, want %d", tc.point, tc.dir, got, tc.want)
		}
	}
}

func TestFormatMovements(t *testing.T) {
	movements := []engine.Movement{
		{From: 25, To: 22, Die: 3},
		{From: 13, To: 11, Die: 2},
		{From: 3, To: 0, Die: 4},
	}
	tests := []struct {
		dir  int
		want string
	}{
		{-1, "bar-22 13-11 3-off"},
		{1, "bar-3 12-14 22-off"},
	}
	for _, tc := range tests {
		if got := FormatMovements(movements, tc.dir); got != tc.want {
			t.Errorf("FormatMovements(dir %d) = %q, want %q", tc.dir, got, tc.want)
		}
	}
}
