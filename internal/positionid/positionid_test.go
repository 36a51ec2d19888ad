package positionid

import (
	"errors"
	"testing"

	"github.com/yourusername/gofibs/internal/errs"
	"github.com/yourusername/gofibs/pkg/engine"
)

// Known position ID for starting position from gnubg
const startingPositionID = "4HPwATDgc/ABMA"

func TestEncodeStartingPosition(t *testing.T) {
	for _, side := range []engine.Side{engine.None, engine.White, engine.Black} {
		p := engine.NewPosition()
		p.Turn = side
		if got := Encode(p); got != startingPositionID {
			t.Errorf("Encode(start, %v) = %s, want %s", side, got, startingPositionID)
		}
	}
}

func TestDecodeStartingPosition(t *testing.T) {
	p, err := Decode(startingPositionID, engine.Black)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !p.SameBoard(engine.NewPosition()) {
		t.Errorf("Decode(start) board = %v", p.Points)
	}
	if p.Turn != engine.Black {
		t.Errorf("Turn = %v, want black", p.Turn)
	}
}

// racePosition has a White checker on the bar and Black checkers off.
func racePosition() engine.Position {
	p := engine.NewPosition()
	p.Points = [24]int{}
	p.Points[0] = 3   // White 1
	p.Points[5] = 4   // White 6
	p.Points[12] = 7  // White 13
	p.Points[7] = -2  // Black 17
	p.Points[20] = -6 // Black 4
	p.Points[23] = -1 // Black 1
	p.Bar = [2]int{1, 0}
	return p
}

func TestRoundTrip(t *testing.T) {
	for _, side := range []engine.Side{engine.White, engine.Black} {
		p := racePosition()
		p.Turn = side

		id := Encode(p)
		if len(id) != Length {
			t.Fatalf("Encode(%v) = %q, want %d characters", side, id, Length)
		}
		got, err := Decode(id, side)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", id, err)
		}
		if !got.SameBoard(p) {
			t.Errorf("%v on roll: round trip board = %v bar %v, want %v bar %v",
				side, got.Points, got.Bar, p.Points, p.Bar)
		}
	}
}

func TestSideOnRollMatters(t *testing.T) {
	p := racePosition()
	p.Turn = engine.White
	white := Encode(p)
	p.Turn = engine.Black
	if black := Encode(p); black == white {
		t.Errorf("same ID %s for both sides on roll", white)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		id   string
		side engine.Side
		want error
	}{
		{"short", "4HPwATDgc", engine.White, errs.ErrInvalidPosition},
		{"bad character", "4HPwATDgc/AB*A", engine.White, errs.ErrInvalidPosition},
		{"all bits set", "//////////////", engine.White, errs.ErrInvalidPosition},
		{"no side", startingPositionID, engine.None, errs.ErrInvalidSide},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.id, tt.side)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode(%q) error = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}
