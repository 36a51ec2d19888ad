// Package positionid converts positions to and from GNU Backgammon
// position IDs.
//
// A position ID is a 14 character base64 string of the 80 bit key that
// lists, for both players, the checker count of every point followed by a
// separator bit. The player on roll comes second. Pasting an ID into gnubg
// shows the board a recorded game was in.
package positionid

import (
	"fmt"

	"github.com/yourusername/gofibs/internal/errs"
	"github.com/yourusername/gofibs/pkg/engine"
)

// Length is the length of a position ID string.
const Length = 14

// Base64 alphabet used for position ID encoding
const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// board is [player][point] with each player's points counted from their
// own one point; index 24 is the bar. Player 1 is on roll.
type board [2][25]int

// key is the 80 bit position key.
type key [10]uint8

// toBoard lays out p as seen by onRoll.
func toBoard(p engine.Position, onRoll engine.Side) board {
	var b board
	for i, n := range p.Points {
		switch {
		case n > 0: // White point i+1
			b[sideIndex(engine.White, onRoll)][i] = n
		case n < 0: // Black point 24-i
			b[sideIndex(engine.Black, onRoll)][engine.NumPoints-1-i] = -n
		}
	}
	b[sideIndex(engine.White, onRoll)][24] = p.Bar[0]
	b[sideIndex(engine.Black, onRoll)][24] = p.Bar[1]
	return b
}

func sideIndex(side, onRoll engine.Side) int {
	if side == onRoll {
		return 1
	}
	return 0
}

// addBits sets nBits 1-bits starting at bitPos.
func addBits(k *key, bitPos, nBits uint32) {
	i := bitPos / 8
	r := bitPos & 0x7
	b := ((uint32(1) << nBits) - 1) << r

	k[i] |= uint8(b)
	if i < 8 {
		k[i+1] |= uint8(b >> 8)
		k[i+2] |= uint8(b >> 16)
	} else if i == 8 {
		k[i+1] |= uint8(b >> 8)
	}
}

func makeKey(b board) key {
	var k key
	var bitPos uint32
	for i := 0; i < 2; i++ {
		for j := 0; j < 25; j++ {
			if nc := uint32(b[i][j]); nc > 0 {
				addBits(&k, bitPos, nc)
				bitPos += nc + 1
			} else {
				bitPos++
			}
		}
	}
	return k
}

func boardFromKey(k key) (board, bool) {
	var b board
	i, j := 0, 0
	for _, cur := range k {
		for bit := 0; bit < 8; bit++ {
			if cur&0x1 != 0 {
				if i >= 2 {
					return b, false
				}
				b[i][j]++
			} else if i < 2 {
				j++
				if j == 25 {
					i++
					j = 0
				}
			}
			cur >>= 1
		}
	}
	return b, true
}

// Encode returns the position ID of p with the side on roll in p. A
// position without a side on roll is encoded with White on roll.
func Encode(p engine.Position) string {
	onRoll := p.Turn
	if onRoll == engine.None {
		onRoll = engine.White
	}
	k := makeKey(toBoard(p, onRoll))

	result := make([]byte, Length)
	puch := k[:]
	for i := 0; i < 3; i++ {
		result[i*4] = base64Chars[puch[0]>>2]
		result[i*4+1] = base64Chars[((puch[0]&0x03)<<4)|(puch[1]>>4)]
		result[i*4+2] = base64Chars[((puch[1]&0x0F)<<2)|(puch[2]>>6)]
		result[i*4+3] = base64Chars[puch[2]&0x3F]
		puch = puch[3:]
	}
	result[12] = base64Chars[puch[0]>>2]
	result[13] = base64Chars[(puch[0]&0x03)<<4]

	return string(result)
}

func base64Decode(ch byte) (uint8, bool) {
	switch {
	case ch >= 'A' && ch <= 'Z':
		return ch - 'A', true
	case ch >= 'a' && ch <= 'z':
		return ch - 'a' + 26, true
	case ch >= '0' && ch <= '9':
		return ch - '0' + 52, true
	case ch == '+':
		return 62, true
	case ch == '/':
		return 63, true
	}
	return 0, false
}

// Decode returns the position encoded by id with onRoll to move. Only the
// checkers are set; cube, dice and scores are those of engine.NewPosition.
func Decode(id string, onRoll engine.Side) (engine.Position, error) {
	if onRoll == engine.None {
		return engine.Position{}, fmt.Errorf("decoding position ID: %w", errs.ErrInvalidSide)
	}
	if len(id) != Length {
		return engine.Position{}, fmt.Errorf("%w: position ID %q has length %d", errs.ErrInvalidPosition, id, len(id))
	}

	var ach [Length]uint8
	for i := 0; i < Length; i++ {
		v, ok := base64Decode(id[i])
		if !ok {
			return engine.Position{}, fmt.Errorf("%w: position ID %q", errs.ErrInvalidPosition, id)
		}
		ach[i] = v
	}

	var k key
	pch := ach[:]
	for i := 0; i < 9; i += 3 {
		k[i] = (pch[0] << 2) | (pch[1] >> 4)
		k[i+1] = (pch[1] << 4) | (pch[2] >> 2)
		k[i+2] = (pch[2] << 6) | pch[3]
		pch = pch[4:]
	}
	k[9] = (pch[0] << 2) | (pch[1] >> 4)

	b, ok := boardFromKey(k)
	if !ok {
		return engine.Position{}, fmt.Errorf("%w: position ID %q has too many points", errs.ErrInvalidPosition, id)
	}

	p := engine.NewPosition()
	p.Points = [24]int{}
	p.Turn = onRoll
	white, black := sideIndex(engine.White, onRoll), sideIndex(engine.Black, onRoll)
	for i := 0; i < engine.NumPoints; i++ {
		if n := b[white][i]; n > 0 {
			p.Points[i] = n
		}
		if n := b[black][engine.NumPoints-1-i]; n > 0 {
			if p.Points[i] != 0 {
				return engine.Position{}, fmt.Errorf("%w: position ID %q has both sides on one point", errs.ErrInvalidPosition, id)
			}
			p.Points[i] = -n
		}
	}
	p.Bar = [2]int{b[white][24], b[black][24]}

	if err := p.Validate(); err != nil {
		return engine.Position{}, fmt.Errorf("position ID %q: %w", id, err)
	}
	return p, nil
}
