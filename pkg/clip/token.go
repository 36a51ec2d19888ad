// Package clip parses lines sent by the First Internet Backgammon Server.
//
// A line is classified either by its numeric CLIP code (1-19) or by one of
// the free-text message shapes FIBS prints during a game. The result is a
// flat, ordered stream of typed tokens; the first token is always a
// UintToken holding the message Code.
package clip

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/yourusername/gofibs/internal/errs"
)

// TokenKind is the type of a token value.
type TokenKind int

const (
	EndToken TokenKind = iota
	UintToken
	IntToken
	DoubleToken
	BoolToken
	StringToken
	NameToken
	TimestampToken
)

var tokenKindNames = [...]string{
	EndToken:       "end",
	UintToken:      "uint",
	IntToken:       "int",
	DoubleToken:    "double",
	BoolToken:      "bool",
	StringToken:    "string",
	NameToken:      "name",
	TimestampToken: "timestamp",
}

// String returns the lower case kind name used in JSON output.
func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Token is one typed value. Num holds integers, booleans (0 or 1) and
// timestamps (seconds since the epoch), Float holds doubles and Text holds
// strings and names.
type Token struct {
	Kind  TokenKind
	Num   int64
	Float float64
	Text  string
}

func uintToken(v int64) Token {
	return Token{Kind: UintToken, Num: v}
}

func intToken(v int64) Token {
	return Token{Kind: IntToken, Num: v}
}

func doubleToken(v float64) Token {
	return Token{Kind: DoubleToken, Float: v}
}

func stringToken(s string) Token {
	return Token{Kind: StringToken, Text: s}
}

func nameToken(s string) Token {
	return Token{Kind: NameToken, Text: s}
}

func timestampToken(v int64) Token {
	return Token{Kind: TimestampToken, Num: v}
}

func boolToken(b bool) Token {
	if b {
		return Token{Kind: BoolToken, Num: 1}
	}
	return Token{Kind: BoolToken}
}

// Value returns the token value as a plain Go value.
func (t Token) Value() interface{} {
	switch t.Kind {
	case UintToken, IntToken, TimestampToken:
		return t.Num
	case DoubleToken:
		return t.Float
	case BoolToken:
		return t.Num != 0
	case StringToken, NameToken:
		return t.Text
	}
	return nil
}

// MarshalJSON encodes the token as {"kind":"uint","value":1}.
func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string      `json:"kind"`
		Value interface{} `json:"value"`
	}{t.Kind.String(), t.Value()})
}

// Tokens is the ordered result of parsing one line. Consumers read it front
// to back with the typed accessors. An accessor that finds a token of a
// different kind returns an error wrapping errs.ErrTokenMismatch and does
// not advance.
type Tokens struct {
	list []Token
	pos  int
}

func newTokens(code Code, capacity int) *Tokens {
	t := &Tokens{list: make([]Token, 0, capacity+1)}
	t.list = append(t.list, uintToken(int64(code)))
	return t
}

func (t *Tokens) add(tok ...Token) {
	t.list = append(t.list, tok...)
}

// All returns every token, including the leading code.
func (t *Tokens) All() []Token {
	return t.list
}

// Len returns the total number of tokens.
func (t *Tokens) Len() int {
	return len(t.list)
}

// Remaining returns the number of unread tokens.
func (t *Tokens) Remaining() int {
	return len(t.list) - t.pos
}

// Reset rewinds the read cursor to the first token.
func (t *Tokens) Reset() {
	t.pos = 0
}

// Peek returns the next token without consuming it. At the end of the
// stream it returns a token of kind EndToken.
func (t *Tokens) Peek() Token {
	if t.pos >= len(t.list) {
		return Token{Kind: EndToken}
	}
	return t.list[t.pos]
}

// MessageCode returns the code of the line without moving the cursor.
func (t *Tokens) MessageCode() Code {
	if len(t.list) == 0 {
		return 0
	}
	return Code(t.list[0].Num)
}

// MarshalJSON encodes the tokens as a JSON array.
func (t *Tokens) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.list)
}

func (t *Tokens) next(kind TokenKind) (Token, error) {
	if t.pos >= len(t.list) {
		return Token{}, &errs.TokenError{Err: errs.ErrNoTokens, Index: t.pos, Expected: kind.String()}
	}
	tok := t.list[t.pos]
	if tok.Kind != kind {
		return Token{}, &errs.TokenError{
			Err:      errs.ErrTokenMismatch,
			Index:    t.pos,
			Expected: kind.String(),
			Got:      tok.Kind.String(),
		}
	}
	t.pos++
	return tok, nil
}

// Code reads the message code.
func (t *Tokens) Code() (Code, error) {
	tok, err := t.next(UintToken)
	return Code(tok.Num), err
}

// Uint reads an unsigned integer.
func (t *Tokens) Uint() (int, error) {
	tok, err := t.next(UintToken)
	return int(tok.Num), err
}

// Int reads a signed integer.
func (t *Tokens) Int() (int, error) {
	tok, err := t.next(IntToken)
	return int(tok.Num), err
}

// Double reads a floating point number.
func (t *Tokens) Double() (float64, error) {
	tok, err := t.next(DoubleToken)
	return tok.Float, err
}

// Bool reads a boolean.
func (t *Tokens) Bool() (bool, error) {
	tok, err := t.next(BoolToken)
	return tok.Num != 0, err
}

// Text reads a free-form string.
func (t *Tokens) Text() (string, error) {
	tok, err := t.next(StringToken)
	return tok.Text, err
}

// Name reads a player name.
func (t *Tokens) Name() (string, error) {
	tok, err := t.next(NameToken)
	return tok.Text, err
}

// Timestamp reads a point in time.
func (t *Tokens) Timestamp() (time.Time, error) {
	tok, err := t.next(TimestampToken)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(tok.Num, 0).UTC(), nil
}

// End returns an error unless every token has been read.
func (t *Tokens) End() error {
	if t.pos < len(t.list) {
		return &errs.TokenError{
			Err:      errs.ErrTokenMismatch,
			Index:    t.pos,
			Expected: EndToken.String(),
			Got:      t.list[t.pos].Kind.String(),
		}
	}
	return nil
}
