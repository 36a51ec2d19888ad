package clip

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Value ranges used by the coercion helpers.
const (
	maxPoints    = 9999          // points won in a game or match, match lengths
	maxUnlimited = 9999          // match length FIBS prints for unlimited matches
	maxCounter   = math.MaxInt32 // cube values, experience
	maxTimestamp = math.MaxInt64
)

// extractUint converts s to an unsigned integer in [lo, hi]. The whole
// token must consist of ASCII digits.
func extractUint(s string, lo, hi int64) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// extractInt converts s to a signed integer in [lo, hi].
func extractInt(s string, lo, hi int64) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// extractDouble converts s to a float in [lo, hi].
func extractDouble(s string, lo, hi float64) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// extractBool accepts the CLIP encoding of booleans, "0" or "1".
func extractBool(s string) (bool, bool) {
	switch s {
	case "0":
		return false, true
	case "1":
		return true, true
	}
	return false, false
}

// extractYesNo accepts the toggle encoding of booleans.
func extractYesNo(s string) (bool, bool) {
	switch s {
	case "YES":
		return true, true
	case "NO":
		return false, true
	}
	return false, false
}

// extractName validates a player name. A trailing full stop is removed.
func extractName(s string) (string, bool) {
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] == ':' {
			return "", false
		}
	}
	return s, true
}

// extractQuoted removes the single quotes around s and an optional
// trailing full stop after the closing quote.
func extractQuoted(s string) (string, bool) {
	s = strings.TrimSuffix(s, ".")
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	return s[1 : len(s)-1], true
}

// literals reports whether words[i:] starts with want.
func literals(words []string, i int, want ...string) bool {
	if i < 0 || i+len(want) > len(words) {
		return false
	}
	for j, w := range want {
		if words[i+j] != w {
			return false
		}
	}
	return true
}

// pointsWord accepts "point." and "points.".
func pointsWord(s string) bool {
	return s == "point." || s == "points."
}

// rest returns line after its first i words, with the spacing FIBS sent.
func rest(line string, i int) string {
	for ; i > 0; i-- {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		end := strings.IndexFunc(line, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		line = line[end:]
	}
	return strings.TrimLeftFunc(line, unicode.IsSpace)
}
