package scoring

import (
	"math"
	"strings"
	"unicode"
)

// Coercion names what had to be done to raw input to make it a vote count.
type Coercion string

// Coercion kinds. CoercionNone means the input was already a valid count.
const (
	CoercionNone       Coercion = ""
	CoercionNonNumeric Coercion = "non_numeric"
	CoercionNegative   Coercion = "negative"
	CoercionFraction   Coercion = "fraction"
	CoercionTrailing   Coercion = "trailing_text"
	CoercionOverflow   Coercion = "overflow"
)

// MaxVote is the largest count a cell can hold.
const MaxVote = math.MaxInt32

// ParseVote reads the leading integer of raw text the way a vote-entry box
// does: surrounding spaces and trailing garbage are ignored ("7abc" is 7,
// "3.9" is 3); empty or non-numeric text is 0; negatives become 0.
func ParseVote(raw string) (int, Coercion) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits, overflow := 0, 0, false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits++
		if !overflow {
			n = n*10 + int(r-'0')
			if n > MaxVote {
				overflow = true
			}
		}
	}

	switch {
	case digits == 0:
		return 0, CoercionNonNumeric
	case neg && (n > 0 || overflow):
		return 0, CoercionNegative
	case overflow:
		return MaxVote, CoercionOverflow
	case digits != len(strings.TrimRightFunc(s, unicode.IsSpace)):
		if strings.HasPrefix(s[digits:], ".") {
			return n, CoercionFraction
		}
		return n, CoercionTrailing
	}
	return n, CoercionNone
}

// CoerceVote turns a decoded JSON or YAML value into a vote count.
// Numbers are truncated toward zero; strings go through ParseVote; anything
// else (null, booleans, objects) is 0.
func CoerceVote(v any) (int, Coercion) {
	switch x := v.(type) {
	case int:
		return coerceInt(int64(x))
	case int64:
		return coerceInt(x)
	case int32:
		return coerceInt(int64(x))
	case uint64:
		if x > MaxVote {
			return MaxVote, CoercionOverflow
		}
		return int(x), CoercionNone
	case float64:
		return coerceFloat(x)
	case float32:
		return coerceFloat(float64(x))
	case string:
		return ParseVote(x)
	default:
		return 0, CoercionNonNumeric
	}
}

func coerceInt(x int64) (int, Coercion) {
	switch {
	case x < 0:
		return 0, CoercionNegative
	case x > MaxVote:
		return MaxVote, CoercionOverflow
	}
	return int(x), CoercionNone
}

func coerceFloat(x float64) (int, Coercion) {
	switch {
	case math.IsNaN(x):
		return 0, CoercionNonNumeric
	case x < 0:
		return 0, CoercionNegative
	case x > MaxVote:
		return MaxVote, CoercionOverflow
	}
	t := math.Trunc(x)
	if t != x {
		return int(t), CoercionFraction
	}
	return int(t), CoercionNone
}
