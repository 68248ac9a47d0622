// Package conv provides safe integer conversion helpers for the pattern parser.
//
// Repetition bounds and backreference numbers arrive as runs of decimal
// digits in pattern text. These functions perform bounds checking while
// accumulating, so an oversized count is reported instead of silently
// wrapping around.
package conv

import (
	"errors"
	"math"
)

// MaxCount is the largest repetition bound or group number accepted.
const MaxCount = math.MaxInt32

// ErrOverflow is returned when a digit run does not fit in MaxCount.
var ErrOverflow = errors.New("integer overflow: value out of count range")

// ErrNotDigits is returned for an empty run or a run containing a non-digit.
var ErrNotDigits = errors.New("not a decimal digit run")

// DigitsToInt converts a run of ASCII decimal digits to an int.
// Returns ErrOverflow if the value exceeds MaxCount.
func DigitsToInt(digits string) (int, error) {
	if digits == "" {
		return 0, ErrNotDigits
	}
	n := 0
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, ErrNotDigits
		}
		// Check before multiplying so n never exceeds MaxCount
		if n > (MaxCount-int(c-'0'))/10 {
			return 0, ErrOverflow
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
