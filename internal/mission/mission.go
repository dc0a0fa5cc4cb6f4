package mission

import (
	"errors"
	"strings"
)

// ErrBankUnavailable wraps question bank failures. Callers fall back to the
// static challenge rather than leaving the user unable to silence the alarm.
var ErrBankUnavailable = errors.New("question bank unavailable")

// Challenge is one dismissal mission: a question and its expected answer.
type Challenge struct {
	// Question is shown to the user.
	Question string `json:"question"`
	// Answer is the expected answer, never shown.
	Answer string `json:"answer"`
}

// Check reports whether the user's answer dismisses the challenge.
// Comparison is exact string equality after trimming surrounding whitespace;
// no numeric parsing is applied, so "08" does not match "8".
func Check(c Challenge, userAnswer string) bool {
	return strings.TrimSpace(userAnswer) == strings.TrimSpace(c.Answer)
}

// Fallback is the static mission used when the question bank is unreachable.
// Mirrors the client's built-in question so an alarm can always be dismissed.
func Fallback() Challenge {
	return Challenge{Question: "5+8", Answer: "8"}
}
