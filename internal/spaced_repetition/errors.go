package spaced_repetition

import "errors"

// Sentinel errors for the spaced repetition core.
// Check with errors.Is.
var (
	// ErrInvalidGrade is returned for grades outside the 0-5 scale
	ErrInvalidGrade = errors.New("spaced_repetition: grade must be between 0 and 5")
)
