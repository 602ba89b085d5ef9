package quiz

import "errors"

// Sentinel errors for the quiz engine. All of them are recoverable at the
// transport layer; check with errors.Is.
var (
	// ErrSessionNotFound is returned for an unknown session id
	ErrSessionNotFound = errors.New("quiz: session not found")
	// ErrSessionComplete is returned when answering a finished session
	ErrSessionComplete = errors.New("quiz: session already completed")
	// ErrDuplicateSession is returned when a user already has an active session
	ErrDuplicateSession = errors.New("quiz: user already has an active session")
	// ErrInsufficientQuestions is returned when the bank cannot fill a quiz
	ErrInsufficientQuestions = errors.New("quiz: not enough questions available")
	// ErrInvalidAnswer is returned for an option index outside the question
	ErrInvalidAnswer = errors.New("quiz: answer index out of range")
	// ErrInvalidFilter is returned for an unknown category or difficulty
	ErrInvalidFilter = errors.New("quiz: invalid category or difficulty")
	// ErrPersistence wraps store failures; in-memory state stays consistent
	ErrPersistence = errors.New("quiz: failed to persist progress")
)
