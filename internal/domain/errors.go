package domain

import "errors"

var (
	// ErrContentMissing is returned when question or outcome content is absent or unparseable.
	ErrContentMissing = errors.New("quiz content missing")
	// ErrContentUnavailable is returned to quiz starts while content failed to load.
	ErrContentUnavailable = errors.New("quiz content not available")
	// ErrSessionNotFound is returned by session repositories for unknown users.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionExpired is returned when an answer arrives without a live session.
	ErrSessionExpired = errors.New("quiz session expired")
	// ErrQuizExhausted indicates the session index is past the last question.
	ErrQuizExhausted = errors.New("quiz already finished")
	// ErrInvalidChoice indicates the option index is out of range for the current question.
	ErrInvalidChoice = errors.New("invalid option")
	// ErrNoOutcomesAvailable indicates an empty outcome catalog at resolution time.
	ErrNoOutcomesAvailable = errors.New("no outcomes available")
	// ErrUnknownOutcome indicates a resolved outcome name is not in the catalog.
	ErrUnknownOutcome = errors.New("unknown outcome")
)

// ErrorKind is the stable, transport-facing name of an error class.
type ErrorKind string

const (
	KindContentMissing      ErrorKind = "content_missing"
	KindSessionExpired      ErrorKind = "session_expired"
	KindQuizExhausted       ErrorKind = "quiz_exhausted"
	KindInvalidChoice       ErrorKind = "invalid_choice"
	KindNoOutcomesAvailable ErrorKind = "no_outcomes_available"
	KindUnknownOutcome      ErrorKind = "unknown_outcome"
	KindUnsupportedAction   ErrorKind = "unsupported_action"
	KindInternal            ErrorKind = "internal"
)

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrContentMissing), errors.Is(err, ErrContentUnavailable):
		return KindContentMissing
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrSessionNotFound):
		return KindSessionExpired
	case errors.Is(err, ErrQuizExhausted):
		return KindQuizExhausted
	case errors.Is(err, ErrInvalidChoice):
		return KindInvalidChoice
	case errors.Is(err, ErrNoOutcomesAvailable):
		return KindNoOutcomesAvailable
	case errors.Is(err, ErrUnknownOutcome):
		return KindUnknownOutcome
	default:
		return KindInternal
	}
}

// AdminActionable reports whether kind signals broken content rather than user input.
func (k ErrorKind) AdminActionable() bool {
	switch k {
	case KindContentMissing, KindNoOutcomesAvailable, KindUnknownOutcome, KindInternal:
		return true
	default:
		return false
	}
}
