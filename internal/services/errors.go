package services

import (
	"errors"

	"github.com/susumutomita/LabQuiz/internal/store"
)

// Client-visible failure taxonomy. Store-level sentinels are re-exported so
// handlers only ever match against this package.
var (
	ErrNotFound        = store.ErrNotFound
	ErrDuplicateAnswer = store.ErrDuplicateAnswer
	ErrConflict        = store.ErrConflict

	ErrInvalidChoice = errors.New("invalid choice")
	ErrInvalidAction = errors.New("action must be approve, reject or edit")
	ErrForbidden     = errors.New("insufficient role")
	ErrValidation    = errors.New("invalid request")
	// ErrMalformedItem means stored content violates the two-choices
	// invariant. It is a data-integrity bug, not a user mistake.
	ErrMalformedItem = errors.New("malformed item")
	ErrUnavailable   = errors.New("upstream service unavailable")
)
