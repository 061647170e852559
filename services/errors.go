package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuizNotFound covers both truly absent quizzes and quizzes owned by
	// another user. Lookups are filtered by owner at the query, so the two
	// cases are indistinguishable on purpose.
	ErrQuizNotFound = errors.New("quiz not found")

	// ErrInvalidCredentials is returned for any login failure without
	// revealing which factor was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrGeneratorNotConfigured means GEMINI_API_KEY was absent at startup.
	// It is checked before any network call is attempted.
	ErrGeneratorNotConfigured = errors.New("quiz generation is not configured: GEMINI_API_KEY is missing")
)

// ValidationError reports a problem with caller-supplied input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// GenerationError wraps a failure from the external model call. A single
// failed attempt fails the whole operation; there is no retry.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("quiz generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// DecodeError reports model output that could not be decoded into a quiz,
// either because it was not valid JSON or because required fields were
// missing or empty. Fields lists every field-level problem found.
type DecodeError struct {
	Message string
	Fields  []string
}

func (e *DecodeError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, "; ")
}
