package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound is returned when a non-guest user id is unknown to the store.
	ErrUserNotFound = errors.New("user not found")
	// ErrAttemptNotFound is returned for unknown or swept play attempts.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrSessionNotFound is returned when a session token is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnauthorized means no valid session accompanied the request.
	ErrUnauthorized = errors.New("missing or invalid session")
	// ErrForbidden means the session user does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrAttemptFinished is returned for answer events after the attempt is over.
	ErrAttemptFinished = errors.New("attempt already finished")
	// ErrNotAnswered is returned when advancing before an option was selected.
	ErrNotAnswered = errors.New("current question has not been answered")
	// ErrDuplicateSubmission is returned when an attempt id was already recorded.
	ErrDuplicateSubmission = errors.New("attempt already submitted")
	// ErrSubmissionFailed wraps store failures while recording a result.
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrGeneratorUnavailable is returned when no quiz generator is configured.
	ErrGeneratorUnavailable = errors.New("quiz generator not configured")
	// ErrGenerationFailed wraps failures of the external quiz generator.
	ErrGenerationFailed = errors.New("quiz generation failed")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrAuthFailure is matched by every credential or registration failure.
	ErrAuthFailure = errors.New("authentication failed")
)

var (
	ErrUnknownEmail       error = &authError{msg: "user not found"}
	ErrInvalidCredentials error = &authError{msg: "invalid credentials"}
	ErrEmailTaken         error = &authError{msg: "email already registered"}
)

type authError struct {
	msg string
}

func (e *authError) Error() string { return e.msg }

func (e *authError) Is(target error) bool { return target == ErrAuthFailure }

// ValidationError reports a malformed field of an authoring or registration request.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
