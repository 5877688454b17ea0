package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizhub-service/internal/domain"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// errorStatus maps domain errors onto an HTTP status and a stable error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest, "email_taken"
	case errors.Is(err, domain.ErrUnknownEmail):
		return http.StatusNotFound, "unknown_email"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound, "quiz_not_found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, domain.ErrAttemptNotFound):
		return http.StatusNotFound, "attempt_not_found"
	case errors.Is(err, domain.ErrDuplicateSubmission):
		return http.StatusConflict, "duplicate_submission"
	case errors.Is(err, domain.ErrAttemptFinished):
		return http.StatusConflict, "attempt_finished"
	case errors.Is(err, domain.ErrNotAnswered):
		return http.StatusConflict, "not_answered"
	case errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway, "generation_failed"
	case errors.Is(err, domain.ErrGeneratorUnavailable):
		return http.StatusServiceUnavailable, "generator_unavailable"
	case errors.Is(err, domain.ErrSubmissionFailed):
		return http.StatusInternalServerError, "submission_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func RespondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	apiErr := APIError{Message: err.Error(), Code: code}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		apiErr.Field = verr.Field
		apiErr.Message = verr.Message
	}
	if status >= http.StatusInternalServerError {
		// Store internals stay in the logs.
		_ = c.Error(err)
		if code == "internal_error" {
			apiErr.Message = "internal error"
		}
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: msg, Code: "bad_request"}})
}
