// internal/handler/errors.go
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"paycheck-tracker/internal/auth"
	"paycheck-tracker/internal/domain"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsValidation(err),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrConflict), errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status it maps to. Internal errors are
// logged with attrs and hidden from the client.
func respondError(c *gin.Context, err error, msg string, attrs ...any) {
	status := statusFor(err)
	switch {
	case status == http.StatusInternalServerError:
		slog.Error(msg, append([]any{"error", err}, attrs...)...)
		c.JSON(status, gin.H{"error": "Internal error"})
	case status == http.StatusNotFound:
		c.JSON(status, gin.H{"error": "Record not found"})
	case isAuthError(err):
		c.JSON(status, gin.H{"error": auth.Message(err)})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func isAuthError(err error) bool {
	for _, target := range []error{
		domain.ErrUnauthorized,
		auth.ErrInvalidToken,
		auth.ErrInvalidCredentials,
		auth.ErrEmailTaken,
		auth.ErrInvalidEmail,
		auth.ErrWeakPassword,
		auth.ErrPasswordTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
