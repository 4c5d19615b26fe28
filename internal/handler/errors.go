package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/validate"
)

// writeError maps a service error to one JSON response. Unknown errors are logged and
// reported as 500 with the given fallback message.
func writeError(c *gin.Context, err error, fallback string) {
	var fields validate.FieldErrors
	switch {
	case errors.As(err, &fields):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": fields})
	case errors.Is(err, errs.ErrTicketNotFound), errors.Is(err, errs.ErrProfileNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUnauthenticated), errors.Is(err, errs.ErrTokenExpired),
		errors.Is(err, errs.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrSelfAction):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrInvalidStatus), errors.Is(err, errs.ErrInvalidCategory),
		errors.Is(err, errs.ErrInvalidRole), errors.Is(err, errs.ErrNoChanges):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrAlreadyRegistered), errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"error": errs.ErrAlreadyRegistered.Error()})
	default:
		slog.ErrorContext(c.Request.Context(), "http: unhandled error", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
