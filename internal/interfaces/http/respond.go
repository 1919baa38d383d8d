// Package http wires the application services onto the REST API. Handlers
// bind and validate payload shape only; the services own the workflow rules
// and return classified errors this package maps to status codes.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krishsoni15/procureflow/internal/domain/apperr"
)

// statusFor maps an error kind onto its HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindUsageConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error with its mapped status. Internal failures are
// masked; everything else surfaces its message verbatim.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}
