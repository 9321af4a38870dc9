package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boltnexus/services"
	"boltnexus/utils"
)

// responder writes service errors as JSON. Unexpected errors are logged and,
// outside development, hidden behind a generic message.
type responder struct {
	exposeErrors bool
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidSignature),
		errors.Is(err, services.ErrAmountMismatch),
		errors.Is(err, services.ErrPaymentBookingMismatch):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrTechnicianMismatch):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrApplianceNotFound),
		errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (r responder) fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	if status < http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	utils.GetLoggerWith(utils.LoggerNameHTTP).Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	msg := msgServerError
	if r.exposeErrors {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parseScheduledDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range scheduledDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
