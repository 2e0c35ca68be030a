package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"zone_scheduler/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
	errInternal        = "internal error"
	errNotSaved        = "change applied but not saved"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondServiceError maps engine errors to HTTP. On a store failure the
// change is live in memory, so applied is returned alongside the error.
func (h *Handler) respondServiceError(c *gin.Context, err error, applied any, logKey string, kv ...interface{}) {
	kv = append(kv, "user_id", currentUser(c))
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStoreFailure):
		if h.log != nil {
			h.log.Errorw(logKey, append([]interface{}{"err", err}, kv...)...)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": errNotSaved, "applied": applied})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, kv...)
	}
}

func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}
