package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"zone_scheduler/internal/service"
)

const (
	userIDCtxKey = "userId"

	// browsers cannot set headers on a websocket handshake
	tokenQueryParam = "access_token"

	errMissingAuth = "missing Authorization header"
	errBadAuth     = "invalid Authorization header format"
	errBadToken    = "invalid or expired token"
)

// requireUser authenticates the request and attaches the user id to the
// gin context and to the request context, so zone changes made by the
// request are attributed to the user.
func (h *Handler) requireUser(c *gin.Context) {
	token, msg := bearerToken(c)
	if msg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}

	userID, err := h.services.Authorization.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_token_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errBadToken})
		return
	}

	c.Set(userIDCtxKey, userID)
	c.Request = c.Request.WithContext(service.WithUserID(c.Request.Context(), userID))
	c.Next()
}

// bearerToken reads the token from the Authorization header, or from the
// access_token query parameter on websocket upgrades. msg is non-empty when
// no usable token was sent.
func bearerToken(c *gin.Context) (token, msg string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if isWebSocketUpgrade(c.Request) {
			if q := c.Query(tokenQueryParam); q != "" {
				return q, ""
			}
		}
		return "", errMissingAuth
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", errBadAuth
	}
	return strings.TrimSpace(token), ""
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// currentUser returns the id set by requireUser, or 0.
func currentUser(c *gin.Context) int {
	return c.GetInt(userIDCtxKey)
}
