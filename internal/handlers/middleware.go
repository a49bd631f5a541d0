package handlers

import (
	"errors"
	"net/http"
	"time"

	"session_auth/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestId"
	usernameKey     = "username"
	maxRequestIDLen = 128
)

// requireSession resolves the session cookie and stores the username in the
// Gin context. Requests without a live session get 401.
func (h *Handler) requireSession(c *gin.Context) {
	sid := h.sessionID(c)
	username, err := h.services.WhoAmI(c.Request.Context(), sid)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
			return
		}
		if h.log != nil {
			h.log.Errorw("auth_session_lookup_failed", "err", err)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	c.Set(usernameKey, username)
	c.Set(sessionKey, sid)
	c.Next()
}

// requestID propagates the caller's X-Request-ID or assigns a new one.
func (h *Handler) requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" || len(id) > maxRequestIDLen {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func (h *Handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}
	h.log.Infow("http_request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", c.GetString(requestIDKey),
	)
}
