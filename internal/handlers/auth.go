package handlers

import (
	"context"
	"errors"
	"net/http"

	"session_auth/internal/metrics"
	"session_auth/internal/models"
	"session_auth/internal/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Fixed client-facing messages. Internal detail only goes to the log.
const (
	msgMissingFields     = "Both username and password are required"
	msgPasswordTooLong   = "Password must be at most 72 bytes"
	msgRegistered        = "User registered successfully"
	msgUsernameTaken     = "Username already exists"
	msgRegisterFailed    = "Internal server error during registration"
	msgInvalidCredential = "Invalid username or password"
	msgLoginFailed       = "Internal server error during login"
	msgLogoutOK          = "Logout successful"
	msgLogoutFailed      = "Internal server error during logout"
	msgUnauthorized      = "Unauthorized"
	msgInternal          = "Internal server error"
	msgListUsersFailed   = "Internal server error while fetching users"
)

// sessionKey is the cookie-session field holding the opaque session id.
const sessionKey = "sid"

// Single, shared credentials payload for both register and login.
type authCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("auth_bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return false
	}
	return true
}

// @Summary      Register a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "credentials"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /register [post]
func (h *Handler) register(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		h.metrics.ObserveAuth(metrics.OpRegister, metrics.ResultInvalid)
		return
	}

	_, err := h.services.Register(c.Request.Context(), input.Username, input.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingFields):
		h.metrics.ObserveAuth(metrics.OpRegister, metrics.ResultInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return
	case errors.Is(err, service.ErrPasswordTooLong):
		h.metrics.ObserveAuth(metrics.OpRegister, metrics.ResultInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": msgPasswordTooLong})
		return
	case errors.Is(err, service.ErrDuplicateUsername):
		h.metrics.ObserveAuth(metrics.OpRegister, metrics.ResultConflict)
		if h.log != nil {
			h.log.Infow("auth_register_duplicate", "username", input.Username)
		}
		c.JSON(http.StatusConflict, gin.H{"error": msgUsernameTaken})
		return
	default:
		h.metrics.ObserveAuth(metrics.OpRegister, metrics.ResultError)
		if h.log != nil {
			h.log.Errorw("auth_register_failed", "username", input.Username, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgRegisterFailed})
		return
	}

	h.metrics.ObserveAuth(metrics.OpRegister, metrics.ResultSuccess)
	h.audit(c, models.EventRegister, input.Username, "user registered")
	c.JSON(http.StatusCreated, gin.H{"message": msgRegistered})
}

// @Summary      Log in
// @Description  Sets the session cookie on success. Any session already carried by the request is destroyed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "credentials"
// @Success      200   {object}  map[string]string  "username"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /login [post]
func (h *Handler) login(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		h.metrics.ObserveAuth(metrics.OpLogin, metrics.ResultInvalid)
		return
	}

	ctx := c.Request.Context()
	sid, err := h.services.Login(ctx, input.Username, input.Password, h.sessionID(c))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingFields):
		h.metrics.ObserveAuth(metrics.OpLogin, metrics.ResultInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingFields})
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		h.metrics.ObserveAuth(metrics.OpLogin, metrics.ResultUnauthorized)
		if h.log != nil {
			h.log.Infow("auth_login_rejected", "username", input.Username)
		}
		h.audit(c, models.EventLoginFailed, input.Username, "invalid credentials")
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredential})
		return
	default:
		h.metrics.ObserveAuth(metrics.OpLogin, metrics.ResultError)
		if h.log != nil {
			h.log.Errorw("auth_login_failed", "username", input.Username, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgLoginFailed})
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionKey, sid)
	session.Options(h.cookieOptions(int(h.cfg.MaxAge.Seconds())))
	if err := session.Save(); err != nil {
		h.metrics.ObserveAuth(metrics.OpLogin, metrics.ResultError)
		if h.log != nil {
			h.log.Errorw("auth_session_cookie_failed", "username", input.Username, "err", err)
		}
		// the client never learns sid, so drop it now
		_ = h.services.Logout(context.WithoutCancel(ctx), sid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgLoginFailed})
		return
	}

	h.metrics.ObserveAuth(metrics.OpLogin, metrics.ResultSuccess)
	h.audit(c, models.EventLogin, input.Username, "session opened")
	c.JSON(http.StatusOK, gin.H{"username": input.Username})
}

// @Summary      Log out
// @Description  Idempotent. Clears the session cookie.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /logout [post]
func (h *Handler) logout(c *gin.Context) {
	ctx := c.Request.Context()
	sid := h.sessionID(c)

	var username string
	if sid != "" {
		username, _ = h.services.WhoAmI(ctx, sid)
	}

	if err := h.services.Logout(ctx, sid); err != nil {
		h.metrics.ObserveAuth(metrics.OpLogout, metrics.ResultError)
		if h.log != nil {
			h.log.Errorw("auth_logout_failed", "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgLogoutFailed})
		return
	}

	h.clearSessionCookie(c)
	h.metrics.ObserveAuth(metrics.OpLogout, metrics.ResultSuccess)
	if username != "" {
		h.audit(c, models.EventLogout, username, "session closed")
	}
	c.JSON(http.StatusOK, gin.H{"message": msgLogoutOK})
}

// @Summary   Welcome page
// @Tags      auth
// @Produce   plain
// @Success   200  {string}  string  "Welcome, <username>!"
// @Failure   401  {string}  string  "Unauthorized"
// @Router    /home [get]
func (h *Handler) home(c *gin.Context) {
	username, err := h.services.WhoAmI(c.Request.Context(), h.sessionID(c))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUnauthorized):
		h.metrics.ObserveAuth(metrics.OpHome, metrics.ResultUnauthorized)
		c.String(http.StatusUnauthorized, msgUnauthorized)
		return
	default:
		h.metrics.ObserveAuth(metrics.OpHome, metrics.ResultError)
		if h.log != nil {
			h.log.Errorw("auth_home_failed", "err", err)
		}
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}

	h.metrics.ObserveAuth(metrics.OpHome, metrics.ResultSuccess)
	c.String(http.StatusOK, "Welcome, %s!", username)
}

// @Summary   List usernames
// @Tags      auth
// @Produce   json
// @Success   200  {array}   models.UserSummary
// @Failure   500  {object}  map[string]string
// @Router    /all [get]
func (h *Handler) listUsers(c *gin.Context) {
	names, err := h.services.ListUsernames(c.Request.Context())
	if err != nil {
		h.metrics.ObserveAuth(metrics.OpList, metrics.ResultError)
		if h.log != nil {
			h.log.Errorw("auth_list_users_failed", "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgListUsersFailed})
		return
	}

	out := make([]models.UserSummary, 0, len(names))
	for _, n := range names {
		out = append(out, models.UserSummary{Username: n})
	}
	h.metrics.ObserveAuth(metrics.OpList, metrics.ResultSuccess)
	c.JSON(http.StatusOK, out)
}

// sessionID returns the opaque id carried by the signed cookie, or "".
func (h *Handler) sessionID(c *gin.Context) string {
	sid, _ := sessions.Default(c).Get(sessionKey).(string)
	return sid
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(h.cookieOptions(-1))
	if err := session.Save(); err != nil && h.log != nil {
		h.log.Warnw("auth_clear_cookie_failed", "err", err)
	}
}

// audit records an auth event without failing the request.
func (h *Handler) audit(c *gin.Context, typ, username, description string) {
	if h.services.EventLog == nil {
		return
	}
	err := h.services.EventLog.Record(context.WithoutCancel(c.Request.Context()), models.AuthEvent{
		Type:        typ,
		Username:    username,
		Description: description,
		Metadata: map[string]any{
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"request_id": c.GetString(requestIDKey),
		},
	})
	if err != nil && h.log != nil {
		h.log.Warnw("auth_audit_failed", "type", typ, "username", username, "err", err)
	}
}
