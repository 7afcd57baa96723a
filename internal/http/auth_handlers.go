package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
	"taskboard/internal/domain"
)

// checkLockout rejects logins from a client that failed too often.
func (h *Handler) checkLockout(c *gin.Context) {
	if wait := h.Lockout.RetryAfter(c.ClientIP()); wait > 0 {
		h.rejectLocked(c, wait)
		return
	}
	c.Next()
}

func (h *Handler) rejectLocked(c *gin.Context, wait time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": msgAccountLock})
}

// denyLogin runs when the local guard refuses the credentials.
func (h *Handler) denyLogin(c *gin.Context) {
	if err := auth.LoginError(c); err != nil && !errors.Is(err, auth.ErrInvalidCredentials) {
		h.logFor(c).WithError(err).Error("login")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	ip := c.ClientIP()
	if left := h.Lockout.Fail(ip); left == 0 {
		h.logFor(c).WithField("client_ip", ip).Warn("login locked")
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msgInvalidLogin})
}

func (h *Handler) login(c *gin.Context) {
	p := principal(c)
	ctx := c.Request.Context()

	user, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	// A session carried into login is replaced, never upgraded.
	if prev, err := c.Cookie(h.opts.Cookie.Name); err == nil && prev != "" {
		if err := h.Sessions.Destroy(ctx, prev); err != nil {
			h.writeError(c, err)
			return
		}
	}

	sess, err := h.Sessions.Create(ctx, p.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.Lockout.Reset(c.ClientIP())
	h.setSessionCookie(c, sess.ID, h.Sessions.Policy().Lifetime)
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) logout(c *gin.Context) {
	if p := principal(c); p.SessionID != "" {
		if err := h.Sessions.Destroy(c.Request.Context(), p.SessionID); err != nil {
			h.writeError(c, err)
			return
		}
	}
	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *Handler) register(c *gin.Context) {
	var req domain.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) updateMe(c *gin.Context) {
	var req domain.UpdateProfileInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Users.UpdateProfile(c.Request.Context(), principal(c).UserID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) issueToken(c *gin.Context) {
	if !h.Tokens.Enabled() {
		h.writeError(c, auth.ErrTokensDisabled)
		return
	}
	token, expiresAt, err := h.Tokens.Issue(principal(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: formatTime(expiresAt)})
}

// setSessionCookie writes the session cookie; a negative ttl expires it.
func (h *Handler) setSessionCookie(c *gin.Context, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.Cookie.Name, value, maxAge, "/", h.opts.Cookie.Domain, h.opts.Cookie.Secure, true)
}
