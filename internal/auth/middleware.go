package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskboard/internal/domain"
	"taskboard/internal/session"
)

// UserLookup loads the user a session or token refers to.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Authenticator resolves the caller's identity from the session cookie or a bearer
// token and attaches it to the request. It never rejects a request; guards do that.
type Authenticator struct {
	sessions   *session.Manager
	users      UserLookup
	tokens     *TokenIssuer
	cookieName string
	logger     *logrus.Logger
}

func NewAuthenticator(sessions *session.Manager, users UserLookup, tokens *TokenIssuer, cookieName string, logger *logrus.Logger) *Authenticator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Authenticator{
		sessions:   sessions,
		users:      users,
		tokens:     tokens,
		cookieName: cookieName,
		logger:     logger,
	}
}

func (a *Authenticator) CookieName() string {
	return a.cookieName
}

func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := a.resolve(c); p != nil {
			SetPrincipal(c, p)
		}
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context) *domain.Principal {
	ctx := c.Request.Context()

	if id, err := c.Cookie(a.cookieName); err == nil && id != "" {
		sess, err := a.sessions.Resolve(ctx, id)
		switch {
		case err == nil:
			user, err := a.users.GetByID(ctx, sess.UserID)
			if err != nil {
				a.logger.WithError(err).WithField("user_id", sess.UserID).Warn("load session user")
				return nil
			}
			return PrincipalForUser(user, sess.ID)
		case !errors.Is(err, session.ErrNoSession):
			a.logger.WithError(err).Warn("resolve session")
		}
	}

	if raw, ok := bearerToken(c.GetHeader("Authorization")); ok && a.tokens.Enabled() {
		userID, err := a.tokens.Parse(raw)
		if err != nil {
			return nil
		}
		user, err := a.users.GetByID(ctx, userID)
		if err != nil {
			return nil
		}
		return PrincipalForUser(user, "")
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
