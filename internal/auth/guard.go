package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/domain"
)

// Guard decides whether a request may reach its handler.
type Guard interface {
	CanActivate(c *gin.Context) bool
}

// GuardFunc adapts a plain predicate to Guard.
type GuardFunc func(c *gin.Context) bool

func (f GuardFunc) CanActivate(c *gin.Context) bool { return f(c) }

// AuthenticatedGuard admits requests that already carry a principal. It has no side
// effects and performs no I/O.
type AuthenticatedGuard struct{}

func (AuthenticatedGuard) CanActivate(c *gin.Context) bool {
	return IsAuthenticated(c)
}

// ErrInvalidCredentials is returned by a LocalStrategy when email/password do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LocalStrategy verifies an email/password pair.
type LocalStrategy interface {
	Validate(ctx context.Context, email, password string) (*domain.User, error)
}

// LoginRequest is the body accepted by the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

const contextLoginErrorKey = "auth.login_error"

// LocalGuard authenticates the request body against a LocalStrategy and attaches the
// verified user as principal. The session itself is created by the login handler.
type LocalGuard struct {
	strategy LocalStrategy
}

func NewLocalGuard(strategy LocalStrategy) *LocalGuard {
	return &LocalGuard{strategy: strategy}
}

func (g *LocalGuard) CanActivate(c *gin.Context) bool {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Set(contextLoginErrorKey, ErrInvalidCredentials)
		return false
	}
	user, err := g.strategy.Validate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Set(contextLoginErrorKey, err)
		return false
	}
	SetPrincipal(c, PrincipalForUser(user, ""))
	return true
}

// LoginError returns the strategy error recorded by a LocalGuard that denied the request.
func LoginError(c *gin.Context) error {
	v, ok := c.Get(contextLoginErrorKey)
	if !ok {
		return nil
	}
	err, _ := v.(error)
	return err
}

// Denial renders a rejected request.
type Denial func(c *gin.Context)

// Unauthorized is the default Denial.
func Unauthorized(message string) Denial {
	return func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message})
	}
}

// Protect turns a guard into middleware. A false result is handed to deny, which must
// abort the request.
func Protect(guard Guard, deny Denial) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !guard.CanActivate(c) {
			deny(c)
			if !c.IsAborted() {
				c.Abort()
			}
			return
		}
		c.Next()
	}
}
