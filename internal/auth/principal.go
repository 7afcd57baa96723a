package auth

import (
	"github.com/gin-gonic/gin"

	"taskboard/internal/domain"
)

// ContextPrincipalKey is the gin context key holding the authenticated *domain.Principal.
const ContextPrincipalKey = "auth.principal"

// SetPrincipal attaches p to the request.
func SetPrincipal(c *gin.Context, p *domain.Principal) {
	c.Set(ContextPrincipalKey, p)
}

// PrincipalFrom returns the principal attached to the request, if any.
func PrincipalFrom(c *gin.Context) (*domain.Principal, bool) {
	v, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*domain.Principal)
	return p, ok && p != nil
}

// IsAuthenticated reports whether an upstream middleware attached a principal.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := PrincipalFrom(c)
	return ok
}

// PrincipalForUser builds the principal for a verified user.
func PrincipalForUser(u *domain.User, sessionID string) *domain.Principal {
	return &domain.Principal{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		SessionID: sessionID,
	}
}
