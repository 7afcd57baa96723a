package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"taskboard/internal/domain"
)

func newTestContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx, rec
}

func TestAuthenticatedGuardMirrorsPrincipal(t *testing.T) {
	guard := AuthenticatedGuard{}

	ctx, rec := newTestContext("")
	if guard.CanActivate(ctx) {
		t.Fatal("guard admitted a request without principal")
	}
	if len(ctx.Keys) != 0 || rec.Body.Len() != 0 || ctx.IsAborted() {
		t.Fatal("guard must not modify the request")
	}

	SetPrincipal(ctx, &domain.Principal{UserID: 1})
	if !guard.CanActivate(ctx) {
		t.Fatal("guard rejected an authenticated request")
	}
	if !guard.CanActivate(ctx) {
		t.Fatal("guard result changed between calls")
	}
}

func TestAuthenticatedGuardIgnoresNilPrincipal(t *testing.T) {
	ctx, _ := newTestContext("")
	ctx.Set(ContextPrincipalKey, (*domain.Principal)(nil))
	if (AuthenticatedGuard{}).CanActivate(ctx) {
		t.Fatal("nil principal treated as authenticated")
	}
	ctx.Set(ContextPrincipalKey, "not a principal")
	if (AuthenticatedGuard{}).CanActivate(ctx) {
		t.Fatal("foreign value treated as authenticated")
	}
}

type stubStrategy struct {
	user  *domain.User
	err   error
	calls int
	email string
}

func (s *stubStrategy) Validate(_ context.Context, email, _ string) (*domain.User, error) {
	s.calls++
	s.email = email
	return s.user, s.err
}

func TestLocalGuardSuccess(t *testing.T) {
	strategy := &stubStrategy{user: &domain.User{ID: 4, Email: "ada@example.com", Name: "Ada"}}
	var guard Guard = NewLocalGuard(strategy)

	ctx, _ := newTestContext(`{"email":"ada@example.com","password":"secret123"}`)
	if !guard.CanActivate(ctx) {
		t.Fatal("expected guard to activate")
	}
	p, ok := PrincipalFrom(ctx)
	if !ok || p.UserID != 4 || p.Email != "ada@example.com" {
		t.Fatalf("unexpected principal %#v", p)
	}
	if LoginError(ctx) != nil {
		t.Fatal("no login error expected")
	}
}

func TestLocalGuardRejectsBadCredentials(t *testing.T) {
	strategy := &stubStrategy{err: ErrInvalidCredentials}
	guard := NewLocalGuard(strategy)

	ctx, _ := newTestContext(`{"email":"ada@example.com","password":"nope"}`)
	if guard.CanActivate(ctx) {
		t.Fatal("guard activated with bad credentials")
	}
	if IsAuthenticated(ctx) {
		t.Fatal("principal attached after failure")
	}
	if LoginError(ctx) != ErrInvalidCredentials {
		t.Fatalf("login error = %v", LoginError(ctx))
	}
}

func TestLocalGuardRejectsMissingFields(t *testing.T) {
	strategy := &stubStrategy{}
	guard := NewLocalGuard(strategy)

	ctx, _ := newTestContext(`{"email":"ada@example.com"}`)
	if guard.CanActivate(ctx) {
		t.Fatal("guard activated without password")
	}
	if strategy.calls != 0 {
		t.Fatal("strategy must not run for an incomplete body")
	}
}

func TestProtect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	allow := false
	router.GET("/secret",
		Protect(GuardFunc(func(*gin.Context) bool { return allow }), Unauthorized("Authentication required")),
		func(c *gin.Context) { c.String(http.StatusOK, "ok") },
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secret", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"message":"Authentication required"`)) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	allow = true
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secret", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
