package loginflow

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"taskboard/internal/client"
)

type stubAuth struct {
	calls int
	err   error
	seen  View
	flow  *Flow
}

func (s *stubAuth) Login(_ context.Context, email, password string) (*client.User, error) {
	s.calls++
	if s.flow != nil {
		s.seen = s.flow.View()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &client.User{ID: 1, Email: email}, nil
}

type recorder struct{ paths []string }

func (r *recorder) Navigate(path string) { r.paths = append(r.paths, path) }

func TestFormValid(t *testing.T) {
	cases := []struct {
		form Form
		want bool
	}{
		{Form{Email: "ada@example.com", Password: "secret"}, true},
		{Form{Email: "  ada@example.com ", Password: "x"}, true},
		{Form{Email: "", Password: "secret"}, false},
		{Form{Email: "not-an-email", Password: "secret"}, false},
		{Form{Email: "ada@example.com", Password: ""}, false},
	}
	for _, tc := range cases {
		if got := tc.form.Valid(); got != tc.want {
			t.Errorf("Valid(%+v) = %v, want %v", tc.form, got, tc.want)
		}
	}
}

func TestSubmitInvalidFormNeverCallsServer(t *testing.T) {
	auth := &stubAuth{}
	nav := &recorder{}
	flow := New(auth, nav)

	err := flow.Submit(context.Background(), Form{Email: "ada@example.com"})
	if !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("expected ErrInvalidForm, got %v", err)
	}
	if auth.calls != 0 {
		t.Fatalf("authenticator called %d times", auth.calls)
	}
	if v := flow.View(); v.State != Idle || v.Loading {
		t.Fatalf("view changed for invalid form: %+v", v)
	}
}

func TestSubmitSuccessNavigatesHome(t *testing.T) {
	auth := &stubAuth{}
	nav := &recorder{}
	flow := New(auth, nav)
	auth.flow = flow

	if err := flow.Submit(context.Background(), Form{Email: "ada@example.com", Password: "password123"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if auth.seen.State != Submitting || !auth.seen.Loading {
		t.Fatalf("expected loading while submitting, saw %+v", auth.seen)
	}
	if v := flow.View(); v.State != Success || v.Loading || v.Error != "" {
		t.Fatalf("unexpected final view %+v", v)
	}
	if len(nav.paths) != 1 || nav.paths[0] != "/" {
		t.Fatalf("navigation = %v", nav.paths)
	}
}

func TestSubmitFailureMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"server message shown verbatim", &client.APIError{Status: http.StatusTooManyRequests, Message: "Account locked"}, "Account locked"},
		{"empty server message", &client.APIError{Status: http.StatusUnauthorized}, "Invalid email or password"},
		{"transport failure", errors.New("connection refused"), "Invalid email or password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &stubAuth{err: tc.err}
			nav := &recorder{}
			flow := New(auth, nav)

			if err := flow.Submit(context.Background(), Form{Email: "ada@example.com", Password: "wrong"}); err == nil {
				t.Fatal("expected error")
			}
			v := flow.View()
			if v.State != Failure || v.Loading {
				t.Fatalf("unexpected view %+v", v)
			}
			if v.Error != tc.want {
				t.Fatalf("error message = %q, want %q", v.Error, tc.want)
			}
			if len(nav.paths) != 0 {
				t.Fatalf("navigated after failure: %v", nav.paths)
			}
		})
	}
}

func TestSubmitClearsPreviousError(t *testing.T) {
	auth := &stubAuth{err: &client.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}}
	flow := New(auth, nil)
	auth.flow = flow
	form := Form{Email: "ada@example.com", Password: "wrong"}

	_ = flow.Submit(context.Background(), form)
	if flow.View().Error == "" {
		t.Fatal("expected an error after the first attempt")
	}

	auth.err = nil
	if err := flow.Submit(context.Background(), form); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if auth.seen.Error != "" {
		t.Fatalf("previous error still shown while submitting: %q", auth.seen.Error)
	}
	if auth.calls != 2 {
		t.Fatalf("calls = %d, want 2", auth.calls)
	}
}
