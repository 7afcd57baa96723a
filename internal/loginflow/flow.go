// Package loginflow drives the sign-in form: idle, submitting, then success or failure.
package loginflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"taskboard/internal/client"
	"taskboard/internal/domain"
)

type State int

const (
	Idle State = iota
	Submitting
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

const (
	// DefaultErrorMessage is shown when the server gives no message of its own.
	DefaultErrorMessage = "Invalid email or password"
	HomePath            = "/"
)

// ErrInvalidForm is returned by Submit without contacting the server.
var ErrInvalidForm = errors.New("login form is incomplete")

type Form struct {
	Email    string
	Password string
}

// Valid requires a syntactically valid email and a non-empty password.
func (f Form) Valid() bool {
	return domain.ValidEmail(strings.TrimSpace(f.Email)) && f.Password != ""
}

// Authenticator is satisfied by *client.Client.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.User, error)
}

type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// View is what the form renders.
type View struct {
	State   State
	Loading bool
	Error   string
}

type Flow struct {
	auth Authenticator
	nav  Navigator

	mu   sync.Mutex
	view View
}

func New(auth Authenticator, nav Navigator) *Flow {
	return &Flow{auth: auth, nav: nav}
}

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

// Submit sends the form. A failed login leaves the flow in Failure with a message to
// display; the returned error is the one reported by the authenticator.
func (f *Flow) Submit(ctx context.Context, form Form) error {
	if !form.Valid() {
		return ErrInvalidForm
	}

	f.set(View{State: Submitting, Loading: true})

	_, err := f.auth.Login(ctx, strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		f.set(View{State: Failure, Error: failureMessage(err)})
		return err
	}

	f.set(View{State: Success})
	if f.nav != nil {
		f.nav.Navigate(HomePath)
	}
	return nil
}

func (f *Flow) set(v View) {
	f.mu.Lock()
	f.view = v
	f.mu.Unlock()
}

func failureMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return DefaultErrorMessage
}
