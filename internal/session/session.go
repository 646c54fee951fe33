// Package session holds the placeholder authentication state and the gate
// protecting the authenticated part of the application. Credentials are a
// fixed demo pair; real authentication is explicitly out of scope.
package session

import (
	"errors"
	"sync"
)

// ErrNotAuthenticated is returned by Gate.Require when no user is logged in.
// Callers redirect to the login entry point instead of proceeding.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrBadCredentials is returned by Login when the email/password pair does
// not match the demo account.
var ErrBadCredentials = errors.New("invalid email or password")

// Demo account, matching the original placeholder login.
const (
	DemoEmail    = "jack@example.com"
	DemoPassword = "qwerty"
)

// User is the logged-in identity. Only display data, no credentials.
type User struct {
	Name  string
	Email string
}

// Session is the process-wide authentication flag. The zero value is a
// logged-out session.
type Session struct {
	mu   sync.Mutex
	user *User

	// onLogout callbacks tear down session-scoped state (e.g. store reset).
	onLogout []func()
}

// New returns a logged-out Session.
func New() *Session {
	return &Session{}
}

// Login checks the credentials against the demo account and marks the
// session authenticated.
func (s *Session) Login(email, password string) error {
	if email != DemoEmail || password != DemoPassword {
		return ErrBadCredentials
	}
	s.mu.Lock()
	s.user = &User{Name: "Jack", Email: email}
	s.mu.Unlock()
	return nil
}

// Logout clears the authenticated flag and runs the registered teardown
// callbacks (outside the lock).
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	fns := make([]func(), len(s.onLogout))
	copy(fns, s.onLogout)
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// OnLogout registers fn to run every time the session is torn down.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

// IsAuthenticated reports whether a user is logged in.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// User returns the logged-in user, or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Gate is the admission check wrapping the protected section of the
// application: pass-through when authenticated, ErrNotAuthenticated
// otherwise. It has no state of its own beyond reading the session flag.
type Gate struct {
	session *Session
}

// NewGate constructs a Gate over the given session.
func NewGate(s *Session) *Gate {
	return &Gate{session: s}
}

// Require returns nil when the session is authenticated and
// ErrNotAuthenticated when it is not.
func (g *Gate) Require() error {
	if !g.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}
