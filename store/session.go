package store

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/manus-manager/console/domain"
)

// Session holds the authentication state: whether a user is logged in, the
// current user record, and the bearer token every gateway call attaches.
// Token expiry is read from the JWT claims without signature verification;
// the server remains the authority, the claim only lets the console surface
// "session expired" before wasting a round-trip.
type Session struct {
	mu            sync.RWMutex
	authenticated bool
	user          *domain.User
	token         string
	expiresAt     time.Time
	loading       bool
	err           string
}

func NewSession() *Session {
	return &Session{}
}

// BeginLogin marks a login attempt as in flight and clears any prior error.
// The user record is untouched.
func (s *Session) BeginLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = ""
}

// LoginSucceeded stores the bearer token and user record and flips the
// session to authenticated.
func (s *Session) LoginSucceeded(token string, user domain.User) {
	exp := tokenExpiry(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.token = token
	s.expiresAt = exp
	s.user = &user
	s.loading = false
	s.err = ""
}

// LoginFailed records the failure message. The session stays unauthenticated.
func (s *Session) LoginFailed(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = msg
}

// Logout clears the session. Revoking server-side credentials, where that
// exists, is the gateway's job before this transition.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.user = nil
	s.token = ""
	s.expiresAt = time.Time{}
}

// SetUser replaces the user record in place after a profile edit, without
// touching the authentication flag or token.
func (s *Session) SetUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// User returns a copy of the current user record, if any.
func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Token returns the current bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt returns the token's exp claim. The zero time means the token
// carries no expiry (or none could be parsed).
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Expired reports whether the token's exp claim has passed. Tokens without
// a parseable expiry never report expired.
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated && !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// tokenExpiry extracts the exp claim without verifying the signature.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
