// Package session holds the signed-in identity handed to toman by the
// identity provider. It is passed explicitly to every component that needs
// the actor; there is no global session.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tgienger/toman/internal/apperr"
	"github.com/tgienger/toman/internal/models"
)

// Provider is what the core needs from the identity collaborator
type Provider interface {
	// Current returns the signed-in user or a NotLoaded error
	Current() (models.User, error)
	// Token returns the bearer token to forward to the backend, if any
	Token() string
}

// Session is the default Provider
type Session struct {
	mu      sync.RWMutex
	user    *models.User
	token   string
	expires time.Time
	now     func() time.Time
}

// New creates a loaded session for user
func New(user models.User, token string) *Session {
	return &Session{user: &user, token: token, now: time.Now}
}

// Pending creates a session whose user has not loaded yet
func Pending() *Session {
	return &Session{now: time.Now}
}

// Claims are the identity claims read from the provider's session token
type Claims struct {
	Name      string `json:"name,omitempty"`
	GivenName string `json:"given_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Picture   string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// FromToken builds a session from the identity provider's JWT. The signature
// is not checked here; the backend verifies the token it receives.
func FromToken(token string) (*Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Pending(), nil
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindNotLoaded, Message: "invalid session token", Err: err}
	}
	if claims.Subject == "" {
		return nil, &apperr.Error{Kind: apperr.KindNotLoaded, Message: "session token has no subject"}
	}

	s := &Session{
		user: &models.User{
			ID:     claims.Subject,
			Name:   displayName(claims),
			Email:  claims.Email,
			Avatar: claims.Picture,
		},
		token: token,
		now:   time.Now,
	}
	if claims.ExpiresAt != nil {
		s.expires = claims.ExpiresAt.Time
		if !s.expires.After(s.now()) {
			return nil, &apperr.Error{Kind: apperr.KindNotLoaded, Message: "session token expired"}
		}
	}
	return s, nil
}

func displayName(c *Claims) string {
	switch {
	case c.Name != "":
		return c.Name
	case c.GivenName != "":
		return c.GivenName
	}
	return models.UnknownUserName
}

// Loaded reports whether a user is available
func (s *Session) Loaded() bool {
	_, err := s.Current()
	return err == nil
}

// Current returns the signed-in user
func (s *Session) Current() (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return models.User{}, apperr.NotLoaded()
	}
	if !s.expires.IsZero() && !s.expires.After(s.now()) {
		return models.User{}, apperr.NotLoaded()
	}
	return *s.user, nil
}

// Token returns the bearer token
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignOut forgets the user and token
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.expires = time.Time{}
}
