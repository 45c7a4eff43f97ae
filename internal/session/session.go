// Package session owns the bearer token and the authenticated user. The
// token is persisted as a single string in a fixed-name file under the user
// config dir; lifecycle spans login to logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskdeck/internal/api"
	"taskdeck/internal/config"
	"taskdeck/internal/model"
)

// ErrNoSession means no token is persisted; the caller should show the
// login form.
var ErrNoSession = errors.New("session: not logged in")

type Session struct {
	client    *api.Client
	tokenPath string

	// mu guards user: Login runs off the render loop while keybinding
	// handlers read Authenticated and User.
	mu   sync.RWMutex
	user *model.User
}

func New(client *api.Client, tokenPath string) *Session {
	return &Session{client: client, tokenPath: tokenPath}
}

// User returns the authenticated user, or nil when logged out. Replaced
// wholesale on every profile refresh.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) setUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// Login authenticates, persists the token, then loads the full profile.
// Any failure leaves the session unauthenticated.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.client.SetToken(resp.Token)

	if err := s.writeToken(resp.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	user, err := s.client.Profile(ctx)
	if err != nil {
		_ = s.Logout()
		return err
	}
	s.setUser(&user)
	return nil
}

// Logout clears the persisted token and the in-memory user. Idempotent.
// Callers are responsible for also clearing their view cache.
func (s *Session) Logout() error {
	s.setUser(nil)
	s.client.SetToken("")
	if err := os.Remove(s.tokenPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Restore re-establishes a session from a persisted token. A token past its
// JWT expiry is discarded without a network call; a failed profile fetch
// forces logout (stale or revoked token recovery).
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.readToken()
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoSession
	}
	if tokenExpired(token, time.Now()) {
		_ = s.Logout()
		return ErrNoSession
	}

	s.client.SetToken(token)
	user, err := s.client.Profile(ctx)
	if err != nil {
		_ = s.Logout()
		return fmt.Errorf("restore session: %w", err)
	}
	s.setUser(&user)
	return nil
}

func (s *Session) readToken() (string, error) {
	data, err := os.ReadFile(s.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Session) writeToken(token string) error {
	if err := config.EnsureDir(s.tokenPath); err != nil {
		return err
	}
	return os.WriteFile(s.tokenPath, []byte(token), 0o600)
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; verification is the server's job. Tokens that are not JWTs or
// carry no expiry pass through and the profile fetch decides.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
