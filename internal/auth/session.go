package auth

import (
	"context"
	"errors"
	"sync"

	"mdcat-quiz-client/internal/domain"
)

// AuthAPI is the backend's auth surface.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	Me(ctx context.Context) (domain.User, error)
}

// State is the session's verification state.
type State string

const (
	StateUnknown    State = "unknown"
	StateVerified   State = "verified"
	StateUnverified State = "unverified"
)

// Session is an explicit auth-state object backed by a single source of
// truth: the backend's auth/me/ endpoint. Every state change goes through a
// re-verification rather than trusting the outcome of login/refresh alone.
type Session struct {
	api AuthAPI

	mu    sync.Mutex
	state State
	user  domain.User
}

func NewSession(api AuthAPI) *Session {
	return &Session{api: api, state: StateUnknown}
}

// Init verifies the current credentials on startup. An unauthenticated user
// is a normal outcome, not an error.
func (s *Session) Init(ctx context.Context) error {
	return s.verify(ctx)
}

// Login authenticates and re-verifies through auth/me/.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if err := s.api.Login(ctx, username, password); err != nil {
		return err
	}
	return s.verify(ctx)
}

// Logout invalidates the backend session and clears local state. A failed
// logout call still clears local state; the cookies are gone either way.
func (s *Session) Logout(ctx context.Context) {
	_ = s.api.Logout(ctx)
	s.mu.Lock()
	s.state = StateUnverified
	s.user = domain.User{}
	s.mu.Unlock()
}

// Refresh rotates tokens and re-verifies.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.api.Refresh(ctx); err != nil {
		return err
	}
	return s.verify(ctx)
}

func (s *Session) verify(ctx context.Context) error {
	user, err := s.api.Me(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.user = domain.User{}
		if errors.Is(err, domain.ErrUnauthorized) {
			s.state = StateUnverified
			return nil
		}
		s.state = StateUnknown
		return err
	}
	s.state = StateVerified
	s.user = user
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the verified account, or ErrNotAuthenticated otherwise.
func (s *Session) User() (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateVerified {
		return domain.User{}, domain.ErrNotAuthenticated
	}
	return s.user, nil
}
