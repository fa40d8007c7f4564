package auth

import (
	"context"
	"errors"
	"testing"

	"mdcat-quiz-client/internal/domain"
)

type fakeAuthAPI struct {
	loginErr   error
	refreshErr error
	meUser     domain.User
	meErr      error

	loginCalls  int
	logoutCalls int
	meCalls     int
}

func (f *fakeAuthAPI) Login(ctx context.Context, username, password string) error {
	f.loginCalls++
	return f.loginErr
}

func (f *fakeAuthAPI) Logout(ctx context.Context) error {
	f.logoutCalls++
	return nil
}

func (f *fakeAuthAPI) Refresh(ctx context.Context) error {
	return f.refreshErr
}

func (f *fakeAuthAPI) Me(ctx context.Context) (domain.User, error) {
	f.meCalls++
	return f.meUser, f.meErr
}

func TestInitWithValidCookiesVerifies(t *testing.T) {
	api := &fakeAuthAPI{meUser: domain.User{ID: 1, Username: "alice"}}
	session := NewSession(api)

	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if session.State() != StateVerified {
		t.Fatalf("expected verified, got %s", session.State())
	}
	user, err := session.User()
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestInitWithoutCredentialsIsNotAnError(t *testing.T) {
	api := &fakeAuthAPI{meErr: domain.ErrUnauthorized}
	session := NewSession(api)

	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("an unauthenticated user should not fail init: %v", err)
	}
	if session.State() != StateUnverified {
		t.Fatalf("expected unverified, got %s", session.State())
	}
	if _, err := session.User(); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestInitNetworkFailureLeavesStateUnknown(t *testing.T) {
	api := &fakeAuthAPI{meErr: errors.New("connection refused")}
	session := NewSession(api)

	if err := session.Init(context.Background()); err == nil {
		t.Fatal("expected error from unreachable backend")
	}
	if session.State() != StateUnknown {
		t.Fatalf("expected unknown, got %s", session.State())
	}
}

func TestLoginVerifiesThroughMe(t *testing.T) {
	api := &fakeAuthAPI{meUser: domain.User{ID: 2, Username: "bob"}}
	session := NewSession(api)

	if err := session.Login(context.Background(), "bob", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if api.loginCalls != 1 || api.meCalls != 1 {
		t.Fatalf("expected login then me, got login=%d me=%d", api.loginCalls, api.meCalls)
	}
	if session.State() != StateVerified {
		t.Fatalf("expected verified, got %s", session.State())
	}
}

func TestLoginFailureSkipsVerification(t *testing.T) {
	api := &fakeAuthAPI{loginErr: domain.ErrUnauthorized}
	session := NewSession(api)

	if err := session.Login(context.Background(), "bob", "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if api.meCalls != 0 {
		t.Fatalf("me should not be called after failed login, got %d", api.meCalls)
	}
	if session.State() != StateUnknown {
		t.Fatalf("expected unknown, got %s", session.State())
	}
}

func TestLogoutClearsStateEvenIfBackendCallFails(t *testing.T) {
	api := &fakeAuthAPI{meUser: domain.User{ID: 1, Username: "alice"}}
	session := NewSession(api)
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	session.Logout(context.Background())
	if api.logoutCalls != 1 {
		t.Fatalf("expected one logout call, got %d", api.logoutCalls)
	}
	if session.State() != StateUnverified {
		t.Fatalf("expected unverified, got %s", session.State())
	}
	if _, err := session.User(); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
