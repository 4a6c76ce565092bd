package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/manus-manager/console/domain"
	"github.com/manus-manager/console/internal/apitest"
)

func TestLoginSettlesSession(t *testing.T) {
	f := newFixture(t)

	user, err := f.gw.Login(context.Background(), apitest.Username, apitest.Password)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != 7 || user.Username != "alice" {
		t.Errorf("unexpected user %+v", user)
	}

	if !f.session.Authenticated() {
		t.Error("expected authenticated session")
	}
	got, _ := f.session.User()
	if got.ID != 7 {
		t.Errorf("expected session user 7, got %+v", got)
	}
	if f.session.Err() != "" {
		t.Errorf("expected no session error, got %q", f.session.Err())
	}
	if f.session.Token() != apitest.Token {
		t.Errorf("expected bearer token stored, got %q", f.session.Token())
	}
}

func TestLoginFailureRecordsServerDetail(t *testing.T) {
	f := newFixture(t)

	_, err := f.gw.Login(context.Background(), apitest.Username, "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", apiErr.Status)
	}

	if f.session.Authenticated() {
		t.Error("failed login must not authenticate")
	}
	if f.session.Err() != "Incorrect username or password" {
		t.Errorf("expected server detail in session, got %q", f.session.Err())
	}
}

func TestGoogleAuthFlow(t *testing.T) {
	f := newFixture(t)

	authURL, err := f.gw.GoogleAuthURL(context.Background())
	if err != nil {
		t.Fatalf("GoogleAuthURL failed: %v", err)
	}
	if !strings.HasPrefix(authURL, "https://accounts.google.com/") {
		t.Errorf("unexpected auth url %q", authURL)
	}

	user, err := f.gw.LoginWithGoogle(context.Background(), "google-id-token")
	if err != nil {
		t.Fatalf("LoginWithGoogle failed: %v", err)
	}
	if user.ID != 7 || !f.session.Authenticated() {
		t.Errorf("expected authenticated session for user 7, got %+v", user)
	}
}

func TestCurrentUserRefreshesSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	user, err := f.gw.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	got, ok := f.session.User()
	if !ok || got.ID != user.ID {
		t.Errorf("expected session user refreshed, got %+v", got)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.gw.Logout()

	if f.session.Authenticated() {
		t.Error("expected session cleared")
	}
	if f.session.Token() != "" {
		t.Error("expected token cleared")
	}
	// The next call goes out without credentials and is rejected.
	if err := f.gw.RefreshAgents(context.Background()); err == nil {
		t.Error("expected unauthenticated refresh to fail")
	}
}

func TestUpdateProfileValidatesPasswordBeforeNetwork(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	short := "tiny"
	_, err := f.gw.UpdateProfile(context.Background(), 7, domain.UserUpdate{Password: &short}, "tiny")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if valErr.Field != "password" {
		t.Errorf("expected password field, got %q", valErr.Field)
	}

	long := "long-enough-password"
	_, err = f.gw.UpdateProfile(context.Background(), 7, domain.UserUpdate{Password: &long}, "different")
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if valErr.Field != "password_confirm" {
		t.Errorf("expected password_confirm field, got %q", valErr.Field)
	}

	if f.srv.Hits(http.MethodPut, "/users/7") != 0 {
		t.Error("validation failures must not reach the server")
	}
}

func TestUpdateProfileRefreshesSessionUser(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	name := "Alice Liddell"
	user, err := f.gw.UpdateProfile(context.Background(), 7, domain.UserUpdate{FullName: &name}, "")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if user.FullName != name {
		t.Errorf("expected full name updated, got %q", user.FullName)
	}
	got, _ := f.session.User()
	if got.FullName != name {
		t.Errorf("expected session user refreshed, got %+v", got)
	}
}
