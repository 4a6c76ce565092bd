package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/manus-manager/console/domain"
)

const minPasswordLength = 8

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        domain.User `json:"user"`
}

type googleAuthURLResponse struct {
	AuthURL string `json:"auth_url"`
}

type googleAuthRequest struct {
	Token string `json:"token"`
}

// Login authenticates with username and password (form-encoded, as the
// server expects) and settles the session store either way.
func (g *Gateway) Login(ctx context.Context, username, password string) (*domain.User, error) {
	g.session.BeginLogin()

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp tokenResponse
	if err := g.client.postForm(ctx, "/auth/login", form, &resp); err != nil {
		g.session.LoginFailed(errMessage(err))
		return nil, err
	}

	g.session.LoginSucceeded(resp.AccessToken, resp.User)
	g.logger.Infow("login_succeeded", "user_id", resp.User.ID, "username", resp.User.Username)
	return &resp.User, nil
}

// GoogleAuthURL fetches the URL the browser is sent to for the Google
// consent screen.
func (g *Gateway) GoogleAuthURL(ctx context.Context) (string, error) {
	var resp googleAuthURLResponse
	if err := g.client.getJSON(ctx, "/auth/google/auth-url", &resp); err != nil {
		return "", err
	}
	return resp.AuthURL, nil
}

// LoginWithGoogle exchanges a Google ID token for a session.
func (g *Gateway) LoginWithGoogle(ctx context.Context, token string) (*domain.User, error) {
	g.session.BeginLogin()

	var resp tokenResponse
	if err := g.client.postJSON(ctx, "/auth/google", googleAuthRequest{Token: token}, &resp); err != nil {
		g.session.LoginFailed(errMessage(err))
		return nil, err
	}

	g.session.LoginSucceeded(resp.AccessToken, resp.User)
	g.logger.Infow("google_login_succeeded", "user_id", resp.User.ID)
	return &resp.User, nil
}

// CurrentUser re-fetches the authenticated user record and refreshes the
// session's copy.
func (g *Gateway) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := g.client.getJSON(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	g.session.SetUser(user)
	return &user, nil
}

// Logout clears the session. The server keeps no revocable session state
// for bearer tokens, so no round-trip is made.
func (g *Gateway) Logout() {
	g.session.Logout()
	g.logger.Infow("logout")
}

// UpdateProfile edits the current user. Password changes are validated
// client-side before any network call: minimum length and matching
// confirmation. The session's user record is refreshed from the response.
func (g *Gateway) UpdateProfile(ctx context.Context, userID int, upd domain.UserUpdate, passwordConfirm string) (*domain.User, error) {
	if upd.Password != nil {
		if len(*upd.Password) < minPasswordLength {
			return nil, &ValidationError{
				Field:   "password",
				Message: fmt.Sprintf("must be at least %d characters", minPasswordLength),
			}
		}
		if *upd.Password != passwordConfirm {
			return nil, &ValidationError{Field: "password_confirm", Message: "passwords do not match"}
		}
	}

	var user domain.User
	if err := g.client.putJSON(ctx, fmt.Sprintf("/users/%d", userID), upd, &user); err != nil {
		return nil, err
	}
	g.session.SetUser(user)
	g.logger.Infow("profile_updated", "user_id", user.ID)
	return &user, nil
}
