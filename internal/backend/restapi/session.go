package restapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"todo/internal/service"
	"todo/internal/session"
)

// SessionClient owns the token lifecycle: sign-in, sign-up, sign-out and the session check.
// It is the only writer of the token store.
type SessionClient struct {
	tr     *transport
	store  session.Store
	logger *zap.Logger
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

// SignIn posts credentials and stores the returned token.
// Rejections by the backend come back as KindAuthFailed with the backend's message.
func (c *SessionClient) SignIn(ctx context.Context, email, password string) (service.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return service.Session{}, service.NewError(service.KindAuthFailed, 0, "email and password required")
	}

	return c.authenticate(ctx, "/auth/sign-in/email", credentials{Email: email, Password: password},
		service.User{Email: email}, service.KindAuthFailed, "sign in failed")
}

// SignUp registers an account and stores the returned token.
// Rejections by the backend come back as KindRegistrationFailed with the backend's message.
func (c *SessionClient) SignUp(ctx context.Context, email, password, name string) (service.Session, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" {
		return service.Session{}, service.NewError(service.KindRegistrationFailed, 0, "email and password required")
	}

	return c.authenticate(ctx, "/auth/sign-up/email", credentials{Email: email, Password: password, Name: name},
		service.User{Email: email, Name: name}, service.KindRegistrationFailed, "registration failed")
}

func (c *SessionClient) authenticate(ctx context.Context, path string, body credentials, user service.User, failKind service.Kind, failMsg string) (service.Session, error) {
	var resp tokenResponse
	if err := c.tr.do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return service.Session{}, authFailure(err, failKind, failMsg)
	}
	if resp.AccessToken == "" {
		return service.Session{}, service.NewError(service.KindUnknown, 0, "invalid response from server: missing access_token")
	}

	// A session being replaced is revoked first so its token stops working server-side.
	if prev, err := c.store.Load(); err == nil && prev.AccessToken != resp.AccessToken {
		c.revoke(ctx, prev.AccessToken)
	}

	rec := session.NewRecord(resp.AccessToken, resp.TokenType, user)
	rec.RefreshToken = resp.RefreshToken
	if err := c.store.Save(rec); err != nil {
		return service.Session{}, &service.Error{Kind: service.KindUnknown, Message: "failed to save token", Err: err}
	}

	return sessionFromRecord(rec), nil
}

// authFailure turns backend rejections (4xx) into failKind, keeping the server's message.
// Transport and 5xx failures keep their own kind.
func authFailure(err error, failKind service.Kind, failMsg string) error {
	var e *service.Error
	if !errors.As(err, &e) || e.Status < 400 || e.Status > 499 {
		return err
	}
	msg := e.Message
	if msg == "" || msg == defaultMessage(e.Kind, e.Status) {
		msg = failMsg
	}
	return &service.Error{Kind: failKind, Status: e.Status, Message: msg}
}

// SignOut asks the backend to revoke the token, then clears it locally no matter what.
// It reports whether a session was stored.
func (c *SessionClient) SignOut(ctx context.Context) (bool, error) {
	rec, err := c.store.Load()
	switch {
	case err == nil:
		c.revoke(ctx, rec.AccessToken)
	case errors.Is(err, session.ErrNoToken):
		return false, nil
	default:
		c.logger.Warn("unreadable token store", zap.Error(err))
	}

	return true, c.store.Clear()
}

// revoke is best effort; failures are only logged.
func (c *SessionClient) revoke(ctx context.Context, token string) {
	if err := c.tr.do(ctx, http.MethodPost, "/auth/sign-out", token, nil, nil); err != nil {
		c.logger.Warn("token revoke failed", zap.Error(err))
	}
}

// GetSession validates the stored token with GET /users/me.
// No token: false without a request. Non-2xx: the token is cleared and false returned.
// Network failure: logged, false returned, token kept.
func (c *SessionClient) GetSession(ctx context.Context) (service.Session, bool) {
	rec, err := c.store.Load()
	if err != nil {
		if !errors.Is(err, session.ErrNoToken) {
			c.logger.Warn("unreadable token store, clearing", zap.Error(err))
			c.invalidate()
		}
		return service.Session{}, false
	}

	var me service.User
	err = c.tr.do(ctx, http.MethodGet, "/users/me", rec.AccessToken, nil, &me)
	if err != nil {
		var e *service.Error
		errors.As(err, &e)
		switch {
		case e != nil && e.Status >= 200 && e.Status <= 299:
			// The check succeeded; only the body was unreadable.
			c.logger.Warn("unreadable session response", zap.Error(err))
			return sessionFromRecord(rec), true
		case e != nil && e.Status != 0:
			c.logger.Debug("session rejected", zap.Int("status", e.Status))
			c.invalidate()
		default:
			c.logger.Warn("session check failed", zap.Error(err))
		}
		return service.Session{}, false
	}

	if me != rec.User {
		rec.User = me
		if err := c.store.Save(rec); err != nil {
			c.logger.Warn("failed to update stored user", zap.Error(err))
		}
	}
	return sessionFromRecord(rec), true
}

// Credential returns the stored access token for the task client.
func (c *SessionClient) Credential() (string, error) {
	rec, err := c.store.Load()
	if err != nil {
		if errors.Is(err, session.ErrNoToken) {
			return "", service.NewError(service.KindNotAuthenticated, 0, "not logged in")
		}
		return "", &service.Error{Kind: service.KindNotAuthenticated, Message: "not logged in", Err: err}
	}
	return rec.AccessToken, nil
}

// Invalidate drops the stored token after the backend rejected it.
func (c *SessionClient) Invalidate() {
	c.invalidate()
}

func (c *SessionClient) invalidate() {
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to clear token", zap.Error(err))
	}
}

func sessionFromRecord(rec session.Record) service.Session {
	return service.Session{
		Token:  rec.AccessToken,
		User:   rec.User,
		Expiry: rec.Expiry,
	}
}
