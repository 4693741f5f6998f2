// Package restapi implements service.Service against the todo REST API.
//
// The session client owns the stored token; the task client only sees it
// through the CredentialProvider interface.
package restapi

import (
	"net/http"

	"go.uber.org/zap"

	"todo/internal/config"
	"todo/internal/service"
	"todo/internal/session"
)

const (
	// DefaultBaseURL is used when the configuration leaves the base URL empty.
	DefaultBaseURL = "http://localhost:8000/api"

	// DefaultCookieName is the cookie carrying the token in cookie mode.
	DefaultCookieName = "access_token"
)

// Client implements service.Service by combining a SessionClient and a TaskClient
// that share one transport.
type Client struct {
	*SessionClient
	*TaskClient
}

var _ service.Service = (*Client)(nil)

// New creates a client from the CLI configuration, storing the token in cfg.TokenPath().
func New(cfg *config.Config, logger *zap.Logger) *Client {
	return NewWithHTTPClient(cfg.API, session.NewFileStore(cfg.TokenPath()), nil, logger)
}

// NewWithHTTPClient creates a client with an explicit store and HTTP client (for testing).
// A nil httpClient gets one with api.Timeout; a nil logger discards logs.
func NewWithHTTPClient(api config.APIConfig, store session.Store, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	tr := newTransport(api, httpClient, logger)

	sc := &SessionClient{tr: tr, store: store, logger: logger}
	return &Client{
		SessionClient: sc,
		TaskClient:    &TaskClient{tr: tr, creds: sc, logger: logger},
	}
}
