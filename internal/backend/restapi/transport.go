package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"todo/internal/config"
	"todo/internal/service"
)

// maxErrorBodySize caps how much of an error response is read for its message.
// Successful bodies are decoded as a stream with no cap.
const maxErrorBodySize = 1 << 20

// transport performs JSON requests against the API and classifies failures.
// It is shared by the session and task clients.
type transport struct {
	baseURL    string
	httpClient *http.Client
	mode       config.AuthMode
	cookieName string
	logger     *zap.Logger
}

func newTransport(api config.APIConfig, httpClient *http.Client, logger *zap.Logger) *transport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: api.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(api.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	mode := api.AuthMode
	if mode == "" {
		mode = config.AuthBearer
	}
	cookieName := api.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &transport{
		baseURL:    baseURL,
		httpClient: httpClient,
		mode:       mode,
		cookieName: cookieName,
		logger:     logger,
	}
}

// do sends body as JSON (when non-nil) and decodes a 2xx response into out (when non-nil).
// credential is attached according to the configured auth mode; empty means anonymous.
// Every returned error is a *service.Error.
func (t *transport) do(ctx context.Context, method, path, credential string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &service.Error{Kind: service.KindUnknown, Message: "could not encode request", Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return &service.Error{Kind: service.KindUnknown, Message: "could not build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		t.attach(req, credential)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return networkError(err)
	}
	defer resp.Body.Close()

	t.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// A failed read still leaves the status to classify by.
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return classify(resp.StatusCode, respBody)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return networkError(err)
		}
		return &service.Error{
			Kind:    service.KindUnknown,
			Status:  resp.StatusCode,
			Message: "invalid response from server",
			Err:     err,
		}
	}
	return nil
}

// attach adds the credential as a bearer header or a cookie, never both.
func (t *transport) attach(req *http.Request, credential string) {
	switch t.mode {
	case config.AuthCookie:
		req.AddCookie(&http.Cookie{Name: t.cookieName, Value: credential})
	default:
		tok := &oauth2.Token{AccessToken: credential, TokenType: "Bearer"}
		tok.SetAuthHeader(req)
	}
}

func networkError(err error) *service.Error {
	msg := "network error: could not reach server"
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		msg = "request timed out"
	} else if errors.Is(err, context.Canceled) {
		msg = "request cancelled"
	}
	return &service.Error{Kind: service.KindNetwork, Message: msg, Err: err}
}

// classify maps a non-2xx response to a *service.Error.
// The message comes from the body when the server supplied one.
func classify(status int, body []byte) *service.Error {
	var kind service.Kind
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = service.KindValidation
	case status == http.StatusUnauthorized:
		kind = service.KindAuthExpired
	case status == http.StatusForbidden:
		kind = service.KindForbidden
	case status == http.StatusNotFound:
		kind = service.KindNotFound
	case status >= 500:
		kind = service.KindServer
	default:
		kind = service.KindUnknown
	}

	msg := errorMessage(body)
	if msg == "" {
		msg = defaultMessage(kind, status)
	}
	return &service.Error{Kind: kind, Status: status, Message: msg}
}

func defaultMessage(kind service.Kind, status int) string {
	switch kind {
	case service.KindValidation:
		return "invalid request"
	case service.KindAuthExpired:
		return "session expired"
	case service.KindForbidden:
		return "access denied"
	case service.KindNotFound:
		return "not found"
	case service.KindServer:
		return "server error, try again later"
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// errorBody covers the error shapes the backend may return:
// {"detail": "msg"}, {"detail": [{"loc": [...], "msg": "..."}]}, {"error": "msg"}, {"message": "msg"}.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}

	if len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var issues []validationIssue
		if err := json.Unmarshal(eb.Detail, &issues); err == nil {
			parts := make([]string, 0, len(issues))
			for _, is := range issues {
				if is.Msg == "" {
					continue
				}
				if field := issueField(is.Loc); field != "" {
					parts = append(parts, field+": "+is.Msg)
				} else {
					parts = append(parts, is.Msg)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}

	if eb.Error != "" {
		return eb.Error
	}
	return eb.Message
}

// issueField returns the last location element, skipping the "body"/"query" prefix.
func issueField(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	last := fmt.Sprint(loc[len(loc)-1])
	switch last {
	case "body", "query", "path":
		return ""
	}
	return last
}
