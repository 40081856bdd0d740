package omada

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"guestgate/internal/pkg/config"
	"guestgate/internal/pkg/errs"
)

// Omada errorCode values at or above this are transient server-side failures
// worth retrying; lower non-zero codes are permanent rejections.
const transientErrorCodeFloor = 5000

type apiResponse struct {
	ErrorCode int             `json:"errorCode"`
	Msg       string          `json:"msg"`
	Result    json.RawMessage `json:"result"`
}

type loginResult struct {
	Token string `json:"token"`
}

// StatusError carries the HTTP status of a non-2xx controller reply so the
// adapter can separate permanent 4xx from retryable 5xx.
type StatusError struct {
	StatusCode int
	Msg        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("controller returned %d: %s", e.StatusCode, e.Msg)
}

// APIError is a non-zero Omada errorCode on a 2xx response.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("omada error %d: %s", e.Code, e.Msg)
}

func (e *APIError) Transient() bool {
	return e.Code >= transientErrorCodeFloor
}

// Client speaks the Omada external-portal protocol. One live operator session
// is kept per client. Login happens on the first call that finds no cached
// session and again whenever the controller answers 401; no login is made at
// startup.
type Client struct {
	baseURL      string
	controllerID string
	username     string
	password     string
	httpClient   *http.Client

	mu            sync.Mutex
	csrfToken     string
	sessionCookie *http.Cookie
}

func NewClient(cfg config.ControllerConfig) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.AllowSelfSigned {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- operator opt-in for self-signed controllers
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		controllerID: cfg.ControllerID,
		username:     cfg.OperatorUsername,
		password:     cfg.OperatorPassword,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
	}
}

func (c *Client) loginURL() string {
	return fmt.Sprintf("%s/%s/api/v2/hotspot/login", c.baseURL, c.controllerID)
}

func (c *Client) endpointURL(endpoint string) string {
	return fmt.Sprintf("%s/%s/api/v2/hotspot%s", c.baseURL, c.controllerID, endpoint)
}

// Login establishes the operator session and caches the CSRF token and
// session cookie.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"name": c.username, "password": c.password})
	if err != nil {
		return errs.Wrap(err, "failed to marshal login payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL(), bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, "failed to build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "controller login request failed"), errs.ErrControllerUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.Mark(&StatusError{StatusCode: resp.StatusCode, Msg: "login rejected"}, errs.ErrUnauthorized)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errs.Wrap(err, "failed to decode login response")
	}
	if parsed.ErrorCode != 0 {
		return errs.Mark(&APIError{Code: parsed.ErrorCode, Msg: parsed.Msg}, errs.ErrUnauthorized)
	}

	var result loginResult
	if err := json.Unmarshal(parsed.Result, &result); err != nil || result.Token == "" {
		return errs.Mark(errs.New("CSRF token missing from login response"), errs.ErrUnauthorized)
	}

	var sessionCookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "TPOMADA_SESSIONID" || ck.Name == "TPEAP_SESSIONID" {
			sessionCookie = ck
			break
		}
	}
	if sessionCookie == nil {
		return errs.Mark(errs.New("session cookie missing from login response"), errs.ErrUnauthorized)
	}

	c.mu.Lock()
	c.csrfToken = result.Token
	c.sessionCookie = sessionCookie
	c.mu.Unlock()
	return nil
}

func (c *Client) session() (string, *http.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.csrfToken, c.sessionCookie
}

// Post issues one JSON POST against a hotspot endpoint, re-logging-in when no
// session is cached or the controller signals an expired one. A second 401
// after a fresh login is surfaced as-is.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	token, cookie := c.session()
	if token == "" || cookie == nil {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		token, cookie = c.session()
	}

	result, err := c.postOnce(ctx, endpoint, payload, token, cookie)
	if isSessionExpired(err) {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		token, cookie = c.session()
		result, err = c.postOnce(ctx, endpoint, payload, token, cookie)
	}
	return result, err
}

func (c *Client) postOnce(ctx context.Context, endpoint string, payload any, token string, cookie *http.Cookie) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(err, "failed to marshal request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Csrf-Token", token)
	req.AddCookie(cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Mark(err, errs.ErrControllerTimeout)
		}
		return nil, errs.Mark(errs.Wrap(err, "controller request failed"), errs.ErrControllerUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, "failed to read controller response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &StatusError{StatusCode: resp.StatusCode, Msg: "session expired"}
	case resp.StatusCode >= 500:
		return nil, errs.Mark(&StatusError{StatusCode: resp.StatusCode, Msg: string(raw)}, errs.ErrControllerUnavailable)
	case resp.StatusCode >= 400:
		return nil, errs.Mark(&StatusError{StatusCode: resp.StatusCode, Msg: string(raw)}, errs.ErrControllerRejected)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errs.Wrap(err, "failed to decode controller response")
	}
	if parsed.ErrorCode != 0 {
		apiErr := &APIError{Code: parsed.ErrorCode, Msg: parsed.Msg}
		if apiErr.Transient() {
			return nil, errs.Mark(apiErr, errs.ErrControllerUnavailable)
		}
		return nil, errs.Mark(apiErr, errs.ErrControllerRejected)
	}
	return parsed.Result, nil
}

func isSessionExpired(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if ok := asStatusError(err, &statusErr); ok {
		return statusErr.StatusCode == http.StatusUnauthorized
	}
	return false
}
