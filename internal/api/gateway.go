package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/venrik/skydeck/internal/core"
)

const csrfCookieName = "csrftoken"

// TokenSource yields the current bearer token, if any.
type TokenSource interface {
	Get() (string, bool)
}

type Options struct {
	BaseURL      string
	Tokens       TokenSource
	Timeout      time.Duration
	RetryMax     int
	RetryBackoff time.Duration
	LogResponses bool
}

// Gateway performs every HTTP call against the backend: it attaches the
// bearer token and the anti-CSRF header, normalizes the error shape, and
// retries idempotent GETs on transport failure.
type Gateway struct {
	base         *url.URL
	client       *http.Client
	tokens       TokenSource
	retryMax     int
	retryBackoff time.Duration
	logResponses bool
}

// Request mirrors the knobs callers need: Body is JSON-serialized unless
// RawBody is set (multipart uploads), in which case ContentType is sent
// as given, or omitted entirely when empty.
type Request struct {
	Endpoint     string
	Method       string
	Body         any
	RawBody      io.Reader
	ContentType  string
	RequiresAuth bool
	PreventThrow bool
	Headers      map[string]string
}

func NewGateway(opts Options) (*Gateway, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	backoff := opts.RetryBackoff
	if backoff == 0 {
		backoff = 250 * time.Millisecond
	}

	return &Gateway{
		base:         base,
		client:       &http.Client{Timeout: timeout, Jar: jar},
		tokens:       opts.Tokens,
		retryMax:     opts.RetryMax,
		retryBackoff: backoff,
		logResponses: opts.LogResponses,
	}, nil
}

// Call issues the request and returns the decoded JSON payload, or the raw
// string when the response declares text/plain. With PreventThrow set, a
// non-2xx response returns its parsed error body instead of failing.
func (g *Gateway) Call(ctx context.Context, req Request) (any, error) {
	body, contentType, err := g.do(ctx, req)
	if err != nil {
		return nil, err
	}

	if strings.Contains(contentType, "text/plain") {
		return string(body), nil
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ShapeError{Endpoint: req.Endpoint, Reason: "not valid JSON"}
	}

	return payload, nil
}

// Raw issues the request and returns the undecoded response body.
func (g *Gateway) Raw(ctx context.Context, req Request) ([]byte, error) {
	body, _, err := g.do(ctx, req)
	return body, err
}

// JSON issues the request and decodes the response into out.
func (g *Gateway) JSON(ctx context.Context, req Request, out any) error {
	body, _, err := g.do(ctx, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ShapeError{Endpoint: req.Endpoint, Reason: "payload does not match expected shape"}
	}

	return nil
}

func (g *Gateway) do(ctx context.Context, req Request) ([]byte, string, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var token string
	if req.RequiresAuth {
		current, ok := g.tokens.Get()
		if !ok {
			return nil, "", ErrNoToken
		}
		token = current
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += g.retryMax
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := g.retryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, "", &NetworkError{Endpoint: req.Endpoint, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		body, contentType, err := g.doOnce(ctx, method, token, req)
		if err == nil {
			return body, contentType, nil
		}

		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			return nil, "", err
		}
		lastErr = err
	}

	return nil, "", lastErr
}

func (g *Gateway) doOnce(ctx context.Context, method, token string, req Request) ([]byte, string, error) {
	endpointURL := g.base.String() + "/api" + req.Endpoint

	reqBody, contentType, err := requestBody(method, req)
	if err != nil {
		return nil, "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpointURL, reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("build request for %s: %w", req.Endpoint, err)
	}

	if token != "" {
		httpReq.Header.Set("Authorization", "Token "+token)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if method != http.MethodGet {
		if csrf := g.csrfToken(); csrf != "" {
			httpReq.Header.Set("X-CSRFToken", csrf)
		}
	}

	httpReq.Header.Set("X-Request-ID", string(core.NewRequestID()))

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, "", &NetworkError{Endpoint: req.Endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, "", &NetworkError{Endpoint: req.Endpoint, Err: err}
	}

	if g.logResponses {
		slog.Debug("api response",
			"endpoint", req.Endpoint,
			"status", httpResp.StatusCode,
			"body", string(respBody))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		if httpResp.StatusCode == http.StatusUnauthorized {
			slog.Warn("unauthorized response", "endpoint", req.Endpoint)
		}

		if req.PreventThrow {
			return respBody, httpResp.Header.Get("Content-Type"), nil
		}

		return nil, "", parseHTTPError(httpResp.StatusCode, respBody)
	}

	return respBody, httpResp.Header.Get("Content-Type"), nil
}

func requestBody(method string, req Request) (io.Reader, string, error) {
	if method == http.MethodGet {
		return nil, "", nil
	}

	if req.RawBody != nil {
		return req.RawBody, req.ContentType, nil
	}

	if req.Body == nil {
		return nil, "application/json", nil
	}

	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request body for %s: %w", req.Endpoint, err)
	}

	return bytes.NewReader(data), "application/json", nil
}

func (g *Gateway) csrfToken() string {
	for _, cookie := range g.client.Jar.Cookies(g.base) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

func parseHTTPError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	_ = json.Unmarshal(body, &payload)

	message := payload.Error
	if message == "" {
		message = payload.Message
	}
	if message == "" {
		message = "failed to fetch data"
	}

	return &HTTPError{Status: status, Message: message, Details: payload.Details}
}
