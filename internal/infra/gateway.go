package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// HTTPError is returned for every non-2xx backend response.
// Codigo carries machine codes such as "ORDER_HAS_BILL"; Mensaje the human text, if any.
type HTTPError struct {
	Status  int
	Codigo  string
	Mensaje string
	Cuerpo  []byte
}

func (e *HTTPError) Error() string {
	if e.Mensaje != "" {
		return fmt.Sprintf("backend: %d: %s", e.Status, e.Mensaje)
	}
	return fmt.Sprintf("backend: returned %d", e.Status)
}

// NetworkError wraps transport failures (DNS, refused connection, timeout, open breaker).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "backend: unreachable: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// Gateway is satisfied by *Client; services depend on this.
type Gateway interface {
	Request(ctx context.Context, method, path string, body any, params url.Values) ([]byte, error)
	Do(ctx context.Context, method, path string, body any, params url.Values, out any) error
}

// Client is the single outbound HTTP entry point towards the credit-sales backend.
// Each call is one attempt: no retries, no backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	breaker    *CircuitBreaker
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithBreaker guards the client with a circuit breaker.
func WithBreaker(cb *CircuitBreaker) ClientOption {
	return func(c *Client) { c.breaker = cb }
}

// WithHTTPClient replaces the default http.Client (used by tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenStore, opts ...ClientOption) *Client {
	// cookiejar.New never fails with nil options
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Breaker exposes the breaker for health reporting; nil when unguarded.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// Request sends one request and returns the raw response payload.
func (c *Client) Request(ctx context.Context, method, path string, body any, params url.Values) ([]byte, error) {
	if c.breaker == nil {
		return c.send(ctx, method, path, body, params)
	}

	var payload []byte
	var reqErr error
	err := c.breaker.Execute(func() error {
		payload, reqErr = c.send(ctx, method, path, body, params)
		if countsAsFailure(reqErr) {
			return reqErr
		}
		return nil
	})
	if errors.Is(err, ErrCircuitOpen) {
		return nil, &NetworkError{Err: err}
	}
	return payload, reqErr
}

// Do sends one request and decodes the JSON response into out (skipped when out is nil
// or the body is empty).
func (c *Client) Do(ctx context.Context, method, path string, body any, params url.Values, out any) error {
	payload, err := c.Request(ctx, method, path, body, params)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, params url.Values) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: marshal payload: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("backend: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Str("method", method).Str("path", path).Err(err).Msg("backend unreachable")
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read body: %w", err)}
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := parseHTTPError(resp.StatusCode, payload)
		log.Warn().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
			Str("codigo", httpErr.Codigo).Msg("backend rejected request")
		return nil, httpErr
	}
	return payload, nil
}

// bearer reads the persisted token; any store failure means "no token".
func (c *Client) bearer(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			log.Warn().Err(err).Msg("token store unavailable, sending request without credentials")
		}
		return ""
	}
	return token
}

func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status >= 500
}

// parseHTTPError extracts {error, message, mensaje, detail} from a JSON error body.
func parseHTTPError(status int, payload []byte) *HTTPError {
	e := &HTTPError{Status: status, Cuerpo: payload}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return e
	}
	str := func(k string) string {
		s, _ := fields[k].(string)
		return strings.TrimSpace(s)
	}

	if code := str("error"); isMachineCode(code) {
		e.Codigo = code
	}
	for _, k := range []string{"message", "mensaje", "detail", "error"} {
		if msg := str(k); msg != "" && msg != e.Codigo {
			e.Mensaje = msg
			break
		}
	}
	return e
}

// isMachineCode matches UPPER_SNAKE identifiers like ORDER_HAS_BILL.
func isMachineCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
