package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	apierrors "sportsbook/internal/errors"
	"sportsbook/internal/logger"
	"sportsbook/internal/metrics"
	"sportsbook/internal/models"
	"sportsbook/internal/session"
)

const (
	// MobileTokenHeader carries the session token on authenticated mutations.
	MobileTokenHeader = "x-mobile-token"
	RequestIDHeader   = "X-Request-ID"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	maxErrorBody = 4 << 10
)

// Config - настройки подключения к backend
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Transport is the HTTP layer shared by every resource client. Reads rely on the
// cookie session kept in the jar; mutations marked authenticated also send the
// stored mobile token. The jar is saved to the token store whenever the backend
// sets a cookie and restored before the first request, so a session outlives the
// process that opened it.
type Transport struct {
	baseURL    string
	base       *url.URL
	tokens     session.TokenStore
	mu         sync.Mutex
	httpClient *http.Client
	restored   bool
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func NewTransport(cfg Config, tokens session.TokenStore) *Transport {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if tokens == nil {
		tokens = session.NewMemoryStore()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	base, _ := url.Parse(baseURL)

	jar, _ := cookiejar.New(nil)
	return &Transport{
		baseURL: baseURL,
		base:    base,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
	}
}

// Tokens returns the token store the transport reads from.
func (t *Transport) Tokens() session.TokenStore {
	return t.tokens
}

// ResetCookies drops the in-memory cookie session. Stored cookies are not
// restored afterwards; clearing them is up to the token store.
func (t *Transport) ResetCookies() {
	jar, _ := cookiejar.New(nil)
	t.mu.Lock()
	t.httpClient.Jar = jar
	t.restored = true
	t.mu.Unlock()
}

// restoreCookies loads the stored cookie session into the jar once.
func (t *Transport) restoreCookies(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.restored || t.base == nil {
		return
	}
	t.restored = true

	raw, err := t.tokens.LoadCookies(ctx)
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to load stored cookies", "error", err)
		return
	}
	if raw == "" {
		return
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		logger.WithContext(ctx).Warn("Ignoring malformed stored cookies", "error", err)
		return
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	t.httpClient.Jar.SetCookies(t.base, cookies)
}

// persistCookies writes the jar's cookies for the backend to the token store.
func (t *Transport) persistCookies(ctx context.Context) {
	if t.base == nil {
		return
	}
	cookies := t.client().Jar.Cookies(t.base)
	stored := make([]storedCookie, len(cookies))
	for i, c := range cookies {
		stored[i] = storedCookie{Name: c.Name, Value: c.Value}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to encode cookies", "error", err)
		return
	}
	if err := t.tokens.SaveCookies(ctx, string(data)); err != nil {
		logger.WithContext(ctx).Warn("Failed to persist cookies", "error", err)
	}
}

func (t *Transport) client() *http.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.httpClient
}

type call struct {
	method string
	path   string
	// route is the path template used as a metrics label.
	route string

	jsonBody any
	form     url.Values
	// contentType overrides the header derived from the body.
	contentType string

	authenticated bool
}

// do sends c and decodes a 2xx body into out (when out is non-nil). It reports whether
// the body held a value, so callers can tell "null" from an entity.
func (t *Transport) do(ctx context.Context, c call, out any) (bool, error) {
	var body io.Reader
	contentType := ""
	switch {
	case c.jsonBody != nil:
		data, err := json.Marshal(c.jsonBody)
		if err != nil {
			return false, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = contentTypeJSON
	case c.form != nil:
		body = strings.NewReader(c.form.Encode())
		contentType = contentTypeForm
	}
	if c.contentType != "" {
		contentType = c.contentType
	}

	t.restoreCookies(ctx)

	req, err := http.NewRequestWithContext(ctx, c.method, t.baseURL+c.path, body)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)

	requestID, ok := logger.RequestIDFromContext(ctx)
	if !ok {
		requestID = logger.NewRequestID()
	}
	req.Header.Set(RequestIDHeader, requestID)

	if c.authenticated {
		token, err := t.tokens.Load(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to load session token: %w", err)
		}
		if token == "" {
			return false, &apierrors.AuthError{Reason: "no session token"}
		}
		req.Header.Set(MobileTokenHeader, token)
	}

	route := c.route
	if route == "" {
		route = c.path
	}
	log := logger.WithContext(ctx).With("method", c.method, "path", c.path, "request_id", requestID)

	start := time.Now()
	resp, err := t.client().Do(req)
	metrics.RequestLatency.WithLabelValues(c.method, route).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(c.method, route, "0").Inc()
		log.Debug("Backend request failed", "error", err)
		return false, &apierrors.TransportError{Method: c.method, Path: c.path, Err: err}
	}
	defer resp.Body.Close()

	if len(resp.Cookies()) > 0 {
		t.persistCookies(ctx)
	}

	metrics.RequestsTotal.WithLabelValues(c.method, route, strconv.Itoa(resp.StatusCode)).Inc()
	log.Debug("Backend request", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		te := &apierrors.TransportError{
			Method: c.method,
			Path:   c.path,
			Status: resp.StatusCode,
			Body:   string(raw),
		}
		var errBody models.ErrorResponse
		if json.Unmarshal(raw, &errBody) == nil {
			te.Message = errBody.Message
			if te.Message == "" {
				te.Message = errBody.Error
			}
		}
		if resp.StatusCode == http.StatusNotFound {
			te.Err = apierrors.ErrNotFound
		}
		return false, te
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &apierrors.TransportError{Method: c.method, Path: c.path, Status: resp.StatusCode, Err: err}
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}

// fetchList performs one list read. A null or empty body is an empty list.
func fetchList[T any](ctx context.Context, t *Transport, c call) ([]T, error) {
	var list []T
	if _, err := t.do(ctx, c, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

// orDegrade turns a failed list read into an empty slice and a warn log.
func orDegrade[T any](ctx context.Context, what string, list []T, err error) []T {
	if err != nil {
		logger.WithContext(ctx).Warn("List read failed, showing empty list", "list", what, "error", err)
		return []T{}
	}
	return list
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
