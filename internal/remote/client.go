// Package remote talks to the HR/CRM backend.
//
// The client applies a fixed timeout, Basic-Auth from the current session and
// classifies every failure into a Kind. It never retries; retry policy belongs
// to the callers in internal/services.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"field-agent/internal/metrics"
)

// DefaultTimeout is the wall-clock limit for one request
const DefaultTimeout = 15 * time.Second

// malformedPrefixLen bounds the body excerpt kept on KindMalformed errors
const malformedPrefixLen = 200

// Credentials supplies the signed-in user for Basic-Auth
type Credentials interface {
	Credentials() (userID, password string, ok bool)
}

// Client is safe for concurrent use
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	logger     *zap.Logger
}

// NewClient builds a client for baseURL. timeout <= 0 uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, creds Credentials, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
		logger:     logger,
	}
}

// BaseURL returns the API host used to resolve relative screenshot paths
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one call
type request struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	basicAuth   bool
}

// do performs the request and returns the decoded JSON document
func (c *Client) do(ctx context.Context, r request) (interface{}, error) {
	start := time.Now()
	doc, err := c.roundTrip(ctx, r)

	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	metrics.RemoteRequestsTotal.WithLabelValues(r.op, outcome).Inc()
	metrics.RemoteRequestDuration.WithLabelValues(r.op).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Debug("remote request failed",
			zap.String("op", r.op),
			zap.String("path", r.path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
	return doc, err
}

func (c *Client) roundTrip(ctx context.Context, r request) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: r.op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.basicAuth {
		userID, password, ok := c.creds.Credentials()
		if !ok {
			return nil, &Error{Kind: KindAuthExpired, Op: r.op, Err: errors.New("no signed-in user")}
		}
		req.SetBasicAuth(userID, password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(r.op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(r.op, err)
	}

	// Read as text first: an expired session redirects to the HTML login page
	if looksLikeHTML(raw) {
		return nil, &Error{Kind: KindAuthExpired, Op: r.op, Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindHTTP, Op: r.op, Status: resp.StatusCode, Body: string(raw)}
	}

	doc, err := decodeJSON(raw)
	if err != nil {
		prefix := raw
		if len(prefix) > malformedPrefixLen {
			prefix = prefix[:malformedPrefixLen]
		}
		return nil, &Error{Kind: KindMalformed, Op: r.op, Status: resp.StatusCode, Body: string(prefix), Err: err}
	}
	return doc, nil
}

func classifyTransportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// looksLikeHTML reports whether the body starts with an HTML document marker
func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n\ufeff")
	if len(trimmed) > 15 {
		trimmed = trimmed[:15]
	}
	head := strings.ToLower(string(trimmed))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// decodeJSON keeps numbers as json.Number so server ids survive unchanged
func decodeJSON(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON document")
	}
	return doc, nil
}
