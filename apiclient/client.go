// Package apiclient talks to the restaurant backend REST API.
//
// Every call goes through Client.do, which attaches the bearer token of the
// scoped client and reports authorization-denied responses to the scope's
// OnUnauthorized hook. That hook is how a single expired token signs the
// whole client out, whichever operation hit it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Options struct {
	Timeout      time.Duration
	MaxTries     uint          // GET attempts, 1 disables retries
	RetryInitial time.Duration // first backoff interval
	Transport    http.RoundTripper
}

type Client struct {
	baseURL      string
	http         *http.Client
	maxTries     uint
	retryInitial time.Duration

	token          func() string
	onUnauthorized func()
}

func New(baseURL string, opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 3
	}
	if opts.RetryInitial == 0 {
		opts.RetryInitial = 200 * time.Millisecond
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		maxTries:     opts.MaxTries,
		retryInitial: opts.RetryInitial,
	}
}

// Scoped returns a view of c bound to one client's credential.
// token is read on every request; onUnauthorized runs when an
// authenticated request is answered with 401.
func (c *Client) Scoped(token func() string, onUnauthorized func()) *Client {
	cp := *c
	cp.token = token
	cp.onUnauthorized = onUnauthorized
	return &cp
}

// envelope matches {"ok":true,"data":...} / {"ok":false,"error":"..."}.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = b
	}

	if method != http.MethodGet || c.maxTries <= 1 {
		return c.roundTrip(ctx, method, path, query, payload, out)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.roundTrip(ctx, method, path, query, payload, out)
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxTries))
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	authed := false
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			authed = true
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Message: fallbackMessage(0), Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return &Error{Status: res.StatusCode, Message: fallbackMessage(0), Err: err}
	}

	if res.StatusCode >= 400 {
		apiErr := &Error{Status: res.StatusCode, Message: extractMessage(raw, res.StatusCode)}
		if res.StatusCode == http.StatusUnauthorized && authed && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		raw = env.Data
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: res.StatusCode, Message: "Unexpected response from server", Err: err}
	}
	return nil
}

func extractMessage(raw []byte, status int) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return fallbackMessage(status)
}
