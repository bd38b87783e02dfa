package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	sdkhttp "github.com/meteocima/oidcc/sdk/http"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation name of the client's spans.
const tracerName = "github.com/meteocima/oidcc/oidc"

// maxResponseSize is the largest provider response body accepted.
const maxResponseSize = 1 << 20

// Client sends token, userinfo, introspection, refresh and end session
// requests to a single provider. Every method issues exactly one request; the
// client keeps no tokens and no session state, so it's safe for concurrent use
// as long as its http client is.
type Client struct {
	config Config
	sender sender
}

// NewClient creates a Client for the provider endpoints in c. The config is
// copied, so later changes to c don't affect the client.
//
// Supported options: WithHTTPClient, WithTimeout, WithLogger, WithMetrics,
// WithTracerProvider, WithUserAgent
func NewClient(c *Config, opt ...Option) (*Client, error) {
	const op = "oidc.NewClient"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Client{
		config: *c,
		sender: newSender(getClientOpts(opt...)),
	}, nil
}

// Config returns a copy of the client's endpoints.
func (c *Client) Config() Config {
	return c.config
}

// Token requests tokens with the resource owner password credentials grant.
// The decoded response is returned unmodified.
func (c *Client) Token(ctx context.Context, clientID, username string, password Password) (TokenSet, error) {
	const op = "oidc.(Client).Token"
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {clientID},
		"username":   {username},
		"password":   {string(password)},
	}
	m, err := c.postForm(ctx, op, ErrTokenRequest, c.config.TokenEndpoint, form)
	if err != nil {
		return nil, err
	}
	return TokenSet(m), nil
}

// UserInfo returns the claims the provider's userinfo endpoint holds for the
// access token's subject.
func (c *Client) UserInfo(ctx context.Context, accessToken AccessToken) (Claims, error) {
	const op = "oidc.(Client).UserInfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.UserinfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+string(accessToken))
	m, err := c.sender.send(ctx, op, ErrUserinfo, req, http.StatusOK, true)
	if err != nil {
		return nil, err
	}
	return Claims(m), nil
}

// Introspect asks the provider about the state of token. The result is
// returned unmodified; an inactive token is not an error.
func (c *Client) Introspect(ctx context.Context, clientID string, clientSecret ClientSecret, token string) (IntrospectionResult, error) {
	const op = "oidc.(Client).Introspect"
	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {string(clientSecret)},
		"token":         {token},
	}
	m, err := c.postForm(ctx, op, ErrIntrospection, c.config.TokenIntrospectionEndpoint, form)
	if err != nil {
		return nil, err
	}
	return IntrospectionResult(m), nil
}

// Refresh exchanges a refresh token for a new token set with the
// refresh_token grant. The decoded response is returned unmodified.
func (c *Client) Refresh(ctx context.Context, clientID string, refreshToken RefreshToken) (TokenSet, error) {
	const op = "oidc.(Client).Refresh"
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {clientID},
		"refresh_token": {string(refreshToken)},
	}
	m, err := c.postForm(ctx, op, ErrRefresh, c.config.TokenEndpoint, form)
	if err != nil {
		return nil, err
	}
	return TokenSet(m), nil
}

// EndSession logs out the session the refresh token belongs to. The provider
// must answer with 204 No Content.
func (c *Client) EndSession(ctx context.Context, clientID string, refreshToken RefreshToken) error {
	const op = "oidc.(Client).EndSession"
	form := url.Values{
		"client_id":     {clientID},
		"refresh_token": {string(refreshToken)},
	}
	req, err := newFormRequest(ctx, c.config.EndSessionEndpoint, form)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.sender.send(ctx, op, ErrEndSession, req, http.StatusNoContent, false)
	return err
}

func newFormRequest(ctx context.Context, endpoint string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

func (c *Client) postForm(ctx context.Context, op string, kind error, endpoint string, form url.Values) (map[string]interface{}, error) {
	req, err := newFormRequest(ctx, endpoint, form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.sender.send(ctx, op, kind, req, http.StatusOK, true)
}

// sender sends single requests to the provider and classifies their
// responses. Discover uses it before a Client exists.
type sender struct {
	httpClient *http.Client
	logger     hclog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	userAgent  string
}

func newSender(opts clientOptions) sender {
	s := sender{
		httpClient: opts.withHTTPClient,
		logger:     opts.withLogger,
		metrics:    opts.withMetrics,
		tracer:     opts.withTracerProvider.Tracer(tracerName),
		userAgent:  opts.withUserAgent,
	}
	if s.httpClient == nil {
		s.httpClient = sdkhttp.NewClient(opts.withTimeout)
	}
	return s
}

// send issues req and checks the response status against want. With decode
// set, the body must be a JSON object and is returned decoded.
func (s sender) send(ctx context.Context, op string, kind error, req *http.Request, want int, decode bool) (map[string]interface{}, error) {
	ctx, span := s.tracer.Start(ctx, spanName(op), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.Redacted()),
	)
	req = req.WithContext(ctx)
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.record(metricOp(op), resultTransportError, time.Since(start))
		s.logger.Debug("request failed", "op", op, "method", req.Method, "endpoint", req.URL.Redacted(), "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		s.metrics.record(metricOp(op), resultTransportError, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "unable to read response")
		return nil, fmt.Errorf("%s: unable to read response body: %w", op, err)
	}
	elapsed := time.Since(start)
	s.logger.Debug("request completed", "op", op, "method", req.Method, "endpoint", req.URL.Redacted(), "status", resp.StatusCode, "duration", elapsed)

	if len(body) > maxResponseSize {
		s.metrics.record(metricOp(op), resultHTTPError, elapsed)
		s.logger.Warn("response body too large", "op", op, "status", resp.StatusCode, "limit", maxResponseSize)
		rerr := newResponseError(op, kind, resp.StatusCode, nil, ErrResponseTooLarge)
		span.RecordError(rerr)
		span.SetStatus(codes.Error, "response body too large")
		return nil, rerr
	}

	if resp.StatusCode != want {
		s.metrics.record(metricOp(op), resultHTTPError, elapsed)
		s.logger.Warn("unexpected response status", "op", op, "status", resp.StatusCode, "want", want)
		rerr := newResponseError(op, kind, resp.StatusCode, body, nil)
		span.RecordError(rerr)
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, rerr
	}
	var m map[string]interface{}
	if decode {
		var decodeErr error
		switch err := json.Unmarshal(body, &m); {
		case err != nil:
			decodeErr = fmt.Errorf("unable to decode response: %w", err)
		case m == nil:
			decodeErr = errors.New("response is not a JSON object")
		}
		if decodeErr != nil {
			s.metrics.record(metricOp(op), resultHTTPError, elapsed)
			rerr := newResponseError(op, kind, resp.StatusCode, body, decodeErr)
			span.RecordError(rerr)
			span.SetStatus(codes.Error, "invalid response body")
			return nil, rerr
		}
	}
	s.metrics.record(metricOp(op), resultSuccess, elapsed)
	span.SetStatus(codes.Ok, "")
	return m, nil
}

// metricOp turns "oidc.(Client).Token" into "token".
func metricOp(op string) string {
	if i := strings.LastIndexByte(op, '.'); i >= 0 {
		op = op[i+1:]
	}
	return strings.ToLower(op)
}

// spanName turns "oidc.(Client).Token" into "oidc.Token".
func spanName(op string) string {
	if i := strings.LastIndexByte(op, '.'); i >= 0 {
		return "oidc." + op[i+1:]
	}
	return op
}
