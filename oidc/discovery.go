package oidc

import (
	"context"
	"fmt"
	"net/http"

	sdkhttp "github.com/meteocima/oidcc/sdk/http"
)

// Discover fetches the provider's well-known configuration document and
// extracts the client's endpoints from it. Every other member of the document
// is ignored.
//
// Supported options: WithHTTPClient, WithTimeout, WithLogger, WithMetrics,
// WithTracerProvider, WithUserAgent
func Discover(ctx context.Context, wellKnownURL string, opt ...Option) (*Config, error) {
	const op = "oidc.Discover"
	if wellKnownURL == "" {
		return nil, fmt.Errorf("%s: well-known url is empty: %w", op, ErrInvalidParameter)
	}
	s := newSender(getClientOpts(opt...))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnownURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	doc, err := s.send(ctx, op, ErrDiscovery, req, http.StatusOK, true)
	if err != nil {
		return nil, err
	}
	c, err := NewConfigFromMap(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Configure discovers the provider's endpoints from its well-known
// configuration document and creates a Client for them. The options are used
// for both the discovery request and the returned Client.
func Configure(ctx context.Context, wellKnownURL string, opt ...Option) (*Client, error) {
	const op = "oidc.Configure"
	// share one pooled http client between discovery and the returned Client
	if opts := getClientOpts(opt...); opts.withHTTPClient == nil {
		opt = append(opt, WithHTTPClient(sdkhttp.NewClient(opts.withTimeout)))
	}
	c, err := Discover(ctx, wellKnownURL, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	client, err := NewClient(c, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}
