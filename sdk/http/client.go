// Package http builds the http clients used to talk to identity providers.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
)

// NewClient creates a new http client on a pooled transport that doesn't
// share state with http.DefaultTransport. A timeout of zero means no timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: cleanhttp.DefaultPooledTransport(),
		Timeout:   timeout,
	}
}

// ClientContext returns a copy of ctx carrying client. go-oidc and
// golang.org/x/oauth2 read the same context key, so the jwt key sets fetch
// remote keys with it.
func ClientContext(ctx context.Context, client *http.Client) context.Context {
	return oidc.ClientContext(ctx, client)
}
