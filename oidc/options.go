package oidc

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout is the request timeout of the http client created when
// WithHTTPClient isn't used.
const DefaultTimeout = 30 * time.Second

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// clientOptions is the set of available options for NewClient, Discover and
// Configure.
type clientOptions struct {
	withHTTPClient     *http.Client
	withTimeout        time.Duration
	withLogger         hclog.Logger
	withMetrics        *Metrics
	withTracerProvider trace.TracerProvider
	withUserAgent      string
}

// clientDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func clientDefaults() clientOptions {
	return clientOptions{
		withTimeout: DefaultTimeout,
	}
}

// getClientOpts gets the defaults and applies the opt overrides passed in.
func getClientOpts(opt ...Option) clientOptions {
	opts := clientDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	if opts.withTracerProvider == nil {
		opts.withTracerProvider = otel.GetTracerProvider()
	}
	return opts
}

// WithHTTPClient provides an optional http client used for every request to
// the provider. When it's used, WithTimeout is ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithTimeout provides an optional timeout for the default http client.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withTimeout = d
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withLogger = l
		}
	}
}

// WithMetrics provides optional prometheus metrics, see NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withMetrics = m
		}
	}
}

// WithTracerProvider provides an optional tracer provider. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withTracerProvider = tp
		}
	}
}

// WithUserAgent sets the User-Agent header of requests sent to the provider.
func WithUserAgent(ua string) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withUserAgent = ua
		}
	}
}
