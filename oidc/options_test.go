package oidc

import (
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func Test_getClientOpts(t *testing.T) {
	t.Parallel()
	t.Run("defaults", func(t *testing.T) {
		assert := assert.New(t)
		opts := getClientOpts()
		assert.Equal(DefaultTimeout, opts.withTimeout)
		assert.Nil(opts.withHTTPClient)
		assert.Nil(opts.withMetrics)
		assert.NotNil(opts.withLogger)
		assert.NotNil(opts.withTracerProvider)
		assert.Empty(opts.withUserAgent)
	})
	t.Run("WithHTTPClient", func(t *testing.T) {
		assert := assert.New(t)
		c := &http.Client{}
		opts := getClientOpts(WithHTTPClient(c))
		assert.Same(c, opts.withHTTPClient)
	})
	t.Run("WithTimeout", func(t *testing.T) {
		assert := assert.New(t)
		opts := getClientOpts(WithTimeout(time.Second))
		assert.Equal(time.Second, opts.withTimeout)
	})
	t.Run("WithLogger", func(t *testing.T) {
		assert := assert.New(t)
		l := hclog.New(&hclog.LoggerOptions{Name: "test-logger"})
		opts := getClientOpts(WithLogger(l))
		assert.Equal(l, opts.withLogger)
	})
	t.Run("WithMetrics", func(t *testing.T) {
		assert := assert.New(t)
		m := &Metrics{}
		opts := getClientOpts(WithMetrics(m))
		assert.Same(m, opts.withMetrics)
	})
	t.Run("WithTracerProvider", func(t *testing.T) {
		assert := assert.New(t)
		tp := noop.NewTracerProvider()
		opts := getClientOpts(WithTracerProvider(tp))
		assert.Equal(tp, opts.withTracerProvider)
	})
	t.Run("WithUserAgent", func(t *testing.T) {
		assert := assert.New(t)
		opts := getClientOpts(WithUserAgent("oidcc-test/1.0"))
		assert.Equal("oidcc-test/1.0", opts.withUserAgent)
	})
	t.Run("nil-and-foreign-options", func(t *testing.T) {
		assert := assert.New(t)
		opts := getClientOpts(nil, WithTestPort(8080))
		assert.Equal(DefaultTimeout, opts.withTimeout)
	})
}

func Test_WithTestPort(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	opts := getTestProviderOpts(WithTestPort(8080))
	testOpts := testProviderDefaults()
	testOpts.withPort = 8080
	assert.Equal(opts, testOpts)
}
