package oidc

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()
	t.Run("registers-collectors", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		reg := prometheus.NewRegistry()
		m, err := NewMetrics("gateway", reg)
		require.NoError(err)
		require.NotNil(m)

		m.record("token", resultSuccess, 10*time.Millisecond)
		families, err := reg.Gather()
		require.NoError(err)
		var names []string
		for _, f := range families {
			names = append(names, f.GetName())
		}
		assert.ElementsMatch([]string{
			"gateway_oidc_requests_total",
			"gateway_oidc_request_duration_seconds",
		}, names)
	})
	t.Run("duplicate-registration", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		reg := prometheus.NewRegistry()
		_, err := NewMetrics("gateway", reg)
		require.NoError(err)
		m, err := NewMetrics("gateway", reg)
		assert.Error(err)
		assert.Nil(m)
	})
	t.Run("nil-metrics-records-nothing", func(t *testing.T) {
		var m *Metrics
		assert.NotPanics(t, func() { m.record("token", resultSuccess, time.Second) })
	})
}

func TestMetrics_requests(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	reg := prometheus.NewRegistry()
	m, err := NewMetrics("test", reg)
	require.NoError(err)

	client, srv := testEndpointsClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			_, _ = w.Write([]byte(`{"access_token":"abc"}`))
		case "/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}, WithMetrics(m))

	ctx := context.Background()
	_, err = client.Token(ctx, "app", "u", "p")
	require.NoError(err)
	_, err = client.Token(ctx, "app", "u", "p")
	require.NoError(err)
	require.NoError(client.EndSession(ctx, "app", "rt"))
	_, err = client.UserInfo(ctx, "tk")
	require.Error(err)

	srv.Close()
	_, err = client.Introspect(ctx, "app", "s", "tk")
	require.Error(err)

	assert.Equal(float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("token", resultSuccess)))
	assert.Equal(float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("endsession", resultSuccess)))
	assert.Equal(float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("userinfo", resultHTTPError)))
	assert.Equal(float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("introspect", resultTransportError)))
	assert.Equal(4, testutil.CollectAndCount(m.requestsTotal))
	assert.Equal(4, testutil.CollectAndCount(m.requestDuration))
}
