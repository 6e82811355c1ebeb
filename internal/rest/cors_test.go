package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCors(t *testing.T, mutate func(cfg *CorsConfig)) *CorsHandler {
	t.Helper()
	cfg := DefaultCorsConfig()
	cfg.Enabled = true
	cfg.AllowOrigins = []string{"https://app.example.com", `/https?:\/\/localhost(:\d+)?/`}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewCorsHandler(cfg)
	require.NoError(t, err)
	return c
}

func corsRequest(method, origin string, headers ...string) *http.Request {
	r := httptest.NewRequest(method, "http://search.local/_search", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	return r
}

func TestCorsPreflight(t *testing.T) {
	c := newCors(t, nil)

	resp := c.HandleInbound(corsRequest(http.MethodOptions, "http://localhost:5601", "Access-Control-Request-Method", "POST"))
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "http://localhost:5601", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "OPTIONS,HEAD,GET,POST,PUT,DELETE", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "1728000", resp.Header.Get("Access-Control-Max-Age"))
	assert.Equal(t, []string{"Origin"}, resp.Header.Values(versioning.HeaderVary))

	resp = c.HandleInbound(corsRequest(http.MethodOptions, "https://evil.example.com", "Access-Control-Request-Method", "POST"))
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = c.HandleInbound(corsRequest(http.MethodOptions, "https://app.example.com", "Access-Control-Request-Method", "PATCH"))
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.Status)
}

func TestCorsInbound(t *testing.T) {
	c := newCors(t, nil)

	assert.Nil(t, c.HandleInbound(corsRequest(http.MethodGet, "")))
	assert.Nil(t, c.HandleInbound(corsRequest(http.MethodGet, "https://app.example.com")))
	assert.Nil(t, c.HandleInbound(corsRequest(http.MethodGet, "http://search.local")), "same origin")
	// OPTIONS without a requested method is not a preflight
	assert.Nil(t, c.HandleInbound(corsRequest(http.MethodOptions, "https://app.example.com")))

	resp := c.HandleInbound(corsRequest(http.MethodGet, "https://evil.example.com"))
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.Status)
}

func TestCorsResponseHeaders(t *testing.T) {
	c := newCors(t, func(cfg *CorsConfig) { cfg.AllowCredentials = true })

	h := http.Header{}
	c.SetResponseHeaders(corsRequest(http.MethodGet, "https://app.example.com"), h)
	assert.Equal(t, "https://app.example.com", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Warning,X-Opaque-Id", h.Get("Access-Control-Expose-Headers"))

	h = http.Header{}
	c.SetResponseHeaders(corsRequest(http.MethodGet, "https://evil.example.com"), h)
	assert.Empty(t, h)
}

func TestCorsWildcard(t *testing.T) {
	c := newCors(t, func(cfg *CorsConfig) {
		cfg.AllowOrigins = []string{"*"}
		cfg.MaxAge = time.Minute
	})

	resp := c.HandleInbound(corsRequest(http.MethodOptions, "https://anything.example.com", "Access-Control-Request-Method", "GET"))
	require.NotNil(t, resp)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "60", resp.Header.Get("Access-Control-Max-Age"))
	assert.Empty(t, resp.Header.Values(versioning.HeaderVary))
}

func TestCorsDisabled(t *testing.T) {
	var nilHandler *CorsHandler
	assert.Nil(t, nilHandler.HandleInbound(corsRequest(http.MethodGet, "https://evil.example.com")))

	c := newCors(t, func(cfg *CorsConfig) { cfg.Enabled = false })
	assert.Nil(t, c.HandleInbound(corsRequest(http.MethodGet, "https://evil.example.com")))
	h := http.Header{}
	c.SetResponseHeaders(corsRequest(http.MethodGet, "https://app.example.com"), h)
	assert.Empty(t, h)
}

func TestCorsInvalidPattern(t *testing.T) {
	cfg := DefaultCorsConfig()
	cfg.AllowOrigins = []string{"/(/"}
	_, err := NewCorsHandler(cfg)
	assert.Error(t, err)
}
