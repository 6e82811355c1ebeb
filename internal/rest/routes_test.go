package rest

import (
	"net/http"
	"testing"

	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type versionedHandler struct {
	recordingHandler
	version versioning.Version
}

func (h *versionedHandler) CompatibleWith() versioning.Version {
	return h.version
}

func TestRoutesFind(t *testing.T) {
	routes := NewRoutes()
	search := &recordingHandler{}
	typed := &versionedHandler{version: versioning.Compatible}
	require.NoError(t, routes.RegisterHandler(search,
		NewRoute(http.MethodGet, "/_search"),
		NewRoute(http.MethodGet, "/{index}/_search"),
	))
	require.NoError(t, routes.RegisterHandler(typed, NewRoute(http.MethodGet, "/{index}/{type}/_search")))
	require.NoError(t, routes.Register(NewRoute(http.MethodGet, "/"), versioning.Current, &recordingHandler{}))

	tests := []struct {
		path        string
		wantPattern string
		wantParams  map[string]string
	}{
		{path: "/", wantPattern: "/", wantParams: map[string]string{}},
		{path: "/_search", wantPattern: "/_search", wantParams: map[string]string{}},
		{path: "/logs/_search", wantPattern: "/{index}/_search", wantParams: map[string]string{"index": "logs"}},
		{path: "/logs/doc/_search", wantPattern: "/{index}/{type}/_search", wantParams: map[string]string{"index": "logs", "type": "doc"}},
		{path: "/logs"},
		{path: "/logs/_count"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			table, params := routes.Find(tt.path)
			assert.Equal(t, tt.wantPattern, routes.Pattern(tt.path))
			if tt.wantPattern == "" {
				assert.Nil(t, table)
				return
			}
			require.NotNil(t, table)
			assert.Equal(t, tt.wantPattern, table.Path())
			assert.Equal(t, tt.wantParams, params)
		})
	}

	table, _ := routes.Find("/logs/doc/_search")
	assert.Nil(t, table.Get(http.MethodGet, versioning.Current))
	assert.Same(t, typed, table.Get(http.MethodGet, versioning.Compatible))

	assert.Equal(t, []string{"/", "/_search", "/{index}/_search", "/{index}/{type}/_search"}, routes.Patterns())
}

func TestRoutesFreeze(t *testing.T) {
	routes := NewRoutes()
	routes.Freeze()
	err := routes.Register(NewRoute(http.MethodGet, "/x"), versioning.Current, &recordingHandler{})
	assert.ErrorIs(t, err, ErrRoutesFrozen)
}

func TestRoutesInvalidPattern(t *testing.T) {
	routes := NewRoutes()
	err := routes.Register(NewRoute(http.MethodGet, "no-leading-slash"), versioning.Current, &recordingHandler{})
	require.Error(t, err)
	assert.Empty(t, routes.Patterns())
}

func TestRoutesDuplicate(t *testing.T) {
	routes := NewRoutes()
	route := NewRoute(http.MethodGet, "/x")
	require.NoError(t, routes.Register(route, versioning.Current, &recordingHandler{}))
	require.Error(t, routes.Register(route, versioning.Current, &recordingHandler{}))
}
