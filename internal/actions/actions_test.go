package actions

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/searchgate/searchgate/internal/rest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testStarted = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, searcher Searcher) http.Handler {
	t.Helper()
	routes := rest.NewRoutes()
	require.NoError(t, Register(routes, Dependencies{
		Node: NodeInfo{
			Name:             "node-1",
			ClusterName:      "searchgate",
			ClusterUUID:      "8b4f5c1e-7d44-4a59-9c5b-0f5d2d3c9a10",
			Started:          testStarted,
			MaxContentLength: 100 << 20,
		},
		Searcher: searcher,
		Now:      func() time.Time { return testStarted.Add(3 * time.Minute) },
	}))
	log := logrus.New()
	log.SetOutput(io.Discard)
	c, err := rest.NewController(rest.ControllerConfig{Routes: routes, Log: log})
	require.NoError(t, err)
	return c
}

func serve(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	decodeJSON(t, w, &body)
	return body.Error.Type
}
