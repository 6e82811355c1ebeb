package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type recordingObserver struct {
	mu         sync.Mutex
	outcomes   []string
	versions   []versioning.Version
	recoveries []string
	statuses   []int
}

func (o *recordingObserver) RequestDispatched(outcome string, version versioning.Version) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
	o.versions = append(o.versions, version)
}

func (o *recordingObserver) RequestRecovered(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recoveries = append(o.recoveries, kind)
}

func (o *recordingObserver) ResponseSent(status int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) Recoveries() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.recoveries...)
}

// recordingHandler answers with the version it saw and remembers the last
// request it was called with.
type recordingHandler struct {
	mu    sync.Mutex
	calls int
	last  *Request
	tc    *ThreadContext
}

func (h *recordingHandler) HandleRequest(req *Request, ch *Channel) error {
	h.mu.Lock()
	h.calls++
	h.last = req
	h.tc, _ = ThreadContextFrom(req.Context())
	h.mu.Unlock()
	return ch.SendObject(http.StatusOK, map[string]any{"version": int(req.CompatibleVersion())})
}

func (h *recordingHandler) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func (h *recordingHandler) Last() *Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

type testServer struct {
	controller *Controller
	observer   *recordingObserver
}

func newTestServer(t *testing.T, register func(routes *Routes), mutate ...func(cfg *ControllerConfig)) *testServer {
	t.Helper()
	routes := NewRoutes()
	register(routes)
	observer := &recordingObserver{}
	cfg := ControllerConfig{
		Routes:   routes,
		Observer: observer,
		Log:      testLogger(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := NewController(cfg)
	require.NoError(t, err)
	return &testServer{controller: c, observer: observer}
}

type requestOption func(r *http.Request)

func withHeader(name string, values ...string) requestOption {
	return func(r *http.Request) {
		r.Header.Del(name)
		for _, v := range values {
			r.Header.Add(name, v)
		}
	}
}

func (s *testServer) do(method, target, body string, opts ...requestOption) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	for _, opt := range opts {
		opt(r)
	}
	w := httptest.NewRecorder()
	s.controller.ServeHTTP(w, r)
	return w
}

type errorBody struct {
	Error struct {
		Type       string `json:"type"`
		Reason     string `json:"reason"`
		Suppressed []struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"suppressed"`
		RootCause []struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"root_cause"`
		CausedBy map[string]any `json:"caused_by"`
	} `json:"error"`
	Status int `json:"status"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

const (
	vnd7 = "application/vnd.search+json;compatible-with=7"
	vnd8 = "application/vnd.search+json;compatible-with=8"
	vnd6 = "application/vnd.search+json;compatible-with=6"
)
