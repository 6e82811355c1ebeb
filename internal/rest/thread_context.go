package rest

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// ThreadContext is the per-request scratch space shared by the handler and
// the channel: inbound headers worth propagating and response headers such
// as deprecation warnings. It lives for exactly one dispatch.
type ThreadContext struct {
	mu              sync.Mutex
	requestHeaders  map[string]string
	responseHeaders http.Header
	released        bool
}

type threadContextKey struct{}

// stashThreadContext attaches a fresh ThreadContext to ctx, copying the
// listed request headers into it. The returned release func must run once
// dispatch is over; after it runs the context no longer accepts writes.
func stashThreadContext(ctx context.Context, header http.Header, propagate []string) (context.Context, *ThreadContext, func()) {
	tc := &ThreadContext{
		requestHeaders:  map[string]string{},
		responseHeaders: http.Header{},
	}
	for _, name := range propagate {
		if v := header.Get(name); v != "" {
			tc.requestHeaders[http.CanonicalHeaderKey(name)] = v
		}
	}
	release := func() {
		tc.mu.Lock()
		tc.released = true
		tc.mu.Unlock()
	}
	return context.WithValue(ctx, threadContextKey{}, tc), tc, release
}

// ThreadContextFrom returns the ThreadContext of the request ctx belongs to.
func ThreadContextFrom(ctx context.Context) (*ThreadContext, bool) {
	tc, ok := ctx.Value(threadContextKey{}).(*ThreadContext)
	return tc, ok
}

// RequestHeader returns a propagated inbound header.
func (t *ThreadContext) RequestHeader(name string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requestHeaders[http.CanonicalHeaderKey(name)]
}

// AddWarning adds a deprecation warning header, once per distinct message.
func (t *ThreadContext) AddWarning(message string) {
	t.AddResponseHeader("Warning", formatWarning(message))
}

// AddResponseHeader adds a header value unless it is already present. It
// returns false once the context has been released.
func (t *ThreadContext) AddResponseHeader(name, value string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return false
	}
	if lo.Contains(t.responseHeaders.Values(name), value) {
		return true
	}
	t.responseHeaders.Add(name, value)
	return true
}

func (t *ThreadContext) ResponseHeaders() http.Header {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.responseHeaders.Clone()
}

func (t *ThreadContext) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

// formatWarning renders an RFC 7234 warning with the miscellaneous
// persistent warning code.
func formatWarning(message string) string {
	return `299 searchgate "` + warningEscaper.Replace(message) + `"`
}

var warningEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
