package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// RateLimitOptions configures per client throttling of API requests.
type RateLimitOptions struct {
	Requests       int
	Window         time.Duration
	Message        string
	TrustedProxies []string
	// OnLimited is called for every rejected request before it is answered.
	OnLimited func(r *http.Request)
}

// forwardedHeaders are consulted in order for the client address a trusted
// proxy reports.
var forwardedHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// clientKey is the client address of r without its port.
func clientKey(r *http.Request) string {
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// IPRateLimiter rejects a client once it sent opts.Requests requests within
// opts.Window. Put TrustedRealIP in front of it behind a proxy.
func IPRateLimiter(opts RateLimitOptions) func(http.Handler) http.Handler {
	return httprate.Limit(
		opts.Requests,
		opts.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return clientKey(r), nil
		}),
		httprate.WithLimitHandler(rejectedExecution(opts)),
	)
}

// InstallIPRateLimiter installs TrustedRealIP, when proxies are configured,
// followed by IPRateLimiter.
func InstallIPRateLimiter(r chi.Router, opts RateLimitOptions) {
	if len(opts.TrustedProxies) > 0 {
		r.Use(TrustedRealIP(opts.TrustedProxies))
	}
	r.Use(IPRateLimiter(opts))
}

type proxySet []netip.Prefix

// parseProxies accepts CIDRs and literal addresses. Entries that are
// neither are skipped.
func parseProxies(entries []string) proxySet {
	var set proxySet
	for _, entry := range entries {
		s := strings.TrimSpace(entry)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			if p, err := netip.ParsePrefix(s); err == nil {
				set = append(set, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(s); err == nil {
			addr = addr.Unmap()
			set = append(set, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return set
}

func (s proxySet) trusts(peer string) bool {
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// forwardedClient returns the first valid client address in the forwarding
// headers. Only the leftmost X-Forwarded-For entry counts.
func forwardedClient(h http.Header) (netip.Addr, bool) {
	for _, name := range forwardedHeaders {
		value := h.Get(name)
		if name == "X-Forwarded-For" {
			value, _, _ = strings.Cut(value, ",")
		}
		if addr, err := netip.ParseAddr(strings.TrimSpace(value)); err == nil {
			return addr.Unmap(), true
		}
	}
	return netip.Addr{}, false
}

// TrustedRealIP replaces r.RemoteAddr with the client address reported by
// True-Client-IP, X-Real-IP or X-Forwarded-For, but only when the direct peer
// is one of trustedProxies. Headers from anyone else are ignored.
func TrustedRealIP(trustedProxies []string) func(http.Handler) http.Handler {
	proxies := parseProxies(trustedProxies)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(proxies) > 0 && proxies.trusts(clientKey(r)) {
				if addr, ok := forwardedClient(r.Header); ok {
					r.RemoteAddr = addr.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rejectedExecution answers a throttled request the way the REST layer
// answers a saturated executor: 429 rejected_execution_exception, with a
// Retry-After hint and the client's X-Opaque-Id echoed back.
func rejectedExecution(opts RateLimitOptions) http.HandlerFunc {
	retryAfter := strconv.Itoa(max(1, int(opts.Window.Seconds())))
	return func(w http.ResponseWriter, r *http.Request) {
		if opts.OnLimited != nil {
			opts.OnLimited(r)
		}
		w.Header().Set("Retry-After", retryAfter)
		if id := r.Header.Get("X-Opaque-Id"); id != "" {
			w.Header().Set("X-Opaque-Id", id)
		}
		WriteJSONError(w, http.StatusTooManyRequests, "rejected_execution_exception", opts.Message)
	}
}
