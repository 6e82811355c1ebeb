package http

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

// RoutePatterns resolves a request path to the route pattern serving it.
type RoutePatterns interface {
	Pattern(path string) string
}

// RouteAttributes returns the http.route attribute for r, or nil when no
// pattern matches.
func RouteAttributes(routes RoutePatterns, r *http.Request) []attribute.KeyValue {
	if route := matchRoutePattern(routes, r); route != "" {
		return []attribute.KeyValue{semconv.HTTPRoute(route)}
	}
	return nil
}

// RouteSpanNameFormatter returns an otelhttp span-name formatter that swaps the
// default operation name with "<method> <route pattern>" when a pattern matches.
func RouteSpanNameFormatter(routes RoutePatterns) func(string, *http.Request) string {
	return func(operation string, r *http.Request) string {
		if route := matchRoutePattern(routes, r); route != "" {
			return r.Method + " " + route
		}
		return operation
	}
}

// RouteTagger sets the http.route attribute on the server span of each
// request. It must run inside the otelhttp handler.
func RouteTagger(routes RoutePatterns) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attrs := RouteAttributes(routes, r); attrs != nil {
				trace.SpanFromContext(r.Context()).SetAttributes(attrs...)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matchRoutePattern(routes RoutePatterns, r *http.Request) string {
	if r == nil || routes == nil {
		return ""
	}
	return routes.Pattern(r.URL.Path)
}
