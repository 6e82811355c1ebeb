package middleware

import (
	"context"
	"fmt"
	"net/http"

	chi "github.com/go-chi/chi/v5/middleware"
	"github.com/searchgate/searchgate/pkg/reqid"
)

// RequestSizeLimiter returns a middleware that limits the URL length and the number of request headers.
func RequestSizeLimiter(maxURLLength int, maxNumHeaders int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxURLLength > 0 && len(r.URL.String()) > maxURLLength {
				WriteJSONError(w, http.StatusRequestURITooLong, "too_long_http_line_exception",
					fmt.Sprintf("An HTTP line is larger than %d bytes.", maxURLLength))
				return
			}
			if maxNumHeaders > 0 && len(r.Header) > maxNumHeaders {
				WriteJSONError(w, http.StatusRequestHeaderFieldsTooLarge, "too_long_http_header_exception",
					fmt.Sprintf("request has too many headers, exceeds %d", maxNumHeaders))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(chi.RequestIDHeader)
		if requestID == "" {
			requestID = reqid.NextRequestID()
		}
		ctx := context.WithValue(r.Context(), chi.RequestIDKey, requestID)
		w.Header().Set(chi.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
