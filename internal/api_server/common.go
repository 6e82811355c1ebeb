package apiserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	sgmiddleware "github.com/searchgate/searchgate/internal/api_server/middleware"
	"github.com/searchgate/searchgate/internal/config"
)

// GracefulShutdownTimeout is the duration to wait for graceful shutdown
const GracefulShutdownTimeout = 5 * time.Second

const rateLimitMessage = "rate limit exceeded, please try again later"

// ConfigureRateLimiterFromConfig adds IP rate limiting to r when cfg enables
// it. onLimited, when set, sees every rejected request.
func ConfigureRateLimiterFromConfig(r chi.Router, cfg *config.RateLimitConfig, onLimited func(*http.Request)) bool {
	if cfg == nil || cfg.Requests <= 0 || cfg.Window <= 0 {
		return false
	}
	sgmiddleware.InstallIPRateLimiter(r, sgmiddleware.RateLimitOptions{
		Requests:       cfg.Requests,
		Window:         time.Duration(cfg.Window),
		Message:        rateLimitMessage,
		TrustedProxies: cfg.TrustedProxies,
		OnLimited:      onLimited,
	})
	return true
}
