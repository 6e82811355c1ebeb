package rest

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
)

const (
	headerOrigin                   = "Origin"
	headerAccessControlRequestMeth = "Access-Control-Request-Method"
	headerAllowOrigin              = "Access-Control-Allow-Origin"
	headerAllowMethods             = "Access-Control-Allow-Methods"
	headerAllowHeaders             = "Access-Control-Allow-Headers"
	headerAllowCredentials         = "Access-Control-Allow-Credentials"
	headerExposeHeaders            = "Access-Control-Expose-Headers"
	headerMaxAge                   = "Access-Control-Max-Age"
)

// CorsConfig configures cross-origin request handling.
type CorsConfig struct {
	Enabled bool
	// AllowOrigins lists exact origins, "*" for any origin, or a regular
	// expression enclosed in slashes such as /https?:\/\/localhost(:\d+)?/.
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

func DefaultCorsConfig() CorsConfig {
	return CorsConfig{
		AllowMethods:  []string{http.MethodOptions, http.MethodHead, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{"X-Requested-With", "Content-Type", "Content-Length", "Authorization", "Accept", "User-Agent", "X-Opaque-Id"},
		ExposeHeaders: []string{"Warning", "X-Opaque-Id"},
		MaxAge:        20 * 24 * time.Hour,
	}
}

// CorsHandler answers preflight requests and rejects requests from origins
// that are not allowed. A nil handler lets every request through.
type CorsHandler struct {
	cfg      CorsConfig
	anyOrig  bool
	origins  map[string]struct{}
	patterns []*regexp.Regexp

	allowMethods  string
	allowHeaders  string
	exposeHeaders string
	maxAge        string
}

func NewCorsHandler(cfg CorsConfig) (*CorsHandler, error) {
	c := &CorsHandler{
		cfg:           cfg,
		origins:       map[string]struct{}{},
		allowMethods:  strings.Join(cfg.AllowMethods, ","),
		allowHeaders:  strings.Join(cfg.AllowHeaders, ","),
		exposeHeaders: strings.Join(cfg.ExposeHeaders, ","),
		maxAge:        strconv.Itoa(int(cfg.MaxAge / time.Second)),
	}
	for _, origin := range cfg.AllowOrigins {
		switch {
		case origin == "*":
			c.anyOrig = true
		case len(origin) > 1 && strings.HasPrefix(origin, "/") && strings.HasSuffix(origin, "/"):
			re, err := regexp.Compile(origin[1 : len(origin)-1])
			if err != nil {
				return nil, fmt.Errorf("invalid cors origin pattern %q: %w", origin, err)
			}
			c.patterns = append(c.patterns, re)
		default:
			c.origins[origin] = struct{}{}
		}
	}
	return c, nil
}

func (c *CorsHandler) enabled() bool {
	return c != nil && c.cfg.Enabled
}

// HandleInbound returns the response to send instead of dispatching, or nil
// to continue.
func (c *CorsHandler) HandleInbound(r *http.Request) *Response {
	if !c.enabled() {
		return nil
	}
	if isPreflight(r) {
		return c.preflight(r)
	}
	if !c.validOrigin(r) {
		return forbidden()
	}
	return nil
}

// SetResponseHeaders adds the CORS headers of an allowed cross-origin
// request to a response.
func (c *CorsHandler) SetResponseHeaders(r *http.Request, h http.Header) {
	if !c.enabled() {
		return
	}
	origin := r.Header.Get(headerOrigin)
	if origin == "" || !c.allowed(origin) {
		return
	}
	c.setOrigin(origin, h)
	if len(c.cfg.ExposeHeaders) > 0 {
		h.Set(headerExposeHeaders, c.exposeHeaders)
	}
}

func (c *CorsHandler) preflight(r *http.Request) *Response {
	origin := r.Header.Get(headerOrigin)
	method := r.Header.Get(headerAccessControlRequestMeth)
	if !c.allowed(origin) || !lo.Contains(c.cfg.AllowMethods, method) {
		return forbidden()
	}
	h := http.Header{}
	c.setOrigin(origin, h)
	h.Set(headerAllowMethods, c.allowMethods)
	h.Set(headerAllowHeaders, c.allowHeaders)
	h.Set(headerMaxAge, c.maxAge)
	h.Set("Content-Length", "0")
	return &Response{Status: http.StatusOK, Header: h}
}

func (c *CorsHandler) setOrigin(origin string, h http.Header) {
	if c.anyOrig && !c.cfg.AllowCredentials {
		h.Set(headerAllowOrigin, "*")
	} else {
		h.Set(headerAllowOrigin, origin)
		versioning.AddVary(h, headerOrigin)
	}
	if c.cfg.AllowCredentials {
		h.Set(headerAllowCredentials, "true")
	}
}

func (c *CorsHandler) validOrigin(r *http.Request) bool {
	origin := r.Header.Get(headerOrigin)
	if origin == "" || c.allowed(origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host != "" && strings.EqualFold(u.Host, r.Host)
}

func (c *CorsHandler) allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if c.anyOrig {
		return true
	}
	if _, ok := c.origins[origin]; ok {
		return true
	}
	return lo.ContainsBy(c.patterns, func(re *regexp.Regexp) bool { return re.MatchString(origin) })
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get(headerOrigin) != "" &&
		r.Header.Get(headerAccessControlRequestMeth) != ""
}

func forbidden() *Response {
	h := http.Header{}
	h.Set("Content-Length", "0")
	return &Response{Status: http.StatusForbidden, Header: h}
}
