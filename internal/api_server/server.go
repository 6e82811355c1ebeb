package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	sgmiddleware "github.com/searchgate/searchgate/internal/api_server/middleware"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/searchgate/searchgate/internal/config"
	instrhttp "github.com/searchgate/searchgate/internal/instrumentation/http"
	"github.com/searchgate/searchgate/internal/mediatype"
	"github.com/searchgate/searchgate/internal/rest"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	log        logrus.FieldLogger
	cfg        *config.Config
	listener   net.Listener
	controller http.Handler
	routes     instrhttp.RoutePatterns
	parser     mediatype.Parser
	observer   rest.Observer
	checks     []HealthChecker
	drain      *DrainCheck
}

// New returns a new instance of a searchgate server. controller answers every
// request that is not a health check.
func New(
	log logrus.FieldLogger,
	cfg *config.Config,
	listener net.Listener,
	controller http.Handler,
	parser mediatype.Parser,
	checks ...HealthChecker,
) *Server {
	if parser == nil {
		parser = mediatype.Default()
	}
	s := &Server{
		log:        log,
		cfg:        cfg,
		listener:   listener,
		controller: controller,
		parser:     parser,
		checks:     checks,
		drain:      &DrainCheck{},
	}
	if rc, ok := controller.(interface{ Routes() *rest.Routes }); ok {
		s.routes = rc.Routes()
	}
	if oc, ok := controller.(interface{ Observer() rest.Observer }); ok {
		s.observer = oc.Observer()
	}
	return s
}

// rateLimited reports a throttled request to the controller's observer,
// under the API version its Accept header asks for.
func (s *Server) rateLimited(r *http.Request) {
	if s.observer == nil {
		return
	}
	version := versioning.Current
	if accept, err := mediatype.ParseHeader(s.parser, versioning.HeaderAccept, r.Header.Values(versioning.HeaderAccept)); err == nil {
		if v, err := versioning.Requested(versioning.HeaderAccept, accept); err == nil {
			version = v
		}
	}
	s.observer.RequestDispatched(rest.OutcomeRateLimited, version)
	s.observer.ResponseSent(http.StatusTooManyRequests)
}

// Router builds the middleware chain in front of the controller.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	// request size limits should come before logging to prevent DoS attacks from filling logs
	maxContentLength, _ := s.cfg.HTTP.MaxContentLengthBytes()
	if maxContentLength > 0 {
		router.Use(middleware.RequestSize(maxContentLength))
	}
	var maxURLLength, maxNumHeaders int
	if s.cfg.HTTP != nil {
		maxURLLength, maxNumHeaders = s.cfg.HTTP.MaxURLLength, s.cfg.HTTP.MaxNumHeaders
	}
	router.Use(
		sgmiddleware.RequestSizeLimiter(maxURLLength, maxNumHeaders),
		sgmiddleware.RequestID,
		sgmiddleware.ChiLoggerWithAPIVersionTag(s.parser),
		middleware.Recoverer,
	)
	if s.routes != nil {
		router.Use(instrhttp.RouteTagger(s.routes))
	}

	// health endpoints: bypass rate limiting, but keep global safety middlewares
	if s.cfg.Service != nil && s.cfg.Service.HealthChecks != nil && s.cfg.Service.HealthChecks.Enabled {
		hc := s.cfg.Service.HealthChecks
		checks := append([]HealthChecker{s.drain}, s.checks...)
		router.Method(http.MethodGet, hc.ReadinessPath, ReadyzHandler(time.Duration(hc.ReadinessTimeout), checks...))
		router.Method(http.MethodGet, hc.LivenessPath, HealthzHandler())
	}

	router.Group(func(r chi.Router) {
		if ConfigureRateLimiterFromConfig(r, s.cfg.RateLimit, s.rateLimited) {
			s.log.Infof("Rate limiting enabled: %d requests per %s", s.cfg.RateLimit.Requests, time.Duration(s.cfg.RateLimit.Window))
		}
		r.Handle("/", s.controller)
		r.Handle("/*", s.controller)
	})

	return router
}

func (s *Server) Run(ctx context.Context) error {
	s.log.Println("Initializing API server")

	handler := otelhttp.NewHandler(s.Router(), "http-server",
		otelhttp.WithSpanNameFormatter(instrhttp.RouteSpanNameFormatter(s.routes)))
	srv := sgmiddleware.NewHTTPServer(handler, s.listener.Addr().String(), s.cfg)

	go func() {
		<-ctx.Done()
		s.log.Println("Shutdown signal received:", ctx.Err())
		s.drain.Drain()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
	}()

	s.log.Printf("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
