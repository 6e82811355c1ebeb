package apiserver

import (
	"fmt"
	"time"

	"github.com/searchgate/searchgate/internal/actions"
	"github.com/searchgate/searchgate/internal/config"
	"github.com/searchgate/searchgate/internal/mediatype"
	"github.com/searchgate/searchgate/internal/rest"
	"github.com/sirupsen/logrus"
)

// ControllerOptions are the runtime collaborators of the REST controller
// that do not come from the config file.
type ControllerOptions struct {
	Catalog     *mediatype.Catalog
	Parser      mediatype.Parser
	Searcher    actions.Searcher
	Observer    rest.Observer
	ClusterUUID string
	Started     time.Time
}

// NewController registers the built-in actions and returns the controller
// serving them, configured from cfg.
func NewController(cfg *config.Config, log logrus.FieldLogger, opts ControllerOptions) (*rest.Controller, error) {
	if opts.Catalog == nil {
		opts.Catalog = mediatype.Default()
	}
	if opts.Started.IsZero() {
		opts.Started = time.Now()
	}

	maxContentLength, err := cfg.HTTP.MaxContentLengthBytes()
	if err != nil {
		return nil, err
	}

	cors, err := rest.NewCorsHandler(corsConfig(cfg.Cors))
	if err != nil {
		return nil, err
	}

	var limit int
	if cfg.Executor != nil {
		limit = cfg.Executor.MaxConcurrentRequests
	}

	node := actions.NodeInfo{
		ClusterUUID:      opts.ClusterUUID,
		Started:          opts.Started,
		MaxContentLength: maxContentLength,
	}
	propagate := rest.DefaultPropagateHeaders
	if cfg.Service != nil {
		node.Name = cfg.Service.NodeName
		node.ClusterName = cfg.Service.ClusterName
		if len(cfg.Service.PropagateHeaders) > 0 {
			propagate = cfg.Service.PropagateHeaders
		}
	}

	routes := rest.NewRoutes()
	if err := actions.Register(routes, actions.Dependencies{
		Node:     node,
		Catalog:  opts.Catalog,
		Searcher: opts.Searcher,
	}); err != nil {
		return nil, fmt.Errorf("registering actions: %w", err)
	}

	return rest.NewController(rest.ControllerConfig{
		Routes:           routes,
		Catalog:          opts.Catalog,
		Parser:           opts.Parser,
		Cors:             cors,
		Executor:         rest.NewExecutor(log, limit),
		MaxContentLength: maxContentLength,
		PropagateHeaders: propagate,
		Observer:         opts.Observer,
		Log:              log,
	})
}

func corsConfig(cfg *config.CorsConfig) rest.CorsConfig {
	if cfg == nil {
		return rest.DefaultCorsConfig()
	}
	return rest.CorsConfig{
		Enabled:          cfg.Enabled,
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge),
	}
}
