package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/searchgate/searchgate/internal/actions"
	apiserver "github.com/searchgate/searchgate/internal/api_server"
	"github.com/searchgate/searchgate/internal/api_server/middleware"
	"github.com/searchgate/searchgate/internal/config"
	"github.com/searchgate/searchgate/internal/instrumentation/metrics"
	"github.com/searchgate/searchgate/internal/instrumentation/tracing"
	"github.com/searchgate/searchgate/internal/mediatype"
	"github.com/searchgate/searchgate/pkg/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName     = "searchgate-api"
	shutdownTimeout = 5 * time.Second
)

type ServeOptions struct {
	GlobalOptions

	Address   string
	LogLevel  string
	LogFormat string

	searcher actions.Searcher
	log      *logrus.Logger
}

func DefaultServeOptions() *ServeOptions {
	return &ServeOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdServe() *cobra.Command {
	o := DefaultServeOptions()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ServeOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Address, "address", o.Address, "Address to listen on, overriding service.address.")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level, overriding service.logLevel.")
	fs.StringVar(&o.LogFormat, "log-format", o.LogFormat, "Log format (text or json), overriding service.logFormat.")
}

func (o *ServeOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	if o.searcher == nil {
		o.searcher = actions.EmptySearcher{}
	}
	if o.log == nil {
		o.log = log.InitLogs()
		o.log.SetOutput(cmd.ErrOrStderr())
	}
	return nil
}

func (o *ServeOptions) Validate(args []string) error {
	return o.GlobalOptions.Validate(args)
}

// loadConfig reads the config file and applies the command line overrides.
func (o *ServeOptions) loadConfig() (*config.Config, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	if o.Address != "" {
		cfg.Service.Address = o.Address
	}
	if o.LogLevel != "" {
		cfg.Service.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Service.LogFormat = o.LogFormat
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *ServeOptions) Run(ctx context.Context, args []string) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	log.Configure(o.log, cfg.Service.LogLevel, cfg.Service.LogFormat)
	o.log.Println("Starting API service")
	defer o.log.Println("API service stopped")
	o.log.Printf("Using config: %s", cfg)

	shutdownTracer, err := tracing.InitTracer(o.log, cfg, serviceName)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer shutdownWithTimeout(o.log, "tracer", shutdownTracer)

	httpMetrics, err := metrics.NewHTTPMetricsCollector(serviceName, o.log)
	if err != nil {
		return fmt.Errorf("initializing http metrics: %w", err)
	}
	defer shutdownWithTimeout(o.log, "http metrics", httpMetrics.Shutdown)

	catalog := mediatype.Default()
	var parser mediatype.Parser = catalog
	var restMetricsOpts []metrics.RestMetricsOption
	if cfg.ParseCache != nil && cfg.ParseCache.Enabled {
		cache := mediatype.NewCachingParser(catalog, time.Duration(cfg.ParseCache.TTL), cfg.ParseCache.Capacity)
		go cache.Start()
		defer cache.Stop()
		parser = cache
		restMetricsOpts = append(restMetricsOpts, metrics.WithParseCacheSize(cache.Len))
	}
	restMetrics := metrics.NewRestMetrics(restMetricsOpts...)

	controller, err := apiserver.NewController(cfg, o.log, apiserver.ControllerOptions{
		Catalog:     catalog,
		Parser:      parser,
		Searcher:    o.searcher,
		Observer:    restMetrics,
		ClusterUUID: uuid.NewString(),
		Started:     time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}

	var metricsServer *metrics.MetricsServer
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		collectors := metrics.Collectors{Rest: restMetrics, HTTP: httpMetrics}
		if sc := cfg.Metrics.SystemCollector; sc != nil && sc.Enabled {
			collectors.System = metrics.NewSystemCollector(ctx, sc)
		}
		if metricsServer, err = metrics.NewMetricsServer(o.log, cfg, collectors); err != nil {
			return fmt.Errorf("creating metrics server: %w", err)
		}
	}

	listener, err := o.listen(cfg)
	if err != nil {
		return fmt.Errorf("creating listener: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		server := apiserver.New(o.log, cfg, listener, controller, parser)
		if err := server.Run(ctx); err != nil {
			return fmt.Errorf("running server: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Run(ctx); err != nil {
				return fmt.Errorf("running metrics server: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (o *ServeOptions) listen(cfg *config.Config) (net.Listener, error) {
	if !cfg.TLSEnabled() {
		return middleware.NewListener(cfg.Service.Address)
	}
	cert, err := config.LoadServerCertificates(cfg, o.log)
	if err != nil {
		return nil, err
	}
	return middleware.NewTLSListener(cfg.Service.Address, middleware.TLSConfigForServer(cert))
}

func shutdownWithTimeout(log logrus.FieldLogger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.WithError(err).Warnf("Failed to shut down %s", name)
	}
}
