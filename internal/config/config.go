package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/searchgate/searchgate/internal/util"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"
)

const (
	appName = "searchgate"
)

type Config struct {
	Service    *ServiceConfig    `json:"service,omitempty"`
	HTTP       *HTTPConfig       `json:"http,omitempty"`
	Cors       *CorsConfig       `json:"cors,omitempty"`
	RateLimit  *RateLimitConfig  `json:"rateLimit,omitempty"`
	Metrics    *MetricsConfig    `json:"metrics,omitempty"`
	Tracing    *TracingConfig    `json:"tracing,omitempty"`
	Executor   *ExecutorConfig   `json:"executor,omitempty"`
	ParseCache *ParseCacheConfig `json:"parseCache,omitempty"`
}

type ServiceConfig struct {
	Address     string `json:"address,omitempty"`
	NodeName    string `json:"nodeName,omitempty"`
	ClusterName string `json:"clusterName,omitempty"`
	LogLevel    string `json:"logLevel,omitempty"`
	// LogFormat is "text" or "json".
	LogFormat   string `json:"logFormat,omitempty"`
	SrvCertFile string `json:"srvCertificateFile,omitempty"`
	SrvKeyFile  string `json:"srvKeyFile,omitempty"`
	// PropagateHeaders are copied from each request into its thread context.
	PropagateHeaders []string            `json:"propagateHeaders,omitempty"`
	HealthChecks     *HealthChecksConfig `json:"healthChecks,omitempty"`
}

type HealthChecksConfig struct {
	Enabled          bool          `json:"enabled"`
	ReadinessPath    string        `json:"readinessPath,omitempty"`
	LivenessPath     string        `json:"livenessPath,omitempty"`
	ReadinessTimeout util.Duration `json:"readinessTimeout,omitempty"`
}

type HTTPConfig struct {
	ReadTimeout       util.Duration `json:"readTimeout,omitempty"`
	ReadHeaderTimeout util.Duration `json:"readHeaderTimeout,omitempty"`
	WriteTimeout      util.Duration `json:"writeTimeout,omitempty"`
	IdleTimeout       util.Duration `json:"idleTimeout,omitempty"`
	MaxNumHeaders     int           `json:"maxNumHeaders,omitempty"`
	MaxHeaderBytes    int           `json:"maxHeaderBytes,omitempty"`
	MaxURLLength      int           `json:"maxUrlLength,omitempty"`
	// MaxContentLength bounds request bodies, e.g. "100MiB".
	MaxContentLength string `json:"maxContentLength,omitempty"`
}

type CorsConfig struct {
	Enabled          bool          `json:"enabled"`
	AllowOrigins     []string      `json:"allowOrigins,omitempty"`
	AllowMethods     []string      `json:"allowMethods,omitempty"`
	AllowHeaders     []string      `json:"allowHeaders,omitempty"`
	ExposeHeaders    []string      `json:"exposeHeaders,omitempty"`
	AllowCredentials bool          `json:"allowCredentials"`
	MaxAge           util.Duration `json:"maxAge,omitempty"`
}

// RateLimitConfig limits requests per client IP. A nil section disables it.
type RateLimitConfig struct {
	Requests       int           `json:"requests,omitempty"`
	Window         util.Duration `json:"window,omitempty"`
	TrustedProxies []string      `json:"trustedProxies,omitempty"`
}

type MetricsConfig struct {
	Enabled         bool                   `json:"enabled"`
	Address         string                 `json:"address,omitempty"`
	SystemCollector *SystemCollectorConfig `json:"systemCollector,omitempty"`
}

type SystemCollectorConfig struct {
	Enabled        bool          `json:"enabled"`
	TickerInterval util.Duration `json:"tickerInterval,omitempty"`
}

type TracingConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint,omitempty"`
	Insecure bool   `json:"insecure,omitempty"`
}

type ExecutorConfig struct {
	// MaxConcurrentRequests bounds running handlers. 0 means unbounded.
	MaxConcurrentRequests int `json:"maxConcurrentRequests,omitempty"`
}

type ParseCacheConfig struct {
	Enabled  bool          `json:"enabled"`
	TTL      util.Duration `json:"ttl,omitempty"`
	Capacity uint64        `json:"capacity,omitempty"`
}

func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, "."+appName)
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func NewDefault() *Config {
	c := &Config{
		Service: &ServiceConfig{
			Address:          ":9200",
			ClusterName:      appName,
			LogLevel:         "info",
			LogFormat:        "text",
			PropagateHeaders: []string{"X-Opaque-Id", "Traceparent"},
			HealthChecks: &HealthChecksConfig{
				Enabled:          true,
				ReadinessPath:    "/readyz",
				LivenessPath:     "/healthz",
				ReadinessTimeout: util.Duration(2 * time.Second),
			},
		},
		HTTP: &HTTPConfig{
			ReadTimeout:       util.Duration(5 * time.Minute),
			ReadHeaderTimeout: util.Duration(30 * time.Second),
			WriteTimeout:      util.Duration(5 * time.Minute),
			IdleTimeout:       util.Duration(5 * time.Minute),
			MaxNumHeaders:     64,
			MaxHeaderBytes:    8 * 1024,
			MaxURLLength:      4 * 1024,
			MaxContentLength:  "100MiB",
		},
		Cors: &CorsConfig{
			AllowMethods:  []string{"OPTIONS", "HEAD", "GET", "POST", "PUT", "DELETE"},
			AllowHeaders:  []string{"X-Requested-With", "Content-Type", "Content-Length", "Authorization", "Accept", "User-Agent", "X-Opaque-Id"},
			ExposeHeaders: []string{"Warning", "X-Opaque-Id"},
			MaxAge:        util.Duration(20 * util.Day),
		},
		Metrics: &MetricsConfig{
			Enabled: true,
			Address: ":15690",
			SystemCollector: &SystemCollectorConfig{
				Enabled:        true,
				TickerInterval: util.Duration(5 * time.Second),
			},
		},
		Tracing: &TracingConfig{},
		Executor: &ExecutorConfig{
			MaxConcurrentRequests: 256,
		},
		ParseCache: &ParseCacheConfig{
			Enabled:  true,
			TTL:      util.Duration(10 * time.Minute),
			Capacity: 1024,
		},
	}
	return c
}

func NewFromFile(cfgFile string) (*Config, error) {
	cfg, err := Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadOrGenerate(cfgFile string) (*Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(cfgFile), os.FileMode(0755)); err != nil {
			return nil, fmt.Errorf("creating directory for config file: %v", err)
		}
		if err := Save(NewDefault(), cfgFile); err != nil {
			return nil, err
		}
	}
	return NewFromFile(cfgFile)
}

// Load reads cfgFile over the defaults, so a file only needs the settings it
// changes.
func Load(cfgFile string) (*Config, error) {
	contents, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %v", err)
	}
	c := NewDefault()
	if err := yaml.Unmarshal(contents, c); err != nil {
		return nil, fmt.Errorf("decoding config: %v", err)
	}
	return c, nil
}

func Save(cfg *Config, cfgFile string) error {
	contents, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %v", err)
	}
	if err := os.WriteFile(cfgFile, contents, 0600); err != nil {
		return fmt.Errorf("writing config file: %v", err)
	}
	return nil
}

func Validate(cfg *Config) error {
	var errs []error
	if cfg.Service == nil || cfg.Service.Address == "" {
		errs = append(errs, errors.New("service.address must be set"))
	}
	if cfg.Service != nil {
		if _, err := logrus.ParseLevel(cfg.Service.LogLevel); cfg.Service.LogLevel != "" && err != nil {
			errs = append(errs, fmt.Errorf("service.logLevel: %w", err))
		}
		switch strings.ToLower(cfg.Service.LogFormat) {
		case "", "text", "json":
		default:
			errs = append(errs, fmt.Errorf("service.logFormat must be text or json, got %q", cfg.Service.LogFormat))
		}
		if (cfg.Service.SrvCertFile == "") != (cfg.Service.SrvKeyFile == "") {
			errs = append(errs, errors.New("service.srvCertificateFile and service.srvKeyFile must be set together"))
		}
	}
	if cfg.HTTP != nil {
		if _, err := cfg.HTTP.MaxContentLengthBytes(); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Cors != nil {
		for _, origin := range cfg.Cors.AllowOrigins {
			if len(origin) > 1 && strings.HasPrefix(origin, "/") && strings.HasSuffix(origin, "/") {
				if _, err := regexp.Compile(origin[1 : len(origin)-1]); err != nil {
					errs = append(errs, fmt.Errorf("cors.allowOrigins: %w", err))
				}
			}
		}
	}
	if rl := cfg.RateLimit; rl != nil && (rl.Requests <= 0 || rl.Window <= 0) {
		errs = append(errs, errors.New("rateLimit.requests and rateLimit.window must be positive"))
	}
	if cfg.Metrics != nil && cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		errs = append(errs, errors.New("metrics.address must be set when metrics are enabled"))
	}
	if m := cfg.Metrics; m != nil && m.Enabled && m.SystemCollector != nil && m.SystemCollector.Enabled && m.SystemCollector.TickerInterval <= 0 {
		errs = append(errs, errors.New("metrics.systemCollector.tickerInterval must be positive"))
	}
	if cfg.Executor != nil && cfg.Executor.MaxConcurrentRequests < 0 {
		errs = append(errs, errors.New("executor.maxConcurrentRequests must not be negative"))
	}
	if pc := cfg.ParseCache; pc != nil && pc.Enabled && (pc.TTL <= 0 || pc.Capacity == 0) {
		errs = append(errs, errors.New("parseCache.ttl and parseCache.capacity must be positive when the cache is enabled"))
	}
	return errors.Join(errs...)
}

// MaxContentLengthBytes returns the request body limit, 0 when unset.
func (h *HTTPConfig) MaxContentLengthBytes() (int64, error) {
	if h == nil || h.MaxContentLength == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(h.MaxContentLength)
	if err != nil {
		return 0, fmt.Errorf("http.maxContentLength: %w", err)
	}
	return int64(n), nil
}

func (cfg *Config) String() string {
	contents, err := json.Marshal(cfg)
	if err != nil {
		return "<error>"
	}
	return string(contents)
}
