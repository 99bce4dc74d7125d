// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "asset-registrar/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourcesConfig locates the content files of articles on local storage.
// Each root contains <journal>/<issue>/ folders.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	PDFRoot   string `json:"pdf_root" yaml:"pdf_root" mapstructure:"pdf_root"`
	MediaRoot string `json:"media_root" yaml:"media_root" mapstructure:"media_root"`
	XMLRoot   string `json:"xml_root" yaml:"xml_root" mapstructure:"xml_root"`

	// CacheRoot receives files downloaded from remote fallback URLs. Only
	// files written there by the registrar are ever deleted.
	CacheRoot string `json:"cache_root" yaml:"cache_root" mapstructure:"cache_root"`

	// DisableDownloads turns off the remote fallback.
	DisableDownloads bool `json:"disable_downloads" yaml:"disable_downloads" mapstructure:"disable_downloads"`
}

// GatewayConfig configures the asset store client.
type GatewayConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the asset store API root (e.g. "http://localhost:8001/api/v1").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Token is the bearer token; usually loaded from .secrets/asset-store-token.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`

	// RequestInterval is the minimum delay between two requests to the store.
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval" mapstructure:"request_interval"`

	// MaxRetries bounds retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// ResultCacheTTL is how long fetched descriptors are kept in memory.
	ResultCacheTTL time.Duration `json:"result_cache_ttl" yaml:"result_cache_ttl" mapstructure:"result_cache_ttl"`
}

// RegistrationConfig controls the orchestrator's waits and fan-out.
type RegistrationConfig struct {
	// PollInterval is the first delay between two polling rounds.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" mapstructure:"poll_interval"`

	// MaxPollInterval caps the doubling backoff between polling rounds.
	MaxPollInterval time.Duration `json:"max_poll_interval" yaml:"max_poll_interval" mapstructure:"max_poll_interval"`

	// MediaTimeout bounds the wait for media jobs before HTML rendering.
	MediaTimeout time.Duration `json:"media_timeout" yaml:"media_timeout" mapstructure:"media_timeout"`

	// Timeout bounds the final wait for every outstanding job.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxConcurrentUploads bounds concurrent submissions within one pass.
	MaxConcurrentUploads int `json:"max_concurrent_uploads" yaml:"max_concurrent_uploads" mapstructure:"max_concurrent_uploads"`

	// Parallelism is the number of articles registered concurrently in a batch.
	Parallelism int `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism"`

	// KeepDownloads keeps files fetched from remote fallbacks after a pass.
	KeepDownloads bool `json:"keep_downloads" yaml:"keep_downloads" mapstructure:"keep_downloads"`
}

// RendererConfig configures the containerised HTML renderer.
type RendererConfig struct {
	// Image is the renderer container image.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// CSSPath is the stylesheet URL or path passed to the renderer.
	CSSPath string `json:"css_path" yaml:"css_path" mapstructure:"css_path"`
}

// StoreConfig locates the article document database.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LoggingConfig selects log level and format ("auto", "console", "json").
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Exporter is "stdout", "file" or "otlp".
	Exporter string `json:"exporter" yaml:"exporter" mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty" mapstructure:"file_path"`

	// OTLPEndpoint is the collector address for the "otlp" exporter.
	OTLPEndpoint string `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty" mapstructure:"otlp_endpoint"`

	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`
}

// Config groups the settings of every component.
type Config struct {
	Sources      SourcesConfig      `json:"sources" yaml:"sources" mapstructure:"sources"`
	Gateway      GatewayConfig      `json:"gateway" yaml:"gateway" mapstructure:"gateway"`
	Registration RegistrationConfig `json:"registration" yaml:"registration" mapstructure:"registration"`
	Renderer     RendererConfig     `json:"renderer" yaml:"renderer" mapstructure:"renderer"`
	Store        StoreConfig        `json:"store" yaml:"store" mapstructure:"store"`
	Logging      LoggingConfig      `json:"logging" yaml:"logging" mapstructure:"logging"`
	Tracing      TracingConfig      `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
}

const defaultUserAgent = "asset-registrar/0.1"

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Sources: SourcesConfig{
			HTTPConfig: HTTPConfig{Timeout: 60 * time.Second, UserAgent: defaultUserAgent},
			PDFRoot:    "assets/pdf",
			MediaRoot:  "assets/img",
			XMLRoot:    "assets/xml",
			CacheRoot:  "assets/cache",
		},
		Gateway: GatewayConfig{
			HTTPConfig:      HTTPConfig{Timeout: 30 * time.Second, UserAgent: defaultUserAgent},
			BaseURL:         "http://localhost:8001/api/v1",
			RequestInterval: 50 * time.Millisecond,
			MaxRetries:      5,
			ResultCacheTTL:  30 * time.Minute,
		},
		Registration: RegistrationConfig{
			PollInterval:         500 * time.Millisecond,
			MaxPollInterval:      10 * time.Second,
			MediaTimeout:         5 * time.Minute,
			Timeout:              10 * time.Minute,
			MaxConcurrentUploads: 4,
			Parallelism:          2,
		},
		Renderer: RendererConfig{
			Image:   "packtools-html:latest",
			CSSPath: "/static/css/article.css",
		},
		Store: StoreConfig{
			Path: "data/articles.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    "stdout",
			ServiceName: "asset-registrar",
		},
	}
}

// WithDefaults fills zero durations and counts from DefaultConfig.
func (c RegistrationConfig) WithDefaults() RegistrationConfig {
	d := DefaultConfig().Registration
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MaxPollInterval <= 0 {
		c.MaxPollInterval = d.MaxPollInterval
	}
	if c.MaxPollInterval < c.PollInterval {
		c.MaxPollInterval = c.PollInterval
	}
	if c.MediaTimeout <= 0 {
		c.MediaTimeout = d.MediaTimeout
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxConcurrentUploads <= 0 {
		c.MaxConcurrentUploads = d.MaxConcurrentUploads
	}
	if c.Parallelism <= 0 {
		c.Parallelism = d.Parallelism
	}
	return c
}
