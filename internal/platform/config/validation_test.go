package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig mirrors the shipped defaults.
func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "quotekeeper", Version: "1.0.0", Environment: "local"},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  DefaultMaxRequestSize,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Client: ClientConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      2,
				JitterFactor:    0.25,
			},
			CircuitBreaker: CircuitBreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenLimit: 3},
			Transport:      TransportConfig{MaxIdleConns: 100, MaxIdleConnsPerHost: 10, IdleConnTimeout: 90 * time.Second},
		},
		Services: ServicesConfig{
			Posts: ServiceEndpointConfig{BaseURL: "https://jsonplaceholder.typicode.com", Name: "posts-service"},
		},
		Store: StoreConfig{Driver: "sqlite", Path: "./data/quotes.db", SessionTTL: 30 * time.Minute},
		Sync:  SyncConfig{Enabled: true, Interval: time.Minute, Category: "Server", TextField: "body"},
	}
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Store.Driver = "memory"
	cfg.Store.Path = ""
	cfg.Sync.TextField = "title"
	cfg.Auth = AuthConfig{Enabled: true, SubjectHeader: "X-User-ID", WriteScope: "quotes:write"}
	require.NoError(t, cfg.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }, "app.name is required"},
		{"unknown environment", func(c *Config) { c.App.Environment = "staging" }, "app.environment must be one of"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port must be at most 65535"},
		{"zero body limit", func(c *Config) { c.Server.MaxRequestSize = 0 }, "server.max_request_size is required"},
		{"log level", func(c *Config) { c.Log.Level = "INFO" }, "log.level must be one of"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format must be one of"},
		{"log file path", func(c *Config) { c.Log.File = LogFileConfig{Enabled: true} }, "log.file.path is required when"},
		{"telemetry endpoint", func(c *Config) {
			c.Telemetry = TelemetryConfig{Enabled: true, ServiceName: "q", Endpoint: "not a url"}
		}, "telemetry.endpoint must be a valid URL"},
		{"sampling rate", func(c *Config) { c.Telemetry.SamplingRate = 1.5 }, "telemetry.sampling_rate must be at most 1"},
		{"auth subject header", func(c *Config) { c.Auth = AuthConfig{Enabled: true} }, "auth.subject_header is required when"},
		{"retry attempts", func(c *Config) { c.Client.Retry.MaxAttempts = 11 }, "client.retry.max_attempts must be at most 10"},
		{"retry multiplier", func(c *Config) { c.Client.Retry.Multiplier = 1 }, "client.retry.multiplier must be at least 1.1"},
		{"backoff cap below start", func(c *Config) {
			c.Client.Retry.InitialInterval = 2 * time.Second
			c.Client.Retry.MaxInterval = time.Second
		}, "client.retry.max_interval must not be shorter than initial_interval"},
		{"breaker timeout", func(c *Config) { c.Client.CircuitBreaker.Timeout = 10 * time.Millisecond }, "client.circuit_breaker.timeout must be at least 1s"},
		{"posts url", func(c *Config) { c.Services.Posts.BaseURL = "jsonplaceholder" }, "services.posts.base_url must be a valid URL"},
		{"store driver", func(c *Config) { c.Store.Driver = "redis" }, "store.driver must be one of: memory sqlite toml"},
		{"file store needs path", func(c *Config) { c.Store.Driver, c.Store.Path = "toml", "" }, "store.path is required unless"},
		{"session ttl", func(c *Config) { c.Store.SessionTTL = 0 }, "store.session_ttl is required"},
		{"sync category", func(c *Config) { c.Sync.Category = "" }, "sync.category is required"},
		{"sync text field", func(c *Config) { c.Sync.TextField = "userId" }, "sync.text_field must be one of: title body"},
		{"sync faster than client timeout", func(c *Config) { c.Sync.Interval = 5 * time.Second }, "sync.interval must not be shorter than client.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_DisabledSyncIgnoresInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.Enabled = false
	cfg.Sync.Interval = 5 * time.Second

	assert.NoError(t, cfg.Validate())
}

func TestValidate_ListsEveryFailure(t *testing.T) {
	cfg := validConfig()
	cfg.App.Name = ""
	cfg.App.Version = ""
	cfg.Server.Port = -1

	err := cfg.Validate()
	require.Error(t, err)

	for _, key := range []string{"app.name", "app.version", "server.port"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestKeyPath(t *testing.T) {
	assert.Equal(t, "client.retry.max_attempts", keyPath("Config.client.retry.max_attempts"))
	assert.Equal(t, "enabled true", keyPath("Enabled true"))
}
