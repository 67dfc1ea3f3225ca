package domain

import "time"

// Config holds the complete adjudicator configuration.
type Config struct {
	// Profile selects the deployment defaults
	Profile Profile `yaml:"profile" mapstructure:"profile"`

	// Server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Component configurations
	Repository RepositoryConfig `yaml:"repository" mapstructure:"repository"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	EventBus   EventBusConfig   `yaml:"event_bus" mapstructure:"event_bus"`
	Lock       LockConfig       `yaml:"lock" mapstructure:"lock"`
	Worker     WorkerConfig     `yaml:"worker" mapstructure:"worker"`
	IDs        IDConfig         `yaml:"ids" mapstructure:"ids"`

	// Observability
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`

	// RateLimit caps sustained requests per second; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// WorkerConfig holds async intake settings.
type WorkerConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// IDConfig holds identifier generation settings.
type IDConfig struct {
	// NodeID must be unique per running replica (0-1023).
	NodeID int64 `yaml:"node_id" mapstructure:"node_id"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// Profile names a set of deployment defaults.
type Profile string

const (
	// ProfileStandard runs on a single node with SQLite and in-process collaborators
	ProfileStandard Profile = "standard"

	// ProfilePro runs distributed with PostgreSQL, Redis and NATS
	ProfilePro Profile = "pro"
)

// DefaultConfig returns the single-node configuration.
func DefaultConfig() *Config {
	return &Config{
		Profile: ProfileStandard,
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit:    200,
			RateBurst:    400,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./adjudicator.db",
		},
		Cache: CacheConfig{
			Type:            "memory",
			LocalTTL:        5 * time.Minute,
			LocalCleanup:    10 * time.Minute,
			PolicyTTL:       10 * time.Minute,
			SettledCountTTL: time.Hour,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Lock: LockConfig{
			Type:          "local",
			TTL:           30 * time.Second,
			RetryInterval: 50 * time.Millisecond,
			MaxRetries:    100,
		},
		Worker: WorkerConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "adjudicator",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// ProConfig returns the distributed configuration.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Profile = ProfilePro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "adjudicator",
		MaxOpenConns: 25,
		MaxIdleConns: 5,
	}
	cfg.Cache.Type = "redis"
	cfg.Cache.EnableTwoPhase = true
	cfg.Cache.LocalTTL = time.Minute
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
		KafkaGroup:        "adjudicator",
		KafkaClientID:     "adjudicator",
	}
	cfg.Lock.Type = "redis"
	cfg.Tracing.Enabled = true
	return cfg
}
