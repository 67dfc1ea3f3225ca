// Package config loads the adjudicator configuration from defaults, an
// optional YAML file and ADJUDICATOR_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ADJUDICATOR_SERVER_PORT.
const EnvPrefix = "ADJUDICATOR"

// Load builds the effective configuration. path may be empty.
//
// Precedence, highest first: environment, config file, profile defaults.
// ADJUDICATOR_PROFILE=pro selects the distributed defaults and
// ADJUDICATOR_DEBUG=true forces debug logging.
func Load(path string) (*domain.Config, error) {
	base := domain.DefaultConfig()
	if strings.EqualFold(os.Getenv(EnvPrefix+"_PROFILE"), string(domain.ProfilePro)) {
		base = domain.ProConfig()
	}

	v, err := newViper(base)
	if err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if os.Getenv(EnvPrefix+"_DEBUG") == "true" {
		cfg.Logging.Level = "debug"
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// newViper seeds a viper instance with every key of base so that environment
// overrides apply to all of them.
func newViper(base *domain.Config) (*viper.Viper, error) {
	defaults, err := yaml.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to render defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Validate reports every invalid setting at once.
func Validate(cfg *domain.Config) error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(cfg.Server.Port > 0 && cfg.Server.Port < 65536, "server.port %d out of range", cfg.Server.Port)
	check(cfg.Server.RateLimit >= 0, "server.rate_limit must not be negative")

	check(oneOf(cfg.Repository.Driver, "sqlite", "postgres"), "repository.driver %q must be sqlite or postgres", cfg.Repository.Driver)
	check(oneOf(cfg.Cache.Type, "memory", "redis"), "cache.type %q must be memory or redis", cfg.Cache.Type)
	check(oneOf(cfg.EventBus.Type, "channel", "nats", "kafka"), "event_bus.type %q must be channel, nats or kafka", cfg.EventBus.Type)
	check(oneOf(cfg.Lock.Type, "local", "redis"), "lock.type %q must be local or redis", cfg.Lock.Type)
	check(oneOf(cfg.Logging.Level, "debug", "info", "warn", "error"), "logging.level %q must be debug, info, warn or error", cfg.Logging.Level)
	check(oneOf(cfg.Logging.Format, "json", "text"), "logging.format %q must be json or text", cfg.Logging.Format)

	if cfg.Cache.Type == "redis" || cfg.Lock.Type == "redis" {
		check(cfg.Redis.Addr != "", "redis.addr is required when cache or lock uses redis")
	}
	if cfg.EventBus.Type == "nats" {
		check(cfg.EventBus.NATSUrl != "", "event_bus.nats_url is required for the nats bus")
	}
	if cfg.EventBus.Type == "kafka" {
		check(len(cfg.EventBus.KafkaBrokers) > 0, "event_bus.kafka_brokers is required for the kafka bus")
	}

	check(cfg.IDs.NodeID >= 0 && cfg.IDs.NodeID < 1024, "ids.node_id %d must be between 0 and 1023", cfg.IDs.NodeID)

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Render returns cfg as YAML.
func Render(cfg *domain.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
