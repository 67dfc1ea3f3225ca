package domain

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotObtained is returned when a record lock could not be acquired in time.
var ErrLockNotObtained = errors.New("lock not obtained")

// Locker serialises work on a single record identity.
type Locker interface {
	// Lock blocks until key is held or ctx ends. The returned func releases it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LockConfig holds configuration for record locking.
type LockConfig struct {
	// Type is the locker type: "local" or "redis"
	Type string `yaml:"type" mapstructure:"type"`

	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	RetryInterval time.Duration `yaml:"retry_interval" mapstructure:"retry_interval"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
}
