package domain

import (
	"context"
	"time"
)

// ClaimRepository persists claims.
type ClaimRepository interface {
	// CreateClaim inserts c, assigning its ID, claim number, and timestamps.
	CreateClaim(ctx context.Context, c *Claim) error
	GetClaim(ctx context.Context, id int64) (*Claim, error)
	GetClaimByNumber(ctx context.Context, number string) (*Claim, error)
	ListClaimsByCustomer(ctx context.Context, customerID int64) ([]*Claim, error)
	ListClaimsByPolicy(ctx context.Context, policyID int64) ([]*Claim, error)
	ListClaimsByStatus(ctx context.Context, status ClaimStatus) ([]*Claim, error)

	// UpdateClaim runs fn against the current record as one atomic read-check-write.
	// If fn returns an error nothing is written and the error is returned unchanged.
	UpdateClaim(ctx context.Context, id int64, fn func(*Claim) error) (*Claim, error)

	// CountSettledClaims returns how many of the customer's claims are SETTLED.
	CountSettledClaims(ctx context.Context, customerID int64) (int64, error)
}

// UnderwritingRepository persists underwriting cases.
type UnderwritingRepository interface {
	CreateCase(ctx context.Context, uc *UnderwritingCase) error
	GetCase(ctx context.Context, id int64) (*UnderwritingCase, error)
	ListCasesByPolicy(ctx context.Context, policyID int64) ([]*UnderwritingCase, error)
	UpdateCase(ctx context.Context, id int64, fn func(*UnderwritingCase) error) (*UnderwritingCase, error)
}

// PolicyRepository persists policies.
type PolicyRepository interface {
	CreatePolicy(ctx context.Context, p *Policy) error
	GetPolicy(ctx context.Context, id int64) (*Policy, error)
	ListPoliciesByCustomer(ctx context.Context, customerID int64) ([]*Policy, error)
	UpdatePolicy(ctx context.Context, id int64, fn func(*Policy) error) (*Policy, error)
}

// Repository is the full persistence collaborator.
type Repository interface {
	ClaimRepository
	UnderwritingRepository
	PolicyRepository

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `yaml:"driver" mapstructure:"driver"`

	// SQLite specific
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`

	// PostgreSQL specific
	PostgresHost     string `yaml:"postgres_host" mapstructure:"postgres_host"`
	PostgresPort     int    `yaml:"postgres_port" mapstructure:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user" mapstructure:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password" mapstructure:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db" mapstructure:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode" mapstructure:"postgres_sslmode"`

	// Connection pool settings
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}
