package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Profile != domain.ProfileStandard {
		t.Errorf("expected standard profile, got %s", cfg.Profile)
	}
	if cfg.Repository.Driver != "sqlite" || cfg.Cache.Type != "memory" || cfg.EventBus.Type != "channel" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected 30s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Cache.SettledCountTTL != time.Hour {
		t.Errorf("expected 1h settled count ttl, got %v", cfg.Cache.SettledCountTTL)
	}
}

func TestLoadProProfile(t *testing.T) {
	t.Setenv("ADJUDICATOR_PROFILE", "pro")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Repository.Driver != "postgres" || cfg.Cache.Type != "redis" || cfg.EventBus.Type != "nats" || cfg.Lock.Type != "redis" {
		t.Errorf("unexpected pro config: %+v", cfg)
	}
	if !cfg.Cache.EnableTwoPhase {
		t.Error("expected two-phase cache in pro profile")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adjudicator.yaml")
	content := `
server:
  port: 9090
  read_timeout: 5s
repository:
  sqlite_path: /var/lib/adjudicator/claims.db
event_bus:
  type: kafka
  kafka_brokers:
    - kafka-1:9092
    - kafka-2:9092
logging:
  format: text
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	// Unset keys keep their defaults.
	if cfg.Server.WriteTimeout != 30*time.Second || cfg.Repository.Driver != "sqlite" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Repository.SQLitePath != "/var/lib/adjudicator/claims.db" {
		t.Errorf("unexpected sqlite path %q", cfg.Repository.SQLitePath)
	}
	if len(cfg.EventBus.KafkaBrokers) != 2 {
		t.Errorf("expected 2 brokers, got %v", cfg.EventBus.KafkaBrokers)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected text logging, got %s", cfg.Logging.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ADJUDICATOR_SERVER_PORT", "7070")
	t.Setenv("ADJUDICATOR_LOCK_TTL", "2m")
	t.Setenv("ADJUDICATOR_EVENT_BUS_NATS_QUEUE", "adjudicators")
	t.Setenv("ADJUDICATOR_DEBUG", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Lock.TTL != 2*time.Minute {
		t.Errorf("expected 2m lock ttl, got %v", cfg.Lock.TTL)
	}
	if cfg.EventBus.NATSQueue != "adjudicators" {
		t.Errorf("expected queue group override, got %q", cfg.EventBus.NATSQueue)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	t.Run("DefaultsAreValid", func(t *testing.T) {
		if err := Validate(domain.DefaultConfig()); err != nil {
			t.Errorf("defaults invalid: %v", err)
		}
		if err := Validate(domain.ProConfig()); err != nil {
			t.Errorf("pro defaults invalid: %v", err)
		}
	})

	t.Run("ReportsEveryProblem", func(t *testing.T) {
		cfg := domain.DefaultConfig()
		cfg.Repository.Driver = "mysql"
		cfg.EventBus.Type = "kafka"
		cfg.IDs.NodeID = 4096

		err := Validate(cfg)
		if err == nil {
			t.Fatal("expected error")
		}
		for _, want := range []string{"repository.driver", "kafka_brokers", "ids.node_id"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("expected %q in %v", want, err)
			}
		}
	})
}

func TestRender(t *testing.T) {
	out, err := Render(domain.DefaultConfig())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(out), "driver: sqlite") {
		t.Errorf("unexpected rendering:\n%s", out)
	}
}
