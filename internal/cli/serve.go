package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-finance/adjudicator/internal/api"
	"github.com/opensource-finance/adjudicator/internal/bus"
	"github.com/opensource-finance/adjudicator/internal/cache"
	"github.com/opensource-finance/adjudicator/internal/claims"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/events"
	"github.com/opensource-finance/adjudicator/internal/fraud"
	"github.com/opensource-finance/adjudicator/internal/history"
	"github.com/opensource-finance/adjudicator/internal/ids"
	"github.com/opensource-finance/adjudicator/internal/lock"
	"github.com/opensource-finance/adjudicator/internal/logging"
	"github.com/opensource-finance/adjudicator/internal/metrics"
	"github.com/opensource-finance/adjudicator/internal/policy"
	"github.com/opensource-finance/adjudicator/internal/repository"
	"github.com/opensource-finance/adjudicator/internal/request"
	"github.com/opensource-finance/adjudicator/internal/underwriting"
	"github.com/opensource-finance/adjudicator/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

func newServeCommand(info BuildInfo, load func() (*domain.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and intake worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, info, cmd.OutOrStdout())
		},
	}
}

// app holds the wired components and what must be closed on exit.
type app struct {
	server  *api.Server
	worker  *worker.Worker
	closers []io.Closer
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Error("failed to close component", "error", err)
		}
	}
}

func serve(ctx context.Context, cfg *domain.Config, info BuildInfo, out io.Writer) error {
	logger := logging.New(cfg.Logging, out)
	slog.SetDefault(logger)

	slog.Info("starting adjudicator",
		"version", info.Version,
		"commit", info.Commit,
		"build_date", info.BuildDate,
	)
	slog.Info("configuration loaded",
		"profile", cfg.Profile,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"lock", cfg.Lock.Type,
	)

	a, err := build(cfg, info)
	if err != nil {
		return err
	}
	defer a.close()

	if a.worker != nil {
		if err := a.worker.Start(); err != nil {
			return fmt.Errorf("failed to start intake worker: %w", err)
		}
		slog.Info("intake worker started", "topic", domain.TopicClaimIntake)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("adjudicator is ready", "addr", a.server.Addr())
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		if a.worker != nil {
			if err := a.worker.Stop(); err != nil {
				slog.Error("failed to stop intake worker", "error", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("adjudicator stopped")
	return nil
}

// build wires every component from cfg. On error, anything already opened
// is closed.
func build(cfg *domain.Config, info BuildInfo) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	numbers, err := ids.NewGenerator(cfg.IDs.NodeID)
	if err != nil {
		return nil, err
	}

	repo, err := repository.New(cfg.Repository, numbers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}
	a.closers = append(a.closers, repo)
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	var redisClient *redis.Client
	if cfg.Cache.Type == "redis" || cfg.Lock.Type == "redis" {
		if redisClient, err = cache.NewRedisClient(cfg.Redis); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, redisClient)
	}

	store, err := cache.New(cfg.Cache, redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.closers = append(a.closers, store)
	slog.Info("cache initialized", "type", cfg.Cache.Type, "two_phase", cfg.Cache.EnableTwoPhase)

	// Settled counts skip the local tier: an invalidation on one replica
	// cannot reach another replica's memory.
	countStore := store
	if redisClient != nil && cfg.Cache.Type == "redis" {
		countStore = cache.NewRedisCache(redisClient)
	}

	locker, err := lock.New(cfg.Lock, redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize locker: %w", err)
	}

	eventBus, err := bus.New(cfg.EventBus)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	a.closers = append(a.closers, eventBus)
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		gatherer = reg
	}

	source := cfg.Tracing.ServiceName
	if source == "" {
		source = events.DefaultSource
	}
	publisher := events.NewPublisher(eventBus, m, source, domain.SystemClock)

	scorer, err := fraud.NewScorer()
	if err != nil {
		return nil, fmt.Errorf("failed to compile fraud signals: %w", err)
	}
	slog.Info("fraud scorer initialized", "signals", len(scorer.Signals()))

	claimsSvc := claims.NewService(repo, scorer,
		history.NewService(repo, countStore, cfg.Cache.SettledCountTTL),
		claims.WithPublisher(publisher),
		claims.WithLocker(locker),
		claims.WithMetrics(m),
	)
	underwritingSvc := underwriting.NewService(repo, underwriting.NewEngine(nil), publisher, m)
	policySvc := policy.NewService(repo, store, cfg.Cache.PolicyTTL, publisher, m)
	validator := request.NewValidator(domain.SystemClock)

	a.server = api.NewServer(cfg.Server, cfg.Metrics, api.Dependencies{
		Claims:       claimsSvc,
		Underwriting: underwritingSvc,
		Policies:     policySvc,
		Validator:    validator,
		Repo:         repo,
		Cache:        store,
		Bus:          eventBus,
		Metrics:      m,
		Gatherer:     gatherer,
		Version:      info.Version,
	})

	if cfg.Worker.Enabled {
		a.worker = worker.NewWorker(eventBus, claimsSvc, validator, m)
	}

	return a, nil
}
