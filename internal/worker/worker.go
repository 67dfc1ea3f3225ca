// Package worker files claims submitted asynchronously on the event bus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/adjudicator/internal/claims"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/metrics"
	"github.com/opensource-finance/adjudicator/internal/request"
)

// Filer files a validated claim.
type Filer interface {
	File(ctx context.Context, req claims.FileRequest) (*domain.Claim, error)
}

// Worker consumes the claim intake topic and files each submission.
type Worker struct {
	bus       domain.EventBus
	filer     Filer
	validator *request.Validator
	metrics   *metrics.Metrics

	mu            sync.Mutex
	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new intake worker.
func NewWorker(bus domain.EventBus, filer Filer, v *request.Validator, m *metrics.Metrics) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:       bus,
		filer:     filer,
		validator: v,
		metrics:   m,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start subscribes to the intake topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicClaimIntake, w.handleIntake)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.subscriptions = append(w.subscriptions, sub)
	w.mu.Unlock()

	slog.Info("intake worker started", "topic", domain.TopicClaimIntake)
	return nil
}

// handleIntake files one submitted claim. Payloads that can never be filed are
// dropped so the bus does not redeliver them.
func (w *Worker) handleIntake(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var req request.FileClaim
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("dropping malformed intake message",
			"message_id", msg.ID,
			"error", err,
		)
		w.metrics.RecordIntake(metrics.OutcomeValidation)
		return nil
	}

	if err := w.validator.Struct(req); err != nil {
		slog.Error("dropping invalid intake message",
			"message_id", msg.ID,
			"error", err,
		)
		w.metrics.RecordIntake(metrics.OutcomeValidation)
		return nil
	}

	claim, err := w.filer.File(ctx, req.ToService())
	w.metrics.RecordIntake(metrics.OutcomeFor(err))
	if err != nil {
		slog.Error("failed to file intake claim",
			"message_id", msg.ID,
			"customer_id", req.CustomerID,
			"error", err,
		)
		return err
	}

	slog.Info("intake claim filed",
		"message_id", msg.ID,
		"claim_id", claim.ID,
		"claim_number", claim.ClaimNumber,
		"status", claim.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("intake worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
