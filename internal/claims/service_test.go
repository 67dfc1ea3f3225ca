package claims

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-finance/adjudicator/internal/cache"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/fraud"
	"github.com/opensource-finance/adjudicator/internal/history"
	"github.com/opensource-finance/adjudicator/internal/lock"
	"github.com/opensource-finance/adjudicator/internal/repository"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type counterNumbers struct{ n atomic.Int64 }

func (c *counterNumbers) Next(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, c.n.Add(1))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.EventType
}

func (p *recordingPublisher) PublishClaim(ctx context.Context, eventType domain.EventType, c *domain.Claim) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

type fixture struct {
	svc    *Service
	repo   *repository.SQLRepository
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "claims.db"),
	}, &counterNumbers{})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	scorer, err := fraud.NewScorer()
	if err != nil {
		t.Fatalf("failed to create scorer: %v", err)
	}

	hist := history.NewService(repo, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	events := &recordingPublisher{}

	svc := NewService(repo, scorer, hist,
		WithClock(fixedClock),
		WithPublisher(events),
		WithLocker(lock.NewLocalLocker()),
	)
	return &fixture{svc: svc, repo: repo, events: events}
}

func cleanRequest(customerID int64) FileRequest {
	return FileRequest{
		PolicyID:            1,
		CustomerID:          customerID,
		ClaimType:           domain.ClaimAccident,
		ClaimAmount:         decimal.RequireFromString("5000.00"),
		IncidentDate:        testNow.AddDate(0, 0, -10),
		IncidentDescription: "Rear-ended at a traffic light on the way to work",
		IncidentLocation:    "Porto",
	}
}

func (f *fixture) file(t *testing.T, req FileRequest) *domain.Claim {
	t.Helper()
	c, err := f.svc.File(context.Background(), req)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	return c
}

func TestFile(t *testing.T) {
	f := newFixture(t)

	t.Run("CleanClaimGoesToReview", func(t *testing.T) {
		c := f.file(t, cleanRequest(1))

		if c.FraudScore != 0 || c.FraudRiskLevel != domain.FraudLow {
			t.Errorf("expected 0/LOW, got %v/%s", c.FraudScore, c.FraudRiskLevel)
		}
		if c.Status != domain.ClaimUnderReview {
			t.Errorf("expected UNDER_REVIEW, got %s", c.Status)
		}
		if !c.FiledDate.Equal(domain.DateOf(testNow)) {
			t.Errorf("expected filed date %v, got %v", domain.DateOf(testNow), c.FiledDate)
		}
		if c.ClaimNumber == "" {
			t.Error("expected claim number")
		}
	})

	t.Run("HighTierGoesToInvestigation", func(t *testing.T) {
		req := cleanRequest(2)
		req.ClaimAmount = decimal.RequireFromString("150000.00")
		req.IncidentDate = testNow.AddDate(0, 0, -200)
		req.IncidentDescription = "stolen"
		req.IncidentLocation = " "

		c := f.file(t, req)
		// 0.20 + 0.15 + 0.10 + 0.05
		if c.FraudRiskLevel != domain.FraudHigh {
			t.Errorf("expected HIGH, got %s (%v)", c.FraudRiskLevel, c.FraudScore)
		}
		if c.Status != domain.ClaimInvestigating {
			t.Errorf("expected INVESTIGATING, got %s", c.Status)
		}
	})

	t.Run("ExplicitFiledDate", func(t *testing.T) {
		req := cleanRequest(3)
		filed := testNow.AddDate(0, 0, 100)
		req.FiledDate = &filed

		c := f.file(t, req)
		if !c.FiledDate.Equal(domain.DateOf(filed)) {
			t.Errorf("expected filed date %v, got %v", filed, c.FiledDate)
		}
		// Filed 110 days after the incident.
		if c.FraudScore != 0.08 {
			t.Errorf("expected late-filing contribution 0.08, got %v", c.FraudScore)
		}
	})

	if f.events.events[0] != domain.EventClaimFiled {
		t.Errorf("expected CLAIM_FILED, got %v", f.events.events)
	}
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		c := f.file(t, cleanRequest(1))
		adjuster := int64(9)

		got, err := f.svc.Approve(ctx, c.ID, ApproveRequest{
			ApprovedAmount: decimal.RequireFromString("4500.00"),
			Notes:          "partial",
			AdjusterID:     &adjuster,
		})
		if err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
		if got.Status != domain.ClaimApproved {
			t.Errorf("expected APPROVED, got %s", got.Status)
		}
		if !got.ApprovedAmount.Valid || got.ApprovedAmount.Decimal.StringFixed(2) != "4500.00" {
			t.Errorf("unexpected approved amount %v", got.ApprovedAmount)
		}
		if got.AssessmentDate == nil || !got.AssessmentDate.Equal(domain.DateOf(testNow)) {
			t.Errorf("unexpected assessment date %v", got.AssessmentDate)
		}
		if got.AdjusterNotes != "partial" || got.AssignedAdjusterID == nil || *got.AssignedAdjusterID != adjuster {
			t.Errorf("unexpected adjuster fields: %q %v", got.AdjusterNotes, got.AssignedAdjusterID)
		}
	})

	t.Run("EqualToClaimAmount", func(t *testing.T) {
		c := f.file(t, cleanRequest(1))
		_, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.RequireFromString("5000")})
		if err != nil {
			t.Errorf("approving the full amount must succeed, got %v", err)
		}
	})

	t.Run("AmountAboveClaim", func(t *testing.T) {
		c := f.file(t, cleanRequest(1))
		_, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.RequireFromString("6000.00")})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}

		stored, _ := f.svc.Get(ctx, c.ID)
		if stored.Status != domain.ClaimUnderReview || stored.ApprovedAmount.Valid {
			t.Errorf("claim must be unmodified, got %s %v", stored.Status, stored.ApprovedAmount)
		}
	})

	t.Run("FromInvestigating", func(t *testing.T) {
		req := cleanRequest(2)
		req.ClaimAmount = decimal.RequireFromString("150000.00")
		req.IncidentDate = testNow.AddDate(0, 0, -200)
		req.IncidentDescription = "short"
		req.IncidentLocation = ""
		c := f.file(t, req)
		if c.Status != domain.ClaimInvestigating {
			t.Fatalf("expected INVESTIGATING, got %s", c.Status)
		}

		if _, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(100)}); err != nil {
			t.Errorf("approve from INVESTIGATING must succeed, got %v", err)
		}
	})

	t.Run("AlreadyApproved", func(t *testing.T) {
		c := f.file(t, cleanRequest(1))
		if _, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(10)}); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}

		_, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(20)})
		var serr *domain.StateError
		if !errors.As(err, &serr) || serr.Status != string(domain.ClaimApproved) {
			t.Errorf("expected StateError in APPROVED, got %v", err)
		}
	})

	t.Run("AlreadySettled", func(t *testing.T) {
		c := f.file(t, cleanRequest(1))
		if _, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(10)}); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
		if _, err := f.svc.Settle(ctx, c.ID); err != nil {
			t.Fatalf("Settle failed: %v", err)
		}

		_, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(10)})
		if !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := f.svc.Approve(ctx, 424242, ApproveRequest{ApprovedAmount: decimal.NewFromInt(1)})
		if !errors.Is(err, domain.ErrClaimNotFound) {
			t.Errorf("expected ErrClaimNotFound, got %v", err)
		}
	})
}

func TestSettle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("OnlyFromApproved", func(t *testing.T) {
		c := f.file(t, cleanRequest(1))

		_, err := f.svc.Settle(ctx, c.ID)
		var serr *domain.StateError
		if !errors.As(err, &serr) || serr.Status != string(domain.ClaimUnderReview) {
			t.Fatalf("expected StateError in UNDER_REVIEW, got %v", err)
		}

		if _, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(100)}); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
		got, err := f.svc.Settle(ctx, c.ID)
		if err != nil {
			t.Fatalf("Settle failed: %v", err)
		}
		if got.Status != domain.ClaimSettled {
			t.Errorf("expected SETTLED, got %s", got.Status)
		}
		if got.SettlementDate == nil || !got.SettlementDate.Equal(domain.DateOf(testNow)) {
			t.Errorf("unexpected settlement date %v", got.SettlementDate)
		}

		if _, err := f.svc.Settle(ctx, c.ID); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("expected second settle to fail, got %v", err)
		}
	})

	t.Run("SettledHistoryFeedsScoring", func(t *testing.T) {
		const customer = 77

		// Prime the cached count at zero.
		first := f.file(t, cleanRequest(customer))
		if first.FraudScore != 0 {
			t.Fatalf("expected clean first claim, got %v", first.FraudScore)
		}

		for i := 0; i < 2; i++ {
			c := f.file(t, cleanRequest(customer))
			if _, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(1)}); err != nil {
				t.Fatalf("Approve failed: %v", err)
			}
			if _, err := f.svc.Settle(ctx, c.ID); err != nil {
				t.Fatalf("Settle failed: %v", err)
			}
		}

		next := f.file(t, cleanRequest(customer))
		if next.FraudScore != 0.15 {
			t.Errorf("expected frequency contribution 0.15 after 2 settlements, got %v", next.FraudScore)
		}
	})
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Drive a claim into each reachable status, then reject it.
	setups := map[domain.ClaimStatus]func(t *testing.T) *domain.Claim{
		domain.ClaimUnderReview: func(t *testing.T) *domain.Claim {
			return f.file(t, cleanRequest(1))
		},
		domain.ClaimApproved: func(t *testing.T) *domain.Claim {
			c := f.file(t, cleanRequest(1))
			c, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(1)})
			if err != nil {
				t.Fatalf("Approve failed: %v", err)
			}
			return c
		},
		domain.ClaimSettled: func(t *testing.T) *domain.Claim {
			c := f.file(t, cleanRequest(1))
			if _, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(1)}); err != nil {
				t.Fatalf("Approve failed: %v", err)
			}
			c, err := f.svc.Settle(ctx, c.ID)
			if err != nil {
				t.Fatalf("Settle failed: %v", err)
			}
			return c
		},
		domain.ClaimRejected: func(t *testing.T) *domain.Claim {
			c := f.file(t, cleanRequest(1))
			c, err := f.svc.Reject(ctx, c.ID, "first")
			if err != nil {
				t.Fatalf("Reject failed: %v", err)
			}
			return c
		},
	}

	for status, setup := range setups {
		t.Run(string(status), func(t *testing.T) {
			c := setup(t)
			if c.Status != status {
				t.Fatalf("setup produced %s, want %s", c.Status, status)
			}

			got, err := f.svc.Reject(ctx, c.ID, "documents forged")
			if err != nil {
				t.Fatalf("Reject from %s failed: %v", status, err)
			}
			if got.Status != domain.ClaimRejected || got.RejectionReason != "documents forged" {
				t.Errorf("unexpected rejected claim: %s %q", got.Status, got.RejectionReason)
			}
			if got.AssessmentDate == nil {
				t.Error("expected assessment date")
			}
		})
	}
}

func TestConcurrentApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.file(t, cleanRequest(1))

	const callers = 6
	var wg sync.WaitGroup
	var ok, refused atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Approve(ctx, c.ID, ApproveRequest{ApprovedAmount: decimal.NewFromInt(100)})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInvalidState):
				refused.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 || refused.Load() != callers-1 {
		t.Errorf("expected exactly one approval, got %d ok and %d refused", ok.Load(), refused.Load())
	}
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.file(t, cleanRequest(5))

	if got, err := f.svc.GetByNumber(ctx, c.ClaimNumber); err != nil || got.ID != c.ID {
		t.Errorf("GetByNumber: %v %v", got, err)
	}
	if list, err := f.svc.ListByCustomer(ctx, 5); err != nil || len(list) != 1 {
		t.Errorf("ListByCustomer: %d %v", len(list), err)
	}
	if list, err := f.svc.ListByPolicy(ctx, 1); err != nil || len(list) != 1 {
		t.Errorf("ListByPolicy: %d %v", len(list), err)
	}
	if list, err := f.svc.ListByStatus(ctx, domain.ClaimUnderReview); err != nil || len(list) != 1 {
		t.Errorf("ListByStatus: %d %v", len(list), err)
	}
	if _, err := f.svc.ListByStatus(ctx, "PENDING"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}
