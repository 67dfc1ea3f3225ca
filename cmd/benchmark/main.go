// Benchmark tool for load testing the adjudicator claim filing path.
//
// Usage:
//
//	go run ./cmd/benchmark -url http://localhost:8080 -claims 5000 -workers 20
//
// This tool:
//  1. Generates a reproducible mix of synthetic claims
//  2. Files each claim through POST /api/claims
//  3. Scores the same facts locally and compares the tier the server assigned
//  4. Reports tier distribution, routing, agreement and latency percentiles
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/fraud"
	"github.com/opensource-finance/adjudicator/internal/request"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// SyntheticClaim is one generated filing and the tier expected for it.
type SyntheticClaim struct {
	Body     request.FileClaim
	Expected domain.FraudRiskLevel
}

// Results tracks benchmark outcomes. Guarded by mu.
type Results struct {
	mu sync.Mutex

	Filed     int
	Errors    int
	Agreed    int
	Disagreed int

	ByTier   map[domain.FraudRiskLevel]int
	ByStatus map[domain.ClaimStatus]int

	Latencies []time.Duration
}

func newResults() *Results {
	return &Results{
		ByTier:   make(map[domain.FraudRiskLevel]int),
		ByStatus: make(map[domain.ClaimStatus]int),
	}
}

func (r *Results) record(sc SyntheticClaim, claim *domain.Claim, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Latencies = append(r.Latencies, elapsed)
	if err != nil {
		r.Errors++
		return
	}

	r.Filed++
	r.ByTier[claim.FraudRiskLevel]++
	r.ByStatus[claim.Status]++
	if claim.FraudRiskLevel == sc.Expected {
		r.Agreed++
	} else {
		r.Disagreed++
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Adjudicator base URL")
	count := flag.Int("claims", 1000, "Number of claims to file")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	rps := flag.Float64("rate", 0, "Maximum requests per second (0 = unlimited)")
	seed := flag.Int64("seed", 1, "Random seed for the claim mix")
	verbose := flag.Bool("verbose", false, "Print each claim result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║            ADJUDICATOR BENCHMARK - Claim Filing               ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nURL:      %s\n", *baseURL)
	fmt.Printf("Claims:   %d\n", *count)
	fmt.Printf("Workers:  %d\n", *workers)
	fmt.Printf("Rate:     %.0f/s\n", *rps)
	fmt.Printf("Seed:     %d\n", *seed)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: adjudicator not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure the service is running:")
		fmt.Println("  go run ./cmd/adjudicator serve")
		os.Exit(1)
	}
	fmt.Println("✓ Adjudicator is healthy")

	scorer, err := fraud.NewScorer()
	if err != nil {
		fmt.Printf("ERROR: failed to build scorer: %v\n", err)
		os.Exit(1)
	}

	claims, err := generateClaims(scorer, rand.New(rand.NewSource(*seed)), *count, domain.SystemClock())
	if err != nil {
		fmt.Printf("ERROR: failed to generate claims: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Generated %d claims\n", len(claims))

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	start := time.Now()
	results := runBenchmark(context.Background(), claims, *baseURL, *workers, *rps, *verbose)
	printResults(results, time.Since(start))
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

var claimTypes = []domain.ClaimType{
	domain.ClaimMedical, domain.ClaimAccident, domain.ClaimPropertyDamage,
	domain.ClaimTheft, domain.ClaimLiability, domain.ClaimOther,
}

var amountBuckets = []int64{800, 4500, 12000, 35000, 60000, 95000, 140000}

// generateClaims builds n claims for fresh customers, so prior settlements are zero.
func generateClaims(scorer *fraud.Scorer, rng *rand.Rand, n int, now time.Time) ([]SyntheticClaim, error) {
	today := domain.DateOf(now)
	customerBase := now.Unix()

	claims := make([]SyntheticClaim, 0, n)
	for i := 0; i < n; i++ {
		amount := decimal.NewFromInt(amountBuckets[rng.Intn(len(amountBuckets))]).
			Add(decimal.NewFromInt(int64(rng.Intn(10000))).Div(decimal.NewFromInt(100)))

		var daysAgo int
		switch r := rng.Float64(); {
		case r < 0.75:
			daysAgo = rng.Intn(60)
		case r < 0.90:
			daysAgo = 91 + rng.Intn(89)
		default:
			daysAgo = 181 + rng.Intn(180)
		}
		incident := today.AddDate(0, 0, -daysAgo)

		description := "Water leak from the upstairs bathroom damaged the kitchen ceiling"
		if rng.Float64() < 0.2 {
			description = "Lost item"
		}
		location := "Lisbon"
		if rng.Float64() < 0.1 {
			location = ""
		}

		assessment, err := scorer.Score(fraud.Facts{
			ClaimAmount:         amount,
			IncidentDate:        incident,
			FiledDate:           today,
			IncidentLocation:    location,
			IncidentDescription: description,
		})
		if err != nil {
			return nil, err
		}

		claims = append(claims, SyntheticClaim{
			Body: request.FileClaim{
				PolicyID:            int64(1 + rng.Intn(500)),
				CustomerID:          customerBase + int64(i),
				ClaimType:           claimTypes[rng.Intn(len(claimTypes))],
				ClaimAmount:         amount,
				IncidentDate:        request.NewDate(incident),
				IncidentDescription: description,
				IncidentLocation:    location,
			},
			Expected: assessment.Level,
		})
	}
	return claims, nil
}

func runBenchmark(ctx context.Context, claims []SyntheticClaim, baseURL string, workers int, rps float64, verbose bool) *Results {
	results := newResults()
	client := &http.Client{Timeout: 10 * time.Second}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	limiter := rate.NewLimiter(limit, max(workers, 1))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, sc := range claims {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		g.Go(func() error {
			start := time.Now()
			claim, err := fileClaim(ctx, client, baseURL, sc.Body)
			results.record(sc, claim, time.Since(start), err)

			if verbose {
				if err != nil {
					fmt.Printf("ERROR: customer %d -> %v\n", sc.Body.CustomerID, err)
				} else {
					mark := "✓"
					if claim.FraudRiskLevel != sc.Expected {
						mark = "✗"
					}
					fmt.Printf("%s %-22s | Amount: %12s | Score: %.2f | Tier: %-8s | Expected: %-8s | %s\n",
						mark, claim.ClaimNumber, claim.ClaimAmount.StringFixed(2),
						claim.FraudScore, claim.FraudRiskLevel, sc.Expected, claim.Status)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func fileClaim(ctx context.Context, client *http.Client, baseURL string, body request.FileClaim) (*domain.Claim, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/claims", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var claim domain.Claim
	if err := json.NewDecoder(resp.Body).Decode(&claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// percentile returns the p-th percentile of sorted latencies.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func printResults(r *Results, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 FILINGS\n")
	fmt.Printf("   Filed:   %d\n", r.Filed)
	fmt.Printf("   Errors:  %d\n", r.Errors)

	fmt.Printf("\n🎯 FRAUD TIERS\n")
	for _, level := range domain.FraudRiskLevels {
		n := r.ByTier[level]
		share := 0.0
		if r.Filed > 0 {
			share = 100 * float64(n) / float64(r.Filed)
		}
		fmt.Printf("   %-9s %8d  (%5.2f%%)  %s\n", level, n, share, strings.Repeat("█", int(share/2)))
	}

	fmt.Printf("\n🔀 ROUTING\n")
	fmt.Printf("   Under review:   %d\n", r.ByStatus[domain.ClaimUnderReview])
	fmt.Printf("   Investigating:  %d\n", r.ByStatus[domain.ClaimInvestigating])

	fmt.Printf("\n🔍 AGREEMENT WITH LOCAL SCORER\n")
	fmt.Printf("   Agreed:     %d\n", r.Agreed)
	fmt.Printf("   Disagreed:  %d\n", r.Disagreed)
	if r.Disagreed > 0 {
		fmt.Println("   ⚠️  Tier mismatches usually mean the customer already had settled claims")
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:  %v\n", duration.Round(time.Millisecond))
	if n := len(r.Latencies); n > 0 {
		sorted := slices.Clone(r.Latencies)
		slices.Sort(sorted)

		var total time.Duration
		for _, d := range sorted {
			total += d
		}
		fmt.Printf("   Avg Latency:     %v\n", (total / time.Duration(n)).Round(time.Microsecond))
		fmt.Printf("   p50:             %v\n", percentile(sorted, 0.50).Round(time.Microsecond))
		fmt.Printf("   p95:             %v\n", percentile(sorted, 0.95).Round(time.Microsecond))
		fmt.Printf("   p99:             %v\n", percentile(sorted, 0.99).Round(time.Microsecond))
		fmt.Printf("   Throughput:      %.2f claims/sec\n", float64(n)/duration.Seconds())
	}

	fmt.Println()
}
