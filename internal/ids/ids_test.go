package ids

import (
	"strings"
	"sync"
	"testing"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

func TestGenerator(t *testing.T) {
	g, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	var _ domain.NumberGenerator = g

	t.Run("Prefix", func(t *testing.T) {
		for _, prefix := range []string{domain.PrefixClaim, domain.PrefixPolicy, domain.PrefixCase} {
			n := g.Next(prefix)
			if !strings.HasPrefix(n, prefix+"-") {
				t.Errorf("expected %s- prefix, got %s", prefix, n)
			}
		}
	})

	t.Run("UniqueUnderConcurrency", func(t *testing.T) {
		const workers, per = 8, 500

		var mu sync.Mutex
		seen := make(map[string]bool, workers*per)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				local := make([]string, 0, per)
				for i := 0; i < per; i++ {
					local = append(local, g.Next(domain.PrefixClaim))
				}
				mu.Lock()
				defer mu.Unlock()
				for _, n := range local {
					if seen[n] {
						t.Errorf("duplicate number %s", n)
					}
					seen[n] = true
				}
			}()
		}
		wg.Wait()

		if len(seen) != workers*per {
			t.Errorf("expected %d numbers, got %d", workers*per, len(seen))
		}
	})

	t.Run("InvalidNode", func(t *testing.T) {
		if _, err := NewGenerator(4096); err == nil {
			t.Error("expected error for out-of-range node")
		}
	})
}
