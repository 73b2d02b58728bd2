package breaker

import (
	"testing"
	"time"

	"github.com/olivekit/oliveapi/pkg/errors"
)

func testBreaker(threshold int, cooldown time.Duration) (*Breaker, *time.Time) {
	b := New("api.example.com", Config{Threshold: threshold, Cooldown: cooldown})
	now := time.Now()
	b.now = func() time.Time { return now }
	return b, &now
}

func TestTripAfterThreshold(t *testing.T) {
	b, _ := testBreaker(3, 10*time.Second)

	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("closed breaker should allow, attempt %d: %v", i, err)
		}
		b.Failure()
	}
	if b.State() != StateClosed {
		t.Fatalf("state after 2 failures = %s, want closed", b.State())
	}

	b.Failure() // third consecutive failure trips it
	if b.State() != StateOpen {
		t.Fatalf("state after threshold = %s, want open", b.State())
	}

	err := b.Allow()
	if err == nil {
		t.Fatal("open breaker should reject")
	}
	if !errors.Is(err, errors.ErrCodeCircuitOpen) {
		t.Errorf("rejection code = %v, want CIRCUIT_OPEN", errors.GetCode(err))
	}
}

func TestSuccessResetsCounter(t *testing.T) {
	b, _ := testBreaker(3, 10*time.Second)

	b.Failure()
	b.Failure()
	b.Success()
	if b.Failures() != 0 {
		t.Errorf("failures after success = %d, want 0", b.Failures())
	}

	// A fresh run of failures is needed to trip.
	b.Failure()
	b.Failure()
	if b.State() != StateClosed {
		t.Error("two failures after a reset should not trip a threshold of 3")
	}
}

func TestHalfOpenSingleTrial(t *testing.T) {
	b, now := testBreaker(1, 10*time.Second)

	b.Failure()
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}
	if err := b.Allow(); err == nil {
		t.Fatal("open breaker should reject within cooldown")
	}

	*now = now.Add(11 * time.Second)

	// Exactly one trial is admitted after the cooldown.
	if err := b.Allow(); err != nil {
		t.Fatalf("first call after cooldown should be admitted: %v", err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half-open", b.State())
	}
	if err := b.Allow(); err == nil {
		t.Fatal("second call during trial should be rejected")
	}
}

func TestHalfOpenSuccessCloses(t *testing.T) {
	b, now := testBreaker(1, 10*time.Second)

	b.Failure()
	*now = now.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatal(err)
	}
	b.Success()

	if b.State() != StateClosed {
		t.Errorf("state after trial success = %s, want closed", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("closed breaker should allow: %v", err)
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b, now := testBreaker(1, 10*time.Second)

	b.Failure()
	*now = now.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatal(err)
	}
	b.Failure()

	if b.State() != StateOpen {
		t.Fatalf("state after trial failure = %s, want open", b.State())
	}
	// The cooldown restarted: still rejecting shortly after.
	*now = now.Add(5 * time.Second)
	if err := b.Allow(); err == nil {
		t.Error("breaker should stay open for a fresh cooldown after a failed trial")
	}
	// And admitting again after the full fresh cooldown.
	*now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Errorf("breaker should admit a trial after the fresh cooldown: %v", err)
	}
}

func TestRegistryKeying(t *testing.T) {
	r := NewRegistry()

	cfgA := Config{Threshold: 3, Cooldown: 10 * time.Second}
	cfgB := Config{Threshold: 5, Cooldown: 10 * time.Second}

	b1 := r.Get("api.example.com", cfgA)
	b2 := r.Get("api.example.com", cfgA)
	if b1 != b2 {
		t.Error("same (host, threshold, cooldown) should share one breaker")
	}

	b3 := r.Get("api.example.com", cfgB)
	if b1 == b3 {
		t.Error("different thresholds against one host get independent breakers")
	}

	b4 := r.Get("other.example.com", cfgA)
	if b1 == b4 {
		t.Error("different hosts get independent breakers")
	}

	if r.Len() != 3 {
		t.Errorf("registry size = %d, want 3", r.Len())
	}
}

func TestRegistryIsolation(t *testing.T) {
	cfg := Config{Threshold: 1, Cooldown: time.Minute}

	r1 := NewRegistry()
	r1.Get("api.example.com", cfg).Failure()

	r2 := NewRegistry()
	if r2.Get("api.example.com", cfg).State() != StateClosed {
		t.Error("separate registries must not share breaker state")
	}
}
