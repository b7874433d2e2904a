package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// quotaResetLocation is the upstream provider's quota day boundary.
var quotaResetLocation = mustLoadLocation("America/Los_Angeles")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type QuotaTrackerConfig struct {
	DailyLimit int
	MinReserve int
	// PaceEvery is the minimum gap between paced discovery calls. Zero
	// disables pacing.
	PaceEvery time.Duration
}

// QuotaTracker accounts the shared daily unit budget across every video
// provider call. It also owns the discovery pacer so pacing is a property of
// the budget, not of individual call sites.
type QuotaTracker struct {
	mu         sync.Mutex
	limit      int
	used       int
	minReserve int
	resetAt    time.Time
	pacer      *rate.Limiter

	now func() time.Time
}

type QuotaSnapshot struct {
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

func NewQuotaTracker(cfg QuotaTrackerConfig) *QuotaTracker {
	pacer := rate.NewLimiter(rate.Inf, 1)
	if cfg.PaceEvery > 0 {
		pacer = rate.NewLimiter(rate.Every(cfg.PaceEvery), 1)
	}

	t := &QuotaTracker{
		limit:      cfg.DailyLimit,
		minReserve: cfg.MinReserve,
		pacer:      pacer,
		now:        time.Now,
	}
	t.resetAt = nextQuotaReset(t.now())
	return t
}

// nextQuotaReset returns the first provider-day boundary after ts.
func nextQuotaReset(ts time.Time) time.Time {
	local := ts.In(quotaResetLocation)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, quotaResetLocation)
	return midnight.AddDate(0, 0, 1)
}

// maybeReset zeroes spend once the provider day rolls over. Callers hold mu.
func (t *QuotaTracker) maybeReset() {
	now := t.now()
	if now.Before(t.resetAt) {
		return
	}
	t.used = 0
	t.resetAt = nextQuotaReset(now)
}

// Spend records units already charged upstream. Spend never rejects: the
// provider has billed the call by the time we hear about it, so the tracker
// mirrors reality even past the limit.
func (t *QuotaTracker) Spend(units int) {
	if units <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybeReset()
	t.used += units
}

func (t *QuotaTracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybeReset()
	return t.remainingLocked()
}

func (t *QuotaTracker) remainingLocked() int {
	remaining := t.limit - t.used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasReserve reports whether the budget still clears the configured floor.
// Discovery jobs skip their run when this is false.
func (t *QuotaTracker) HasReserve() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybeReset()
	return t.remainingLocked() >= t.minReserve
}

// SafeBatchSize returns how many items a batch may process without dipping
// below buffer, given a worst-case per-item unit cost, capped at maxBatch.
func (t *QuotaTracker) SafeBatchSize(unitCost, buffer, maxBatch int) int {
	if unitCost <= 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybeReset()

	size := (t.remainingLocked() - buffer) / unitCost
	if size < 0 {
		return 0
	}
	if size > maxBatch {
		return maxBatch
	}
	return size
}

func (t *QuotaTracker) Snapshot() QuotaSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybeReset()
	return QuotaSnapshot{
		Limit:     t.limit,
		Used:      t.used,
		Remaining: t.remainingLocked(),
		ResetAt:   t.resetAt,
	}
}

// Pace blocks until the discovery pacer admits the next call.
func (t *QuotaTracker) Pace(ctx context.Context) error {
	return t.pacer.Wait(ctx)
}
