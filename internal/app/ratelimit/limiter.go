package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"videosplit/internal/app/metrics"
	"videosplit/internal/app/model"
)

// OperationClass partitions endpoints into separately-budgeted buckets.
// Heavy split submissions get materially tighter limits than generic reads.
type OperationClass string

const (
	OpSplit OperationClass = "split"
	OpAPI   OperationClass = "api"
)

// Window is the fixed counting window; also the Retry-After hint on rejection.
const Window = 60 * time.Second

// CounterStore is the shared fast counter backing the limiter. Failure is
// treated as "unavailable", never as an error to propagate.
type CounterStore interface {
	// IncrWithExpiry increments key and returns the new count, setting the
	// key to expire after window on the first increment.
	IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Requests per minute for split submissions, by plan tier.
var splitLimits = map[model.PlanTier]int{
	model.PlanFree:       5,
	model.PlanStarter:    20,
	model.PlanPro:        60,
	model.PlanEnterprise: 200,
}

// Requests per minute for general API operations, by plan tier.
var apiLimits = map[model.PlanTier]int{
	model.PlanFree:       60,
	model.PlanStarter:    300,
	model.PlanPro:        1000,
	model.PlanEnterprise: 5000,
}

// LimitFor returns the per-minute budget for a tier and operation class.
func LimitFor(tier model.PlanTier, op OperationClass) int {
	var table map[model.PlanTier]int
	switch op {
	case OpSplit:
		table = splitLimits
	default:
		table = apiLimits
	}
	if limit, ok := table[tier]; ok {
		return limit
	}
	return table[model.PlanFree]
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int
	RetryAfter time.Duration
}

// Limiter enforces fixed-window per-account request budgets. It fails open:
// when the counter store is unreachable the request is always allowed, since
// availability of the core workflow takes precedence over enforcement.
type Limiter struct {
	store   CounterStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewLimiter(store CounterStore, m *metrics.Metrics, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, metrics: m, logger: logger, now: time.Now}
}

// NewLimiterWithClock injects a clock for tests.
func NewLimiterWithClock(store CounterStore, m *metrics.Metrics, logger *slog.Logger, now func() time.Time) *Limiter {
	return &Limiter{store: store, metrics: m, logger: logger, now: now}
}

// Allow increments the account's counter for the current minute bucket and
// compares it against the tier's budget.
func (l *Limiter) Allow(ctx context.Context, account *model.Account, op OperationClass) Decision {
	limit := LimitFor(account.PlanTier, op)

	if l.store == nil {
		return Decision{Allowed: true, Count: 0, Limit: limit, RetryAfter: Window}
	}

	bucket := l.now().Unix() / int64(Window/time.Second)
	key := fmt.Sprintf("user:%d:%s:%d", account.ID, op, bucket)

	count, err := l.store.IncrWithExpiry(ctx, key, Window)
	if err != nil {
		l.logger.Warn("rate-limit counter unavailable, allowing request",
			"error", err, "account_id", account.ID, "operation", string(op))
		return Decision{Allowed: true, Count: 0, Limit: limit, RetryAfter: Window}
	}

	allowed := count <= int64(limit)
	if !allowed {
		l.metrics.RateLimitRejected.WithLabelValues(string(op)).Inc()
	}

	return Decision{
		Allowed:    allowed,
		Count:      count,
		Limit:      limit,
		RetryAfter: Window,
	}
}
