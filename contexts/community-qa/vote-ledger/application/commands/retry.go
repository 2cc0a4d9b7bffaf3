package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	domainerrors "stackit/contexts/community-qa/vote-ledger/domain/errors"
	"stackit/contexts/community-qa/vote-ledger/ports"
)

const (
	defaultMaxAttempts = 4
	defaultRetryBase   = 5 * time.Millisecond
)

// RetryPolicy bounds optimistic-concurrency retries of one ledger operation.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultRetryBase
	}
	step := base * time.Duration(attempt)
	return step + rand.N(base)
}

// runOptimistic re-runs fn while it fails with ErrVersionConflict. Any other
// error is returned as is. Exhaustion is reported as ErrContention wrapping
// the last conflict.
func runOptimistic(
	ctx context.Context,
	policy RetryPolicy,
	metrics ports.LedgerMetrics,
	operation string,
	fn func(attempt int) error,
) error {
	attempts := policy.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(attempt)
		if lastErr == nil || !errors.Is(lastErr, domainerrors.ErrVersionConflict) {
			return lastErr
		}
		if metrics != nil {
			metrics.ObserveLedgerRetry(operation)
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(policy.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w: %s gave up after %d attempts: %w", domainerrors.ErrContention, operation, attempts, lastErr)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domainerrors.ErrContention):
		return "contention"
	case errors.Is(err, domainerrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, domainerrors.ErrSelfVoteForbidden):
		return "self_vote"
	case errors.Is(err, domainerrors.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domainerrors.ErrMismatch):
		return "mismatch"
	case errors.Is(err, domainerrors.ErrInvalidRequest):
		return "invalid"
	default:
		return "error"
	}
}

func observe(metrics ports.LedgerMetrics, operation string, err error) {
	if metrics == nil {
		return
	}
	metrics.ObserveLedgerOperation(operation, outcomeLabel(err))
}

func isConflict(err error) bool {
	return errors.Is(err, domainerrors.ErrVersionConflict)
}
