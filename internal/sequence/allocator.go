package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrExhausted is returned when the allocator cannot find a free ticket
// number within its retry limit. Callers treat it as a technical failure.
var ErrExhausted = errors.New("ticket number allocation retries exhausted")

// DefaultMaxRetries bounds the collision retry loop.
const DefaultMaxRetries = 10

// CounterStore is the key/value persistence for the allocation counter.
// Get reports ok=false when no counter has been persisted yet.
type CounterStore interface {
	Get(ctx context.Context) (value int64, ok bool, err error)
	Set(ctx context.Context, value int64) error
}

// NumberIndex exposes the existing ticket numbers for reconciliation. The
// full scan is bounded by current ticket volume, which is acceptable since
// allocation is not a hot path.
type NumberIndex interface {
	ListNumbers(ctx context.Context) ([]string, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}

// Allocator issues unique, never-reused, human-readable ticket numbers of
// the form PREFIX-YEAR-NNNNNN. It tolerates concurrent allocations without
// a lock: candidates derive from max(persisted counter, observed maximum),
// a final existence probe catches races, and a bounded retry loop resolves
// the remainder.
type Allocator struct {
	counter    CounterStore
	index      NumberIndex
	logger     *zap.Logger
	prefix     string
	maxRetries int
	now        func() time.Time
}

// New builds an Allocator. prefix defaults to "TKT" and maxRetries to
// DefaultMaxRetries when zero values are given.
func New(counter CounterStore, index NumberIndex, prefix string, maxRetries int, logger *zap.Logger) *Allocator {
	if prefix == "" {
		prefix = "TKT"
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Allocator{
		counter:    counter,
		index:      index,
		logger:     logger,
		prefix:     prefix,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Allocate returns the next free ticket number and persists the counter.
// When the counter store is unreachable the allocator falls back to the
// reconciliation scan alone, trading strict monotonicity across restarts
// for availability.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	maxSeen, err := a.maxObserved(ctx)
	if err != nil {
		return "", fmt.Errorf("scan ticket numbers: %w", err)
	}

	persistCounter := true
	counter, ok, err := a.counter.Get(ctx)
	if err != nil {
		a.logger.Warn("counter store unreachable; allocating from scan only", zap.Error(err))
		counter, ok = 0, false
		persistCounter = false
	}

	next := maxSeen + 1
	if ok {
		if counter < maxSeen {
			a.logger.Warn("sequence counter behind observed maximum; self-correcting",
				zap.Int64("counter", counter),
				zap.Int64("observed_max", maxSeen))
		}
		if counter >= maxSeen {
			next = counter + 1
		}
	}

	year := a.now().Year()
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		candidate := next + int64(attempt)
		number := Format(a.prefix, year, candidate)
		exists, err := a.index.NumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("probe ticket number %s: %w", number, err)
		}
		if !exists {
			if persistCounter {
				if err := a.counter.Set(ctx, candidate); err != nil {
					a.logger.Warn("failed to persist sequence counter", zap.Error(err))
				}
			}
			return number, nil
		}
		a.logger.Warn("ticket number collision; retrying", zap.String("number", number))
	}
	return "", ErrExhausted
}

// maxObserved scans all existing ticket numbers and returns the highest
// numeric suffix; numbers not matching the fixed format are skipped.
func (a *Allocator) maxObserved(ctx context.Context) (int64, error) {
	numbers, err := a.index.ListNumbers(ctx)
	if err != nil {
		return 0, err
	}
	var max int64
	for _, number := range numbers {
		suffix, ok := a.suffixOf(number)
		if ok && suffix > max {
			max = suffix
		}
	}
	return max, nil
}

// Format renders the external number contract: PREFIX-YYYY-NNNNNN.
func Format(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, n)
}

// suffixOf extracts the numeric suffix from a number in this allocator's
// format, regardless of year.
func (a *Allocator) suffixOf(number string) (int64, bool) {
	rest, found := strings.CutPrefix(number, a.prefix+"-")
	if !found {
		return 0, false
	}
	parts := strings.Split(rest, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 6 {
		return 0, false
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return 0, false
	}
	suffix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return suffix, true
}
