package sequence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCounter struct {
	value  int64
	ok     bool
	getErr error
	setErr error
	sets   []int64
}

func (m *memCounter) Get(context.Context) (int64, bool, error) {
	if m.getErr != nil {
		return 0, false, m.getErr
	}
	return m.value, m.ok, nil
}

func (m *memCounter) Set(_ context.Context, value int64) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.value, m.ok = value, true
	m.sets = append(m.sets, value)
	return nil
}

type memIndex struct {
	numbers map[string]struct{}
	listErr error
}

func newMemIndex(numbers ...string) *memIndex {
	idx := &memIndex{numbers: map[string]struct{}{}}
	for _, n := range numbers {
		idx.numbers[n] = struct{}{}
	}
	return idx
}

func (m *memIndex) ListNumbers(context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]string, 0, len(m.numbers))
	for n := range m.numbers {
		out = append(out, n)
	}
	return out, nil
}

func (m *memIndex) NumberExists(_ context.Context, number string) (bool, error) {
	_, exists := m.numbers[number]
	return exists, nil
}

func fixedYear(a *Allocator, year int) {
	a.now = func() time.Time {
		return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
	}
}

func TestAllocateFirstNumber(t *testing.T) {
	counter := &memCounter{}
	alloc := New(counter, newMemIndex(), "TKT", 0, zap.NewNop())
	fixedYear(alloc, 2025)

	number, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TKT-2025-000001", number)
	assert.Equal(t, []int64{1}, counter.sets)
}

func TestAllocateContinuesFromCounter(t *testing.T) {
	counter := &memCounter{value: 41, ok: true}
	index := newMemIndex("TKT-2025-000041")
	alloc := New(counter, index, "TKT", 0, zap.NewNop())
	fixedYear(alloc, 2025)

	number, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TKT-2025-000042", number)
}

func TestAllocateCounterBehindObservedMax(t *testing.T) {
	// Counter was lost or reset; observed maximum wins and allocation
	// proceeds without error.
	counter := &memCounter{value: 3, ok: true}
	index := newMemIndex("TKT-2025-000009", "TKT-2025-000002")
	alloc := New(counter, index, "TKT", 0, zap.NewNop())
	fixedYear(alloc, 2025)

	number, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TKT-2025-000010", number)
}

func TestAllocateCounterStoreUnreachable(t *testing.T) {
	counter := &memCounter{getErr: errors.New("redis down")}
	index := newMemIndex("TKT-2025-000007")
	alloc := New(counter, index, "TKT", 0, zap.NewNop())
	fixedYear(alloc, 2025)

	number, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TKT-2025-000008", number)
	// No persist attempts once the store is known unreachable.
	assert.Empty(t, counter.sets)
}

func TestAllocatePersistFailureIsNotFatal(t *testing.T) {
	counter := &memCounter{value: 5, ok: true, setErr: errors.New("write refused")}
	alloc := New(counter, newMemIndex(), "TKT", 0, zap.NewNop())
	fixedYear(alloc, 2025)

	number, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TKT-2025-000006", number)
}

// probeOnlyIndex hides its contents from the reconciliation scan while the
// existence probe still sees them, imitating rows committed by a racing
// allocator between scan and probe.
type probeOnlyIndex struct {
	inner *memIndex
}

func (p *probeOnlyIndex) ListNumbers(context.Context) ([]string, error) {
	return nil, nil
}

func (p *probeOnlyIndex) NumberExists(ctx context.Context, number string) (bool, error) {
	return p.inner.NumberExists(ctx, number)
}

func TestAllocateRetriesOnCollision(t *testing.T) {
	counter := &memCounter{}
	index := newMemIndex("TKT-2025-000001", "TKT-2025-000002")
	alloc := New(counter, &probeOnlyIndex{inner: index}, "TKT", 0, zap.NewNop())
	fixedYear(alloc, 2025)

	number, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TKT-2025-000003", number)
	// Only the candidate that survived the existence probe is persisted;
	// colliding candidates never reach the counter store.
	assert.Equal(t, []int64{3}, counter.sets)
}

func TestAllocateExhaustsRetries(t *testing.T) {
	counter := &memCounter{}
	index := newMemIndex()
	for i := 1; i <= 30; i++ {
		index.numbers[fmt.Sprintf("TKT-2025-%06d", i)] = struct{}{}
	}
	alloc := New(counter, &probeOnlyIndex{inner: index}, "TKT", 3, zap.NewNop())
	fixedYear(alloc, 2025)

	_, err := alloc.Allocate(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Empty(t, counter.sets)
}

func TestAllocateScanFailureFails(t *testing.T) {
	index := newMemIndex()
	index.listErr = errors.New("db down")
	alloc := New(&memCounter{}, index, "TKT", 0, zap.NewNop())

	_, err := alloc.Allocate(context.Background())
	assert.Error(t, err)
}

func TestAllocateUniqueAcrossSequentialCalls(t *testing.T) {
	counter := &memCounter{}
	index := newMemIndex()
	alloc := New(counter, index, "TKT", 0, zap.NewNop())
	fixedYear(alloc, 2025)

	seen := map[string]struct{}{}
	for i := 0; i < 25; i++ {
		number, err := alloc.Allocate(context.Background())
		require.NoError(t, err)
		_, dup := seen[number]
		require.False(t, dup, "duplicate number %s", number)
		seen[number] = struct{}{}
		index.numbers[number] = struct{}{}
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "TKT-2025-000042", Format("TKT", 2025, 42))
	assert.Equal(t, "REQ-2026-001000", Format("REQ", 2026, 1000))
}

func TestSuffixOf(t *testing.T) {
	alloc := New(&memCounter{}, newMemIndex(), "TKT", 0, zap.NewNop())

	suffix, ok := alloc.suffixOf("TKT-2025-000042")
	require.True(t, ok)
	assert.Equal(t, int64(42), suffix)

	_, ok = alloc.suffixOf("OTHER-2025-000042")
	assert.False(t, ok)
	_, ok = alloc.suffixOf("TKT-25-000042")
	assert.False(t, ok)
	_, ok = alloc.suffixOf("TKT-2025-42")
	assert.False(t, ok)
	_, ok = alloc.suffixOf("garbage")
	assert.False(t, ok)
}
