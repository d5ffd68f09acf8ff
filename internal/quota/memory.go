package quota

import (
	"context"
	"sync"
	"time"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// MemoryManager enforces budgets in-process. Each (platform, action-type)
// bucket carries its own mutex so unrelated platforms never serialize on
// each other.
type MemoryManager struct {
	budgets map[domain.Platform]map[domain.ActionType]int
	now     func() time.Time

	mu      sync.Mutex // guards the buckets map only
	buckets map[string]*bucket
}

type bucket struct {
	mu    sync.Mutex
	times []time.Time // execution timestamps within the trailing window
}

// NewMemoryManager creates an in-process quota manager. overrides may be nil.
func NewMemoryManager(overrides map[string]int) *MemoryManager {
	return &MemoryManager{
		budgets: Budgets(overrides),
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// SetClock overrides the time source. Test hook.
func (m *MemoryManager) SetClock(now func() time.Time) { m.now = now }

func (m *MemoryManager) bucket(platform domain.Platform, action domain.ActionType) *bucket {
	key := bucketKey(platform, action)
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{}
		m.buckets[key] = b
	}
	return b
}

func (m *MemoryManager) limit(platform domain.Platform, action domain.ActionType) (int, bool) {
	actions, ok := m.budgets[platform]
	if !ok {
		return 0, false
	}
	n, ok := actions[action]
	return n, ok
}

// prune drops timestamps older than the trailing window. Caller holds b.mu.
func (b *bucket) prune(cutoff time.Time) {
	i := 0
	for i < len(b.times) && !b.times[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.times = append(b.times[:0], b.times[i:]...)
	}
}

// Check reports whether the bucket has capacity right now.
func (m *MemoryManager) Check(_ context.Context, platform domain.Platform, action domain.ActionType) (bool, error) {
	limit, ok := m.limit(platform, action)
	if !ok {
		return true, nil
	}
	b := m.bucket(platform, action)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(m.now().Add(-Window))
	return len(b.times) < limit, nil
}

// CheckAndRecord atomically checks capacity and records one execution.
func (m *MemoryManager) CheckAndRecord(_ context.Context, platform domain.Platform, action domain.ActionType) error {
	limit, hasLimit := m.limit(platform, action)
	b := m.bucket(platform, action)
	b.mu.Lock()
	defer b.mu.Unlock()
	now := m.now()
	b.prune(now.Add(-Window))
	if hasLimit && len(b.times) >= limit {
		return ErrRateLimited
	}
	b.times = append(b.times, now)
	return nil
}

// Usage returns the current window count and configured limit. A limit of 0
// means the bucket is unbudgeted.
func (m *MemoryManager) Usage(_ context.Context, platform domain.Platform, action domain.ActionType) (int, int, error) {
	limit, _ := m.limit(platform, action)
	b := m.bucket(platform, action)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(m.now().Add(-Window))
	return len(b.times), limit, nil
}
