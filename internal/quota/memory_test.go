package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

func TestMemoryManagerEnforcesHourlyBudget(t *testing.T) {
	m := NewMemoryManager(map[string]int{"instagram.follow": 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.CheckAndRecord(ctx, domain.PlatformInstagram, domain.ActionFollow))
	}

	err := m.CheckAndRecord(ctx, domain.PlatformInstagram, domain.ActionFollow)
	assert.ErrorIs(t, err, ErrRateLimited)

	ok, err := m.Check(ctx, domain.PlatformInstagram, domain.ActionFollow)
	require.NoError(t, err)
	assert.False(t, ok)

	// Other buckets are unaffected
	ok, err = m.Check(ctx, domain.PlatformInstagram, domain.ActionLike)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.Check(ctx, domain.PlatformTwitter, domain.ActionFollow)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryManagerWindowSlides(t *testing.T) {
	m := NewMemoryManager(map[string]int{"twitter.dm": 2})
	now := time.Now()
	m.SetClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, m.CheckAndRecord(ctx, domain.PlatformTwitter, domain.ActionDM))
	require.NoError(t, m.CheckAndRecord(ctx, domain.PlatformTwitter, domain.ActionDM))
	assert.ErrorIs(t, m.CheckAndRecord(ctx, domain.PlatformTwitter, domain.ActionDM), ErrRateLimited)

	// 59 minutes later the oldest executions still count
	now = now.Add(59 * time.Minute)
	assert.ErrorIs(t, m.CheckAndRecord(ctx, domain.PlatformTwitter, domain.ActionDM), ErrRateLimited)

	// Past the window the budget frees up
	now = now.Add(2 * time.Minute)
	assert.NoError(t, m.CheckAndRecord(ctx, domain.PlatformTwitter, domain.ActionDM))
}

func TestMemoryManagerUnbudgetedActionAllowed(t *testing.T) {
	m := NewMemoryManager(nil)
	ctx := context.Background()

	// story_view has no budget entry on twitter
	for i := 0; i < 500; i++ {
		require.NoError(t, m.CheckAndRecord(ctx, domain.PlatformTwitter, domain.ActionStoryView))
	}
}

// Two concurrent campaigns on the same bucket must never jointly overshoot
// the budget.
func TestMemoryManagerConcurrentCheckAndRecord(t *testing.T) {
	const limit = 50
	m := NewMemoryManager(map[string]int{"instagram.like": limit})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if err := m.CheckAndRecord(ctx, domain.PlatformInstagram, domain.ActionLike); err == nil {
					mu.Lock()
					granted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, granted)
	count, lim, err := m.Usage(ctx, domain.PlatformInstagram, domain.ActionLike)
	require.NoError(t, err)
	assert.Equal(t, limit, count)
	assert.Equal(t, limit, lim)
}

func TestBudgetsOverrides(t *testing.T) {
	b := Budgets(map[string]int{
		"instagram.follow": 7,
		"bogus":            1,
		"mars.follow":      2,
	})

	assert.Equal(t, 7, b[domain.PlatformInstagram][domain.ActionFollow])
	// Untouched defaults survive
	assert.Equal(t, 30, b[domain.PlatformTwitter][domain.ActionFollow])
}
