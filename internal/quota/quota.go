// Package quota enforces per-(platform, action-type) hourly rate budgets
// over the trailing one-hour window.
//
// Check is a pure query and does not reserve capacity; callers that need
// check-then-record semantics under concurrency must use CheckAndRecord,
// which serializes on the bucket.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// ErrRateLimited is returned when the hourly budget for a
// (platform, action-type) bucket is exhausted.
var ErrRateLimited = errors.New("rate limit exceeded")

// Window is the trailing period over which budgets apply.
const Window = time.Hour

// Manager answers "may action type T be executed on platform P right now?"
type Manager interface {
	// Check reports whether the bucket has capacity. Pure query.
	Check(ctx context.Context, platform domain.Platform, action domain.ActionType) (bool, error)

	// CheckAndRecord atomically checks the bucket and records one execution
	// if capacity remains. Returns ErrRateLimited when the budget is spent.
	CheckAndRecord(ctx context.Context, platform domain.Platform, action domain.ActionType) error

	// Usage returns the current count and limit for a bucket.
	Usage(ctx context.Context, platform domain.Platform, action domain.ActionType) (count, limit int, err error)
}

// DefaultBudgets is the table-driven hourly budget per platform and action
// type. A missing entry means the action is unbudgeted on that platform.
var DefaultBudgets = map[domain.Platform]map[domain.ActionType]int{
	domain.PlatformInstagram: {
		domain.ActionFollow:    20,
		domain.ActionUnfollow:  20,
		domain.ActionLike:      50,
		domain.ActionComment:   10,
		domain.ActionDM:        5,
		domain.ActionStoryView: 100,
	},
	domain.PlatformTwitter: {
		domain.ActionFollow:   30,
		domain.ActionUnfollow: 30,
		domain.ActionLike:     100,
		domain.ActionComment:  20,
		domain.ActionDM:       10,
	},
	domain.PlatformTikTok: {
		domain.ActionFollow:   25,
		domain.ActionUnfollow: 25,
		domain.ActionLike:     80,
		domain.ActionComment:  15,
		domain.ActionDM:       8,
	},
	domain.PlatformLinkedIn: {
		domain.ActionFollow:   15,
		domain.ActionUnfollow: 15,
		domain.ActionLike:     40,
		domain.ActionComment:  8,
		domain.ActionDM:       5,
	},
	domain.PlatformYouTube: {
		domain.ActionFollow:   20,
		domain.ActionUnfollow: 20,
		domain.ActionLike:     60,
		domain.ActionComment:  12,
	},
}

// Budgets resolves the effective budget table after applying config
// overrides keyed as "platform.action".
func Budgets(overrides map[string]int) map[domain.Platform]map[domain.ActionType]int {
	out := make(map[domain.Platform]map[domain.ActionType]int, len(DefaultBudgets))
	for p, actions := range DefaultBudgets {
		out[p] = make(map[domain.ActionType]int, len(actions))
		for a, n := range actions {
			out[p][a] = n
		}
	}
	for key, n := range overrides {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			continue
		}
		p, errP := domain.ParsePlatform(parts[0])
		a, errA := domain.ParseActionType(parts[1])
		if errP != nil || errA != nil {
			continue
		}
		if out[p] == nil {
			out[p] = make(map[domain.ActionType]int)
		}
		out[p][a] = n
	}
	return out
}

func bucketKey(platform domain.Platform, action domain.ActionType) string {
	return fmt.Sprintf("%s:%s", platform, action)
}
