// Package target filters and ranks candidate accounts by engagement
// potential. Discovery of raw candidates is an external collaborator hidden
// behind the Discovery interface; this package decides who is worth acting
// on and in what order.
package target

import (
	"context"
	"sort"
	"time"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// Discovery is the external candidate source. Implementations may return an
// empty list; "no results" is never an error.
type Discovery interface {
	FindCandidates(ctx context.Context, platform domain.Platform, strategy domain.TargetingType, criteria domain.TargetCriteria) ([]domain.TargetAccount, error)
}

// Scorer filters candidates against campaign criteria and annotates the
// survivors with an engagement score.
type Scorer struct {
	now func() time.Time
}

// NewScorer creates a scorer using the wall clock.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (s *Scorer) SetClock(now func() time.Time) { s.now = now }

// FilterAndScore returns the subset of candidates passing all criteria,
// deduplicated by (username, platform), each annotated with an engagement
// score and sorted descending by that score. Ties break toward higher
// follower counts, then lexical username order, so output is deterministic.
func (s *Scorer) FilterAndScore(candidates []domain.TargetAccount, criteria domain.TargetCriteria) []domain.TargetAccount {
	now := s.now()
	seen := make(map[string]bool, len(candidates))
	out := make([]domain.TargetAccount, 0, len(candidates))

	for _, c := range candidates {
		key := c.Username + "@" + string(c.Platform)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !s.passes(c, criteria, now) {
			continue
		}
		c.EngagementScore = s.Score(c, now)
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EngagementScore != out[j].EngagementScore {
			return out[i].EngagementScore > out[j].EngagementScore
		}
		if out[i].FollowerCount != out[j].FollowerCount {
			return out[i].FollowerCount > out[j].FollowerCount
		}
		return out[i].Username < out[j].Username
	})

	return out
}

func (s *Scorer) passes(c domain.TargetAccount, criteria domain.TargetCriteria, now time.Time) bool {
	if c.IsPrivate {
		return false
	}
	if c.FollowerCount < criteria.MinFollowers {
		return false
	}
	if criteria.MaxFollowers > 0 && c.FollowerCount > criteria.MaxFollowers {
		return false
	}
	if c.EngagementRate < criteria.MinEngagementRate {
		return false
	}
	if criteria.MaxInactiveDays > 0 {
		if now.Sub(c.LastActivity) > time.Duration(criteria.MaxInactiveDays)*24*time.Hour {
			return false
		}
	}
	return true
}

// largeAccountThreshold marks accounts unlikely to follow back.
const largeAccountThreshold = 50000

// Score computes the engagement-potential score for a single account.
func (s *Scorer) Score(c domain.TargetAccount, now time.Time) float64 {
	score := c.EngagementRate * 100

	if c.IsVerified {
		score *= 1.2
	}
	if now.Sub(c.LastActivity) < 24*time.Hour {
		score *= 1.1
	}
	if c.FollowerCount > largeAccountThreshold {
		score *= 0.8
	}

	return score
}
