package target

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// SimulatedDiscovery fabricates candidate accounts for development and
// load testing. It stands in for a real platform discovery integration; the
// orchestration core only ever sees the Discovery interface.
type SimulatedDiscovery struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulatedDiscovery creates a deterministic simulated discovery source.
func NewSimulatedDiscovery(seed int64) *SimulatedDiscovery {
	return &SimulatedDiscovery{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// FindCandidates fabricates a batch of candidates shaped by the strategy.
func (d *SimulatedDiscovery) FindCandidates(_ context.Context, platform domain.Platform, strategy domain.TargetingType, criteria domain.TargetCriteria) ([]domain.TargetAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	minFollowers := criteria.MinFollowers
	if minFollowers == 0 {
		minFollowers = 1000
	}
	maxFollowers := criteria.MaxFollowers
	if maxFollowers <= minFollowers {
		maxFollowers = minFollowers + 100000
	}

	var prefixes []string
	switch strategy {
	case domain.TargetingHashtag:
		prefixes = tagged("user", criteria.Hashtags, "tag")
	case domain.TargetingCompetitorFollowers:
		prefixes = []string{"follower"}
	case domain.TargetingLocation:
		prefixes = tagged("local_user", criteria.Locations, "area")
	case domain.TargetingInterests:
		prefixes = tagged("interest_user", criteria.Interests, "topic")
	case domain.TargetingEngagementBased:
		prefixes = []string{"high_engagement_user"}
	default: // niche
		prefixes = []string{"niche_user_" + orDefault(criteria.Niche, "general")}
	}

	now := d.now()
	var out []domain.TargetAccount
	for _, prefix := range prefixes {
		n := 15 + d.rng.Intn(30)
		for i := 0; i < n; i++ {
			out = append(out, domain.TargetAccount{
				Username:       fmt.Sprintf("%s_%d", prefix, i),
				Platform:       platform,
				FollowerCount:  minFollowers + d.rng.Intn(maxFollowers-minFollowers+1),
				EngagementRate: 0.01 + d.rng.Float64()*0.07,
				Niche:          criteria.Niche,
				LastActivity:   now.Add(-time.Duration(1+d.rng.Intn(48)) * time.Hour),
				IsVerified:     d.rng.Float64() < 0.1,
				IsPrivate:      d.rng.Float64() < 0.1,
			})
		}
	}
	return out, nil
}

func tagged(prefix string, tags []string, fallback string) []string {
	if len(tags) == 0 {
		return []string{prefix + "_" + fallback}
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, prefix+"_"+t)
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
