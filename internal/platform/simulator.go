package platform

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// Simulator is a Driver that fabricates outcomes instead of touching a real
// platform. Follow-type actions land ~90% of the time and engagements ~85%,
// matching rates seen against live accounts. The outcome function can be
// replaced wholesale for deterministic tests.
type Simulator struct {
	platform domain.Platform

	mu      sync.Mutex
	rng     *rand.Rand
	outcome func(domain.Action) bool
}

// NewSimulator creates a simulated driver for one platform.
func NewSimulator(p domain.Platform, seed int64) *Simulator {
	s := &Simulator{
		platform: p,
		rng:      rand.New(rand.NewSource(seed)),
	}
	s.outcome = s.defaultOutcome
	return s
}

// SetOutcome replaces the outcome function. Test hook.
func (s *Simulator) SetOutcome(f func(domain.Action) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = f
}

func (s *Simulator) defaultOutcome(a domain.Action) bool {
	if a.Type.IsEngagement() {
		return s.rng.Float64() > 0.15
	}
	return s.rng.Float64() > 0.1
}

// Platform identifies which network this driver serves.
func (s *Simulator) Platform() domain.Platform { return s.platform }

// Execute performs one action and reports whether it landed.
func (s *Simulator) Execute(_ context.Context, action domain.Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome(action)
}

// Engage performs an engagement action.
func (s *Simulator) Engage(ctx context.Context, action domain.Action) bool {
	return s.Execute(ctx, action)
}

// Follow follows the given account.
func (s *Simulator) Follow(ctx context.Context, username string) bool {
	return s.Execute(ctx, domain.Action{
		Type:           domain.ActionFollow,
		TargetUsername: username,
		Platform:       s.platform,
	})
}

// Analyze fabricates public profile signals for an account.
func (s *Simulator) Analyze(_ context.Context, username string) (domain.TargetAccount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.TargetAccount{
		Username:       username,
		Platform:       s.platform,
		FollowerCount:  1000 + s.rng.Intn(99000),
		EngagementRate: 0.01 + s.rng.Float64()*0.07,
		LastActivity:   time.Now().Add(-time.Duration(1+s.rng.Intn(48)) * time.Hour),
	}, true
}

// NewSimRegistry builds a registry of simulators for the given platforms.
func NewSimRegistry(platforms []domain.Platform, seed int64) *Registry {
	drivers := make([]Driver, 0, len(platforms))
	for i, p := range platforms {
		drivers = append(drivers, NewSimulator(p, seed+int64(i)))
	}
	return NewRegistry(drivers...)
}
