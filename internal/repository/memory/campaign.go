// Package memory provides in-process repository implementations used by the
// single-node deployment and by tests. All state is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/orbitlabs/growth-engine/internal/domain"
	"github.com/orbitlabs/growth-engine/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository in memory.
type CampaignRepo struct {
	mu        sync.RWMutex
	campaigns map[string]*domain.Campaign
	actions   map[string][]domain.Action // campaignID -> insertion order
}

// NewCampaignRepo creates an empty in-memory campaign repository.
func NewCampaignRepo() *CampaignRepo {
	return &CampaignRepo{
		campaigns: make(map[string]*domain.Campaign),
		actions:   make(map[string][]domain.Action),
	}
}

func (r *CampaignRepo) Get(_ context.Context, id string) (*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *CampaignRepo) List(_ context.Context) ([]domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *CampaignRepo) Create(_ context.Context, c *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}

func (r *CampaignRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (r *CampaignRepo) SetDailyLimits(_ context.Context, id string, follow, unfollow, engagement int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.DailyFollowLimit = follow
	c.DailyUnfollowLimit = unfollow
	c.DailyEngagementLimit = engagement
	return nil
}

func (r *CampaignRepo) IncrementCounter(_ context.Context, id string, counter campaign.Counter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	switch counter {
	case campaign.CounterFollows:
		c.TotalFollows++
	case campaign.CounterUnfollows:
		c.TotalUnfollows++
	case campaign.CounterEngagements:
		c.TotalEngagements++
	}
	return nil
}

func (r *CampaignRepo) AppendAction(_ context.Context, a *domain.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[a.CampaignID]; !ok {
		return campaign.ErrNotFound
	}
	r.actions[a.CampaignID] = append(r.actions[a.CampaignID], *a)
	return nil
}

func (r *CampaignRepo) ActionsByCampaign(_ context.Context, campaignID string) ([]domain.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	actions := r.actions[campaignID]
	out := make([]domain.Action, len(actions))
	copy(out, actions)
	return out, nil
}
