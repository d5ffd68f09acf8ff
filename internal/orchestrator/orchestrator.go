// Package orchestrator composes a growth strategy per niche: one follow and
// one engagement campaign per configured platform plus a niche community.
// Optimization output is advisory and never mutates campaign state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orbitlabs/growth-engine/internal/domain"
	"github.com/orbitlabs/growth-engine/internal/growth"
	"github.com/orbitlabs/growth-engine/internal/safety"
	"github.com/orbitlabs/growth-engine/internal/service/campaign"
)

// ErrStrategyNotFound is returned for an unknown strategy id.
var ErrStrategyNotFound = errors.New("strategy not found")

// Strategy references every resource a growth strategy created.
type Strategy struct {
	ID                  string                `json:"id"`
	Niche               string                `json:"niche"`
	TargetAudience      domain.TargetCriteria `json:"target_audience"`
	FollowCampaigns     []string              `json:"follow_campaigns"`
	EngagementCampaigns []string              `json:"engagement_campaigns"`
	CommunityID         string                `json:"community_id"`
	Status              string                `json:"status"`
	CreatedAt           time.Time             `json:"created_at"`
}

// GrowthMetrics aggregates a strategy execution's estimated outcome.
// EstimatedFollowersGained applies the configured follow-back rate, a
// heuristic parameter rather than a measured truth.
type GrowthMetrics struct {
	TotalFollows             int     `json:"total_follows"`
	EstimatedFollowersGained int     `json:"estimated_followers_gained"`
	TotalEngagements         int     `json:"total_engagements"`
	EngagementRate           float64 `json:"engagement_rate"`
	GrowthRate               float64 `json:"growth_rate"`
	StrategyEfficiency       float64 `json:"strategy_efficiency"`
}

// Report is the combined result of running every campaign in a strategy.
type Report struct {
	StrategyID        string                                  `json:"strategy_id"`
	Niche             string                                  `json:"niche"`
	FollowResults     []domain.RunResult                      `json:"follow_results"`
	EngagementResults []domain.RunResult                      `json:"engagement_results"`
	Errors            []string                                `json:"errors,omitempty"`
	GrowthMetrics     GrowthMetrics                           `json:"growth_metrics"`
	AccountHealth     map[domain.Platform]domain.SafetyRecord `json:"account_health"`
}

// Recommendation is one advisory finding from strategy optimization.
type Recommendation struct {
	CampaignID     string `json:"campaign_id,omitempty"`
	Platform       string `json:"platform,omitempty"`
	Type           string `json:"type"`
	Issue          string `json:"issue"`
	Recommendation string `json:"recommendation"`
}

// Optimization is the advisory report for one strategy. Nothing in it has
// been applied.
type Optimization struct {
	StrategyID      string           `json:"strategy_id"`
	Optimizations   []Recommendation `json:"optimizations"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Dashboard is the aggregate operator view.
type Dashboard struct {
	Stats struct {
		TotalFollows       int     `json:"total_follows"`
		TotalUnfollows     int     `json:"total_unfollows"`
		TotalEngagements   int     `json:"total_engagements"`
		EngagementRate     float64 `json:"engagement_rate"`
		AccountHealthScore float64 `json:"account_health_score"`
	} `json:"stats"`
	ActiveStrategies int                                     `json:"active_strategies"`
	AccountHealth    map[domain.Platform]domain.SafetyRecord `json:"account_health"`
	Config           DashboardConfig                         `json:"config"`
	CampaignSummary  CampaignSummary                         `json:"campaign_summary"`
}

// DashboardConfig echoes the active mode and limits.
type DashboardConfig struct {
	Mode                 domain.Mode       `json:"mode"`
	Platforms            []domain.Platform `json:"platforms"`
	DailyFollowLimit     int               `json:"daily_follow_limit"`
	DailyUnfollowLimit   int               `json:"daily_unfollow_limit"`
	DailyEngagementLimit int               `json:"daily_engagement_limit"`
}

// CampaignSummary counts campaigns by type and activity.
type CampaignSummary struct {
	FollowCampaigns           int `json:"follow_campaigns"`
	EngagementCampaigns       int `json:"engagement_campaigns"`
	TotalCampaigns            int `json:"total_campaigns"`
	ActiveFollowCampaigns     int `json:"active_follow_campaigns"`
	ActiveEngagementCampaigns int `json:"active_engagement_campaigns"`
}

// Success-rate floors below which a campaign is flagged for review.
const (
	followSuccessFloor     = 0.7
	engagementSuccessFloor = 0.8
	healthFloor            = 80.0
	modeDowngradeFloor     = 70.0
)

// Orchestrator builds and drives growth strategies.
type Orchestrator struct {
	campaigns *campaign.Service
	ledger    *growth.Ledger
	monitor   *safety.Monitor

	platforms      []domain.Platform
	followBackRate float64

	mu         sync.RWMutex
	strategies map[string]*Strategy

	now func() time.Time
}

// New creates an orchestrator over the given platforms. followBackRate is
// the configured estimate of how many followed accounts follow back.
func New(campaigns *campaign.Service, ledger *growth.Ledger, monitor *safety.Monitor, platforms []domain.Platform, followBackRate float64) *Orchestrator {
	if followBackRate <= 0 {
		followBackRate = 0.2
	}
	return &Orchestrator{
		campaigns:      campaigns,
		ledger:         ledger,
		monitor:        monitor,
		platforms:      platforms,
		followBackRate: followBackRate,
		strategies:     make(map[string]*Strategy),
		now:            time.Now,
	}
}

// title upper-cases the first letter for display names.
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// CreateGrowthStrategy creates one follow and one engagement campaign per
// configured platform plus a niche community, and returns the strategy
// referencing them all. Audience fields left at zero get sane defaults.
func (o *Orchestrator) CreateGrowthStrategy(ctx context.Context, niche string, audience domain.TargetCriteria) (*Strategy, error) {
	if niche == "" {
		return nil, fmt.Errorf("%w: niche is required", domain.ErrConfiguration)
	}
	audience.Niche = niche
	if audience.MinFollowers == 0 {
		audience.MinFollowers = 1000
	}
	if audience.MaxFollowers == 0 {
		audience.MaxFollowers = 100000
	}
	if audience.MinEngagementRate == 0 {
		audience.MinEngagementRate = 0.02
	}

	s := &Strategy{
		ID:             fmt.Sprintf("strategy-%s-%s", niche, uuid.New().String()[:8]),
		Niche:          niche,
		TargetAudience: audience,
		Status:         "active",
		CreatedAt:      o.now().UTC(),
	}

	for _, p := range o.platforms {
		c, err := o.campaigns.CreateCampaign(ctx, campaign.CreateInput{
			Name:           fmt.Sprintf("%s Follow Campaign - %s", title(niche), title(string(p))),
			Type:           string(domain.CampaignFollow),
			Platform:       string(p),
			TargetingType:  string(domain.TargetingNiche),
			TargetCriteria: audience,
		})
		if err != nil {
			return nil, fmt.Errorf("create follow campaign on %s: %w", p, err)
		}
		s.FollowCampaigns = append(s.FollowCampaigns, c.ID)
	}

	engagementCriteria := audience
	engagementCriteria.MaxPostAgeHours = 24
	for _, p := range o.platforms {
		c, err := o.campaigns.CreateCampaign(ctx, campaign.CreateInput{
			Name:     fmt.Sprintf("%s Engagement Campaign - %s", title(niche), title(string(p))),
			Type:     string(domain.CampaignEngagement),
			Platform: string(p),
			EngagementTypes: []string{
				string(domain.ActionLike),
				string(domain.ActionComment),
				string(domain.ActionStoryView),
			},
			TargetCriteria: engagementCriteria,
		})
		if err != nil {
			return nil, fmt.Errorf("create engagement campaign on %s: %w", p, err)
		}
		s.EngagementCampaigns = append(s.EngagementCampaigns, c.ID)
	}

	communityID, err := o.ledger.CreateCommunity(
		fmt.Sprintf("%s Growth Community", title(niche)),
		domain.CommunityNicheFinder,
		fmt.Sprintf("Automated growth community for the %s niche", niche),
	)
	if err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}
	s.CommunityID = communityID

	o.mu.Lock()
	o.strategies[s.ID] = s
	o.mu.Unlock()

	log.Printf("[Orchestrator] Created growth strategy %s for %s niche (%d campaigns)",
		s.ID, niche, len(s.FollowCampaigns)+len(s.EngagementCampaigns))
	return s, nil
}

// Strategy returns one strategy by id.
func (o *Orchestrator) Strategy(id string) (*Strategy, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.strategies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, id)
	}
	cp := *s
	return &cp, nil
}

// Strategies returns every known strategy.
func (o *Orchestrator) Strategies() []Strategy {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Strategy, 0, len(o.strategies))
	for _, s := range o.strategies {
		out = append(out, *s)
	}
	return out
}

// ExecuteGrowthStrategy runs every campaign the strategy references,
// aggregates growth metrics, and folds the period into the safety monitor.
// One campaign's failure is recorded and does not stop the rest.
func (o *Orchestrator) ExecuteGrowthStrategy(ctx context.Context, id string) (*Report, error) {
	s, err := o.Strategy(id)
	if err != nil {
		return nil, err
	}

	log.Printf("[Orchestrator] Executing growth strategy %s", id)
	report := &Report{StrategyID: s.ID, Niche: s.Niche}

	for _, campaignID := range s.FollowCampaigns {
		result, err := o.campaigns.RunCampaign(ctx, campaignID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("follow campaign %s: %v", campaignID, err))
			continue
		}
		report.FollowResults = append(report.FollowResults, *result)
	}
	for _, campaignID := range s.EngagementCampaigns {
		result, err := o.campaigns.RunCampaign(ctx, campaignID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("engagement campaign %s: %v", campaignID, err))
			continue
		}
		report.EngagementResults = append(report.EngagementResults, *result)
	}

	report.GrowthMetrics = o.growthMetrics(report)
	report.AccountHealth = o.monitor.RunCycle(o.campaigns.Settings().DailyFollowLimit)

	log.Printf("[Orchestrator] Strategy %s done: %d follows, %d engagements, %d errors",
		id, report.GrowthMetrics.TotalFollows, report.GrowthMetrics.TotalEngagements, len(report.Errors))
	return report, nil
}

func (o *Orchestrator) growthMetrics(r *Report) GrowthMetrics {
	var follows, engagements int
	for _, res := range r.FollowResults {
		follows += res.SuccessfulActions
	}
	for _, res := range r.EngagementResults {
		engagements += res.SuccessfulActions
	}

	gained := int(float64(follows) * o.followBackRate)
	rate := float64(engagements) / float64(max(follows, 1))
	return GrowthMetrics{
		TotalFollows:             follows,
		EstimatedFollowersGained: gained,
		TotalEngagements:         engagements,
		EngagementRate:           rate,
		GrowthRate:               float64(gained) / float64(max(follows, 1)),
		StrategyEfficiency:       rate * o.followBackRate,
	}
}

// OptimizeStrategy inspects campaign success rates and platform health and
// emits advisory recommendations. It never changes anything itself.
func (o *Orchestrator) OptimizeStrategy(ctx context.Context, id string) (*Optimization, error) {
	s, err := o.Strategy(id)
	if err != nil {
		return nil, err
	}

	opt := &Optimization{StrategyID: s.ID}

	for _, campaignID := range s.FollowCampaigns {
		stats, err := o.campaigns.Stats(ctx, campaignID)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", campaignID, err)
		}
		if stats.TotalActions > 0 && stats.SuccessRate < followSuccessFloor {
			opt.Optimizations = append(opt.Optimizations, Recommendation{
				CampaignID:     campaignID,
				Type:           "follow",
				Issue:          "Low success rate",
				Recommendation: "Adjust targeting criteria or reduce daily limits",
			})
		}
	}
	for _, campaignID := range s.EngagementCampaigns {
		stats, err := o.campaigns.Stats(ctx, campaignID)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", campaignID, err)
		}
		if stats.TotalActions > 0 && stats.SuccessRate < engagementSuccessFloor {
			opt.Optimizations = append(opt.Optimizations, Recommendation{
				CampaignID:     campaignID,
				Type:           "engagement",
				Issue:          "Low engagement success rate",
				Recommendation: "Update engagement templates or timing",
			})
		}
	}

	for p, rec := range o.monitor.Records() {
		if rec.HealthScore < healthFloor {
			opt.Recommendations = append(opt.Recommendations, Recommendation{
				Platform:       string(p),
				Issue:          "Low account health",
				Recommendation: "Reduce daily limits or increase delays",
			})
		}
	}
	if o.monitor.AverageHealth() < modeDowngradeFloor {
		next := safety.Downgrade(o.campaigns.Mode())
		opt.Recommendations = append(opt.Recommendations, Recommendation{
			Type:           "mode_change",
			Issue:          "Account health declining",
			Recommendation: fmt.Sprintf("Consider switching to %s mode", next),
		})
	}

	log.Printf("[Orchestrator] Optimization for %s: %d campaign findings, %d recommendations",
		id, len(opt.Optimizations), len(opt.Recommendations))
	return opt, nil
}

// Dashboard aggregates campaign totals, platform health, and configuration
// into the operator view.
func (o *Orchestrator) Dashboard(ctx context.Context) (*Dashboard, error) {
	all, err := o.campaigns.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	d := &Dashboard{AccountHealth: o.monitor.Records()}
	for _, c := range all {
		d.Stats.TotalFollows += c.TotalFollows
		d.Stats.TotalUnfollows += c.TotalUnfollows
		d.Stats.TotalEngagements += c.TotalEngagements
		switch c.Type {
		case domain.CampaignFollow:
			d.CampaignSummary.FollowCampaigns++
			if c.IsActive {
				d.CampaignSummary.ActiveFollowCampaigns++
			}
		case domain.CampaignEngagement:
			d.CampaignSummary.EngagementCampaigns++
			if c.IsActive {
				d.CampaignSummary.ActiveEngagementCampaigns++
			}
		}
	}
	d.CampaignSummary.TotalCampaigns = len(all)

	total := d.Stats.TotalFollows + d.Stats.TotalEngagements
	d.Stats.EngagementRate = float64(d.Stats.TotalEngagements) / float64(max(total, 1))
	d.Stats.AccountHealthScore = o.monitor.AverageHealth()

	o.mu.RLock()
	d.ActiveStrategies = len(o.strategies)
	o.mu.RUnlock()

	settings := o.campaigns.Settings()
	d.Config = DashboardConfig{
		Mode:                 o.campaigns.Mode(),
		Platforms:            append([]domain.Platform(nil), o.platforms...),
		DailyFollowLimit:     settings.DailyFollowLimit,
		DailyUnfollowLimit:   settings.DailyUnfollowLimit,
		DailyEngagementLimit: settings.DailyEngagementLimit,
	}
	return d, nil
}
