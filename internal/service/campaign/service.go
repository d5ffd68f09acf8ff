package campaign

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orbitlabs/growth-engine/internal/domain"
	"github.com/orbitlabs/growth-engine/internal/platform"
	"github.com/orbitlabs/growth-engine/internal/quota"
	"github.com/orbitlabs/growth-engine/internal/safety"
	"github.com/orbitlabs/growth-engine/internal/target"
	"github.com/orbitlabs/growth-engine/internal/templates"
)

// deferredUnfollow is a follow awaiting reversal after the engagement window.
type deferredUnfollow struct {
	CampaignID string
	Platform   domain.Platform
	Username   string
	DueAt      time.Time
}

// Service coordinates campaign lifecycle and action execution. Every action
// passes the quota gate before touching a platform driver, and every attempt
// lands in the append-only action log regardless of outcome.
type Service struct {
	repo      Repository
	quota     quota.Manager
	scorer    *target.Scorer
	discovery target.Discovery
	drivers   *platform.Registry
	templates *templates.Store
	safety    *safety.Monitor

	mu       sync.Mutex
	mode     domain.Mode
	settings safety.Settings
	deferred []deferredUnfollow

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	rng   *rand.Rand
	rngMu sync.Mutex

	jitterEnabled bool
}

// NewService wires the campaign service. The mode pins delay pacing and the
// engagement window; jitterEnabled turns inter-action delays off for tests
// and manual runs.
func NewService(repo Repository, qm quota.Manager, scorer *target.Scorer, discovery target.Discovery, drivers *platform.Registry, tmpl *templates.Store, monitor *safety.Monitor, mode domain.Mode, jitterEnabled bool) *Service {
	return &Service{
		repo:          repo,
		quota:         qm,
		scorer:        scorer,
		discovery:     discovery,
		drivers:       drivers,
		templates:     tmpl,
		safety:        monitor,
		mode:          mode,
		settings:      safety.SettingsFor(mode),
		sleep:         sleepCtx,
		now:           time.Now,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		jitterEnabled: jitterEnabled,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SetSleep overrides the inter-action delay function. Test hook.
func (s *Service) SetSleep(fn func(ctx context.Context, d time.Duration) error) { s.sleep = fn }

// Mode returns the current operating mode.
func (s *Service) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Settings returns the limit and pacing bundle for the current mode.
func (s *Service) Settings() safety.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetMode switches the operating mode. The new settings bundle applies to
// subsequent runs only; in-flight runs keep the pacing they started with.
func (s *Service) SetMode(mode domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == s.mode {
		return
	}
	log.Printf("[CampaignService] Mode changed: %s -> %s", s.mode, mode)
	s.mode = mode
	s.settings = safety.SettingsFor(mode)
}

// ApplyMode switches the operating mode and rewrites the daily limits of
// every active campaign to the new mode's bundle.
func (s *Service) ApplyMode(ctx context.Context, mode domain.Mode) error {
	s.SetMode(mode)
	settings := s.Settings()

	campaigns, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range campaigns {
		if !c.IsActive {
			continue
		}
		if err := s.repo.SetDailyLimits(ctx, c.ID,
			settings.DailyFollowLimit, settings.DailyUnfollowLimit, settings.DailyEngagementLimit); err != nil {
			return fmt.Errorf("apply mode to campaign %s: %w", c.ID, err)
		}
	}
	return nil
}

// CreateCampaign validates the input, applies mode defaults for any limits
// left at zero, and persists the new campaign.
func (s *Service) CreateCampaign(ctx context.Context, in CreateInput) (*domain.Campaign, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: campaign name is required", domain.ErrConfiguration)
	}
	pf, err := domain.ParsePlatform(in.Platform)
	if err != nil {
		return nil, err
	}

	c := &domain.Campaign{
		ID:             uuid.New().String(),
		Name:           in.Name,
		Platform:       pf,
		TargetCriteria: in.TargetCriteria,
		IsActive:       true,
		CreatedAt:      s.now().UTC(),
	}

	switch domain.CampaignType(in.Type) {
	case domain.CampaignFollow:
		c.Type = domain.CampaignFollow
		c.TargetingType, err = domain.ParseTargetingType(in.TargetingType)
		if err != nil {
			return nil, err
		}
	case domain.CampaignEngagement:
		c.Type = domain.CampaignEngagement
		if len(in.EngagementTypes) == 0 {
			return nil, fmt.Errorf("%w: engagement campaign needs at least one engagement type", domain.ErrConfiguration)
		}
		for _, raw := range in.EngagementTypes {
			at, err := domain.ParseActionType(raw)
			if err != nil {
				return nil, err
			}
			if !at.IsEngagement() {
				return nil, fmt.Errorf("%w: %q is not an engagement action", domain.ErrConfiguration, raw)
			}
			c.EngagementTypes = append(c.EngagementTypes, at)
		}
	default:
		return nil, fmt.Errorf("%w: unknown campaign type %q", domain.ErrConfiguration, in.Type)
	}

	settings := s.Settings()
	c.DailyFollowLimit = orDefault(in.DailyFollowLimit, settings.DailyFollowLimit)
	c.DailyUnfollowLimit = orDefault(in.DailyUnfollowLimit, settings.DailyUnfollowLimit)
	c.DailyEngagementLimit = orDefault(in.DailyEngagementLimit, settings.DailyEngagementLimit)
	c.EngagementWindowDays = orDefault(in.EngagementWindowDays, settings.EngagementWindowDays)

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	log.Printf("[CampaignService] Created %s campaign %q on %s (id=%s)", c.Type, c.Name, c.Platform, c.ID)
	return c, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Get returns one campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// List returns all campaigns, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Campaign, error) {
	return s.repo.List(ctx)
}

// Deactivate marks a campaign inactive. Its history stays queryable.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	log.Printf("[CampaignService] Deactivated campaign %s", id)
	return nil
}

// FindTargets discovers, filters, and scores candidate accounts for a
// campaign. An empty result is a normal outcome, not an error.
func (s *Service) FindTargets(ctx context.Context, c *domain.Campaign) ([]domain.TargetAccount, error) {
	candidates, err := s.discovery.FindCandidates(ctx, c.Platform, c.TargetingType, c.TargetCriteria)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	return s.scorer.FilterAndScore(candidates, c.TargetCriteria), nil
}

// ExecuteAction runs one action against one target through the full
// protocol: quota gate, pacing delay, template render for engagements,
// driver execution, action log append, safety bookkeeping, and counter
// update on success. The returned action reflects what was recorded.
func (s *Service) ExecuteAction(ctx context.Context, c *domain.Campaign, actionType domain.ActionType, tgt domain.TargetAccount) (*domain.Action, error) {
	if !c.IsActive {
		return nil, ErrInactive
	}
	driver, ok := s.drivers.Driver(c.Platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoDriver, c.Platform)
	}

	if err := s.quota.CheckAndRecord(ctx, c.Platform, actionType); err != nil {
		if errors.Is(err, quota.ErrRateLimited) {
			s.safety.RecordRateLimitHit(c.Platform)
			log.Printf("[CampaignService] Rate limited: %s %s on %s", c.Platform, actionType, c.Name)
			return nil, err
		}
		return nil, fmt.Errorf("quota check: %w", err)
	}

	if err := s.delay(ctx); err != nil {
		return nil, err
	}

	action := domain.Action{
		ID:             uuid.New().String(),
		CampaignID:     c.ID,
		Type:           actionType,
		TargetUsername: tgt.Username,
		Platform:       c.Platform,
		Timestamp:      s.now().UTC(),
	}

	if actionType.IsEngagement() {
		if tmpl, ok := s.templates.Select(actionType, c.Platform); ok {
			msg, err := s.templates.Render(tmpl.ID, map[string]any{
				"username": tgt.Username,
				"niche":    tgt.Niche,
			})
			if err != nil {
				return nil, fmt.Errorf("render template: %w", err)
			}
			action.TemplateID = tmpl.ID
			action.Message = msg
		}
	}

	action.Success = driver.Execute(ctx, action)
	if !action.Success {
		action.Error = "action rejected by platform"
	}

	if err := s.repo.AppendAction(ctx, &action); err != nil {
		return nil, fmt.Errorf("record action: %w", err)
	}
	s.safety.RecordAction(c.Platform)

	if action.Success {
		if err := s.repo.IncrementCounter(ctx, c.ID, CounterFor(actionType)); err != nil {
			return nil, fmt.Errorf("increment counter: %w", err)
		}
		if action.TemplateID != "" {
			if err := s.templates.RecordUse(action.TemplateID, true); err != nil {
				log.Printf("[CampaignService] Record template use: %v", err)
			}
		}
		if actionType == domain.ActionFollow {
			s.deferUnfollow(c, tgt.Username)
		}
	} else if action.TemplateID != "" {
		if err := s.templates.RecordUse(action.TemplateID, false); err != nil {
			log.Printf("[CampaignService] Record template use: %v", err)
		}
	}

	return &action, nil
}

func (s *Service) delay(ctx context.Context) error {
	if !s.jitterEnabled {
		return nil
	}
	settings := s.Settings()
	span := settings.DelayMax - settings.DelayMin
	d := settings.DelayMin
	if span > 0 {
		s.rngMu.Lock()
		d += time.Duration(s.rng.Int63n(int64(span)))
		s.rngMu.Unlock()
	}
	return s.sleep(ctx, d)
}

func (s *Service) deferUnfollow(c *domain.Campaign, username string) {
	window := c.EngagementWindowDays
	if window <= 0 {
		window = s.Settings().EngagementWindowDays
	}
	due := s.now().Add(time.Duration(window) * 24 * time.Hour)
	s.mu.Lock()
	s.deferred = append(s.deferred, deferredUnfollow{
		CampaignID: c.ID,
		Platform:   c.Platform,
		Username:   username,
		DueAt:      due,
	})
	s.mu.Unlock()
}

// PendingUnfollows reports how many follows are queued for reversal.
func (s *Service) PendingUnfollows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deferred)
}

// RunDeferredUnfollows executes every queued unfollow whose engagement
// window has elapsed. Rate-limited entries stay queued for the next sweep.
func (s *Service) RunDeferredUnfollows(ctx context.Context) (executed int, err error) {
	now := s.now()

	s.mu.Lock()
	var due, remaining []deferredUnfollow
	for _, d := range s.deferred {
		if !d.DueAt.After(now) {
			due = append(due, d)
		} else {
			remaining = append(remaining, d)
		}
	}
	s.deferred = remaining
	s.mu.Unlock()

	for _, d := range due {
		c, err := s.repo.Get(ctx, d.CampaignID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			s.requeue(d)
			return executed, err
		}
		if !c.IsActive {
			continue
		}
		_, err = s.ExecuteAction(ctx, c, domain.ActionUnfollow, domain.TargetAccount{
			Username: d.Username,
			Platform: d.Platform,
		})
		switch {
		case errors.Is(err, quota.ErrRateLimited):
			s.requeue(d)
		case err != nil:
			s.requeue(d)
			return executed, err
		default:
			executed++
		}
	}

	if executed > 0 {
		log.Printf("[CampaignService] Unfollow sweep executed %d of %d due", executed, len(due))
	}
	return executed, nil
}

func (s *Service) requeue(d deferredUnfollow) {
	s.mu.Lock()
	s.deferred = append(s.deferred, d)
	s.mu.Unlock()
}

// RunCampaign performs one bounded run of a campaign: discover and score
// targets, then execute the campaign's action against the ranked list until
// the daily limit is reached, the list is exhausted, or the context ends.
// Rate-limited and failed actions count as attempts and the run moves on.
func (s *Service) RunCampaign(ctx context.Context, id string) (*domain.RunResult, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, ErrInactive
	}

	targets, err := s.FindTargets(ctx, c)
	if err != nil {
		return nil, err
	}

	result := &domain.RunResult{
		CampaignID:   c.ID,
		CampaignName: c.Name,
		TargetsFound: len(targets),
	}

	limit := c.DailyLimit()
	log.Printf("[CampaignService] Running %q: %d targets, limit %d", c.Name, len(targets), limit)

	for _, tgt := range targets {
		if result.ActionsExecuted >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		actionType := s.actionFor(c, result.ActionsExecuted)
		action, err := s.ExecuteAction(ctx, c, actionType, tgt)
		switch {
		case errors.Is(err, quota.ErrRateLimited):
			result.RateLimited++
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return result, err
		case err != nil:
			return result, err
		}

		result.ActionsExecuted++
		if action.Success {
			result.SuccessfulActions++
		}
	}

	if result.ActionsExecuted > 0 {
		result.SuccessRate = float64(result.SuccessfulActions) / float64(result.ActionsExecuted)
	}
	log.Printf("[CampaignService] Run %q done: %d executed, %d succeeded, %d rate limited",
		c.Name, result.ActionsExecuted, result.SuccessfulActions, result.RateLimited)
	return result, nil
}

// actionFor picks the action a run executes at position i. Follow campaigns
// always follow; engagement campaigns rotate through their configured types.
func (s *Service) actionFor(c *domain.Campaign, i int) domain.ActionType {
	if c.Type == domain.CampaignFollow || len(c.EngagementTypes) == 0 {
		return domain.ActionFollow
	}
	return c.EngagementTypes[i%len(c.EngagementTypes)]
}

// Stats derives the statistics snapshot for one campaign from its record
// and action log.
func (s *Service) Stats(ctx context.Context, id string) (*domain.CampaignStats, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	actions, err := s.repo.ActionsByCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &domain.CampaignStats{
		CampaignID:       c.ID,
		CampaignName:     c.Name,
		Type:             c.Type,
		Platform:         c.Platform,
		TargetingType:    c.TargetingType,
		IsActive:         c.IsActive,
		TotalFollows:     c.TotalFollows,
		TotalUnfollows:   c.TotalUnfollows,
		TotalEngagements: c.TotalEngagements,
		TotalActions:     len(actions),
		CreatedAt:        c.CreatedAt,
	}
	if len(actions) > 0 {
		var ok int
		for _, a := range actions {
			if a.Success {
				ok++
			}
		}
		stats.SuccessRate = float64(ok) / float64(len(actions))
	}
	return stats, nil
}
