package campaign

import (
	"context"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// Counter identifies which campaign counter a successful action increments.
type Counter string

const (
	CounterFollows     Counter = "total_follows"
	CounterUnfollows   Counter = "total_unfollows"
	CounterEngagements Counter = "total_engagements"
)

// CounterFor maps an action type to the campaign counter it feeds.
func CounterFor(action domain.ActionType) Counter {
	switch action {
	case domain.ActionFollow:
		return CounterFollows
	case domain.ActionUnfollow:
		return CounterUnfollows
	default:
		return CounterEngagements
	}
}

// Repository defines the data access contract for campaigns and their
// append-only action log. Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns all campaigns ordered by created_at DESC.
	List(ctx context.Context) ([]domain.Campaign, error)

	// Create inserts a new campaign.
	Create(ctx context.Context, c *domain.Campaign) error

	// Deactivate marks a campaign inactive. Campaigns are never deleted.
	Deactivate(ctx context.Context, id string) error

	// SetDailyLimits overwrites the campaign's daily limits.
	SetDailyLimits(ctx context.Context, id string, follow, unfollow, engagement int) error

	// IncrementCounter adds one to the named counter. Counters only
	// increase, and only via successful actions.
	IncrementCounter(ctx context.Context, id string, counter Counter) error

	// AppendAction records one action. Actions are immutable once recorded
	// and must reference an existing campaign.
	AppendAction(ctx context.Context, a *domain.Action) error

	// ActionsByCampaign returns the action log for one campaign in
	// insertion order.
	ActionsByCampaign(ctx context.Context, campaignID string) ([]domain.Action, error)
}

// CreateInput holds the fields for creating a new campaign. Enum fields
// arrive as strings and are validated before any resource is created.
type CreateInput struct {
	Name                 string   `json:"name"`
	Type                 string   `json:"type"`
	Platform             string   `json:"platform"`
	TargetingType        string   `json:"targeting_type,omitempty"`
	EngagementTypes      []string `json:"engagement_types,omitempty"`
	TargetCriteria       domain.TargetCriteria `json:"target_criteria"`
	DailyFollowLimit     int      `json:"daily_follow_limit"`
	DailyUnfollowLimit   int      `json:"daily_unfollow_limit"`
	DailyEngagementLimit int      `json:"daily_engagement_limit"`
	EngagementWindowDays int      `json:"engagement_window_days"`
}
