package domain

import "time"

// TargetCriteria narrows which candidate accounts a campaign will act on.
type TargetCriteria struct {
	Niche             string   `json:"niche,omitempty"`
	Hashtags          []string `json:"hashtags,omitempty"`
	Interests         []string `json:"interests,omitempty"`
	Locations         []string `json:"locations,omitempty"`
	MinFollowers      int      `json:"min_followers"`
	MaxFollowers      int      `json:"max_followers"`
	MinEngagementRate float64  `json:"min_engagement_rate"`
	MaxInactiveDays   int      `json:"max_inactive_days"`
	MaxPostAgeHours   int      `json:"max_post_age_hours,omitempty"`
}

// TargetAccount is a candidate account discovered for outreach.
// EngagementScore is recomputed on every scoring pass, never persisted stale.
type TargetAccount struct {
	Username        string    `json:"username"`
	Platform        Platform  `json:"platform"`
	FollowerCount   int       `json:"follower_count"`
	EngagementRate  float64   `json:"engagement_rate"`
	Niche           string    `json:"niche"`
	LastActivity    time.Time `json:"last_activity"`
	IsVerified      bool      `json:"is_verified"`
	IsPrivate       bool      `json:"is_private"`
	EngagementScore float64   `json:"engagement_score"`
}

// Campaign is a bounded automation effort for one platform and one
// targeting/engagement strategy. Campaigns are never deleted, only
// deactivated, and their counters only increase via successful actions.
type Campaign struct {
	ID                   string          `json:"id" db:"id"`
	Name                 string          `json:"name" db:"name"`
	Type                 CampaignType    `json:"type" db:"type"`
	Platform             Platform        `json:"platform" db:"platform"`
	TargetingType        TargetingType   `json:"targeting_type,omitempty" db:"targeting_type"`
	EngagementTypes      []ActionType    `json:"engagement_types,omitempty" db:"-"`
	TargetCriteria       TargetCriteria  `json:"target_criteria" db:"-"`
	DailyFollowLimit     int             `json:"daily_follow_limit" db:"daily_follow_limit"`
	DailyUnfollowLimit   int             `json:"daily_unfollow_limit" db:"daily_unfollow_limit"`
	DailyEngagementLimit int             `json:"daily_engagement_limit" db:"daily_engagement_limit"`
	EngagementWindowDays int             `json:"engagement_window_days" db:"engagement_window_days"`
	IsActive             bool            `json:"is_active" db:"is_active"`
	TotalFollows         int             `json:"total_follows" db:"total_follows"`
	TotalUnfollows       int             `json:"total_unfollows" db:"total_unfollows"`
	TotalEngagements     int             `json:"total_engagements" db:"total_engagements"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// DailyLimit returns the per-run cutoff for the campaign's primary action.
func (c *Campaign) DailyLimit() int {
	if c.Type == CampaignEngagement {
		return c.DailyEngagementLimit
	}
	return c.DailyFollowLimit
}

// Action is one attempted operation against one target. Actions are
// append-only: created exactly once at execution time, never mutated.
type Action struct {
	ID             string     `json:"id" db:"id"`
	CampaignID     string     `json:"campaign_id" db:"campaign_id"`
	Type           ActionType `json:"type" db:"type"`
	TargetUsername string     `json:"target_username" db:"target_username"`
	Platform       Platform   `json:"platform" db:"platform"`
	Timestamp      time.Time  `json:"timestamp" db:"timestamp"`
	Success        bool       `json:"success" db:"success"`
	Error          string     `json:"error,omitempty" db:"error"`
	TemplateID     string     `json:"template_id,omitempty" db:"template_id"`
	Message        string     `json:"message,omitempty" db:"message"`
}

// RunResult aggregates the outcome of a single campaign run.
type RunResult struct {
	CampaignID        string  `json:"campaign_id"`
	CampaignName      string  `json:"campaign_name"`
	TargetsFound      int     `json:"targets_found"`
	ActionsExecuted   int     `json:"actions_executed"`
	SuccessfulActions int     `json:"successful_actions"`
	RateLimited       int     `json:"rate_limited"`
	SuccessRate       float64 `json:"success_rate"`
}

// CampaignStats is the read-only statistics snapshot for a campaign,
// derived from the campaign record and its action log.
type CampaignStats struct {
	CampaignID       string        `json:"campaign_id"`
	CampaignName     string        `json:"campaign_name"`
	Type             CampaignType  `json:"type"`
	Platform         Platform      `json:"platform"`
	TargetingType    TargetingType `json:"targeting_type,omitempty"`
	IsActive         bool          `json:"is_active"`
	TotalFollows     int           `json:"total_follows"`
	TotalUnfollows   int           `json:"total_unfollows"`
	TotalEngagements int           `json:"total_engagements"`
	TotalActions     int           `json:"total_actions"`
	SuccessRate      float64       `json:"success_rate"`
	CreatedAt        time.Time     `json:"created_at"`
}
