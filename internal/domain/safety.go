package domain

import "time"

// SafetyRecord is the per-platform account-health state. HealthScore lives
// in [0,100] and only decreases via penalty events; DailyActions resets once
// per cycle when the record is folded.
type SafetyRecord struct {
	Platform      Platform   `json:"platform"`
	HealthScore   float64    `json:"health_score"`
	DailyActions  int        `json:"daily_actions"`
	Warnings      []string   `json:"warnings"`
	RateLimitHits int        `json:"rate_limit_hits"`
	LastAction    *time.Time `json:"last_action,omitempty"`
}

// EngagementTemplate is a reusable message template for engagement actions.
// SuccessRate is a running estimate updated after every use:
// new = (old*(n-1) + outcome) / n.
type EngagementTemplate struct {
	ID          string     `json:"id"`
	Type        ActionType `json:"type"`
	Platform    Platform   `json:"platform"`
	Message     string     `json:"message"`
	Emoji       string     `json:"emoji,omitempty"`
	UseCount    int        `json:"use_count"`
	SuccessRate float64    `json:"success_rate"`
	IsActive    bool       `json:"is_active"`
}
