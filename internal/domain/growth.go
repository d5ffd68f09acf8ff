package domain

import "time"

// UserProfile is a gamified participant. XP only ever increases, and each
// badge appears at most once.
type UserProfile struct {
	UserID             string      `json:"user_id"`
	Username           string      `json:"username"`
	XPPoints           int         `json:"xp_points"`
	Level              int         `json:"level"`
	Badges             []BadgeType `json:"badges"`
	Communities        []string    `json:"communities"`
	WeeklyEngagement   int         `json:"weekly_engagement"`
	TotalPosts         int         `json:"total_posts"`
	CollaborationCount int         `json:"collaboration_count"`
}

// HasBadge reports whether the badge has already been awarded.
func (u *UserProfile) HasBadge(b BadgeType) bool {
	for _, have := range u.Badges {
		if have == b {
			return true
		}
	}
	return false
}

// InCommunity reports whether the user has joined the given community.
func (u *UserProfile) InCommunity(communityID string) bool {
	for _, id := range u.Communities {
		if id == communityID {
			return true
		}
	}
	return false
}

// MicroCommunity is a themed group users join. Members hold no duplicates.
type MicroCommunity struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Type            CommunityType `json:"type"`
	Description     string        `json:"description"`
	Members         []string      `json:"members"`
	EngagementScore float64       `json:"engagement_score"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Collaboration pairs two distinct users for joint content.
type Collaboration struct {
	ID          string              `json:"id"`
	User1ID     string              `json:"user1_id"`
	User2ID     string              `json:"user2_id"`
	Platform    string              `json:"platform"`
	ContentType string              `json:"content_type"`
	Status      CollaborationStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}

// LeaderboardEntry is one row of a computed leaderboard snapshot.
// Score = xp_points + weekly_engagement*2 + collaboration_count*10.
type LeaderboardEntry struct {
	UserID             string `json:"user_id"`
	Username           string `json:"username"`
	Score              int    `json:"score"`
	XPPoints           int    `json:"xp_points"`
	WeeklyEngagement   int    `json:"weekly_engagement"`
	CollaborationCount int    `json:"collaboration_count"`
}

// CollabSuggestion proposes a pairing of two users who share communities.
// Score is the size of the shared-community set.
type CollabSuggestion struct {
	User1ID string `json:"user1_id"`
	User2ID string `json:"user2_id"`
	Reason  string `json:"reason"`
	Score   int    `json:"score"`
}

// CommunityAnalysis is the weekly per-community engagement breakdown.
type CommunityAnalysis struct {
	CommunityID    string  `json:"community_id"`
	CommunityName  string  `json:"community_name"`
	TotalMembers   int     `json:"total_members"`
	ActiveMembers  int     `json:"active_members"`
	EngagementRate float64 `json:"engagement_rate"`
	GrowthScore    float64 `json:"growth_score"`
}

// EngagementMetrics is the hourly aggregate snapshot logged by the
// metrics job.
type EngagementMetrics struct {
	TotalUsers          int       `json:"total_users"`
	TotalCommunities    int       `json:"total_communities"`
	TotalCollaborations int       `json:"total_collaborations"`
	TotalTemplates      int       `json:"total_templates"`
	AvgXPPerUser        float64   `json:"avg_xp_per_user"`
	Timestamp           time.Time `json:"timestamp"`
}
