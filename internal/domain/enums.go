package domain

import "fmt"

// Platform enumerates the social platforms the automation layer can drive.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformYouTube   Platform = "youtube"
)

// ParsePlatform validates a platform identifier supplied at creation time.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformInstagram, PlatformTwitter, PlatformTikTok, PlatformLinkedIn, PlatformYouTube:
		return Platform(s), nil
	}
	return "", fmt.Errorf("%w: unknown platform %q", ErrConfiguration, s)
}

// ActionType enumerates the operations an action executor can perform.
type ActionType string

const (
	ActionFollow    ActionType = "follow"
	ActionUnfollow  ActionType = "unfollow"
	ActionLike      ActionType = "like"
	ActionComment   ActionType = "comment"
	ActionDM        ActionType = "dm"
	ActionStoryView ActionType = "story_view"
)

// ParseActionType validates an action type identifier.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionFollow, ActionUnfollow, ActionLike, ActionComment, ActionDM, ActionStoryView:
		return ActionType(s), nil
	}
	return "", fmt.Errorf("%w: unknown action type %q", ErrConfiguration, s)
}

// IsEngagement reports whether the action counts toward a campaign's
// engagement total rather than its follow/unfollow counters.
func (a ActionType) IsEngagement() bool {
	switch a {
	case ActionLike, ActionComment, ActionDM, ActionStoryView:
		return true
	}
	return false
}

// TargetingType enumerates discovery strategies for follow campaigns.
type TargetingType string

const (
	TargetingHashtag             TargetingType = "hashtag"
	TargetingCompetitorFollowers TargetingType = "competitor_followers"
	TargetingLocation            TargetingType = "location"
	TargetingInterests           TargetingType = "interests"
	TargetingEngagementBased     TargetingType = "engagement_based"
	TargetingNiche               TargetingType = "niche"
)

// ParseTargetingType validates a targeting strategy identifier.
func ParseTargetingType(s string) (TargetingType, error) {
	switch TargetingType(s) {
	case TargetingHashtag, TargetingCompetitorFollowers, TargetingLocation,
		TargetingInterests, TargetingEngagementBased, TargetingNiche:
		return TargetingType(s), nil
	}
	return "", fmt.Errorf("%w: unknown targeting type %q", ErrConfiguration, s)
}

// CampaignType distinguishes follow campaigns from engagement campaigns.
type CampaignType string

const (
	CampaignFollow     CampaignType = "follow"
	CampaignEngagement CampaignType = "engagement"
)

// CommunityType enumerates the themes a micro-community can have.
type CommunityType string

const (
	CommunityNicheFinder   CommunityType = "niche_finder"
	CommunityProblemSolver CommunityType = "problem_solver"
	CommunityCollaboration CommunityType = "collaboration"
	CommunityEngagement    CommunityType = "engagement"
)

// ParseCommunityType validates a community type identifier.
func ParseCommunityType(s string) (CommunityType, error) {
	switch CommunityType(s) {
	case CommunityNicheFinder, CommunityProblemSolver, CommunityCollaboration, CommunityEngagement:
		return CommunityType(s), nil
	}
	return "", fmt.Errorf("%w: unknown community type %q", ErrConfiguration, s)
}

// BadgeType enumerates the one-time achievement badges a user can earn.
type BadgeType string

const (
	BadgeFirstComment   BadgeType = "first_comment"
	BadgeWeeklyTop      BadgeType = "weekly_top"
	BadgeCollabMaster   BadgeType = "collab_master"
	BadgeEngagementKing BadgeType = "engagement_king"
	BadgeContentCreator BadgeType = "content_creator"
)

// ParseBadgeType validates a badge type identifier.
func ParseBadgeType(s string) (BadgeType, error) {
	switch BadgeType(s) {
	case BadgeFirstComment, BadgeWeeklyTop, BadgeCollabMaster, BadgeEngagementKing, BadgeContentCreator:
		return BadgeType(s), nil
	}
	return "", fmt.Errorf("%w: unknown badge type %q", ErrConfiguration, s)
}

// Mode enumerates the operating modes that trade growth speed against
// account risk. Each mode pins a full settings bundle in the safety package.
type Mode string

const (
	ModeAggressive   Mode = "aggressive"
	ModeModerate     Mode = "moderate"
	ModeConservative Mode = "conservative"
	ModeSafe         Mode = "safe"
)

// ParseMode validates a mode identifier.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAggressive, ModeModerate, ModeConservative, ModeSafe:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrConfiguration, s)
}

// CollaborationStatus enumerates the lifecycle of a collaboration.
type CollaborationStatus string

const (
	CollabPending   CollaborationStatus = "pending"
	CollabActive    CollaborationStatus = "active"
	CollabCompleted CollaborationStatus = "completed"
)
