// Package growth is the gamification ledger: user profiles, communities,
// badges, XP, collaborations, and leaderboard snapshots. XP only increases,
// badge awards are idempotent, and per-user updates are serialized on the
// user's own lock so unrelated users never contend.
package growth

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

var (
	// ErrUserNotFound is returned for an unknown user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering an already-known user id.
	ErrUserExists = errors.New("user already exists")
	// ErrCommunityNotFound is returned for an unknown community id.
	ErrCommunityNotFound = errors.New("community not found")
)

// badgeXP is the fixed XP reward per badge type.
var badgeXP = map[domain.BadgeType]int{
	domain.BadgeFirstComment:   5,
	domain.BadgeWeeklyTop:      50,
	domain.BadgeCollabMaster:   25,
	domain.BadgeEngagementKing: 30,
	domain.BadgeContentCreator: 20,
}

// joinCommunityXP is granted the first time a user joins a community.
const joinCommunityXP = 10

// xpPerLevel sets how much XP advances a level.
const xpPerLevel = 100

// DefaultLeaderboardKey is the platform key used when none is given.
const DefaultLeaderboardKey = "all"

// BadgeAward describes one badge granted by the daily sweep.
type BadgeAward struct {
	UserID string           `json:"user_id"`
	Badge  domain.BadgeType `json:"badge"`
	Reason string           `json:"reason"`
}

type userState struct {
	mu      sync.Mutex
	profile domain.UserProfile
}

// Ledger holds all gamification state. Safe for concurrent use.
type Ledger struct {
	mu           sync.RWMutex // guards the maps themselves
	users        map[string]*userState
	communities  map[string]*domain.MicroCommunity
	collabs      map[string]*domain.Collaboration
	leaderboards map[string][]domain.LeaderboardEntry

	now func() time.Time
}

// NewLedger creates a ledger seeded with the default communities.
func NewLedger() *Ledger {
	l := &Ledger{
		users:        make(map[string]*userState),
		communities:  make(map[string]*domain.MicroCommunity),
		collabs:      make(map[string]*domain.Collaboration),
		leaderboards: make(map[string][]domain.LeaderboardEntry),
		now:          time.Now,
	}
	for _, c := range defaultCommunities() {
		cc := c
		l.communities[cc.ID] = &cc
	}
	return l
}

func defaultCommunities() []domain.MicroCommunity {
	return []domain.MicroCommunity{
		{
			ID:          "niche-finder-001",
			Name:        "Niche Finder Community",
			Type:        domain.CommunityNicheFinder,
			Description: "Find and validate your niche with data-driven insights",
		},
		{
			ID:          "problem-solver-001",
			Name:        "Problem Solver Community",
			Type:        domain.CommunityProblemSolver,
			Description: "Solve real problems with collaborative solutions",
		},
	}
}

// SetClock overrides the time source. Test hook.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

func (l *Ledger) user(id string) (*userState, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.users[id]
	return st, ok
}

// applyXP grants XP and recomputes the level. Caller holds st.mu.
func applyXP(st *userState, n int) {
	st.profile.XPPoints += n
	st.profile.Level = st.profile.XPPoints/xpPerLevel + 1
}

// CreateProfile registers a new user. Registration is the only way a
// profile comes into existence; profiles are never deleted.
func (l *Ledger) CreateProfile(userID, username string) (domain.UserProfile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.users[userID]; ok {
		return domain.UserProfile{}, fmt.Errorf("%w: %s", ErrUserExists, userID)
	}
	st := &userState{profile: domain.UserProfile{
		UserID:   userID,
		Username: username,
		Level:    1,
	}}
	l.users[userID] = st
	log.Printf("[GrowthLedger] Created profile for %s (%s)", username, userID)
	return st.profile, nil
}

// User returns a copy of one user's profile.
func (l *Ledger) User(userID string) (domain.UserProfile, error) {
	st, ok := l.user(userID)
	if !ok {
		return domain.UserProfile{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return cloneProfile(&st.profile), nil
}

// Users returns all profiles ordered by user id.
func (l *Ledger) Users() []domain.UserProfile {
	l.mu.RLock()
	states := make([]*userState, 0, len(l.users))
	for _, st := range l.users {
		states = append(states, st)
	}
	l.mu.RUnlock()

	out := make([]domain.UserProfile, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		out = append(out, cloneProfile(&st.profile))
		st.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func cloneProfile(p *domain.UserProfile) domain.UserProfile {
	cp := *p
	cp.Badges = append([]domain.BadgeType(nil), p.Badges...)
	cp.Communities = append([]string(nil), p.Communities...)
	return cp
}

// CreateCommunity adds a new micro-community and returns its id.
func (l *Ledger) CreateCommunity(name string, ctype domain.CommunityType, description string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: community name is required", domain.ErrConfiguration)
	}
	id := fmt.Sprintf("%s-%s", ctype, uuid.New().String()[:8])
	l.mu.Lock()
	l.communities[id] = &domain.MicroCommunity{
		ID:          id,
		Name:        name,
		Type:        ctype,
		Description: description,
		CreatedAt:   l.now().UTC(),
	}
	l.mu.Unlock()
	log.Printf("[GrowthLedger] Created community %q (%s)", name, id)
	return id, nil
}

// Community returns a copy of one community.
func (l *Ledger) Community(id string) (domain.MicroCommunity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.communities[id]
	if !ok {
		return domain.MicroCommunity{}, fmt.Errorf("%w: %s", ErrCommunityNotFound, id)
	}
	cp := *c
	cp.Members = append([]string(nil), c.Members...)
	return cp, nil
}

// Communities returns all communities ordered by id.
func (l *Ledger) Communities() []domain.MicroCommunity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.MicroCommunity, 0, len(l.communities))
	for _, c := range l.communities {
		cp := *c
		cp.Members = append([]string(nil), c.Members...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// JoinCommunity adds a user to a community. Joining twice is a no-op; the
// first join grants XP.
func (l *Ledger) JoinCommunity(userID, communityID string) error {
	st, ok := l.user(userID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	l.mu.Lock()
	c, ok := l.communities[communityID]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrCommunityNotFound, communityID)
	}
	member := false
	for _, id := range c.Members {
		if id == userID {
			member = true
			break
		}
	}
	if !member {
		c.Members = append(c.Members, userID)
	}
	l.mu.Unlock()

	if member {
		return nil
	}

	st.mu.Lock()
	if !st.profile.InCommunity(communityID) {
		st.profile.Communities = append(st.profile.Communities, communityID)
		applyXP(st, joinCommunityXP)
	}
	st.mu.Unlock()

	log.Printf("[GrowthLedger] User %s joined community %s", userID, communityID)
	return nil
}

// AwardBadge grants a badge and its XP reward exactly once. A repeat award
// reports awarded=false and changes nothing.
func (l *Ledger) AwardBadge(userID string, badge domain.BadgeType) (awarded bool, err error) {
	st, ok := l.user(userID)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.profile.HasBadge(badge) {
		return false, nil
	}
	st.profile.Badges = append(st.profile.Badges, badge)
	applyXP(st, badgeXP[badge])
	log.Printf("[GrowthLedger] Awarded %s badge to user %s", badge, userID)
	return true, nil
}

// RecordEngagement adds to a user's weekly engagement counter.
func (l *Ledger) RecordEngagement(userID string, n int) error {
	st, ok := l.user(userID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	st.mu.Lock()
	st.profile.WeeklyEngagement += n
	st.mu.Unlock()
	return nil
}

// RecordPost counts one content piece toward the user's total.
func (l *Ledger) RecordPost(userID string) error {
	st, ok := l.user(userID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	st.mu.Lock()
	st.profile.TotalPosts++
	st.mu.Unlock()
	return nil
}

// CreateCollaboration pairs two distinct users for joint content and bumps
// both collaboration counters.
func (l *Ledger) CreateCollaboration(user1ID, user2ID, platform, contentType string) (string, error) {
	if user1ID == user2ID {
		return "", fmt.Errorf("%w: a collaboration needs two distinct users", domain.ErrConfiguration)
	}
	st1, ok := l.user(user1ID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, user1ID)
	}
	st2, ok := l.user(user2ID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, user2ID)
	}

	id := "collab-" + uuid.New().String()[:8]
	l.mu.Lock()
	l.collabs[id] = &domain.Collaboration{
		ID:          id,
		User1ID:     user1ID,
		User2ID:     user2ID,
		Platform:    platform,
		ContentType: contentType,
		Status:      domain.CollabPending,
		CreatedAt:   l.now().UTC(),
	}
	l.mu.Unlock()

	// Lock in id order so two overlapping pairings cannot deadlock.
	first, second := st1, st2
	if user2ID < user1ID {
		first, second = st2, st1
	}
	first.mu.Lock()
	first.profile.CollaborationCount++
	first.mu.Unlock()
	second.mu.Lock()
	second.profile.CollaborationCount++
	second.mu.Unlock()

	log.Printf("[GrowthLedger] Created collaboration %s between %s and %s", id, user1ID, user2ID)
	return id, nil
}

// Collaborations returns all collaborations ordered by id.
func (l *Ledger) Collaborations() []domain.Collaboration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Collaboration, 0, len(l.collabs))
	for _, c := range l.collabs {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// score is the composite leaderboard score for one profile.
func score(p domain.UserProfile) int {
	return p.XPPoints + p.WeeklyEngagement*2 + p.CollaborationCount*10
}

// UpdateLeaderboard recomputes the top-10 snapshot for a platform key and
// stores it as the current leaderboard. An empty key means "all".
func (l *Ledger) UpdateLeaderboard(key string) []domain.LeaderboardEntry {
	if key == "" {
		key = DefaultLeaderboardKey
	}
	users := l.Users()

	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:             u.UserID,
			Username:           u.Username,
			Score:              score(u),
			XPPoints:           u.XPPoints,
			WeeklyEngagement:   u.WeeklyEngagement,
			CollaborationCount: u.CollaborationCount,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > 10 {
		entries = entries[:10]
	}

	l.mu.Lock()
	l.leaderboards[key] = entries
	l.mu.Unlock()
	log.Printf("[GrowthLedger] Updated leaderboard for %s (%d entries)", key, len(entries))
	return entries
}

// Leaderboard returns the stored snapshot for a platform key. An empty key
// means "all".
func (l *Ledger) Leaderboard(key string) []domain.LeaderboardEntry {
	if key == "" {
		key = DefaultLeaderboardKey
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.LeaderboardEntry(nil), l.leaderboards[key]...)
}

// ResetWeeklyEngagement zeroes every user's weekly engagement counter. The
// weekly leaderboard job calls this after snapshotting.
func (l *Ledger) ResetWeeklyEngagement() {
	l.mu.RLock()
	states := make([]*userState, 0, len(l.users))
	for _, st := range l.users {
		states = append(states, st)
	}
	l.mu.RUnlock()
	for _, st := range states {
		st.mu.Lock()
		st.profile.WeeklyEngagement = 0
		st.mu.Unlock()
	}
}

// CollabSuggestions proposes a pairing for every pair of users sharing at
// least one community, scored by the size of the shared set. Output is
// sorted by score descending, then by user ids, so repeated runs agree.
func (l *Ledger) CollabSuggestions() []domain.CollabSuggestion {
	users := l.Users()

	var out []domain.CollabSuggestion
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			shared := sharedCommunities(users[i], users[j])
			if shared == 0 {
				continue
			}
			out = append(out, domain.CollabSuggestion{
				User1ID: users[i].UserID,
				User2ID: users[j].UserID,
				Reason:  "Similar community interests",
				Score:   shared,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].User1ID != out[j].User1ID {
			return out[i].User1ID < out[j].User1ID
		}
		return out[i].User2ID < out[j].User2ID
	})
	return out
}

func sharedCommunities(a, b domain.UserProfile) int {
	set := make(map[string]bool, len(a.Communities))
	for _, id := range a.Communities {
		set[id] = true
	}
	n := 0
	for _, id := range b.Communities {
		if set[id] {
			n++
		}
	}
	return n
}

// AnalyzeCommunities computes the weekly engagement breakdown per community,
// ranked by growth score descending.
func (l *Ledger) AnalyzeCommunities() []domain.CommunityAnalysis {
	communities := l.Communities()

	out := make([]domain.CommunityAnalysis, 0, len(communities))
	for _, c := range communities {
		total := len(c.Members)
		active := 0
		for _, userID := range c.Members {
			if st, ok := l.user(userID); ok {
				st.mu.Lock()
				if st.profile.WeeklyEngagement > 0 {
					active++
				}
				st.mu.Unlock()
			}
		}
		rate := float64(active) / float64(max(total, 1))
		out = append(out, domain.CommunityAnalysis{
			CommunityID:    c.ID,
			CommunityName:  c.Name,
			TotalMembers:   total,
			ActiveMembers:  active,
			EngagementRate: rate,
			GrowthScore:    float64(total) * rate,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GrowthScore != out[j].GrowthScore {
			return out[i].GrowthScore > out[j].GrowthScore
		}
		return out[i].CommunityID < out[j].CommunityID
	})
	return out
}

// Metrics snapshots the ledger's aggregate counts. templateCount comes from
// the template store since templates live outside the ledger.
func (l *Ledger) Metrics(templateCount int) domain.EngagementMetrics {
	users := l.Users()
	var totalXP int
	for _, u := range users {
		totalXP += u.XPPoints
	}
	l.mu.RLock()
	communities, collabs := len(l.communities), len(l.collabs)
	l.mu.RUnlock()
	return domain.EngagementMetrics{
		TotalUsers:          len(users),
		TotalCommunities:    communities,
		TotalCollaborations: collabs,
		TotalTemplates:      templateCount,
		AvgXPPerUser:        float64(totalXP) / float64(max(len(users), 1)),
		Timestamp:           l.now().UTC(),
	}
}

// BadgeSweep awards every badge whose criterion a user newly satisfies:
// any weekly engagement earns first_comment, 5+ posts earns content_creator,
// and 3+ collaborations earns collab_master. Repeat sweeps award nothing new.
func (l *Ledger) BadgeSweep() []BadgeAward {
	var awards []BadgeAward
	for _, u := range l.Users() {
		for _, check := range []struct {
			badge  domain.BadgeType
			met    bool
			reason string
		}{
			{domain.BadgeFirstComment, u.WeeklyEngagement > 0, "First engagement of the week"},
			{domain.BadgeContentCreator, u.TotalPosts >= 5, "Created 5+ content pieces"},
			{domain.BadgeCollabMaster, u.CollaborationCount >= 3, "Completed 3+ collaborations"},
		} {
			if !check.met || u.HasBadge(check.badge) {
				continue
			}
			awarded, err := l.AwardBadge(u.UserID, check.badge)
			if err != nil || !awarded {
				continue
			}
			awards = append(awards, BadgeAward{UserID: u.UserID, Badge: check.badge, Reason: check.reason})
		}
	}
	if len(awards) > 0 {
		log.Printf("[GrowthLedger] Badge sweep awarded %d badges", len(awards))
	}
	return awards
}
