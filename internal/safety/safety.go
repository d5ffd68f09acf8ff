// Package safety tracks per-platform account health and pins the operating
// mode's limit and pacing bundles. Health only decreases via penalty events
// folded in once per cycle; recovering an account means running gentler, not
// editing the score.
package safety

import (
	"sync"
	"time"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// Settings is the bundle of limits and pacing a mode pins.
type Settings struct {
	DailyFollowLimit     int
	DailyUnfollowLimit   int
	DailyEngagementLimit int
	EngagementWindowDays int
	DelayMin             time.Duration
	DelayMax             time.Duration
	SafetyThreshold      float64
}

var modeSettings = map[domain.Mode]Settings{
	domain.ModeAggressive: {
		DailyFollowLimit:     100,
		DailyUnfollowLimit:   80,
		DailyEngagementLimit: 200,
		EngagementWindowDays: 2,
		DelayMin:             20 * time.Second,
		DelayMax:             60 * time.Second,
		SafetyThreshold:      0.7,
	},
	domain.ModeModerate: {
		DailyFollowLimit:     50,
		DailyUnfollowLimit:   40,
		DailyEngagementLimit: 100,
		EngagementWindowDays: 3,
		DelayMin:             30 * time.Second,
		DelayMax:             90 * time.Second,
		SafetyThreshold:      0.8,
	},
	domain.ModeConservative: {
		DailyFollowLimit:     25,
		DailyUnfollowLimit:   20,
		DailyEngagementLimit: 50,
		EngagementWindowDays: 5,
		DelayMin:             45 * time.Second,
		DelayMax:             120 * time.Second,
		SafetyThreshold:      0.9,
	},
	domain.ModeSafe: {
		DailyFollowLimit:     10,
		DailyUnfollowLimit:   8,
		DailyEngagementLimit: 25,
		EngagementWindowDays: 7,
		DelayMin:             60 * time.Second,
		DelayMax:             180 * time.Second,
		SafetyThreshold:      0.95,
	},
}

// SettingsFor returns the settings bundle for a mode. Unknown modes fall
// back to Moderate.
func SettingsFor(mode domain.Mode) Settings {
	if s, ok := modeSettings[mode]; ok {
		return s
	}
	return modeSettings[domain.ModeModerate]
}

// Downgrade returns the next mode toward Safe.
func Downgrade(mode domain.Mode) domain.Mode {
	switch mode {
	case domain.ModeAggressive:
		return domain.ModeModerate
	case domain.ModeModerate:
		return domain.ModeConservative
	default:
		return domain.ModeSafe
	}
}

// Monitor maintains one SafetyRecord per platform. Each platform carries
// its own lock so concurrent campaigns on different platforms never
// serialize on each other.
type Monitor struct {
	mu        sync.RWMutex // guards the platforms map only
	platforms map[domain.Platform]*platformState
}

type platformState struct {
	mu  sync.Mutex
	rec domain.SafetyRecord
}

// NewMonitor creates a monitor with full health for each platform.
func NewMonitor(platforms []domain.Platform) *Monitor {
	m := &Monitor{platforms: make(map[domain.Platform]*platformState, len(platforms))}
	for _, p := range platforms {
		m.platforms[p] = &platformState{rec: domain.SafetyRecord{
			Platform:    p,
			HealthScore: 100,
		}}
	}
	return m
}

func (m *Monitor) state(p domain.Platform) *platformState {
	m.mu.RLock()
	st, ok := m.platforms[p]
	m.mu.RUnlock()
	if ok {
		return st
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok = m.platforms[p]; ok {
		return st
	}
	st = &platformState{rec: domain.SafetyRecord{Platform: p, HealthScore: 100}}
	m.platforms[p] = st
	return st
}

// RecordAction counts one executed action toward the platform's daily total.
func (m *Monitor) RecordAction(p domain.Platform) {
	st := m.state(p)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.rec.DailyActions++
	now := time.Now()
	st.rec.LastAction = &now
}

// RecordRateLimitHit counts one quota denial against the platform.
func (m *Monitor) RecordRateLimitHit(p domain.Platform) {
	st := m.state(p)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.rec.RateLimitHits++
}

// RunCycle folds the period's activity into each platform's health score
// and resets the daily action counter. dailyFollowLimit is the active
// mode's follow limit; running above 80% of it is penalized.
func (m *Monitor) RunCycle(dailyFollowLimit int) map[domain.Platform]domain.SafetyRecord {
	out := make(map[domain.Platform]domain.SafetyRecord)
	for _, p := range m.Platforms() {
		st := m.state(p)
		st.mu.Lock()
		if float64(st.rec.DailyActions) > 0.8*float64(dailyFollowLimit) {
			st.rec.HealthScore = max(st.rec.HealthScore-5, 0)
			st.rec.Warnings = append(st.rec.Warnings, "High daily action count")
		}
		if st.rec.RateLimitHits > 0 {
			st.rec.HealthScore = max(st.rec.HealthScore-10, 0)
			st.rec.Warnings = append(st.rec.Warnings, "Rate limit exceeded")
		}
		st.rec.DailyActions = 0
		st.rec.RateLimitHits = 0
		out[p] = st.rec
		st.mu.Unlock()
	}
	return out
}

// Record returns a copy of one platform's safety record.
func (m *Monitor) Record(p domain.Platform) domain.SafetyRecord {
	st := m.state(p)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.rec
}

// Platforms lists the tracked platform identifiers.
func (m *Monitor) Platforms() []domain.Platform {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Platform, 0, len(m.platforms))
	for p := range m.platforms {
		out = append(out, p)
	}
	return out
}

// Records returns a copy of every platform's safety record.
func (m *Monitor) Records() map[domain.Platform]domain.SafetyRecord {
	out := make(map[domain.Platform]domain.SafetyRecord)
	for _, p := range m.Platforms() {
		out[p] = m.Record(p)
	}
	return out
}

// AverageHealth returns the mean health score across tracked platforms,
// or 100 when nothing is tracked yet.
func (m *Monitor) AverageHealth() float64 {
	platforms := m.Platforms()
	if len(platforms) == 0 {
		return 100
	}
	var total float64
	for _, p := range platforms {
		total += m.Record(p).HealthScore
	}
	return total / float64(len(platforms))
}
