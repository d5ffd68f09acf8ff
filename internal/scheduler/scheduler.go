// Package scheduler runs the fixed catalog of periodic maintenance jobs:
// leaderboard refresh, collaboration suggestions, metrics snapshots, content
// scheduling, community analysis, badge awards, and the deferred-unfollow
// sweep. Handlers are fault-isolated: one failing job never stops the loop
// or the other jobs.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/orbitlabs/growth-engine/internal/domain"
	"github.com/orbitlabs/growth-engine/internal/growth"
	"github.com/orbitlabs/growth-engine/internal/service/campaign"
	"github.com/orbitlabs/growth-engine/internal/storage"
	"github.com/orbitlabs/growth-engine/internal/templates"
)

// JobResult is the outcome of a manual job trigger. Unknown job names yield
// an error result rather than a failure of the trigger surface itself.
type JobResult struct {
	Status string `json:"status"`
	Job    string `json:"job"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Job names, as accepted by RunJob.
const (
	JobLeaderboard       = "leaderboard"
	JobCollabSuggestions = "collab_suggestions"
	JobMetrics           = "metrics"
	JobContentScheduling = "content_scheduling"
	JobCommunityAnalysis = "community_analysis"
	JobBadgeAwards       = "badge_awards"
	JobUnfollowSweep     = "unfollow_sweep"
)

// metricsHistorySize caps the rolling in-memory metrics window.
const metricsHistorySize = 24

type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) (any, error)
}

// Scheduler drives the job catalog on fixed cadences and exposes manual
// triggering by name.
type Scheduler struct {
	ledger    *growth.Ledger
	templates *templates.Store
	campaigns *campaign.Service
	store     *storage.Store

	jobs  map[string]*job
	order []string

	mu      sync.Mutex
	history []domain.EngagementMetrics
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	now func() time.Time
}

// New creates a scheduler over the given collaborators with the default
// job catalog.
func New(ledger *growth.Ledger, tmpl *templates.Store, campaigns *campaign.Service, store *storage.Store) *Scheduler {
	s := &Scheduler{
		ledger:    ledger,
		templates: tmpl,
		campaigns: campaigns,
		store:     store,
		jobs:      make(map[string]*job),
		now:       time.Now,
	}
	s.register(JobLeaderboard, 7*24*time.Hour, s.runLeaderboard)
	s.register(JobCollabSuggestions, 24*time.Hour, s.runCollabSuggestions)
	s.register(JobMetrics, time.Hour, s.runMetrics)
	s.register(JobContentScheduling, 24*time.Hour, s.runContentScheduling)
	s.register(JobCommunityAnalysis, 7*24*time.Hour, s.runCommunityAnalysis)
	s.register(JobBadgeAwards, 24*time.Hour, s.runBadgeAwards)
	s.register(JobUnfollowSweep, time.Hour, s.runUnfollowSweep)
	return s
}

func (s *Scheduler) register(name string, interval time.Duration, run func(ctx context.Context) (any, error)) {
	s.jobs[name] = &job{name: name, interval: interval, run: run}
	s.order = append(s.order, name)
}

// SetClock overrides the time source. Test hook.
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// JobNames lists the catalog in registration order.
func (s *Scheduler) JobNames() []string {
	return append([]string(nil), s.order...)
}

// Start launches one ticker goroutine per job.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	log.Printf("[Scheduler] Starting %d jobs", len(s.jobs))
	for _, name := range s.order {
		j := s.jobs[name]
		s.wg.Add(1)
		go s.jobLoop(j)
	}
	return nil
}

// Stop cancels the job loops and waits for in-flight handlers to return.
// Cancellation never interrupts a single in-flight action.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Printf("[Scheduler] Stopping...")
	s.cancel()
	s.wg.Wait()
	log.Printf("[Scheduler] Stopped")
}

func (s *Scheduler) jobLoop(j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(s.ctx, j)
		}
	}
}

// execute runs one job with fault isolation: panics and errors are logged
// against the job name and swallowed.
func (s *Scheduler) execute(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
			log.Printf("[Scheduler] Job %s panicked: %v", j.name, r)
		}
	}()

	record, err := j.run(ctx)
	if err != nil {
		log.Printf("[Scheduler] Job %s failed: %v", j.name, err)
		return err
	}
	if record != nil {
		if err := s.store.AppendRecord(j.name, s.now(), record); err != nil {
			log.Printf("[Scheduler] Job %s: persist record: %v", j.name, err)
			return err
		}
	}
	return nil
}

// RunJob triggers one job by name right now. Unknown names return an error
// result, not an error.
func (s *Scheduler) RunJob(ctx context.Context, name string) JobResult {
	j, ok := s.jobs[name]
	if !ok {
		return JobResult{Status: StatusError, Job: name, Error: "unknown job"}
	}
	log.Printf("[Scheduler] Manual trigger: %s", name)
	if err := s.execute(ctx, j); err != nil {
		return JobResult{Status: StatusError, Job: name, Error: err.Error()}
	}
	return JobResult{Status: StatusSuccess, Job: name}
}

// MetricsHistory returns the rolling window of hourly metrics snapshots,
// oldest first, capped at the last 24 entries.
func (s *Scheduler) MetricsHistory() []domain.EngagementMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.EngagementMetrics(nil), s.history...)
}

type leaderboardRecord struct {
	Timestamp   time.Time                 `json:"timestamp"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	Type        string                    `json:"type"`
}

// runLeaderboard refreshes the snapshot, crowns rank 1 with the weekly-top
// badge, then zeroes every user's weekly engagement.
func (s *Scheduler) runLeaderboard(context.Context) (any, error) {
	entries := s.ledger.UpdateLeaderboard(growth.DefaultLeaderboardKey)
	if len(entries) > 0 {
		if _, err := s.ledger.AwardBadge(entries[0].UserID, domain.BadgeWeeklyTop); err != nil {
			return nil, fmt.Errorf("award weekly top: %w", err)
		}
	}
	s.ledger.ResetWeeklyEngagement()
	return leaderboardRecord{Timestamp: s.now().UTC(), Leaderboard: entries, Type: "weekly"}, nil
}

type suggestionsRecord struct {
	Timestamp      time.Time                 `json:"timestamp"`
	Suggestions    []domain.CollabSuggestion `json:"suggestions"`
	TotalGenerated int                       `json:"total_generated"`
}

// runCollabSuggestions keeps suggestions with at least two shared
// communities, top 10 by score.
func (s *Scheduler) runCollabSuggestions(context.Context) (any, error) {
	all := s.ledger.CollabSuggestions()
	kept := make([]domain.CollabSuggestion, 0, len(all))
	for _, sg := range all {
		if sg.Score >= 2 {
			kept = append(kept, sg)
		}
	}
	if len(kept) > 10 {
		kept = kept[:10]
	}
	return suggestionsRecord{
		Timestamp:      s.now().UTC(),
		Suggestions:    kept,
		TotalGenerated: len(all),
	}, nil
}

func (s *Scheduler) runMetrics(context.Context) (any, error) {
	m := s.ledger.Metrics(s.templates.Len())
	s.mu.Lock()
	s.history = append(s.history, m)
	if len(s.history) > metricsHistorySize {
		s.history = s.history[len(s.history)-metricsHistorySize:]
	}
	s.mu.Unlock()
	return m, nil
}

type scheduledContent struct {
	TemplateID  string    `json:"template_id"`
	Type        string    `json:"type"`
	UseCount    int       `json:"use_count"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type contentRecord struct {
	Timestamp time.Time          `json:"timestamp"`
	Scheduled []scheduledContent `json:"scheduled"`
	Total     int                `json:"total"`
}

// runContentScheduling queues the five most-used templates for posting two
// hours out.
func (s *Scheduler) runContentScheduling(context.Context) (any, error) {
	popular := s.templates.List()
	if len(popular) > 5 {
		popular = popular[:5]
	}
	now := s.now().UTC()
	scheduled := make([]scheduledContent, 0, len(popular))
	for _, t := range popular {
		scheduled = append(scheduled, scheduledContent{
			TemplateID:  t.ID,
			Type:        string(t.Type),
			UseCount:    t.UseCount,
			ScheduledAt: now.Add(2 * time.Hour),
		})
	}
	return contentRecord{Timestamp: now, Scheduled: scheduled, Total: len(scheduled)}, nil
}

type analysisRecord struct {
	Timestamp  time.Time                  `json:"timestamp"`
	Analysis   []domain.CommunityAnalysis `json:"community_analysis"`
	TopGrowing *domain.CommunityAnalysis  `json:"top_growing_community,omitempty"`
}

func (s *Scheduler) runCommunityAnalysis(context.Context) (any, error) {
	analysis := s.ledger.AnalyzeCommunities()
	rec := analysisRecord{Timestamp: s.now().UTC(), Analysis: analysis}
	if len(analysis) > 0 {
		rec.TopGrowing = &analysis[0]
	}
	return rec, nil
}

type badgeRecord struct {
	Timestamp   time.Time           `json:"timestamp"`
	AwardsGiven []growth.BadgeAward `json:"awards_given"`
	TotalAwards int                 `json:"total_awards"`
}

func (s *Scheduler) runBadgeAwards(context.Context) (any, error) {
	awards := s.ledger.BadgeSweep()
	return badgeRecord{Timestamp: s.now().UTC(), AwardsGiven: awards, TotalAwards: len(awards)}, nil
}

type unfollowRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Executed  int       `json:"executed"`
	Pending   int       `json:"pending"`
}

func (s *Scheduler) runUnfollowSweep(ctx context.Context) (any, error) {
	executed, err := s.campaigns.RunDeferredUnfollows(ctx)
	if err != nil {
		return nil, fmt.Errorf("unfollow sweep: %w", err)
	}
	return unfollowRecord{
		Timestamp: s.now().UTC(),
		Executed:  executed,
		Pending:   s.campaigns.PendingUnfollows(),
	}, nil
}
