package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlabs/growth-engine/internal/domain"
	"github.com/orbitlabs/growth-engine/internal/growth"
	"github.com/orbitlabs/growth-engine/internal/orchestrator"
	"github.com/orbitlabs/growth-engine/internal/platform"
	"github.com/orbitlabs/growth-engine/internal/quota"
	"github.com/orbitlabs/growth-engine/internal/repository/memory"
	"github.com/orbitlabs/growth-engine/internal/safety"
	"github.com/orbitlabs/growth-engine/internal/scheduler"
	"github.com/orbitlabs/growth-engine/internal/service/campaign"
	"github.com/orbitlabs/growth-engine/internal/storage"
	"github.com/orbitlabs/growth-engine/internal/target"
	"github.com/orbitlabs/growth-engine/internal/templates"
)

type stubDiscovery struct{}

func (stubDiscovery) FindCandidates(_ context.Context, p domain.Platform, _ domain.TargetingType, _ domain.TargetCriteria) ([]domain.TargetAccount, error) {
	return []domain.TargetAccount{
		{Username: "creator_" + string(p), Platform: p, FollowerCount: 2000,
			EngagementRate: 0.05, LastActivity: time.Now().Add(-time.Hour)},
	}, nil
}

func newTestHandler(t *testing.T) (http.Handler, *growth.Ledger) {
	t.Helper()
	platforms := []domain.Platform{domain.PlatformInstagram}
	registry := platform.NewSimRegistry(platforms, 1)
	d, _ := registry.Driver(domain.PlatformInstagram)
	d.(*platform.Simulator).SetOutcome(func(domain.Action) bool { return true })

	ledger := growth.NewLedger()
	tmpl := templates.NewStore()
	monitor := safety.NewMonitor(platforms)
	svc := campaign.NewService(
		memory.NewCampaignRepo(), quota.NewMemoryManager(nil), target.NewScorer(),
		stubDiscovery{}, registry, tmpl, monitor, domain.ModeModerate, false,
	)
	orch := orchestrator.New(svc, ledger, monitor, platforms, 0.2)
	sched := scheduler.New(ledger, tmpl, svc, storage.New(t.TempDir()))

	return SetupRoutes(NewHandlers(svc, ledger, orch, sched)), ledger
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestListCommunities(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/communities", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var communities []domain.MicroCommunity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &communities))
	require.Len(t, communities, 2)
	assert.Equal(t, "niche-finder-001", communities[0].ID)
}

func TestUserEndpoints(t *testing.T) {
	h, ledger := newTestHandler(t)
	_, err := ledger.CreateProfile("u1", "alice")
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []domain.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLeaderboardDefaultsKey(t *testing.T) {
	h, ledger := newTestHandler(t)
	_, _ = ledger.CreateProfile("u1", "alice")
	ledger.UpdateLeaderboard("all")

	rec := doJSON(t, h, http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Platform    string                    `json:"platform"`
		Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "all", body.Platform)
	require.Len(t, body.Leaderboard, 1)
	assert.Equal(t, "u1", body.Leaderboard[0].UserID)
}

func TestRunJobEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/jobs/metrics/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result scheduler.JobResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, scheduler.StatusSuccess, result.Status)
	assert.Equal(t, "metrics", result.Job)

	// Unknown names are an error payload, not a transport failure.
	rec = doJSON(t, h, http.MethodPost, "/api/jobs/defrag/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, scheduler.StatusError, result.Status)
	assert.Equal(t, "defrag", result.Job)
}

func TestStrategyLifecycleOverHTTP(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/strategies", createStrategyRequest{Niche: "fitness"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var s orchestrator.Strategy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	require.NotEmpty(t, s.ID)

	rec = doJSON(t, h, http.MethodPost, "/api/strategies/"+s.ID+"/execute", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report orchestrator.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.GrowthMetrics.TotalFollows)

	rec = doJSON(t, h, http.MethodPost, "/api/strategies/"+s.ID+"/optimize", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/campaigns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var campaigns []domain.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campaigns))
	assert.Len(t, campaigns, 2)

	rec = doJSON(t, h, http.MethodGet, "/api/campaigns/"+campaigns[0].ID+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStrategyErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/strategies", createStrategyRequest{Niche: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/strategies/missing/execute", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/strategies/missing/optimize", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/campaigns/missing/stats", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var d orchestrator.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, domain.ModeModerate, d.Config.Mode)
	assert.Equal(t, 100.0, d.Stats.AccountHealthScore)
}
