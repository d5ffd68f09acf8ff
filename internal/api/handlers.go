// Package api exposes the read-only dashboard surface plus the mutation
// endpoints for strategies and manual job triggers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orbitlabs/growth-engine/internal/domain"
	"github.com/orbitlabs/growth-engine/internal/growth"
	"github.com/orbitlabs/growth-engine/internal/orchestrator"
	"github.com/orbitlabs/growth-engine/internal/scheduler"
	"github.com/orbitlabs/growth-engine/internal/service/campaign"
)

// Handlers carries the collaborators the HTTP layer reads from and drives.
type Handlers struct {
	campaigns *campaign.Service
	ledger    *growth.Ledger
	orch      *orchestrator.Orchestrator
	sched     *scheduler.Scheduler

	started time.Time
}

// NewHandlers wires the HTTP handlers.
func NewHandlers(campaigns *campaign.Service, ledger *growth.Ledger, orch *orchestrator.Orchestrator, sched *scheduler.Scheduler) *Handlers {
	return &Handlers{
		campaigns: campaigns,
		ledger:    ledger,
		orch:      orch,
		sched:     sched,
		started:   time.Now(),
	}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck reports liveness and uptime.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.started).String(),
	})
}

// Read-only query surface

// ListCommunities returns every micro-community.
func (h *Handlers) ListCommunities(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.ledger.Communities())
}

// ListUsers returns every user profile.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.ledger.Users())
}

// GetUser returns one user's profile.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.ledger.User(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// GetLeaderboard returns the stored snapshot for ?platform= (default "all").
func (h *Handlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("platform")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"platform":    orKey(key),
		"leaderboard": h.ledger.Leaderboard(key),
	})
}

func orKey(key string) string {
	if key == "" {
		return growth.DefaultLeaderboardKey
	}
	return key
}

// ListCampaigns returns every campaign, newest first.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := h.campaigns.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// GetCampaignStats returns the derived statistics for one campaign.
func (h *Handlers) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.campaigns.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			respondError(w, http.StatusNotFound, "campaign not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetDashboard returns the aggregate operator dashboard.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.orch.Dashboard(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// GetMetricsHistory returns the scheduler's rolling metrics window.
func (h *Handlers) GetMetricsHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sched.MetricsHistory())
}

// Mutation surface

// RunJob triggers one scheduler job by name. Unknown names come back as an
// error payload with HTTP 200 so operators can distinguish "bad job name"
// from transport failures.
func (h *Handlers) RunJob(w http.ResponseWriter, r *http.Request) {
	result := h.sched.RunJob(r.Context(), chi.URLParam(r, "name"))
	respondJSON(w, http.StatusOK, result)
}

type createStrategyRequest struct {
	Niche          string                `json:"niche"`
	TargetAudience domain.TargetCriteria `json:"target_audience"`
}

// CreateStrategy creates a growth strategy from a niche and audience profile.
func (h *Handlers) CreateStrategy(w http.ResponseWriter, r *http.Request) {
	var req createStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.orch.CreateGrowthStrategy(r.Context(), req.Niche, req.TargetAudience)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

// ListStrategies returns every strategy.
func (h *Handlers) ListStrategies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.orch.Strategies())
}

// ExecuteStrategy runs every campaign a strategy references.
func (h *Handlers) ExecuteStrategy(w http.ResponseWriter, r *http.Request) {
	report, err := h.orch.ExecuteGrowthStrategy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, orchestrator.ErrStrategyNotFound) {
			respondError(w, http.StatusNotFound, "strategy not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// OptimizeStrategy returns advisory recommendations for a strategy.
func (h *Handlers) OptimizeStrategy(w http.ResponseWriter, r *http.Request) {
	opt, err := h.orch.OptimizeStrategy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, orchestrator.ErrStrategyNotFound) {
			respondError(w, http.StatusNotFound, "strategy not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, opt)
}
