// Package templates manages reusable engagement messages. Messages are
// Liquid templates rendered against per-target bindings, and every use
// feeds a running success-rate estimate that campaign optimization reads.
package templates

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/osteele/liquid"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

// ErrNotFound is returned for an unknown template id.
var ErrNotFound = errors.New("template not found")

// Store holds engagement templates. Safe for concurrent use.
type Store struct {
	engine *liquid.Engine

	mu        sync.RWMutex
	templates map[string]*domain.EngagementTemplate
}

// NewStore creates a store seeded with the default template catalog.
func NewStore() *Store {
	s := &Store{
		engine:    liquid.NewEngine(),
		templates: make(map[string]*domain.EngagementTemplate),
	}
	for _, t := range defaultTemplates() {
		tt := t
		s.templates[tt.ID] = &tt
	}
	return s
}

func defaultTemplates() []domain.EngagementTemplate {
	return []domain.EngagementTemplate{
		{ID: "like-generic", Type: domain.ActionLike, Platform: domain.PlatformInstagram, Message: "", IsActive: true},
		{ID: "comment-generic", Type: domain.ActionComment, Platform: domain.PlatformInstagram, Message: "Great content, {{ username }}!", IsActive: true},
		{ID: "comment-question", Type: domain.ActionComment, Platform: domain.PlatformInstagram, Message: "What do you think about this?", IsActive: true},
		{ID: "comment-compliment", Type: domain.ActionComment, Platform: domain.PlatformInstagram, Message: "Amazing work!", IsActive: true},
		{ID: "dm-greeting", Type: domain.ActionDM, Platform: domain.PlatformInstagram, Message: "Hey {{ username }}! I love your content. Would love to connect!", IsActive: true},
		{ID: "dm-collab", Type: domain.ActionDM, Platform: domain.PlatformInstagram, Message: "Hi {{ username }}! I think we could create some great {{ niche }} content together. Interested?", IsActive: true},
		{ID: "story-view", Type: domain.ActionStoryView, Platform: domain.PlatformInstagram, Message: "", IsActive: true},
	}
}

// Create validates the Liquid message and adds a new template.
func (s *Store) Create(actionType domain.ActionType, platform domain.Platform, message, emoji string) (string, error) {
	if _, err := s.engine.ParseString(message); err != nil {
		return "", fmt.Errorf("parse template message: %w", err)
	}

	id := fmt.Sprintf("template-%s-%s-%s", actionType, platform, uuid.New().String()[:8])
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[id] = &domain.EngagementTemplate{
		ID:       id,
		Type:     actionType,
		Platform: platform,
		Message:  message,
		Emoji:    emoji,
		IsActive: true,
	}
	return id, nil
}

// Get returns a copy of one template.
func (s *Store) Get(id string) (domain.EngagementTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return domain.EngagementTemplate{}, ErrNotFound
	}
	return *t, nil
}

// Select picks the active template for an (action type, platform) pair,
// preferring the highest success rate, then most used, then id order so the
// choice is stable.
func (s *Store) Select(actionType domain.ActionType, platform domain.Platform) (domain.EngagementTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*domain.EngagementTemplate
	for _, t := range s.templates {
		if t.IsActive && t.Type == actionType && t.Platform == platform {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return domain.EngagementTemplate{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].SuccessRate != candidates[j].SuccessRate {
			return candidates[i].SuccessRate > candidates[j].SuccessRate
		}
		if candidates[i].UseCount != candidates[j].UseCount {
			return candidates[i].UseCount > candidates[j].UseCount
		}
		return candidates[i].ID < candidates[j].ID
	})
	return *candidates[0], true
}

// Render renders a template's message against the given bindings.
func (s *Store) Render(id string, bindings map[string]any) (string, error) {
	t, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if t.Message == "" {
		return "", nil
	}
	out, err := s.engine.ParseAndRenderString(t.Message, bindings)
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", id, err)
	}
	return out, nil
}

// RecordUse increments the usage counter and folds the outcome into the
// running success rate: new = (old*(n-1) + outcome) / n.
func (s *Store) RecordUse(id string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return ErrNotFound
	}
	t.UseCount++
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	t.SuccessRate = (t.SuccessRate*float64(t.UseCount-1) + outcome) / float64(t.UseCount)
	return nil
}

// List returns all templates ordered by descending use count.
func (s *Store) List() []domain.EngagementTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.EngagementTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UseCount != out[j].UseCount {
			return out[i].UseCount > out[j].UseCount
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len reports the number of stored templates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}
