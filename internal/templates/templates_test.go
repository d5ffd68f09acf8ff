package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlabs/growth-engine/internal/domain"
)

func TestDefaultsSeeded(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 7, s.Len())

	tpl, ok := s.Select(domain.ActionComment, domain.PlatformInstagram)
	require.True(t, ok)
	assert.Equal(t, domain.ActionComment, tpl.Type)
}

func TestRenderBindings(t *testing.T) {
	s := NewStore()
	id, err := s.Create(domain.ActionDM, domain.PlatformTwitter,
		"Hey {{ username }}, loving the {{ niche }} posts!", "")
	require.NoError(t, err)

	out, err := s.Render(id, map[string]any{"username": "alice", "niche": "fitness"})
	require.NoError(t, err)
	assert.Equal(t, "Hey alice, loving the fitness posts!", out)
}

func TestRenderEmptyMessage(t *testing.T) {
	s := NewStore()
	out, err := s.Render("like-generic", map[string]any{"username": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestCreateRejectsBadLiquid(t *testing.T) {
	s := NewStore()
	_, err := s.Create(domain.ActionComment, domain.PlatformInstagram, "{% broken", "")
	assert.Error(t, err)
}

func TestRecordUseRunningRate(t *testing.T) {
	s := NewStore()
	id, err := s.Create(domain.ActionComment, domain.PlatformTwitter, "hi", "")
	require.NoError(t, err)

	require.NoError(t, s.RecordUse(id, true))
	require.NoError(t, s.RecordUse(id, true))
	require.NoError(t, s.RecordUse(id, false))
	require.NoError(t, s.RecordUse(id, true))

	tpl, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 4, tpl.UseCount)
	assert.InDelta(t, 0.75, tpl.SuccessRate, 1e-9)
}

func TestRecordUseUnknownTemplate(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.RecordUse("nope", true), ErrNotFound)
}

func TestSelectPrefersSuccessRate(t *testing.T) {
	s := NewStore()
	a, err := s.Create(domain.ActionComment, domain.PlatformTikTok, "first", "")
	require.NoError(t, err)
	b, err := s.Create(domain.ActionComment, domain.PlatformTikTok, "second", "")
	require.NoError(t, err)

	require.NoError(t, s.RecordUse(a, false))
	require.NoError(t, s.RecordUse(b, true))

	tpl, ok := s.Select(domain.ActionComment, domain.PlatformTikTok)
	require.True(t, ok)
	assert.Equal(t, b, tpl.ID)
}
