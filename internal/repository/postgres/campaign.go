// Package postgres provides PostgreSQL-backed repositories for multi-node
// deployments. Schema migrations live in scripts/.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orbitlabs/growth-engine/internal/domain"
	"github.com/orbitlabs/growth-engine/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var engagementTypes, criteria []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, type, platform, COALESCE(targeting_type,''),
		       engagement_types, target_criteria,
		       daily_follow_limit, daily_unfollow_limit, daily_engagement_limit,
		       engagement_window_days, is_active,
		       total_follows, total_unfollows, total_engagements, created_at
		FROM growth_campaigns
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Name, &c.Type, &c.Platform, &c.TargetingType,
		&engagementTypes, &criteria,
		&c.DailyFollowLimit, &c.DailyUnfollowLimit, &c.DailyEngagementLimit,
		&c.EngagementWindowDays, &c.IsActive,
		&c.TotalFollows, &c.TotalUnfollows, &c.TotalEngagements, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if err := decodeJSON(engagementTypes, &c.EngagementTypes); err != nil {
		return nil, fmt.Errorf("decode engagement types: %w", err)
	}
	if err := decodeJSON(criteria, &c.TargetCriteria); err != nil {
		return nil, fmt.Errorf("decode target criteria: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, platform, COALESCE(targeting_type,''),
		       engagement_types, target_criteria,
		       daily_follow_limit, daily_unfollow_limit, daily_engagement_limit,
		       engagement_window_days, is_active,
		       total_follows, total_unfollows, total_engagements, created_at
		FROM growth_campaigns
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var engagementTypes, criteria []byte
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Type, &c.Platform, &c.TargetingType,
			&engagementTypes, &criteria,
			&c.DailyFollowLimit, &c.DailyUnfollowLimit, &c.DailyEngagementLimit,
			&c.EngagementWindowDays, &c.IsActive,
			&c.TotalFollows, &c.TotalUnfollows, &c.TotalEngagements, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if err := decodeJSON(engagementTypes, &c.EngagementTypes); err != nil {
			return nil, fmt.Errorf("decode engagement types: %w", err)
		}
		if err := decodeJSON(criteria, &c.TargetCriteria); err != nil {
			return nil, fmt.Errorf("decode target criteria: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	engagementTypes, err := json.Marshal(c.EngagementTypes)
	if err != nil {
		return fmt.Errorf("encode engagement types: %w", err)
	}
	criteria, err := json.Marshal(c.TargetCriteria)
	if err != nil {
		return fmt.Errorf("encode target criteria: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO growth_campaigns (
			id, name, type, platform, targeting_type,
			engagement_types, target_criteria,
			daily_follow_limit, daily_unfollow_limit, daily_engagement_limit,
			engagement_window_days, is_active,
			total_follows, total_unfollows, total_engagements, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, 0, 0, $13)
	`, c.ID, c.Name, c.Type, c.Platform, c.TargetingType,
		engagementTypes, criteria,
		c.DailyFollowLimit, c.DailyUnfollowLimit, c.DailyEngagementLimit,
		c.EngagementWindowDays, c.IsActive, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE growth_campaigns SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate campaign: %w", err)
	}
	return requireRow(res)
}

func (r *CampaignRepo) SetDailyLimits(ctx context.Context, id string, follow, unfollow, engagement int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE growth_campaigns
		SET daily_follow_limit = $2, daily_unfollow_limit = $3, daily_engagement_limit = $4
		WHERE id = $1
	`, id, follow, unfollow, engagement)
	if err != nil {
		return fmt.Errorf("set daily limits: %w", err)
	}
	return requireRow(res)
}

// counterColumns pins the columns IncrementCounter may touch.
var counterColumns = map[campaign.Counter]string{
	campaign.CounterFollows:     "total_follows",
	campaign.CounterUnfollows:   "total_unfollows",
	campaign.CounterEngagements: "total_engagements",
}

func (r *CampaignRepo) IncrementCounter(ctx context.Context, id string, counter campaign.Counter) error {
	col, ok := counterColumns[counter]
	if !ok {
		return fmt.Errorf("unknown counter %q", counter)
	}
	q := fmt.Sprintf(`UPDATE growth_campaigns SET %s = %s + 1 WHERE id = $1`, col, col)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("increment %s: %w", col, err)
	}
	return requireRow(res)
}

func (r *CampaignRepo) AppendAction(ctx context.Context, a *domain.Action) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO growth_actions (
			id, campaign_id, type, target_username, platform,
			executed_at, success, error, template_id, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, a.ID, a.CampaignID, a.Type, a.TargetUsername, a.Platform,
		a.Timestamp, a.Success, a.Error, a.TemplateID, a.Message)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

func (r *CampaignRepo) ActionsByCampaign(ctx context.Context, campaignID string) ([]domain.Action, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, type, target_username, platform,
		       executed_at, success, COALESCE(error,''), COALESCE(template_id,''), COALESCE(message,'')
		FROM growth_actions
		WHERE campaign_id = $1
		ORDER BY executed_at ASC, id ASC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []domain.Action
	for rows.Next() {
		var a domain.Action
		if err := rows.Scan(
			&a.ID, &a.CampaignID, &a.Type, &a.TargetUsername, &a.Platform,
			&a.Timestamp, &a.Success, &a.Error, &a.TemplateID, &a.Message,
		); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}
