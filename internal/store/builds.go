// internal/store/builds.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coneyproductions/vms-sub001/internal/ads"
)

// Ad build statuses.
const (
	BuildStatusDraft     = "draft"
	BuildStatusSubmitted = "submitted"
)

type AdBuild struct {
	ID               int64             `json:"id"`
	BuildKey         string            `json:"build_key"`
	PlanID           int64             `json:"plan_id"`
	Preset           ads.Preset        `json:"preset"`
	TotalBudgetMinor int64             `json:"total_budget_minor"`
	Status           string            `json:"status"`
	Tiers            []ads.Tier        `json:"tiers"`
	Copy             []ads.CopyVariant `json:"copy"`
	DestinationURL   string            `json:"destination_url"`
	CampaignID       string            `json:"campaign_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (s *Store) CreateAdBuild(ctx context.Context, b AdBuild) (int64, error) {
	tiersJSON, err := json.Marshal(b.Tiers)
	if err != nil {
		return 0, fmt.Errorf("marshal tiers: %w", err)
	}
	copyJSON, err := json.Marshal(b.Copy)
	if err != nil {
		return 0, fmt.Errorf("marshal copy: %w", err)
	}

	result, err := s.ExecContext(ctx,
		`INSERT INTO ad_builds (build_key, plan_id, preset, total_budget_minor, status, tiers_json, copy_json, destination_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BuildKey, b.PlanID, string(b.Preset), b.TotalBudgetMinor, BuildStatusDraft,
		string(tiersJSON), string(copyJSON), b.DestinationURL,
	)
	if err != nil {
		return 0, fmt.Errorf("create ad build: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ad build id: %w", err)
	}
	return id, nil
}

func (s *Store) GetAdBuildByID(ctx context.Context, id int64) (AdBuild, error) {
	return s.scanAdBuild(s.QueryRowContext(ctx,
		`SELECT id, build_key, plan_id, preset, total_budget_minor, status, tiers_json, copy_json, destination_url, campaign_id, created_at, updated_at
		 FROM ad_builds WHERE id = ?`, id))
}

func (s *Store) GetAdBuildByKey(ctx context.Context, buildKey string) (AdBuild, error) {
	return s.scanAdBuild(s.QueryRowContext(ctx,
		`SELECT id, build_key, plan_id, preset, total_budget_minor, status, tiers_json, copy_json, destination_url, campaign_id, created_at, updated_at
		 FROM ad_builds WHERE build_key = ?`, buildKey))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanAdBuild(row rowScanner) (AdBuild, error) {
	var b AdBuild
	var preset, tiersJSON, copyJSON string
	err := row.Scan(&b.ID, &b.BuildKey, &b.PlanID, &preset, &b.TotalBudgetMinor, &b.Status,
		&tiersJSON, &copyJSON, &b.DestinationURL, &b.CampaignID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return AdBuild{}, err
	}
	b.Preset = ads.Preset(preset)
	if err := json.Unmarshal([]byte(tiersJSON), &b.Tiers); err != nil {
		return AdBuild{}, fmt.Errorf("unmarshal tiers: %w", err)
	}
	if err := json.Unmarshal([]byte(copyJSON), &b.Copy); err != nil {
		return AdBuild{}, fmt.Errorf("unmarshal copy: %w", err)
	}
	return b, nil
}

func (s *Store) ListAdBuilds(ctx context.Context, planID int64) ([]AdBuild, error) {
	query := `SELECT id, build_key, plan_id, preset, total_budget_minor, status, tiers_json, copy_json, destination_url, campaign_id, created_at, updated_at
		 FROM ad_builds`
	args := []any{}
	if planID != 0 {
		query += ` WHERE plan_id = ?`
		args = append(args, planID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ad builds: %w", err)
	}
	defer rows.Close()

	var builds []AdBuild
	for rows.Next() {
		b, err := s.scanAdBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// MarkAdBuildSubmitted records the created campaign against the build.
func (s *Store) MarkAdBuildSubmitted(ctx context.Context, id int64, campaignID string) error {
	result, err := s.ExecContext(ctx,
		`UPDATE ad_builds SET status = ?, campaign_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		BuildStatusSubmitted, campaignID, id,
	)
	if err != nil {
		return fmt.Errorf("mark ad build submitted: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Store) DeleteAdBuild(ctx context.Context, id int64) error {
	result, err := s.ExecContext(ctx, `DELETE FROM ad_builds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ad build: %w", err)
	}
	return requireRowAffected(result)
}
