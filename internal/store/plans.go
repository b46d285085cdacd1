// internal/store/plans.go
package store

import (
	"context"
	"fmt"
	"time"
)

// Plan statuses.
const (
	PlanStatusProposed  = "proposed"
	PlanStatusConfirmed = "confirmed"
	PlanStatusCancelled = "cancelled"
)

// Compensation types.
const (
	CompensationFlat         = "flat"
	CompensationRevenueShare = "revenue_share"
)

type EventPlan struct {
	ID                int64     `json:"id"`
	VenueID           int64     `json:"venue_id"`
	VendorID          int64     `json:"vendor_id"`
	Title             string    `json:"title"`
	EventDate         string    `json:"event_date"`
	StartTime         string    `json:"start_time"`
	CompensationType  string    `json:"compensation_type"`
	CompensationMinor int64     `json:"compensation_minor"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func (s *Store) CreatePlan(ctx context.Context, p EventPlan) (int64, error) {
	if p.StartTime == "" {
		p.StartTime = "19:00"
	}
	if p.CompensationType == "" {
		p.CompensationType = CompensationFlat
	}
	if p.Status == "" {
		p.Status = PlanStatusProposed
	}
	result, err := s.ExecContext(ctx,
		`INSERT INTO event_plans (venue_id, vendor_id, title, event_date, start_time, compensation_type, compensation_minor, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.VenueID, p.VendorID, p.Title, p.EventDate, p.StartTime, p.CompensationType, p.CompensationMinor, p.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("create plan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("plan id: %w", err)
	}
	return id, nil
}

func (s *Store) GetPlanByID(ctx context.Context, id int64) (EventPlan, error) {
	var p EventPlan
	err := s.QueryRowContext(ctx,
		`SELECT id, venue_id, vendor_id, title, event_date, start_time, compensation_type, compensation_minor, status, created_at
		 FROM event_plans WHERE id = ?`, id,
	).Scan(&p.ID, &p.VenueID, &p.VendorID, &p.Title, &p.EventDate, &p.StartTime,
		&p.CompensationType, &p.CompensationMinor, &p.Status, &p.CreatedAt)
	if err != nil {
		return EventPlan{}, err
	}
	return p, nil
}

// ListPlans returns plans for a venue ordered by event date. A zero
// venueID returns all plans.
func (s *Store) ListPlans(ctx context.Context, venueID int64) ([]EventPlan, error) {
	query := `SELECT id, venue_id, vendor_id, title, event_date, start_time, compensation_type, compensation_minor, status, created_at
		 FROM event_plans`
	args := []any{}
	if venueID != 0 {
		query += ` WHERE venue_id = ?`
		args = append(args, venueID)
	}
	query += ` ORDER BY event_date, id`

	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []EventPlan
	for rows.Next() {
		var p EventPlan
		if err := rows.Scan(&p.ID, &p.VenueID, &p.VendorID, &p.Title, &p.EventDate, &p.StartTime,
			&p.CompensationType, &p.CompensationMinor, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *Store) UpdatePlan(ctx context.Context, p EventPlan) error {
	result, err := s.ExecContext(ctx,
		`UPDATE event_plans SET title = ?, event_date = ?, start_time = ?, compensation_type = ?, compensation_minor = ? WHERE id = ?`,
		p.Title, p.EventDate, p.StartTime, p.CompensationType, p.CompensationMinor, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Store) SetPlanStatus(ctx context.Context, id int64, status string) error {
	result, err := s.ExecContext(ctx,
		`UPDATE event_plans SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set plan status: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Store) DeletePlan(ctx context.Context, id int64) error {
	result, err := s.ExecContext(ctx, `DELETE FROM event_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return requireRowAffected(result)
}

// HasPlanOnDate reports whether the venue already has a non-cancelled
// plan on the date.
func (s *Store) HasPlanOnDate(ctx context.Context, venueID int64, date string) (bool, error) {
	var count int
	err := s.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_plans WHERE venue_id = ? AND event_date = ? AND status != ?`,
		venueID, date, PlanStatusCancelled,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check plan date: %w", err)
	}
	return count > 0, nil
}
