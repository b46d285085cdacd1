// internal/store/ratings.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Rating struct {
	ID        int64     `json:"id"`
	VendorID  int64     `json:"vendor_id"`
	PlanID    *int64    `json:"plan_id,omitempty"`
	Stars     int       `json:"stars"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) CreateRating(ctx context.Context, r Rating) (int64, error) {
	var planID sql.NullInt64
	if r.PlanID != nil {
		planID = sql.NullInt64{Int64: *r.PlanID, Valid: true}
	}
	result, err := s.ExecContext(ctx,
		`INSERT INTO vendor_ratings (vendor_id, plan_id, stars, comment) VALUES (?, ?, ?, ?)`,
		r.VendorID, planID, r.Stars, r.Comment,
	)
	if err != nil {
		return 0, fmt.Errorf("create rating: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("rating id: %w", err)
	}
	return id, nil
}

func (s *Store) ListRatings(ctx context.Context, vendorID int64) ([]Rating, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, vendor_id, plan_id, stars, comment, created_at
		 FROM vendor_ratings WHERE vendor_id = ? ORDER BY created_at DESC, id DESC`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []Rating
	for rows.Next() {
		var r Rating
		var planID sql.NullInt64
		if err := rows.Scan(&r.ID, &r.VendorID, &planID, &r.Stars, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		if planID.Valid {
			r.PlanID = &planID.Int64
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// VendorAverageRating returns the vendor's mean star rating and the
// number of ratings. Zero count means unrated.
func (s *Store) VendorAverageRating(ctx context.Context, vendorID int64) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := s.QueryRowContext(ctx,
		`SELECT AVG(stars), COUNT(*) FROM vendor_ratings WHERE vendor_id = ?`, vendorID,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("average rating: %w", err)
	}
	return avg.Float64, count, nil
}
