// internal/store/venues.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/coneyproductions/vms-sub001/internal/schedule"
)

// Venue is one bookable location with its weekly open-day pattern.
type Venue struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Timezone  string `json:"timezone"`
	YearRound bool   `json:"year_round"`
	// OpenDays holds weekday numbers 0-6 (Sunday-Saturday).
	OpenDays []int `json:"open_days"`
}

// Season mirrors one venue_seasons row.
type Season struct {
	ID    int64  `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// DateOverride is a manual per-date open/closed flag.
type DateOverride struct {
	Date  string `json:"date"`
	State string `json:"state"`
}

func (s *Store) CreateVenue(ctx context.Context, v Venue) (int64, error) {
	result, err := s.ExecContext(ctx,
		`INSERT INTO venues (name, slug, timezone, year_round, open_days) VALUES (?, ?, ?, ?, ?)`,
		v.Name, v.Slug, v.Timezone, v.YearRound, encodeOpenDays(v.OpenDays),
	)
	if err != nil {
		return 0, fmt.Errorf("create venue: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("venue id: %w", err)
	}
	return id, nil
}

func (s *Store) GetVenueByID(ctx context.Context, id int64) (Venue, error) {
	var v Venue
	var openDays string
	err := s.QueryRowContext(ctx,
		`SELECT id, name, slug, timezone, year_round, open_days FROM venues WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.Slug, &v.Timezone, &v.YearRound, &openDays)
	if err != nil {
		return Venue{}, err
	}
	v.OpenDays = decodeOpenDays(openDays)
	return v, nil
}

func (s *Store) ListVenues(ctx context.Context) ([]Venue, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, name, slug, timezone, year_round, open_days FROM venues ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []Venue
	for rows.Next() {
		var v Venue
		var openDays string
		if err := rows.Scan(&v.ID, &v.Name, &v.Slug, &v.Timezone, &v.YearRound, &openDays); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		v.OpenDays = decodeOpenDays(openDays)
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

func (s *Store) UpdateVenue(ctx context.Context, v Venue) error {
	result, err := s.ExecContext(ctx,
		`UPDATE venues SET name = ?, timezone = ?, year_round = ?, open_days = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		v.Name, v.Timezone, v.YearRound, encodeOpenDays(v.OpenDays), v.ID,
	)
	if err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Store) DeleteVenue(ctx context.Context, id int64) error {
	result, err := s.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	return requireRowAffected(result)
}

// ReplaceVenueSeasons swaps the venue's season list atomically.
func (s *Store) ReplaceVenueSeasons(ctx context.Context, venueID int64, seasons []Season) error {
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM venue_seasons WHERE venue_id = ?`, venueID); err != nil {
			return fmt.Errorf("clear seasons: %w", err)
		}
		for _, season := range seasons {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO venue_seasons (venue_id, start_date, end_date) VALUES (?, ?, ?)`,
				venueID, season.Start, season.End,
			); err != nil {
				return fmt.Errorf("insert season: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) ListVenueSeasons(ctx context.Context, venueID int64) ([]Season, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, start_date, end_date FROM venue_seasons WHERE venue_id = ? ORDER BY start_date`, venueID)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []Season
	for rows.Next() {
		var season Season
		if err := rows.Scan(&season.ID, &season.Start, &season.End); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

func (s *Store) UpsertDateOverride(ctx context.Context, venueID int64, override DateOverride) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO venue_date_overrides (venue_id, date, state) VALUES (?, ?, ?)
		 ON CONFLICT (venue_id, date) DO UPDATE SET state = excluded.state`,
		venueID, override.Date, override.State,
	)
	if err != nil {
		return fmt.Errorf("upsert date override: %w", err)
	}
	return nil
}

func (s *Store) DeleteDateOverride(ctx context.Context, venueID int64, date string) error {
	result, err := s.ExecContext(ctx,
		`DELETE FROM venue_date_overrides WHERE venue_id = ? AND date = ?`, venueID, date)
	if err != nil {
		return fmt.Errorf("delete date override: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Store) ListDateOverrides(ctx context.Context, venueID int64) ([]DateOverride, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT date, state FROM venue_date_overrides WHERE venue_id = ? ORDER BY date`, venueID)
	if err != nil {
		return nil, fmt.Errorf("list date overrides: %w", err)
	}
	defer rows.Close()

	var overrides []DateOverride
	for rows.Next() {
		var o DateOverride
		if err := rows.Scan(&o.Date, &o.State); err != nil {
			return nil, fmt.Errorf("scan date override: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// ScheduleConfig assembles the venue's rows into the resolver's input.
func (s *Store) ScheduleConfig(ctx context.Context, venueID int64) (schedule.Config, error) {
	venue, err := s.GetVenueByID(ctx, venueID)
	if err != nil {
		return schedule.Config{}, err
	}
	seasons, err := s.ListVenueSeasons(ctx, venueID)
	if err != nil {
		return schedule.Config{}, err
	}
	overrides, err := s.ListDateOverrides(ctx, venueID)
	if err != nil {
		return schedule.Config{}, err
	}

	loc, err := time.LoadLocation(venue.Timezone)
	if err != nil {
		loc = time.UTC
	}

	cfg := schedule.Config{
		OpenDays:  make(map[time.Weekday]bool, len(venue.OpenDays)),
		YearRound: venue.YearRound,
		Overrides: make(map[string]schedule.OpenState, len(overrides)),
		Location:  loc,
	}
	for _, day := range venue.OpenDays {
		if day >= 0 && day <= 6 {
			cfg.OpenDays[time.Weekday(day)] = true
		}
	}
	for _, season := range seasons {
		cfg.Seasons = append(cfg.Seasons, schedule.Season{Start: season.Start, End: season.End})
	}
	for _, o := range overrides {
		cfg.Overrides[o.Date] = schedule.OpenState(o.State)
	}
	return cfg, nil
}

func encodeOpenDays(days []int) string {
	sorted := make([]int, 0, len(days))
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		sorted = append(sorted, d)
	}
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, d := range sorted {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeOpenDays(raw string) []int {
	if raw == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(raw, ",") {
		if d, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && d >= 0 && d <= 6 {
			days = append(days, d)
		}
	}
	return days
}

func requireRowAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
