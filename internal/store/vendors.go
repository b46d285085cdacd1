// internal/store/vendors.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Vendor statuses.
const (
	VendorStatusPending  = "pending"
	VendorStatusApproved = "approved"
	VendorStatusRejected = "rejected"
)

// Busy date sources.
const (
	BusySourceICS    = "ics"
	BusySourceManual = "manual"
)

type Vendor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	ICSURL    string    `json:"ics_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BusyDate struct {
	Date   string `json:"date"`
	Source string `json:"source"`
}

func (s *Store) CreateVendor(ctx context.Context, v Vendor) (int64, error) {
	status := v.Status
	if status == "" {
		status = VendorStatusPending
	}
	result, err := s.ExecContext(ctx,
		`INSERT INTO vendors (name, email, phone, status, ics_url) VALUES (?, ?, ?, ?, ?)`,
		v.Name, v.Email, v.Phone, status, v.ICSURL,
	)
	if err != nil {
		return 0, fmt.Errorf("create vendor: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("vendor id: %w", err)
	}
	return id, nil
}

func (s *Store) GetVendorByID(ctx context.Context, id int64) (Vendor, error) {
	var v Vendor
	err := s.QueryRowContext(ctx,
		`SELECT id, name, email, phone, status, ics_url, created_at FROM vendors WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.Status, &v.ICSURL, &v.CreatedAt)
	if err != nil {
		return Vendor{}, err
	}
	return v, nil
}

// ListVendors returns vendors, optionally filtered by status.
func (s *Store) ListVendors(ctx context.Context, status string) ([]Vendor, error) {
	query := `SELECT id, name, email, phone, status, ics_url, created_at FROM vendors`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY name`

	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.Status, &v.ICSURL, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (s *Store) UpdateVendor(ctx context.Context, v Vendor) error {
	result, err := s.ExecContext(ctx,
		`UPDATE vendors SET name = ?, email = ?, phone = ?, ics_url = ? WHERE id = ?`,
		v.Name, v.Email, v.Phone, v.ICSURL, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update vendor: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Store) SetVendorStatus(ctx context.Context, id int64, status string) error {
	result, err := s.ExecContext(ctx,
		`UPDATE vendors SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set vendor status: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Store) DeleteVendor(ctx context.Context, id int64) error {
	result, err := s.ExecContext(ctx, `DELETE FROM vendors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vendor: %w", err)
	}
	return requireRowAffected(result)
}

// ReplaceBusyDates swaps the vendor's busy dates for one source. A
// calendar sync replaces the ics rows and leaves manual entries alone.
func (s *Store) ReplaceBusyDates(ctx context.Context, vendorID int64, source string, dates []string) error {
	return s.RunInTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vendor_busy_dates WHERE vendor_id = ? AND source = ?`, vendorID, source); err != nil {
			return fmt.Errorf("clear busy dates: %w", err)
		}
		for _, date := range dates {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vendor_busy_dates (vendor_id, date, source) VALUES (?, ?, ?)`,
				vendorID, date, source,
			); err != nil {
				return fmt.Errorf("insert busy date: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) AddBusyDate(ctx context.Context, vendorID int64, date, source string) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO vendor_busy_dates (vendor_id, date, source) VALUES (?, ?, ?)
		 ON CONFLICT (vendor_id, date, source) DO NOTHING`,
		vendorID, date, source,
	)
	if err != nil {
		return fmt.Errorf("add busy date: %w", err)
	}
	return nil
}

func (s *Store) RemoveBusyDate(ctx context.Context, vendorID int64, date, source string) error {
	result, err := s.ExecContext(ctx,
		`DELETE FROM vendor_busy_dates WHERE vendor_id = ? AND date = ? AND source = ?`,
		vendorID, date, source)
	if err != nil {
		return fmt.Errorf("remove busy date: %w", err)
	}
	return requireRowAffected(result)
}

func (s *Store) ListBusyDates(ctx context.Context, vendorID int64) ([]BusyDate, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT date, source FROM vendor_busy_dates WHERE vendor_id = ? ORDER BY date, source`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list busy dates: %w", err)
	}
	defer rows.Close()

	var dates []BusyDate
	for rows.Next() {
		var d BusyDate
		if err := rows.Scan(&d.Date, &d.Source); err != nil {
			return nil, fmt.Errorf("scan busy date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// IsVendorBusy reports whether any source marks the vendor busy on date.
func (s *Store) IsVendorBusy(ctx context.Context, vendorID int64, date string) (bool, error) {
	var count int
	err := s.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vendor_busy_dates WHERE vendor_id = ? AND date = ?`,
		vendorID, date,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check busy date: %w", err)
	}
	return count > 0, nil
}

// ListVendorsWithFeeds returns approved vendors that have a calendar
// URL configured, for the background sync job.
func (s *Store) ListVendorsWithFeeds(ctx context.Context) ([]Vendor, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, name, email, phone, status, ics_url, created_at
		 FROM vendors WHERE status = ? AND ics_url != '' ORDER BY id`, VendorStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list vendors with feeds: %w", err)
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.Status, &v.ICSURL, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}
