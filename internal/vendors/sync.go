// internal/vendors/sync.go
package vendors

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coneyproductions/vms-sub001/internal/ics"
	"github.com/coneyproductions/vms-sub001/internal/schedule"
	"github.com/coneyproductions/vms-sub001/internal/store"
)

// Syncer pulls vendor calendar feeds and replaces their imported busy
// dates. Manual busy dates are never touched by a sync.
type Syncer struct {
	store   *store.Store
	fetcher *ics.Fetcher
}

func NewSyncer(s *store.Store, fetcher *ics.Fetcher) *Syncer {
	return &Syncer{store: s, fetcher: fetcher}
}

// SyncVendor refreshes one vendor's imported busy dates from their
// feed. It returns the number of busy dates stored.
func (s *Syncer) SyncVendor(ctx context.Context, vendor store.Vendor) (int, error) {
	if vendor.ICSURL == "" {
		return 0, fmt.Errorf("vendor %d has no calendar url", vendor.ID)
	}

	body, err := s.fetcher.Fetch(ctx, vendor.ICSURL)
	if err != nil {
		return 0, fmt.Errorf("fetch calendar: %w", err)
	}

	window := schedule.DefaultWindow(time.Now())
	busy, err := ics.ExtractBusyDates(body, nil, window, time.Local)
	if err != nil {
		return 0, fmt.Errorf("expand calendar: %w", err)
	}

	dates := make([]string, 0, len(busy))
	for date := range busy {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	if err := s.store.ReplaceBusyDates(ctx, vendor.ID, store.BusySourceICS, dates); err != nil {
		return 0, fmt.Errorf("store busy dates: %w", err)
	}
	return len(dates), nil
}

// SyncAll refreshes every approved vendor that has a feed configured.
// Individual vendor failures are logged and skipped so one bad feed
// cannot stall the rest.
func (s *Syncer) SyncAll(ctx context.Context) error {
	feedVendors, err := s.store.ListVendorsWithFeeds(ctx)
	if err != nil {
		return fmt.Errorf("list vendors: %w", err)
	}

	for _, vendor := range feedVendors {
		count, err := s.SyncVendor(ctx, vendor)
		if err != nil {
			log.Ctx(ctx).Warn().
				Err(err).
				Int64("vendor_id", vendor.ID).
				Str("feed", ics.RedactURL(vendor.ICSURL)).
				Msg("Vendor calendar sync failed")
			continue
		}
		log.Ctx(ctx).Info().
			Int64("vendor_id", vendor.ID).
			Int("busy_dates", count).
			Msg("Vendor calendar synced")
	}
	return nil
}
