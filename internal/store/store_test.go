package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/coneyproductions/vms-sub001/internal/ads"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestVenueCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateVenue(ctx, Venue{
		Name:     "Riverside Hall",
		Slug:     "riverside-hall",
		Timezone: "America/Chicago",
		OpenDays: []int{5, 6},
	})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}

	v, err := s.GetVenueByID(ctx, id)
	if err != nil {
		t.Fatalf("get venue: %v", err)
	}
	if v.Name != "Riverside Hall" || v.Slug != "riverside-hall" {
		t.Errorf("unexpected venue: %+v", v)
	}
	if len(v.OpenDays) != 2 || v.OpenDays[0] != 5 || v.OpenDays[1] != 6 {
		t.Errorf("unexpected open days: %v", v.OpenDays)
	}

	v.Name = "Riverside Hall East"
	v.YearRound = true
	if err := s.UpdateVenue(ctx, v); err != nil {
		t.Fatalf("update venue: %v", err)
	}

	updated, err := s.GetVenueByID(ctx, id)
	if err != nil {
		t.Fatalf("get updated venue: %v", err)
	}
	if !updated.YearRound || updated.Name != "Riverside Hall East" {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := s.DeleteVenue(ctx, id); err != nil {
		t.Fatalf("delete venue: %v", err)
	}
	if _, err := s.GetVenueByID(ctx, id); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows after delete, got %v", err)
	}
}

func TestUpdateMissingVenue(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateVenue(context.Background(), Venue{ID: 999, Name: "Ghost"})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestOpenDaysCodec(t *testing.T) {
	encoded := encodeOpenDays([]int{6, 5, 5, 9, -1})
	if encoded != "5,6" {
		t.Errorf("encodeOpenDays = %q, want %q", encoded, "5,6")
	}
	decoded := decodeOpenDays("0, 3,6")
	if len(decoded) != 3 || decoded[0] != 0 || decoded[1] != 3 || decoded[2] != 6 {
		t.Errorf("decodeOpenDays = %v", decoded)
	}
	if got := decodeOpenDays(""); got != nil {
		t.Errorf("decodeOpenDays(\"\") = %v, want nil", got)
	}
}

func TestScheduleConfigAssembly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateVenue(ctx, Venue{
		Name:     "Patio",
		Slug:     "patio",
		Timezone: "UTC",
		OpenDays: []int{5, 6},
	})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}

	seasons := []Season{{Start: "2026-05-01", End: "2026-09-30"}}
	if err := s.ReplaceVenueSeasons(ctx, id, seasons); err != nil {
		t.Fatalf("replace seasons: %v", err)
	}
	if err := s.UpsertDateOverride(ctx, id, DateOverride{Date: "2026-07-04", State: "closed"}); err != nil {
		t.Fatalf("upsert override: %v", err)
	}

	cfg, err := s.ScheduleConfig(ctx, id)
	if err != nil {
		t.Fatalf("schedule config: %v", err)
	}
	if !cfg.OpenDays[time.Friday] || !cfg.OpenDays[time.Saturday] {
		t.Errorf("open days not mapped: %v", cfg.OpenDays)
	}
	if cfg.OpenDays[time.Monday] {
		t.Error("Monday should not be open")
	}
	if len(cfg.Seasons) != 1 || cfg.Seasons[0].Start != "2026-05-01" {
		t.Errorf("seasons not mapped: %v", cfg.Seasons)
	}
	if cfg.Overrides["2026-07-04"] != "closed" {
		t.Errorf("override not mapped: %v", cfg.Overrides)
	}
}

func TestDateOverrideUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateVenue(ctx, Venue{Name: "Patio", Slug: "patio-2", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}

	if err := s.UpsertDateOverride(ctx, id, DateOverride{Date: "2026-06-01", State: "closed"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertDateOverride(ctx, id, DateOverride{Date: "2026-06-01", State: "open"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	overrides, err := s.ListDateOverrides(ctx, id)
	if err != nil {
		t.Fatalf("list overrides: %v", err)
	}
	if len(overrides) != 1 || overrides[0].State != "open" {
		t.Errorf("upsert did not replace state: %v", overrides)
	}
}

func TestVendorBusyDates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vendorID, err := s.CreateVendor(ctx, Vendor{Name: "The Slide Rules", Email: "band@example.com"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}

	if err := s.AddBusyDate(ctx, vendorID, "2026-06-05", BusySourceManual); err != nil {
		t.Fatalf("add manual busy date: %v", err)
	}
	if err := s.ReplaceBusyDates(ctx, vendorID, BusySourceICS, []string{"2026-06-05", "2026-06-12"}); err != nil {
		t.Fatalf("replace ics busy dates: %v", err)
	}

	// A second sync replaces ics rows but leaves the manual one.
	if err := s.ReplaceBusyDates(ctx, vendorID, BusySourceICS, []string{"2026-06-19"}); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	dates, err := s.ListBusyDates(ctx, vendorID)
	if err != nil {
		t.Fatalf("list busy dates: %v", err)
	}
	if len(dates) != 2 {
		t.Fatalf("expected 2 busy dates, got %v", dates)
	}
	if dates[0].Date != "2026-06-05" || dates[0].Source != BusySourceManual {
		t.Errorf("manual date lost: %v", dates)
	}
	if dates[1].Date != "2026-06-19" || dates[1].Source != BusySourceICS {
		t.Errorf("ics date not replaced: %v", dates)
	}

	busy, err := s.IsVendorBusy(ctx, vendorID, "2026-06-19")
	if err != nil {
		t.Fatalf("is busy: %v", err)
	}
	if !busy {
		t.Error("expected vendor busy on 2026-06-19")
	}
	busy, err = s.IsVendorBusy(ctx, vendorID, "2026-06-12")
	if err != nil {
		t.Fatalf("is busy: %v", err)
	}
	if busy {
		t.Error("expected vendor free on 2026-06-12 after resync")
	}
}

func TestVendorStatusAndFeeds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	withFeed, err := s.CreateVendor(ctx, Vendor{Name: "A", Email: "a@example.com", ICSURL: "https://cal.example.com/a.ics"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	noFeed, err := s.CreateVendor(ctx, Vendor{Name: "B", Email: "b@example.com"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}

	// Both still pending, neither should sync.
	feeds, err := s.ListVendorsWithFeeds(ctx)
	if err != nil {
		t.Fatalf("list feeds: %v", err)
	}
	if len(feeds) != 0 {
		t.Fatalf("expected no syncable vendors, got %v", feeds)
	}

	if err := s.SetVendorStatus(ctx, withFeed, VendorStatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := s.SetVendorStatus(ctx, noFeed, VendorStatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	feeds, err = s.ListVendorsWithFeeds(ctx)
	if err != nil {
		t.Fatalf("list feeds: %v", err)
	}
	if len(feeds) != 1 || feeds[0].ID != withFeed {
		t.Errorf("expected only the feed vendor, got %v", feeds)
	}
}

func TestPlanConflictCheck(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	venueID, err := s.CreateVenue(ctx, Venue{Name: "Patio", Slug: "patio-3", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	vendorID, err := s.CreateVendor(ctx, Vendor{Name: "Band", Email: "band@example.com"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}

	planID, err := s.CreatePlan(ctx, EventPlan{
		VenueID:   venueID,
		VendorID:  vendorID,
		Title:     "Friday Night Live",
		EventDate: "2026-06-05",
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	plan, err := s.GetPlanByID(ctx, planID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if plan.StartTime != "19:00" || plan.Status != PlanStatusProposed || plan.CompensationType != CompensationFlat {
		t.Errorf("defaults not applied: %+v", plan)
	}

	taken, err := s.HasPlanOnDate(ctx, venueID, "2026-06-05")
	if err != nil {
		t.Fatalf("conflict check: %v", err)
	}
	if !taken {
		t.Error("expected date to be taken")
	}

	if err := s.SetPlanStatus(ctx, planID, PlanStatusCancelled); err != nil {
		t.Fatalf("cancel plan: %v", err)
	}
	taken, err = s.HasPlanOnDate(ctx, venueID, "2026-06-05")
	if err != nil {
		t.Fatalf("conflict check: %v", err)
	}
	if taken {
		t.Error("cancelled plan should not block the date")
	}
}

func TestRatingsAverage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vendorID, err := s.CreateVendor(ctx, Vendor{Name: "Band", Email: "band@example.com"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}

	avg, count, err := s.VendorAverageRating(ctx, vendorID)
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	if count != 0 || avg != 0 {
		t.Errorf("expected unrated vendor, got avg=%v count=%d", avg, count)
	}

	for _, stars := range []int{5, 4} {
		if _, err := s.CreateRating(ctx, Rating{VendorID: vendorID, Stars: stars}); err != nil {
			t.Fatalf("create rating: %v", err)
		}
	}

	avg, count, err = s.VendorAverageRating(ctx, vendorID)
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	if count != 2 || avg != 4.5 {
		t.Errorf("expected avg 4.5 over 2 ratings, got avg=%v count=%d", avg, count)
	}
}

func TestAdBuildRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	venueID, err := s.CreateVenue(ctx, Venue{Name: "Patio", Slug: "patio-4", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	vendorID, err := s.CreateVendor(ctx, Vendor{Name: "Band", Email: "band@example.com"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	planID, err := s.CreatePlan(ctx, EventPlan{
		VenueID: venueID, VendorID: vendorID, Title: "Show", EventDate: "2026-06-20",
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	tiers := []ads.Tier{
		{Key: "d7", Label: "Final push", BudgetMinor: 10000},
	}
	variants := []ads.CopyVariant{
		{Key: "direct", Headline: "Show", Primary: "Come see the show.", CTALabel: "Get Details"},
	}
	id, err := s.CreateAdBuild(ctx, AdBuild{
		BuildKey:         "plan-1-1716000000",
		PlanID:           planID,
		Preset:           ads.PresetSimple7Day,
		TotalBudgetMinor: 10000,
		Tiers:            tiers,
		Copy:             variants,
		DestinationURL:   "https://example.com/events/show?utm_source=facebook",
	})
	if err != nil {
		t.Fatalf("create ad build: %v", err)
	}

	b, err := s.GetAdBuildByID(ctx, id)
	if err != nil {
		t.Fatalf("get ad build: %v", err)
	}
	if b.Status != BuildStatusDraft {
		t.Errorf("expected draft status, got %q", b.Status)
	}
	if len(b.Tiers) != 1 || b.Tiers[0].BudgetMinor != 10000 {
		t.Errorf("tiers not round-tripped: %+v", b.Tiers)
	}
	if len(b.Copy) != 1 || b.Copy[0].Key != "direct" {
		t.Errorf("copy not round-tripped: %+v", b.Copy)
	}

	byKey, err := s.GetAdBuildByKey(ctx, "plan-1-1716000000")
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if byKey.ID != id {
		t.Errorf("lookup by key returned wrong row: %d != %d", byKey.ID, id)
	}

	if err := s.MarkAdBuildSubmitted(ctx, id, "238472938472"); err != nil {
		t.Fatalf("mark submitted: %v", err)
	}
	b, err = s.GetAdBuildByID(ctx, id)
	if err != nil {
		t.Fatalf("get after submit: %v", err)
	}
	if b.Status != BuildStatusSubmitted || b.CampaignID != "238472938472" {
		t.Errorf("submit not recorded: %+v", b)
	}
}

func TestForeignKeyCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vendorID, err := s.CreateVendor(ctx, Vendor{Name: "Band", Email: "band@example.com"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	if err := s.AddBusyDate(ctx, vendorID, "2026-06-05", BusySourceManual); err != nil {
		t.Fatalf("add busy date: %v", err)
	}

	if err := s.DeleteVendor(ctx, vendorID); err != nil {
		t.Fatalf("delete vendor: %v", err)
	}
	dates, err := s.ListBusyDates(ctx, vendorID)
	if err != nil {
		t.Fatalf("list busy dates: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("busy dates should cascade on vendor delete, got %v", dates)
	}
}
