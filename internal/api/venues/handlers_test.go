package venues

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/coneyproductions/vms-sub001/internal/store"
	"github.com/coneyproductions/vms-sub001/internal/testutil"
)

func setupVenuesTest(t *testing.T) *store.Store {
	t.Helper()

	s := testutil.NewTestDB(t)

	db = nil
	dbOnce = sync.Once{}
	InitHandlers(s)

	t.Cleanup(func() {
		db = nil
		dbOnce = sync.Once{}
	})

	return s
}

func seedVenue(t *testing.T, s *store.Store) int64 {
	t.Helper()
	id, err := s.CreateVenue(context.Background(), store.Venue{
		Name:     "Riverside Hall",
		Slug:     "riverside-hall",
		Timezone: "UTC",
		OpenDays: []int{5, 6},
	})
	if err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	return id
}

func TestHandleCreateVenue(t *testing.T) {
	setupVenuesTest(t)

	body := `{"name":"Riverside Hall","slug":"riverside-hall","timezone":"UTC","open_days":[5,6]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/venues", strings.NewReader(body))
	recorder := httptest.NewRecorder()

	HandleCreateVenue(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var venue store.Venue
	if err := json.Unmarshal(recorder.Body.Bytes(), &venue); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if venue.ID == 0 || venue.Slug != "riverside-hall" {
		t.Errorf("unexpected venue: %+v", venue)
	}
}

func TestHandleCreateVenueRejectsBadTimezone(t *testing.T) {
	setupVenuesTest(t)

	body := `{"name":"X","slug":"x","timezone":"Mars/OlympusMons"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/venues", strings.NewReader(body))
	recorder := httptest.NewRecorder()

	HandleCreateVenue(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleGetVenueNotFound(t *testing.T) {
	setupVenuesTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues/999", nil)
	req.SetPathValue("id", "999")
	recorder := httptest.NewRecorder()

	HandleGetVenue(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleResolveSchedule(t *testing.T) {
	s := setupVenuesTest(t)
	venueID := seedVenue(t, s)

	// 2026-05-29 is a Friday; the venue opens Fri+Sat.
	req := httptest.NewRequest(
		http.MethodGet,
		fmt.Sprintf("/api/v1/venues/%d/schedule?date=2026-05-29", venueID),
		nil,
	)
	req.SetPathValue("id", fmt.Sprint(venueID))
	recorder := httptest.NewRecorder()

	HandleResolveSchedule(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var resp scheduleResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Decision.Open {
		t.Errorf("expected open Friday, got %+v", resp.Decision)
	}

	// 2026-05-25 is a Monday.
	req = httptest.NewRequest(
		http.MethodGet,
		fmt.Sprintf("/api/v1/venues/%d/schedule?date=2026-05-25", venueID),
		nil,
	)
	req.SetPathValue("id", fmt.Sprint(venueID))
	recorder = httptest.NewRecorder()

	HandleResolveSchedule(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d", recorder.Code)
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Decision.Open {
		t.Errorf("expected closed Monday, got %+v", resp.Decision)
	}
}

func TestHandleOverrideFlow(t *testing.T) {
	s := setupVenuesTest(t)
	venueID := seedVenue(t, s)

	// Close an otherwise-open Friday.
	body := `{"date":"2026-05-29","state":"closed"}`
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/venues/%d/overrides", venueID), strings.NewReader(body))
	req.SetPathValue("id", fmt.Sprint(venueID))
	recorder := httptest.NewRecorder()

	HandleUpsertOverride(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/venues/%d/schedule?date=2026-05-29", venueID), nil)
	req.SetPathValue("id", fmt.Sprint(venueID))
	recorder = httptest.NewRecorder()

	HandleResolveSchedule(recorder, req)

	var resp scheduleResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Decision.Open {
		t.Errorf("override should close the date, got %+v", resp.Decision)
	}

	// Removing the override reopens the date.
	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/venues/%d/overrides/2026-05-29", venueID), nil)
	req.SetPathValue("id", fmt.Sprint(venueID))
	req.SetPathValue("date", "2026-05-29")
	recorder = httptest.NewRecorder()

	HandleDeleteOverride(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestHandleActiveDates(t *testing.T) {
	s := setupVenuesTest(t)
	venueID := seedVenue(t, s)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/venues/%d/active-dates", venueID), nil)
	req.SetPathValue("id", fmt.Sprint(venueID))
	recorder := httptest.NewRecorder()

	HandleActiveDates(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var resp activeDatesResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Dates) == 0 {
		t.Fatal("expected active dates for an open venue")
	}
	if resp.WindowStart == "" || resp.WindowEnd == "" {
		t.Errorf("window bounds missing: %+v", resp)
	}
}

func TestHandleReplaceSeasonsRejectsInvertedRange(t *testing.T) {
	s := setupVenuesTest(t)
	venueID := seedVenue(t, s)

	body := `{"seasons":[{"start":"2026-09-30","end":"2026-05-01"}]}`
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/venues/%d/seasons", venueID), strings.NewReader(body))
	req.SetPathValue("id", fmt.Sprint(venueID))
	recorder := httptest.NewRecorder()

	HandleReplaceSeasons(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
}
