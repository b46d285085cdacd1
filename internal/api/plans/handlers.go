// internal/api/plans/handlers.go
package plans

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coneyproductions/vms-sub001/internal/api/apiutil"
	"github.com/coneyproductions/vms-sub001/internal/email"
	"github.com/coneyproductions/vms-sub001/internal/schedule"
	"github.com/coneyproductions/vms-sub001/internal/store"
)

const planQueryTimeout = 5 * time.Second

var (
	db       *store.Store
	notifier *email.Notifier
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling
// requests. The notifier may be nil; confirmation emails are then
// disabled.
func InitHandlers(s *store.Store, n *email.Notifier) {
	if s == nil {
		return
	}
	initOnce.Do(func() {
		db = s
		notifier = n
	})
}

func loadStore(w http.ResponseWriter, r *http.Request) *store.Store {
	if db == nil {
		log.Ctx(r.Context()).Error().Msg("Store not initialized")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return nil
	}
	return db
}

type planRequest struct {
	VenueID           int64  `json:"venue_id"`
	VendorID          int64  `json:"vendor_id"`
	Title             string `json:"title"`
	EventDate         string `json:"event_date"`
	StartTime         string `json:"start_time"`
	CompensationType  string `json:"compensation_type"`
	CompensationMinor int64  `json:"compensation_minor"`
}

func (req *planRequest) validate() error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return errors.New("title is required")
	}
	if req.VenueID <= 0 {
		return errors.New("venue_id is required")
	}
	if req.VendorID <= 0 {
		return errors.New("vendor_id is required")
	}
	date, err := apiutil.ValidateDateField(req.EventDate, "event_date")
	if err != nil {
		return err
	}
	req.EventDate = date
	if req.StartTime != "" {
		if _, err := time.Parse("15:04", req.StartTime); err != nil {
			return errors.New("start_time must be HH:MM")
		}
	}
	switch req.CompensationType {
	case "", store.CompensationFlat, store.CompensationRevenueShare:
	default:
		return errors.New("compensation_type must be flat or revenue_share")
	}
	if req.CompensationMinor < 0 {
		return errors.New("compensation_minor must be 0 or greater")
	}
	return nil
}

// checkBookable verifies the venue is open and the vendor is approved
// and free on the date. Returns false after writing the response.
func checkBookable(ctx context.Context, w http.ResponseWriter, r *http.Request, s *store.Store, venueID, vendorID int64, date string) bool {
	cfg, err := s.ScheduleConfig(ctx, venueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Venue not found")
			return false
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", venueID).Msg("Failed to load schedule config")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load venue schedule")
		return false
	}
	if decision := schedule.Resolve(cfg, date); !decision.Open {
		apiutil.WriteError(w, r, http.StatusConflict, "Venue is closed on "+date+" ("+string(decision.Reason)+")")
		return false
	}

	vendor, err := s.GetVendorByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Vendor not found")
			return false
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", vendorID).Msg("Failed to load vendor")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load vendor")
		return false
	}
	if vendor.Status != store.VendorStatusApproved {
		apiutil.WriteError(w, r, http.StatusConflict, "Vendor is not approved")
		return false
	}

	busy, err := s.IsVendorBusy(ctx, vendorID, date)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", vendorID).Msg("Failed to check vendor availability")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to check vendor availability")
		return false
	}
	if busy {
		apiutil.WriteError(w, r, http.StatusConflict, "Vendor is busy on "+date)
		return false
	}

	taken, err := s.HasPlanOnDate(ctx, venueID, date)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", venueID).Msg("Failed to check plan conflicts")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to check plan conflicts")
		return false
	}
	if taken {
		apiutil.WriteError(w, r, http.StatusConflict, "Venue already has an event on "+date)
		return false
	}
	return true
}

// POST /api/v1/plans
func HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	var req planRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), planQueryTimeout)
	defer cancel()

	if !checkBookable(ctx, w, r, s, req.VenueID, req.VendorID, req.EventDate) {
		return
	}

	id, err := s.CreatePlan(ctx, store.EventPlan{
		VenueID:           req.VenueID,
		VendorID:          req.VendorID,
		Title:             req.Title,
		EventDate:         req.EventDate,
		StartTime:         req.StartTime,
		CompensationType:  req.CompensationType,
		CompensationMinor: req.CompensationMinor,
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to create plan")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create plan")
		return
	}

	plan, err := s.GetPlanByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", id).Msg("Failed to load created plan")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load plan")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusCreated, plan)
}

// GET /api/v1/plans?venue_id=
func HandleListPlans(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	var venueID int64
	if raw := r.URL.Query().Get("venue_id"); raw != "" {
		parsed, err := apiutil.ParseNonNegativeInt64Field(raw, "venue_id")
		if err != nil {
			apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		venueID = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), planQueryTimeout)
	defer cancel()

	list, err := s.ListPlans(ctx, venueID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list plans")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list plans")
		return
	}
	if list == nil {
		list = []store.EventPlan{}
	}
	apiutil.WriteJSON(w, r, http.StatusOK, list)
}

// GET /api/v1/plans/{id}
func HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), planQueryTimeout)
	defer cancel()

	plan, err := s.GetPlanByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Plan not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", id).Msg("Failed to load plan")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load plan")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, plan)
}

// PUT /api/v1/plans/{id}
func HandleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req planRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), planQueryTimeout)
	defer cancel()

	existing, err := s.GetPlanByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Plan not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", id).Msg("Failed to load plan")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load plan")
		return
	}

	// Updates keep the plan's venue and vendor.
	req.VenueID = existing.VenueID
	req.VendorID = existing.VendorID
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// Moving the event re-runs the booking checks.
	if req.EventDate != existing.EventDate {
		if !checkBookable(ctx, w, r, s, existing.VenueID, existing.VendorID, req.EventDate) {
			return
		}
	}

	startTime := req.StartTime
	if startTime == "" {
		startTime = existing.StartTime
	}
	compType := req.CompensationType
	if compType == "" {
		compType = existing.CompensationType
	}

	err = s.UpdatePlan(ctx, store.EventPlan{
		ID:                id,
		Title:             req.Title,
		EventDate:         req.EventDate,
		StartTime:         startTime,
		CompensationType:  compType,
		CompensationMinor: req.CompensationMinor,
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", id).Msg("Failed to update plan")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update plan")
		return
	}

	plan, err := s.GetPlanByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", id).Msg("Failed to load updated plan")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load plan")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, plan)
}

// DELETE /api/v1/plans/{id}
func HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), planQueryTimeout)
	defer cancel()

	if err := s.DeletePlan(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Plan not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", id).Msg("Failed to delete plan")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to delete plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/plans/{id}/confirm
func HandleConfirmPlan(w http.ResponseWriter, r *http.Request) {
	setPlanStatus(w, r, store.PlanStatusConfirmed)
}

// POST /api/v1/plans/{id}/cancel
func HandleCancelPlan(w http.ResponseWriter, r *http.Request) {
	setPlanStatus(w, r, store.PlanStatusCancelled)
}

func setPlanStatus(w http.ResponseWriter, r *http.Request, status string) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), planQueryTimeout)
	defer cancel()

	existing, err := s.GetPlanByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Plan not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", id).Msg("Failed to load plan")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load plan")
		return
	}
	if status == store.PlanStatusConfirmed && existing.Status == store.PlanStatusCancelled {
		apiutil.WriteError(w, r, http.StatusConflict, "Cancelled plans cannot be confirmed")
		return
	}

	if err := s.SetPlanStatus(ctx, id, status); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", id).Msg("Failed to update plan status")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update plan status")
		return
	}

	plan, err := s.GetPlanByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", id).Msg("Failed to load plan after status change")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load plan")
		return
	}

	if status == store.PlanStatusConfirmed && notifier != nil {
		vendor, err := s.GetVendorByID(ctx, plan.VendorID)
		if err == nil {
			if err := notifier.PlanConfirmed(ctx, vendor.Email, vendor.Name, plan.Title, plan.EventDate); err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Int64("plan_id", id).Msg("Failed to send confirmation email")
			}
		}
	}

	apiutil.WriteJSON(w, r, http.StatusOK, plan)
}
