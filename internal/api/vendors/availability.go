// internal/api/vendors/availability.go
package vendors

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coneyproductions/vms-sub001/internal/api/apiutil"
	"github.com/coneyproductions/vms-sub001/internal/store"
)

// Calendar feeds can be slow; give a sync more room than a plain query.
const syncTimeout = 30 * time.Second

// GET /api/v1/vendors/{id}/availability
func HandleListBusyDates(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), vendorQueryTimeout)
	defer cancel()

	if _, err := s.GetVendorByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Vendor not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to load vendor")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load vendor")
		return
	}

	dates, err := s.ListBusyDates(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to list busy dates")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list busy dates")
		return
	}
	if dates == nil {
		dates = []store.BusyDate{}
	}
	apiutil.WriteJSON(w, r, http.StatusOK, dates)
}

type busyDateRequest struct {
	Date string `json:"date"`
}

// POST /api/v1/vendors/{id}/availability
func HandleAddBusyDate(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req busyDateRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}
	date, err := apiutil.ValidateDateField(req.Date, "date")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), vendorQueryTimeout)
	defer cancel()

	if _, err := s.GetVendorByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Vendor not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to load vendor")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load vendor")
		return
	}

	if err := s.AddBusyDate(ctx, id, date, store.BusySourceManual); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to add busy date")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to add busy date")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusCreated, store.BusyDate{Date: date, Source: store.BusySourceManual})
}

// DELETE /api/v1/vendors/{id}/availability/{date}
func HandleRemoveBusyDate(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := apiutil.ValidateDateField(r.PathValue("date"), "date")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), vendorQueryTimeout)
	defer cancel()

	if err := s.RemoveBusyDate(ctx, id, date, store.BusySourceManual); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Busy date not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to remove busy date")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to remove busy date")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type syncResponse struct {
	VendorID  int64 `json:"vendor_id"`
	BusyDates int   `json:"busy_dates"`
}

// POST /api/v1/vendors/{id}/availability/sync
func HandleSyncCalendar(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}
	if syncer == nil {
		apiutil.WriteError(w, r, http.StatusServiceUnavailable, "Calendar sync is not configured")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), syncTimeout)
	defer cancel()

	vendor, err := s.GetVendorByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Vendor not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to load vendor")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load vendor")
		return
	}
	if vendor.ICSURL == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Vendor has no calendar URL")
		return
	}

	count, err := syncer.SyncVendor(ctx, vendor)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Calendar sync failed")
		apiutil.WriteError(w, r, http.StatusBadGateway, "Calendar sync failed")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, syncResponse{VendorID: id, BusyDates: count})
}
