// internal/api/vendors/handlers.go
package vendors

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coneyproductions/vms-sub001/internal/api/apiutil"
	"github.com/coneyproductions/vms-sub001/internal/email"
	"github.com/coneyproductions/vms-sub001/internal/store"
	vendordomain "github.com/coneyproductions/vms-sub001/internal/vendors"
)

const vendorQueryTimeout = 5 * time.Second

var (
	db       *store.Store
	notifier *email.Notifier
	syncer   *vendordomain.Syncer
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling
// requests. The notifier and syncer may be nil; approval emails and
// calendar sync are then disabled.
func InitHandlers(s *store.Store, n *email.Notifier, sy *vendordomain.Syncer) {
	if s == nil {
		return
	}
	initOnce.Do(func() {
		db = s
		notifier = n
		syncer = sy
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

type vendorRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	ICSURL string `json:"ics_url"`
}

// POST /api/v1/vendors
func HandleCreateVendor(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	var req vendorRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}

	intake := vendordomain.Intake{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		ICSURL: req.ICSURL,
	}
	if err := intake.Validate(); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), vendorQueryTimeout)
	defer cancel()

	id, err := s.CreateVendor(ctx, store.Vendor{
		Name:   intake.Name,
		Email:  intake.Email,
		Phone:  intake.Phone,
		ICSURL: intake.ICSURL,
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to create vendor")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create vendor")
		return
	}

	vendor, err := s.GetVendorByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to load created vendor")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load vendor")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusCreated, vendor)
}

// GET /api/v1/vendors?status=
func HandleListVendors(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "", store.VendorStatusPending, store.VendorStatusApproved, store.VendorStatusRejected:
	default:
		apiutil.WriteError(w, r, http.StatusBadRequest, "status must be pending, approved or rejected")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), vendorQueryTimeout)
	defer cancel()

	list, err := s.ListVendors(ctx, status)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list vendors")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list vendors")
		return
	}
	if list == nil {
		list = []store.Vendor{}
	}
	apiutil.WriteJSON(w, r, http.StatusOK, list)
}

// GET /api/v1/vendors/{id}
func HandleGetVendor(w http.ResponseWriter, r *http.Request) {
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
	apiutil.WriteJSON(w, r, http.StatusOK, vendor)
}

// PUT /api/v1/vendors/{id}
func HandleUpdateVendor(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req vendorRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}
	intake := vendordomain.Intake{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		ICSURL: req.ICSURL,
	}
	if err := intake.Validate(); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), vendorQueryTimeout)
	defer cancel()

	err = s.UpdateVendor(ctx, store.Vendor{
		ID:     id,
		Name:   intake.Name,
		Email:  intake.Email,
		Phone:  intake.Phone,
		ICSURL: intake.ICSURL,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Vendor not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to update vendor")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update vendor")
		return
	}

	vendor, err := s.GetVendorByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to load updated vendor")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load vendor")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, vendor)
}

// DELETE /api/v1/vendors/{id}
func HandleDeleteVendor(w http.ResponseWriter, r *http.Request) {
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

	if err := s.DeleteVendor(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Vendor not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to delete vendor")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to delete vendor")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/vendors/{id}/approve
func HandleApproveVendor(w http.ResponseWriter, r *http.Request) {
	setVendorStatus(w, r, store.VendorStatusApproved)
}

// POST /api/v1/vendors/{id}/reject
func HandleRejectVendor(w http.ResponseWriter, r *http.Request) {
	setVendorStatus(w, r, store.VendorStatusRejected)
}

func setVendorStatus(w http.ResponseWriter, r *http.Request, status string) {
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

	if err := s.SetVendorStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Vendor not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to update vendor status")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update vendor status")
		return
	}

	vendor, err := s.GetVendorByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to load vendor after status change")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load vendor")
		return
	}

	// Notification failures must not fail the status change.
	if notifier != nil {
		var notifyErr error
		switch status {
		case store.VendorStatusApproved:
			notifyErr = notifier.VendorApproved(ctx, vendor.Email, vendor.Name)
		case store.VendorStatusRejected:
			notifyErr = notifier.VendorRejected(ctx, vendor.Email, vendor.Name)
		}
		if notifyErr != nil {
			log.Ctx(r.Context()).Warn().Err(notifyErr).Int64("vendor_id", id).Msg("Failed to send vendor status email")
		}
	}

	apiutil.WriteJSON(w, r, http.StatusOK, vendor)
}
