// internal/api/vendors/ratings.go
package vendors

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coneyproductions/vms-sub001/internal/api/apiutil"
	"github.com/coneyproductions/vms-sub001/internal/store"
)

type ratingRequest struct {
	PlanID  *int64 `json:"plan_id"`
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

// POST /api/v1/vendors/{id}/ratings
func HandleCreateRating(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req ratingRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Stars < 1 || req.Stars > 5 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "stars must be between 1 and 5")
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

	ratingID, err := s.CreateRating(ctx, store.Rating{
		VendorID: id,
		PlanID:   req.PlanID,
		Stars:    req.Stars,
		Comment:  req.Comment,
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to create rating")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create rating")
		return
	}

	apiutil.WriteJSON(w, r, http.StatusCreated, store.Rating{
		ID:       ratingID,
		VendorID: id,
		PlanID:   req.PlanID,
		Stars:    req.Stars,
		Comment:  req.Comment,
	})
}

type ratingsResponse struct {
	Average float64        `json:"average"`
	Count   int            `json:"count"`
	Ratings []store.Rating `json:"ratings"`
}

// GET /api/v1/vendors/{id}/ratings
func HandleListRatings(w http.ResponseWriter, r *http.Request) {
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

	ratings, err := s.ListRatings(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to list ratings")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list ratings")
		return
	}
	avg, count, err := s.VendorAverageRating(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("vendor_id", id).Msg("Failed to compute rating average")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list ratings")
		return
	}
	if ratings == nil {
		ratings = []store.Rating{}
	}
	apiutil.WriteJSON(w, r, http.StatusOK, ratingsResponse{Average: avg, Count: count, Ratings: ratings})
}
