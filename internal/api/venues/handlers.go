// internal/api/venues/handlers.go
package venues

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
	"github.com/coneyproductions/vms-sub001/internal/store"
)

const venueQueryTimeout = 5 * time.Second

var (
	db     *store.Store
	dbOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *store.Store) {
	if s == nil {
		return
	}
	dbOnce.Do(func() {
		db = s
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

type venueRequest struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Timezone  string `json:"timezone"`
	YearRound bool   `json:"year_round"`
	OpenDays  []int  `json:"open_days"`
}

func (req *venueRequest) validate(requireSlug bool) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	req.Slug = strings.TrimSpace(req.Slug)
	if requireSlug && req.Slug == "" {
		return errors.New("slug is required")
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return errors.New("timezone is invalid")
	}
	for _, day := range req.OpenDays {
		if day < 0 || day > 6 {
			return errors.New("open_days entries must be 0-6")
		}
	}
	return nil
}

// POST /api/v1/venues
func HandleCreateVenue(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	var req venueRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(true); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	id, err := s.CreateVenue(ctx, store.Venue{
		Name:      req.Name,
		Slug:      req.Slug,
		Timezone:  req.Timezone,
		YearRound: req.YearRound,
		OpenDays:  req.OpenDays,
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to create venue")
		apiutil.WriteError(w, r, http.StatusConflict, "Failed to create venue")
		return
	}

	venue, err := s.GetVenueByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to load created venue")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load venue")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusCreated, venue)
}

// GET /api/v1/venues
func HandleListVenues(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	venues, err := s.ListVenues(ctx)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list venues")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list venues")
		return
	}
	if venues == nil {
		venues = []store.Venue{}
	}
	apiutil.WriteJSON(w, r, http.StatusOK, venues)
}

// GET /api/v1/venues/{id}
func HandleGetVenue(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	venue, err := s.GetVenueByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Venue not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to load venue")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load venue")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, venue)
}

// PUT /api/v1/venues/{id}
func HandleUpdateVenue(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req venueRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(false); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	err = s.UpdateVenue(ctx, store.Venue{
		ID:        id,
		Name:      req.Name,
		Timezone:  req.Timezone,
		YearRound: req.YearRound,
		OpenDays:  req.OpenDays,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Venue not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to update venue")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update venue")
		return
	}

	venue, err := s.GetVenueByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to load updated venue")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load venue")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, venue)
}

// DELETE /api/v1/venues/{id}
func HandleDeleteVenue(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	if err := s.DeleteVenue(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Venue not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to delete venue")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to delete venue")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
