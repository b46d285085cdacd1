// internal/api/venues/schedule.go
package venues

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coneyproductions/vms-sub001/internal/api/apiutil"
	"github.com/coneyproductions/vms-sub001/internal/schedule"
	"github.com/coneyproductions/vms-sub001/internal/store"
)

type seasonsRequest struct {
	Seasons []struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"seasons"`
}

// PUT /api/v1/venues/{id}/seasons
func HandleReplaceSeasons(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req seasonsRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}

	seasons := make([]store.Season, 0, len(req.Seasons))
	for _, season := range req.Seasons {
		start, err := apiutil.ValidateDateField(season.Start, "start")
		if err != nil {
			apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		end, err := apiutil.ValidateDateField(season.End, "end")
		if err != nil {
			apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if end < start {
			apiutil.WriteError(w, r, http.StatusBadRequest, "season end must not precede start")
			return
		}
		seasons = append(seasons, store.Season{Start: start, End: end})
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	if _, err := s.GetVenueByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Venue not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to load venue")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load venue")
		return
	}

	if err := s.ReplaceVenueSeasons(ctx, id, seasons); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to replace seasons")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to replace seasons")
		return
	}

	stored, err := s.ListVenueSeasons(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to list seasons")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list seasons")
		return
	}
	if stored == nil {
		stored = []store.Season{}
	}
	apiutil.WriteJSON(w, r, http.StatusOK, stored)
}

type overrideRequest struct {
	Date  string `json:"date"`
	State string `json:"state"`
}

// PUT /api/v1/venues/{id}/overrides
func HandleUpsertOverride(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req overrideRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}
	date, err := apiutil.ValidateDateField(req.Date, "date")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.State != string(schedule.StateOpen) && req.State != string(schedule.StateClosed) {
		apiutil.WriteError(w, r, http.StatusBadRequest, "state must be open or closed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	if _, err := s.GetVenueByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Venue not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to load venue")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load venue")
		return
	}

	if err := s.UpsertDateOverride(ctx, id, store.DateOverride{Date: date, State: req.State}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to save date override")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to save date override")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, store.DateOverride{Date: date, State: req.State})
}

// DELETE /api/v1/venues/{id}/overrides/{date}
func HandleDeleteOverride(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	if err := s.DeleteDateOverride(ctx, id, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Override not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to delete date override")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to delete date override")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scheduleResponse struct {
	Date     string            `json:"date"`
	Decision schedule.Decision `json:"decision"`
}

// GET /api/v1/venues/{id}/schedule?date=YYYY-MM-DD
func HandleResolveSchedule(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	date, err := apiutil.ValidateDateField(r.URL.Query().Get("date"), "date")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	cfg, err := s.ScheduleConfig(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Venue not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to load schedule config")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load schedule")
		return
	}

	apiutil.WriteJSON(w, r, http.StatusOK, scheduleResponse{
		Date:     date,
		Decision: schedule.Resolve(cfg, date),
	})
}

type activeDatesResponse struct {
	WindowStart string   `json:"window_start"`
	WindowEnd   string   `json:"window_end"`
	Dates       []string `json:"dates"`
}

// GET /api/v1/venues/{id}/active-dates
func HandleActiveDates(w http.ResponseWriter, r *http.Request) {
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

	cfg, err := s.ScheduleConfig(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Venue not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", id).Msg("Failed to load schedule config")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load schedule")
		return
	}

	window := schedule.DefaultWindow(time.Now())
	dates := schedule.ActiveDates(cfg, window)
	if dates == nil {
		dates = []string{}
	}
	apiutil.WriteJSON(w, r, http.StatusOK, activeDatesResponse{
		WindowStart: window.Start.Format(schedule.DateLayout),
		WindowEnd:   window.End.Format(schedule.DateLayout),
		Dates:       dates,
	})
}
