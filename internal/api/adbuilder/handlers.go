// internal/api/adbuilder/handlers.go
package adbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coneyproductions/vms-sub001/internal/ads"
	"github.com/coneyproductions/vms-sub001/internal/ads/meta"
	"github.com/coneyproductions/vms-sub001/internal/api/apiutil"
	"github.com/coneyproductions/vms-sub001/internal/store"
)

const (
	buildQueryTimeout = 5 * time.Second
	// Meta's Graph API can be slow under load.
	submitTimeout = 30 * time.Second
)

var (
	db             *store.Store
	allocator      *ads.Allocator
	metaClient     *meta.Client
	guard          *ads.LockGuard
	baseURL        string
	endBufferHours int
	initOnce       sync.Once
)

// InitHandlers must be called during server startup before handling
// requests. The meta client may be unconfigured; submission then
// returns 503. defaultEndBufferHours applies when a build request
// omits end_buffer_hours.
func InitHandlers(s *store.Store, a *ads.Allocator, m *meta.Client, g *ads.LockGuard, appBaseURL string, defaultEndBufferHours int) {
	if s == nil || a == nil {
		return
	}
	initOnce.Do(func() {
		db = s
		allocator = a
		metaClient = m
		guard = g
		baseURL = appBaseURL
		endBufferHours = defaultEndBufferHours
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

type buildRequest struct {
	PlanID              int64            `json:"plan_id"`
	Preset              string           `json:"preset"`
	TotalBudgetMinor    int64            `json:"total_budget_minor"`
	TierBudgetOverrides map[string]int64 `json:"tier_budget_overrides"`
	ManualStart         string           `json:"manual_start"`
	ManualEnd           string           `json:"manual_end"`

	// Nil falls back to the configured default; an explicit zero
	// disables the buffer.
	EndBufferHours *int `json:"end_buffer_hours"`
}

type buildErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// POST /api/v1/ad-builds
func HandleCreateBuild(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	var req buildRequest
	if !apiutil.DecodeJSON(w, r, &req) {
		return
	}
	if req.PlanID <= 0 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "plan_id is required")
		return
	}
	if req.TotalBudgetMinor <= 0 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "total_budget_minor must be greater than zero")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), buildQueryTimeout)
	defer cancel()

	plan, err := s.GetPlanByID(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Plan not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", req.PlanID).Msg("Failed to load plan")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load plan")
		return
	}
	if plan.Status == store.PlanStatusCancelled {
		apiutil.WriteError(w, r, http.StatusConflict, "Cannot build ads for a cancelled plan")
		return
	}

	venue, err := s.GetVenueByID(ctx, plan.VenueID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("venue_id", plan.VenueID).Msg("Failed to load venue")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load venue")
		return
	}

	loc, err := time.LoadLocation(venue.Timezone)
	if err != nil {
		loc = time.UTC
	}
	eventStart, err := time.ParseInLocation("2006-01-02 15:04", plan.EventDate+" "+plan.StartTime, loc)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", plan.ID).Msg("Plan has an unparseable event start")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Plan event start is invalid")
		return
	}

	buffer := endBufferHours
	if req.EndBufferHours != nil {
		buffer = *req.EndBufferHours
	}

	tiers, err := allocator.BuildTiers(ads.BuildRequest{
		Preset:              ads.Preset(req.Preset),
		EventStart:          eventStart,
		TotalBudgetMinor:    req.TotalBudgetMinor,
		TierBudgetOverrides: req.TierBudgetOverrides,
		EndBufferHours:      buffer,
		ManualStart:         req.ManualStart,
		ManualEnd:           req.ManualEnd,
	})
	if err != nil {
		var buildErr *ads.BuildError
		if errors.As(err, &buildErr) {
			apiutil.WriteJSON(w, r, http.StatusUnprocessableEntity, buildErrorResponse{
				Error: err.Error(),
				Code:  buildErr.Code,
			})
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", plan.ID).Msg("Failed to build tiers")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to build tiers")
		return
	}

	campaignSlug := fmt.Sprintf("%s-%s", venue.Slug, plan.EventDate)
	destination, err := ads.DestinationURL(
		fmt.Sprintf("%s/events/%d", baseURL, plan.ID),
		ads.DefaultUTM(campaignSlug),
	)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", plan.ID).Msg("Failed to build destination URL")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to build destination URL")
		return
	}

	variants := ads.CopyVariants(ads.CopyInput{
		EventName: plan.Title,
		VenueName: venue.Name,
		EventDate: eventStart,
	})

	build := store.AdBuild{
		BuildKey:         uuid.New().String(),
		PlanID:           plan.ID,
		Preset:           ads.Preset(req.Preset),
		TotalBudgetMinor: req.TotalBudgetMinor,
		Tiers:            tiers,
		Copy:             variants,
		DestinationURL:   destination,
	}
	id, err := s.CreateAdBuild(ctx, build)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("plan_id", plan.ID).Msg("Failed to save ad build")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to save ad build")
		return
	}

	stored, err := s.GetAdBuildByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("build_id", id).Msg("Failed to load created ad build")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load ad build")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusCreated, stored)
}

// GET /api/v1/ad-builds?plan_id=
func HandleListBuilds(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	var planID int64
	if raw := r.URL.Query().Get("plan_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			apiutil.WriteError(w, r, http.StatusBadRequest, "plan_id must be a positive integer")
			return
		}
		planID = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), buildQueryTimeout)
	defer cancel()

	builds, err := s.ListAdBuilds(ctx, planID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to list ad builds")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list ad builds")
		return
	}
	if builds == nil {
		builds = []store.AdBuild{}
	}
	apiutil.WriteJSON(w, r, http.StatusOK, builds)
}

// GET /api/v1/ad-builds/{id}
func HandleGetBuild(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), buildQueryTimeout)
	defer cancel()

	build, err := s.GetAdBuildByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Ad build not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("build_id", id).Msg("Failed to load ad build")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load ad build")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, build)
}

// POST /api/v1/ad-builds/{id}/submit
func HandleSubmitBuild(w http.ResponseWriter, r *http.Request) {
	s := loadStore(w, r)
	if s == nil {
		return
	}
	if metaClient == nil || !metaClient.Configured() {
		apiutil.WriteError(w, r, http.StatusServiceUnavailable, "Meta integration is not configured")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	build, err := s.GetAdBuildByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Ad build not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("build_id", id).Msg("Failed to load ad build")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load ad build")
		return
	}
	if build.Status == store.BuildStatusSubmitted {
		apiutil.WriteError(w, r, http.StatusConflict, "Ad build was already submitted")
		return
	}

	if guard != nil {
		if !guard.Acquire(build.BuildKey, "submit") {
			apiutil.WriteError(w, r, http.StatusConflict, "Submission already in progress")
			return
		}
		defer guard.Release(build.BuildKey, "submit")
	}

	campaignName := build.BuildKey
	if plan, err := s.GetPlanByID(ctx, build.PlanID); err == nil {
		campaignName = fmt.Sprintf("%s %s", plan.Title, plan.EventDate)
	}

	campaign, err := metaClient.CreateCampaign(ctx, meta.CreateCampaignRequest{
		Name:                campaignName,
		Objective:           "OUTCOME_TRAFFIC",
		Status:              "PAUSED",
		LifetimeBudgetMinor: build.TotalBudgetMinor,
	})
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("build_id", id).Msg("Meta campaign creation failed")
		apiutil.WriteError(w, r, http.StatusBadGateway, "Meta campaign creation failed")
		return
	}

	if err := s.MarkAdBuildSubmitted(ctx, id, campaign.ID); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("build_id", id).Str("campaign_id", campaign.ID).
			Msg("Campaign created but build could not be marked submitted")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to record submission")
		return
	}

	stored, err := s.GetAdBuildByID(ctx, id)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int64("build_id", id).Msg("Failed to load submitted build")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load ad build")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, stored)
}

// GET /api/v1/meta/ping
func HandleMetaPing(w http.ResponseWriter, r *http.Request) {
	if metaClient == nil || !metaClient.Configured() {
		apiutil.WriteError(w, r, http.StatusServiceUnavailable, "Meta integration is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), buildQueryTimeout)
	defer cancel()

	identity, err := metaClient.TestConnection(ctx)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("Meta connection test failed")
		apiutil.WriteError(w, r, http.StatusBadGateway, "Meta connection test failed")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, identity)
}
