// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coneyproductions/vms-sub001/internal/ads"
	"github.com/coneyproductions/vms-sub001/internal/ads/meta"
	"github.com/coneyproductions/vms-sub001/internal/api"
	"github.com/coneyproductions/vms-sub001/internal/api/adbuilder"
	planapi "github.com/coneyproductions/vms-sub001/internal/api/plans"
	vendorapi "github.com/coneyproductions/vms-sub001/internal/api/vendors"
	venueapi "github.com/coneyproductions/vms-sub001/internal/api/venues"
	"github.com/coneyproductions/vms-sub001/internal/config"
	"github.com/coneyproductions/vms-sub001/internal/email"
	"github.com/coneyproductions/vms-sub001/internal/ics"
	"github.com/coneyproductions/vms-sub001/internal/scheduler"
	"github.com/coneyproductions/vms-sub001/internal/store"
	"github.com/coneyproductions/vms-sub001/internal/vendors"
)

func newServer(cfg *config.Config) (*http.Server, func(), error) {
	db, err := store.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}

	var notifier *email.Notifier
	if cfg.Email.AccessKeyID != "" && cfg.Email.SecretAccessKey != "" {
		sesClient, err := email.NewSESClient(
			cfg.Email.AccessKeyID,
			cfg.Email.SecretAccessKey,
			cfg.Email.Region,
			cfg.Email.Sender,
		)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init ses client: %w", err)
		}
		notifier = email.NewNotifier(sesClient)
	} else {
		log.Warn().Msg("SES credentials not configured; vendor emails disabled")
	}

	fetcher := ics.NewFetcher(time.Duration(cfg.ICS.FetchTimeoutSeconds) * time.Second)
	syncer := vendors.NewSyncer(db, fetcher)

	allocator := ads.NewAllocator(cfg.Meta.MaxTierBudgetMinor, nil)
	guard := ads.NewLockGuard(0, nil)
	metaClient := meta.NewClient(cfg.Meta.BaseURL, cfg.Meta.AdAccountID, cfg.Meta.AccessToken, 0)
	if !metaClient.Configured() {
		log.Warn().Msg("Meta credentials not configured; campaign submission disabled")
	}

	venueapi.InitHandlers(db)
	vendorapi.InitHandlers(db, notifier, syncer)
	planapi.InitHandlers(db, notifier)
	adbuilder.InitHandlers(db, allocator, metaClient, guard, cfg.App.BaseURL, cfg.Meta.EndBufferHours)

	if err := scheduler.Init(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("init scheduler: %w", err)
	}
	if err := scheduler.RegisterCalendarSyncJob(syncer, cfg.ICS.SyncCron); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("register calendar sync job: %w", err)
	}

	router := http.NewServeMux()
	registerRoutes(router)

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, cleanup, nil
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Venue routes
	mux.HandleFunc("POST /api/v1/venues", venueapi.HandleCreateVenue)
	mux.HandleFunc("GET /api/v1/venues", venueapi.HandleListVenues)
	mux.HandleFunc("GET /api/v1/venues/{id}", venueapi.HandleGetVenue)
	mux.HandleFunc("PUT /api/v1/venues/{id}", venueapi.HandleUpdateVenue)
	mux.HandleFunc("DELETE /api/v1/venues/{id}", venueapi.HandleDeleteVenue)
	mux.HandleFunc("PUT /api/v1/venues/{id}/seasons", venueapi.HandleReplaceSeasons)
	mux.HandleFunc("PUT /api/v1/venues/{id}/overrides", venueapi.HandleUpsertOverride)
	mux.HandleFunc("DELETE /api/v1/venues/{id}/overrides/{date}", venueapi.HandleDeleteOverride)
	mux.HandleFunc("GET /api/v1/venues/{id}/schedule", venueapi.HandleResolveSchedule)
	mux.HandleFunc("GET /api/v1/venues/{id}/active-dates", venueapi.HandleActiveDates)

	// Vendor routes
	mux.HandleFunc("POST /api/v1/vendors", vendorapi.HandleCreateVendor)
	mux.HandleFunc("GET /api/v1/vendors", vendorapi.HandleListVendors)
	mux.HandleFunc("GET /api/v1/vendors/{id}", vendorapi.HandleGetVendor)
	mux.HandleFunc("PUT /api/v1/vendors/{id}", vendorapi.HandleUpdateVendor)
	mux.HandleFunc("DELETE /api/v1/vendors/{id}", vendorapi.HandleDeleteVendor)
	mux.HandleFunc("POST /api/v1/vendors/{id}/approve", vendorapi.HandleApproveVendor)
	mux.HandleFunc("POST /api/v1/vendors/{id}/reject", vendorapi.HandleRejectVendor)
	mux.HandleFunc("GET /api/v1/vendors/{id}/availability", vendorapi.HandleListBusyDates)
	mux.HandleFunc("POST /api/v1/vendors/{id}/availability", vendorapi.HandleAddBusyDate)
	mux.HandleFunc("DELETE /api/v1/vendors/{id}/availability/{date}", vendorapi.HandleRemoveBusyDate)
	mux.HandleFunc("POST /api/v1/vendors/{id}/availability/sync", vendorapi.HandleSyncCalendar)
	mux.HandleFunc("POST /api/v1/vendors/{id}/ratings", vendorapi.HandleCreateRating)
	mux.HandleFunc("GET /api/v1/vendors/{id}/ratings", vendorapi.HandleListRatings)

	// Event plan routes
	mux.HandleFunc("POST /api/v1/plans", planapi.HandleCreatePlan)
	mux.HandleFunc("GET /api/v1/plans", planapi.HandleListPlans)
	mux.HandleFunc("GET /api/v1/plans/{id}", planapi.HandleGetPlan)
	mux.HandleFunc("PUT /api/v1/plans/{id}", planapi.HandleUpdatePlan)
	mux.HandleFunc("DELETE /api/v1/plans/{id}", planapi.HandleDeletePlan)
	mux.HandleFunc("POST /api/v1/plans/{id}/confirm", planapi.HandleConfirmPlan)
	mux.HandleFunc("POST /api/v1/plans/{id}/cancel", planapi.HandleCancelPlan)

	// Ad build routes
	mux.HandleFunc("POST /api/v1/ad-builds", adbuilder.HandleCreateBuild)
	mux.HandleFunc("GET /api/v1/ad-builds", adbuilder.HandleListBuilds)
	mux.HandleFunc("GET /api/v1/ad-builds/{id}", adbuilder.HandleGetBuild)
	mux.HandleFunc("POST /api/v1/ad-builds/{id}/submit", adbuilder.HandleSubmitBuild)
	mux.HandleFunc("GET /api/v1/meta/ping", adbuilder.HandleMetaPing)
}
