package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/coneyproductions/vms-sub001/internal/vendors"
)

const calendarSyncTimeout = 10 * time.Minute

// RegisterCalendarSyncJob registers the periodic vendor calendar sync.
// An empty cron expression disables the job.
func RegisterCalendarSyncJob(syncer *vendors.Syncer, cronExpr string) error {
	if cronExpr == "" {
		log.Info().Msg("Vendor calendar sync job disabled")
		return nil
	}
	if syncer == nil {
		return fmt.Errorf("calendar sync job requires a syncer")
	}

	jobName := "vendor_calendar_sync"
	jobLogger := log.With().
		Str("component", "vendor_calendar_sync_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), calendarSyncTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if err := syncer.SyncAll(ctx); err != nil {
			jobLogger.Error().Err(err).Msg("Vendor calendar sync run failed")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add vendor calendar sync job: %w", err)
	}

	jobLogger.Info().Msg("Vendor calendar sync job registered")
	return nil
}
