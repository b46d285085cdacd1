// internal/ads/tiers.go
package ads

import (
	"fmt"
	"strings"
	"time"
)

// Preset selects how the campaign window is split into tiers.
type Preset string

const (
	PresetManualDates Preset = "manual_dates"
	PresetFlatRun     Preset = "flat_run"
	PresetSimple7Day  Preset = "simple_7_day"
	PresetSimple14Day Preset = "simple_14_day"
	PresetSimple30Day Preset = "simple_30_day"
	PresetSimple      Preset = "simple"
	PresetAutoramp    Preset = "autoramp"
)

// Tier is one budget/time-boxed slice of the campaign.
type Tier struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	BudgetMinor int64     `json:"budget_minor"`
}

// BuildError is a policy violation surfaced to the caller as a named
// code; it is never fatal.
type BuildError struct {
	Code    string
	Message string
}

func (e *BuildError) Error() string { return e.Message }

var (
	ErrEventNotFuture     = &BuildError{Code: "event_not_future", Message: "event start must be after today"}
	ErrInvalidManualDates = &BuildError{Code: "invalid_manual_dates", Message: "manual dates are missing, unparseable, or end is not after start"}
	ErrNoTiers            = &BuildError{Code: "no_tiers", Message: "no usable tiers remain for this event"}
	ErrTierBudgetInvalid  = &BuildError{Code: "tier_budget_invalid", Message: "tier budget must be greater than zero"}
	ErrTierBudgetOverMax  = &BuildError{Code: "tier_budget_over_max", Message: "tier budget exceeds the configured lifetime maximum"}
)

// Percentage defaults per ramp tier. Simple mode and autoramp carry
// different tables; both are long-standing observed behavior and are
// kept as-is rather than reconciled.
var (
	simplePercents   = map[string]int64{"d30": 30, "d14": 30, "d7": 40}
	autorampPercents = map[string]int64{"d30": 20, "d14": 30, "d7": 50}
)

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Allocator builds tier schedules and budget splits.
type Allocator struct {
	// MaxTierBudgetMinor clamps any single tier's budget. Zero means
	// no clamp.
	MaxTierBudgetMinor int64

	clock Clock
}

// NewAllocator creates an Allocator with the given per-tier budget
// clamp. A nil clock uses real time.
func NewAllocator(maxTierBudgetMinor int64, clock Clock) *Allocator {
	if clock == nil {
		clock = realClock{}
	}
	return &Allocator{
		MaxTierBudgetMinor: maxTierBudgetMinor,
		clock:              clock,
	}
}

// BuildRequest carries everything BuildTiers needs.
type BuildRequest struct {
	Preset           Preset
	EventStart       time.Time
	TotalBudgetMinor int64

	// TierBudgetOverrides maps ramp tier keys (d30/d14/d7) to explicit
	// minor-unit budgets, overriding the percentage defaults.
	TierBudgetOverrides map[string]int64

	// EndBufferHours pulls every schedule end this many hours before
	// the event start.
	EndBufferHours int

	// ManualStart / ManualEnd bound the single manual_dates tier.
	// Accepted layouts: "2006-01-02T15:04" or "2006-01-02".
	ManualStart string
	ManualEnd   string
}

// BuildTiers computes the ordered tier list for the request. Tiers
// whose window has already closed are dropped, and the budget split
// always sums exactly to TotalBudgetMinor: any rounding remainder is
// absorbed by the last tier.
func (a *Allocator) BuildTiers(req BuildRequest) ([]Tier, error) {
	now := a.clock.Now()
	today := startOfDay(now)

	if !startOfDay(req.EventStart).After(today) {
		return nil, ErrEventNotFuture
	}

	runEnd := req.EventStart.Add(-time.Duration(req.EndBufferHours) * time.Hour)

	var tiers []Tier
	switch req.Preset {
	case PresetManualDates:
		start, err := parseManualDate(req.ManualStart, now.Location())
		if err != nil {
			return nil, ErrInvalidManualDates
		}
		end, err := parseManualDate(req.ManualEnd, now.Location())
		if err != nil {
			return nil, ErrInvalidManualDates
		}
		if !end.After(start) {
			return nil, ErrInvalidManualDates
		}
		tiers = []Tier{{
			Key:         "manual",
			Label:       "Manual window",
			Start:       start,
			End:         end,
			BudgetMinor: req.TotalBudgetMinor,
		}}

	case PresetFlatRun:
		tiers = []Tier{{
			Key:         "flat",
			Label:       "Flat run",
			Start:       today,
			End:         runEnd,
			BudgetMinor: req.TotalBudgetMinor,
		}}

	case PresetSimple7Day, PresetSimple14Day, PresetSimple30Day:
		days := map[Preset]int{
			PresetSimple7Day:  7,
			PresetSimple14Day: 14,
			PresetSimple30Day: 30,
		}[req.Preset]
		start := req.EventStart.AddDate(0, 0, -days)
		if start.Before(today) {
			start = today
		}
		tiers = []Tier{{
			Key:         fmt.Sprintf("d%d_flat", days),
			Label:       fmt.Sprintf("%d-day run", days),
			Start:       start,
			End:         runEnd,
			BudgetMinor: req.TotalBudgetMinor,
		}}

	case PresetSimple, PresetAutoramp, "":
		percents := autorampPercents
		if req.Preset == PresetSimple {
			percents = simplePercents
		}
		tiers = a.rampTiers(req, today, runEnd, percents)

	default:
		return nil, &BuildError{Code: "unknown_preset", Message: fmt.Sprintf("unknown preset %q", req.Preset)}
	}

	tiers = dropDeadTiers(tiers, now)
	if len(tiers) == 0 {
		return nil, ErrNoTiers
	}

	reconcileBudgets(tiers, req.TotalBudgetMinor)

	for _, tier := range tiers {
		if tier.BudgetMinor <= 0 {
			return nil, fmt.Errorf("tier %s: %w", tier.Key, ErrTierBudgetInvalid)
		}
		if a.MaxTierBudgetMinor > 0 && tier.BudgetMinor > a.MaxTierBudgetMinor {
			return nil, fmt.Errorf("tier %s: %w", tier.Key, ErrTierBudgetOverMax)
		}
	}
	return tiers, nil
}

// rampTiers builds the up-to-three-tier ramp. Windows are contiguous
// and non-overlapping: awareness runs 15 to 8 days out, consideration
// 8 to 4 days out, and the final push from 4 days out to the buffered
// event start.
func (a *Allocator) rampTiers(req BuildRequest, today time.Time, runEnd time.Time, percents map[string]int64) []Tier {
	daysOut := calendarDaysBetween(today, startOfDay(req.EventStart))

	var tiers []Tier
	if daysOut > 10 {
		tiers = append(tiers, Tier{
			Key:         "d30",
			Label:       "Awareness",
			Start:       laterOf(today, req.EventStart.AddDate(0, 0, -15)),
			End:         req.EventStart.AddDate(0, 0, -8),
			BudgetMinor: resolveBudget(req, "d30", percents),
		})
	}
	if daysOut > 6 {
		tiers = append(tiers, Tier{
			Key:         "d14",
			Label:       "Consideration",
			Start:       laterOf(today, req.EventStart.AddDate(0, 0, -8)),
			End:         req.EventStart.AddDate(0, 0, -4),
			BudgetMinor: resolveBudget(req, "d14", percents),
		})
	}
	tiers = append(tiers, Tier{
		Key:         "d7",
		Label:       "Final push",
		Start:       laterOf(today, req.EventStart.AddDate(0, 0, -4)),
		End:         runEnd,
		BudgetMinor: resolveBudget(req, "d7", percents),
	})
	return tiers
}

func resolveBudget(req BuildRequest, key string, percents map[string]int64) int64 {
	if override, ok := req.TierBudgetOverrides[key]; ok {
		return override
	}
	return req.TotalBudgetMinor * percents[key] / 100
}

// dropDeadTiers removes tiers whose window never opens or has already
// closed.
func dropDeadTiers(tiers []Tier, now time.Time) []Tier {
	kept := tiers[:0]
	for _, tier := range tiers {
		if !tier.End.After(tier.Start) {
			continue
		}
		if !tier.End.After(now) {
			continue
		}
		kept = append(kept, tier)
	}
	return kept
}

// reconcileBudgets forces the split to sum exactly to total by pushing
// the delta into the last tier.
func reconcileBudgets(tiers []Tier, total int64) {
	var sum int64
	for _, tier := range tiers {
		sum += tier.BudgetMinor
	}
	if delta := total - sum; delta != 0 {
		tiers[len(tiers)-1].BudgetMinor += delta
	}
}

func parseManualDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty manual date")
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", raw, loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, loc)
}

// calendarDaysBetween counts whole calendar days from a to b, both
// midnights in the same location. Noon anchors plus rounding keep a
// DST-shortened day from truncating the count.
func calendarDaysBetween(a, b time.Time) int {
	elapsed := b.Add(12 * time.Hour).Sub(a.Add(12 * time.Hour))
	return int(elapsed.Round(24*time.Hour) / (24 * time.Hour))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
