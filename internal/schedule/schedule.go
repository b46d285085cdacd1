// internal/schedule/schedule.go
package schedule

import (
	"time"
)

// DateLayout is the wire format for calendar dates throughout the service.
const DateLayout = "2006-01-02"

// OpenState is a manual per-date override value.
type OpenState string

const (
	StateOpen   OpenState = "open"
	StateClosed OpenState = "closed"
)

// Reason explains why a date resolved open or closed.
type Reason string

const (
	ReasonNotConfigured  Reason = "not_configured"
	ReasonOverrideOpen   Reason = "override_open"
	ReasonOverrideClosed Reason = "override_closed"
	ReasonClosedDay      Reason = "closed_day"
	ReasonOpenDay        Reason = "open_day"
	ReasonInSeason       Reason = "in_season"
	ReasonOutOfSeason    Reason = "out_of_season"
)

// Source identifies which rule layer produced a decision.
type Source string

const (
	SourceNone     Source = ""
	SourceOverride Source = "override"
	SourcePattern  Source = "pattern"
	SourceSeason   Source = "season"
)

// Season is an inclusive date range during which the weekly open-day
// pattern applies. Start and End are YYYY-MM-DD strings; a season with
// an unparseable bound never matches.
type Season struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Config is a venue's full schedule configuration. An empty OpenDays
// set means the venue has never been configured and is closed on every
// date, which is distinct from a configured-but-closed day.
type Config struct {
	OpenDays  map[time.Weekday]bool
	YearRound bool
	Seasons   []Season
	Overrides map[string]OpenState // keyed by YYYY-MM-DD

	// Location is the venue's timezone. Nil means time.Local.
	Location *time.Location
}

func (c Config) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.Local
}

// Decision is the outcome of resolving one (venue, date) pair.
type Decision struct {
	Open   bool   `json:"open"`
	Reason Reason `json:"reason"`
	Source Source `json:"source,omitempty"`
}

// Resolve decides whether the venue is open on the given YYYY-MM-DD
// date. Precedence, first match wins: unconfigured venue, manual
// override, weekly open-day pattern, year-round flag, season windows.
// An unparseable date degrades to the closed not_configured decision.
func Resolve(cfg Config, date string) Decision {
	if len(cfg.OpenDays) == 0 {
		return Decision{Open: false, Reason: ReasonNotConfigured, Source: SourceNone}
	}

	day, err := time.ParseInLocation(DateLayout, date, cfg.location())
	if err != nil {
		return Decision{Open: false, Reason: ReasonNotConfigured, Source: SourceNone}
	}

	if state, ok := cfg.Overrides[date]; ok {
		if state == StateOpen {
			return Decision{Open: true, Reason: ReasonOverrideOpen, Source: SourceOverride}
		}
		return Decision{Open: false, Reason: ReasonOverrideClosed, Source: SourceOverride}
	}

	// Midday anchor so DST transitions cannot shift the weekday.
	noon := day.Add(12 * time.Hour)
	if !cfg.OpenDays[noon.Weekday()] {
		return Decision{Open: false, Reason: ReasonClosedDay, Source: SourcePattern}
	}

	if cfg.YearRound {
		return Decision{Open: true, Reason: ReasonOpenDay, Source: SourcePattern}
	}

	// No seasons configured behaves like year-round. Observed behavior
	// in production data; see DESIGN.md.
	if len(cfg.Seasons) == 0 {
		return Decision{Open: true, Reason: ReasonOpenDay, Source: SourcePattern}
	}

	for _, season := range cfg.Seasons {
		if seasonContains(season, date) {
			return Decision{Open: true, Reason: ReasonInSeason, Source: SourceSeason}
		}
	}
	return Decision{Open: false, Reason: ReasonOutOfSeason, Source: SourceSeason}
}

// seasonContains reports whether the date falls within the inclusive
// [start, end] season range. Bounds are compared as calendar dates, so
// a DST transition at the season edge cannot stretch or shrink the
// window. YYYY-MM-DD strings order lexicographically.
func seasonContains(season Season, date string) bool {
	if _, err := time.Parse(DateLayout, season.Start); err != nil {
		return false
	}
	if _, err := time.Parse(DateLayout, season.End); err != nil {
		return false
	}
	return date >= season.Start && date <= season.End
}
