package schedule

import (
	"testing"
	"time"
)

func weekendConfig() Config {
	return Config{
		OpenDays: map[time.Weekday]bool{
			time.Friday:   true,
			time.Saturday: true,
		},
		Location: time.UTC,
	}
}

func TestResolve_NotConfigured(t *testing.T) {
	cfg := Config{
		Overrides: map[string]OpenState{"2026-05-29": StateOpen},
		Seasons:   []Season{{Start: "2026-01-01", End: "2026-12-31"}},
		Location:  time.UTC,
	}

	for _, date := range []string{"2026-05-25", "2026-05-29", "2026-07-04"} {
		decision := Resolve(cfg, date)
		if decision.Open {
			t.Fatalf("%s: expected closed for unconfigured venue", date)
		}
		if decision.Reason != ReasonNotConfigured {
			t.Fatalf("%s: reason = %s", date, decision.Reason)
		}
	}
}

func TestResolve_ClosedDay(t *testing.T) {
	// 2026-05-25 is a Monday; only Friday and Saturday are open days.
	decision := Resolve(weekendConfig(), "2026-05-25")
	if decision.Open {
		t.Fatalf("expected closed on Monday")
	}
	if decision.Reason != ReasonClosedDay {
		t.Fatalf("reason = %s", decision.Reason)
	}
	if decision.Source != SourcePattern {
		t.Fatalf("source = %s", decision.Source)
	}
}

func TestResolve_OverrideWinsOverPattern(t *testing.T) {
	cfg := weekendConfig()
	// 2026-05-29 is a Friday that would otherwise be open.
	cfg.Overrides = map[string]OpenState{"2026-05-29": StateClosed}

	decision := Resolve(cfg, "2026-05-29")
	if decision.Open {
		t.Fatalf("expected override to close the date")
	}
	if decision.Reason != ReasonOverrideClosed {
		t.Fatalf("reason = %s", decision.Reason)
	}
	if decision.Source != SourceOverride {
		t.Fatalf("source = %s", decision.Source)
	}
}

func TestResolve_OverrideOpensClosedDay(t *testing.T) {
	cfg := weekendConfig()
	cfg.Overrides = map[string]OpenState{"2026-05-25": StateOpen}

	decision := Resolve(cfg, "2026-05-25")
	if !decision.Open {
		t.Fatalf("expected override to open a Monday")
	}
	if decision.Reason != ReasonOverrideOpen {
		t.Fatalf("reason = %s", decision.Reason)
	}
	if decision.Source != SourceOverride {
		t.Fatalf("source = %s", decision.Source)
	}
}

func TestResolve_NoSeasonsBehavesLikeYearRound(t *testing.T) {
	cfg := weekendConfig()

	decision := Resolve(cfg, "2026-05-29")
	if !decision.Open {
		t.Fatalf("expected open Friday with no seasons configured")
	}
	if decision.Reason != ReasonOpenDay {
		t.Fatalf("reason = %s", decision.Reason)
	}

	cfg.YearRound = true
	if got := Resolve(cfg, "2026-05-29"); got != decision {
		t.Fatalf("year-round and no-seasons decisions differ: %+v vs %+v", got, decision)
	}
}

func TestResolve_SeasonWindow(t *testing.T) {
	cfg := weekendConfig()
	cfg.Seasons = []Season{
		{Start: "2026-06-01", End: "2026-08-31"},
		{Start: "2026-12-01", End: "2026-12-31"},
	}

	// Friday inside the summer season.
	if decision := Resolve(cfg, "2026-06-05"); !decision.Open || decision.Reason != ReasonInSeason || decision.Source != SourceSeason {
		t.Fatalf("in-season decision: %+v", decision)
	}
	// Season bounds are inclusive.
	if decision := Resolve(cfg, "2026-12-25"); !decision.Open || decision.Reason != ReasonInSeason {
		t.Fatalf("december season decision: %+v", decision)
	}
	// Friday outside every season.
	if decision := Resolve(cfg, "2026-05-29"); decision.Open || decision.Reason != ReasonOutOfSeason || decision.Source != SourceSeason {
		t.Fatalf("out-of-season decision: %+v", decision)
	}
	// Closed-day check still precedes season matching.
	if decision := Resolve(cfg, "2026-06-08"); decision.Open || decision.Reason != ReasonClosedDay {
		t.Fatalf("monday in season decision: %+v", decision)
	}
}

func TestResolve_SeasonEndOnDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	cfg := Config{
		OpenDays: map[time.Weekday]bool{
			time.Sunday: true,
			time.Monday: true,
		},
		// US DST starts 2026-03-08; that Sunday has only 23 hours.
		Seasons:  []Season{{Start: "2026-03-01", End: "2026-03-08"}},
		Location: loc,
	}

	if decision := Resolve(cfg, "2026-03-08"); !decision.Open || decision.Reason != ReasonInSeason {
		t.Fatalf("season end day decision: %+v", decision)
	}
	// The shortened day must not leak the season into Monday.
	if decision := Resolve(cfg, "2026-03-09"); decision.Open || decision.Reason != ReasonOutOfSeason {
		t.Fatalf("day after season end decision: %+v", decision)
	}
}

func TestResolve_InvalidSeasonBoundNeverMatches(t *testing.T) {
	cfg := weekendConfig()
	cfg.Seasons = []Season{{Start: "junk", End: "2026-12-31"}}

	if decision := Resolve(cfg, "2026-06-05"); decision.Open {
		t.Fatalf("season with bad start should not match: %+v", decision)
	}
}

func TestResolve_InvalidDateDegradesClosed(t *testing.T) {
	for _, date := range []string{"", "not-a-date", "2026-13-40", "05/29/2026"} {
		decision := Resolve(weekendConfig(), date)
		if decision.Open {
			t.Fatalf("%q: expected closed", date)
		}
		if decision.Reason != ReasonNotConfigured {
			t.Fatalf("%q: reason = %s", date, decision.Reason)
		}
	}
}

func TestResolve_OverrideIgnoredWhenNotConfigured(t *testing.T) {
	cfg := Config{
		Overrides: map[string]OpenState{"2026-05-29": StateOpen},
		Location:  time.UTC,
	}
	decision := Resolve(cfg, "2026-05-29")
	if decision.Open || decision.Reason != ReasonNotConfigured {
		t.Fatalf("decision: %+v", decision)
	}
}
