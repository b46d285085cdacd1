package ics

import (
	"sort"
	"testing"
	"time"

	"github.com/coneyproductions/vms-sub001/internal/schedule"
)

var testWindow = schedule.Window{
	Start: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
}

func feed(veventBodies ...string) []byte {
	out := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n"
	for _, body := range veventBodies {
		out += "BEGIN:VEVENT\r\n" + body + "END:VEVENT\r\n"
	}
	out += "END:VCALENDAR\r\n"
	return []byte(out)
}

func sortedDates(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func TestBusyDates_WeeklyCount(t *testing.T) {
	// Five Mondays at 18:00 starting 2026-05-04.
	body := feed("UID:weekly-1\r\nDTSTART:20260504T180000Z\r\nDTEND:20260504T200000Z\r\nRRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=5\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)

	want := []string{"2026-05-04", "2026-05-11", "2026-05-18", "2026-05-25", "2026-06-01"}
	got := sortedDates(busy)
	if len(got) != len(want) {
		t.Fatalf("busy dates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("busy dates = %v, want %v", got, want)
		}
	}

	// Every occurrence lands on a Monday.
	for _, d := range got {
		day, _ := time.ParseInLocation(schedule.DateLayout, d, time.UTC)
		if day.Weekday() != time.Monday {
			t.Fatalf("%s is a %s", d, day.Weekday())
		}
	}
}

func TestBusyDates_ExdateRemovesOccurrence(t *testing.T) {
	body := feed("UID:weekly-2\r\nDTSTART:20260504T180000Z\r\nDTEND:20260504T200000Z\r\nRRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=5\r\nEXDATE:20260511T180000Z\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)

	if _, ok := busy["2026-05-11"]; ok {
		t.Fatalf("EXDATE occurrence still busy: %v", sortedDates(busy))
	}
	if len(busy) != 4 {
		t.Fatalf("expected 4 busy dates, got %v", sortedDates(busy))
	}
}

func TestBusyDates_CancelledOverrideRemoves(t *testing.T) {
	body := feed(
		"UID:weekly-3\r\nDTSTART:20260504T180000Z\r\nDTEND:20260504T200000Z\r\nRRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=3\r\n",
		"UID:weekly-3\r\nRECURRENCE-ID:20260511T180000Z\r\nDTSTART:20260511T180000Z\r\nDTEND:20260511T200000Z\r\nSTATUS:CANCELLED\r\n",
	)

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)

	got := sortedDates(busy)
	want := []string{"2026-05-04", "2026-05-18"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("busy dates = %v, want %v", got, want)
	}
}

func TestBusyDates_OverrideRelocatesOccurrence(t *testing.T) {
	// The May 18 occurrence moves to Wednesday May 20.
	body := feed(
		"UID:weekly-4\r\nDTSTART:20260504T180000Z\r\nDTEND:20260504T200000Z\r\nRRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=3\r\n",
		"UID:weekly-4\r\nRECURRENCE-ID:20260518T180000Z\r\nDTSTART:20260520T183000Z\r\nDTEND:20260520T203000Z\r\n",
	)

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)

	if _, ok := busy["2026-05-18"]; ok {
		t.Fatalf("original occurrence still busy: %v", sortedDates(busy))
	}
	if _, ok := busy["2026-05-20"]; !ok {
		t.Fatalf("relocated occurrence missing: %v", sortedDates(busy))
	}
}

func TestBusyDates_OrphanOverrideDiscarded(t *testing.T) {
	body := feed("UID:orphan\r\nRECURRENCE-ID:20260518T180000Z\r\nDTSTART:20260520T183000Z\r\nDTEND:20260520T203000Z\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)
	if len(busy) != 0 {
		t.Fatalf("orphan override produced busy dates: %v", sortedDates(busy))
	}
}

func TestBusyDates_MorningEventNotBusy(t *testing.T) {
	// A 09:00-11:00 slot never touches the 17:00-23:59 show window.
	body := feed("UID:morning\r\nDTSTART:20260506T090000Z\r\nDTEND:20260506T110000Z\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)
	if len(busy) != 0 {
		t.Fatalf("morning event marked busy: %v", sortedDates(busy))
	}
}

func TestBusyDates_AllDayEventIsBusy(t *testing.T) {
	body := feed("UID:allday\r\nDTSTART;VALUE=DATE:20260506\r\nDTEND;VALUE=DATE:20260507\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)
	if _, ok := busy["2026-05-06"]; !ok {
		t.Fatalf("all-day event not busy: %v", sortedDates(busy))
	}
}

func TestBusyDates_ActiveSetIntersection(t *testing.T) {
	body := feed("UID:weekly-5\r\nDTSTART:20260504T180000Z\r\nDTEND:20260504T200000Z\r\nRRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=3\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	active := map[string]struct{}{"2026-05-11": {}}
	busy := BusyDates(events, active, testWindow, time.UTC)

	got := sortedDates(busy)
	if len(got) != 1 || got[0] != "2026-05-11" {
		t.Fatalf("busy dates = %v, want [2026-05-11]", got)
	}
}

func TestBusyDates_NonWeeklyRuleSkipped(t *testing.T) {
	body := feed("UID:monthly\r\nDTSTART:20260504T180000Z\r\nDTEND:20260504T200000Z\r\nRRULE:FREQ=MONTHLY;COUNT=6\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)
	if len(busy) != 0 {
		t.Fatalf("monthly rule expanded: %v", sortedDates(busy))
	}
}

func TestBusyDates_EndBeforeStartClamped(t *testing.T) {
	// DTEND before DTSTART: clamp to a zero-length occurrence at start.
	body := feed("UID:clamp\r\nDTSTART:20260506T180000Z\r\nDTEND:20260506T170000Z\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)
	if _, ok := busy["2026-05-06"]; !ok {
		t.Fatalf("clamped occurrence not busy: %v", sortedDates(busy))
	}
}

func TestBusyDates_UntilBoundsExpansion(t *testing.T) {
	body := feed("UID:until\r\nDTSTART:20260504T180000Z\r\nDTEND:20260504T200000Z\r\nRRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20260518T235959Z\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)

	got := sortedDates(busy)
	want := []string{"2026-05-04", "2026-05-11", "2026-05-18"}
	if len(got) != len(want) {
		t.Fatalf("busy dates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("busy dates = %v, want %v", got, want)
		}
	}
}

func TestBusyDates_IntervalHonored(t *testing.T) {
	body := feed("UID:biweekly\r\nDTSTART:20260504T180000Z\r\nDTEND:20260504T200000Z\r\nRRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO;COUNT=3\r\n")

	events, err := Parse(body, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	busy := BusyDates(events, nil, testWindow, time.UTC)

	got := sortedDates(busy)
	want := []string{"2026-05-04", "2026-05-18", "2026-06-01"}
	if len(got) != len(want) {
		t.Fatalf("busy dates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("busy dates = %v, want %v", got, want)
		}
	}
}
