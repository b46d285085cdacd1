package ads

import (
	"strings"
	"testing"
	"time"
)

func TestDestinationURL_AddsTags(t *testing.T) {
	got, err := DestinationURL("https://tickets.example.com/show/42", UTMParams{
		Source:   "facebook",
		Medium:   "paid_social",
		Campaign: "summer-fest-2026",
		Content:  "urgency",
	})
	if err != nil {
		t.Fatalf("build url: %v", err)
	}
	for _, want := range []string{
		"utm_source=facebook",
		"utm_medium=paid_social",
		"utm_campaign=summer-fest-2026",
		"utm_content=urgency",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("url %q missing %q", got, want)
		}
	}
}

func TestDestinationURL_PreservesExistingQuery(t *testing.T) {
	got, err := DestinationURL("https://tickets.example.com/show/42?ref=site", DefaultUTM("fest"))
	if err != nil {
		t.Fatalf("build url: %v", err)
	}
	if !strings.Contains(got, "ref=site") {
		t.Fatalf("url %q lost existing query", got)
	}
	if !strings.Contains(got, "utm_campaign=fest") {
		t.Fatalf("url %q missing campaign", got)
	}
}

func TestDestinationURL_RejectsRelative(t *testing.T) {
	if _, err := DestinationURL("/show/42", DefaultUTM("fest")); err == nil {
		t.Fatalf("expected error for relative url")
	}
}

func TestCopyVariants_Deterministic(t *testing.T) {
	in := CopyInput{
		EventName: "Summer Fest",
		VenueName: "Coney Hall",
		EventDate: time.Date(2026, time.June, 20, 19, 0, 0, 0, time.UTC),
	}

	first := CopyVariants(in)
	second := CopyVariants(in)
	if len(first) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("variant %d not deterministic", i)
		}
		if first[i].Headline == "" || first[i].Primary == "" {
			t.Fatalf("variant %d has empty copy: %+v", i, first[i])
		}
	}
	if !strings.Contains(first[0].Headline, "Saturday, June 20") {
		t.Fatalf("headline = %q", first[0].Headline)
	}
}
