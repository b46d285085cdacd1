// internal/ads/copy.go
package ads

import (
	"fmt"
	"strings"
	"time"
)

// CopyInput is the event data the copy variants are assembled from.
type CopyInput struct {
	EventName string
	VenueName string
	EventDate time.Time
}

// CopyVariant is one headline/primary-text pairing for the ad set.
type CopyVariant struct {
	Key      string `json:"key"`
	Headline string `json:"headline"`
	Primary  string `json:"primary"`
	CTALabel string `json:"cta_label"`
}

// CopyVariants produces the three deterministic copy variants exported
// with every build. Same input always yields the same pack so edits in
// the ads manager survive a rebuild.
func CopyVariants(in CopyInput) []CopyVariant {
	event := strings.TrimSpace(in.EventName)
	venue := strings.TrimSpace(in.VenueName)
	when := in.EventDate.Format("Monday, January 2")

	return []CopyVariant{
		{
			Key:      "urgency",
			Headline: fmt.Sprintf("%s — %s", event, when),
			Primary:  fmt.Sprintf("One night only at %s. Grab your spot before it sells out.", venue),
			CTALabel: "Get Tickets",
		},
		{
			Key:      "social_proof",
			Headline: fmt.Sprintf("%s returns to %s", event, venue),
			Primary:  fmt.Sprintf("Join the crowd on %s. Tickets are moving fast.", when),
			CTALabel: "Get Tickets",
		},
		{
			Key:      "direct",
			Headline: event,
			Primary:  fmt.Sprintf("%s. %s. Be there.", venue, when),
			CTALabel: "Learn More",
		},
	}
}
