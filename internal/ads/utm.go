// internal/ads/utm.go
package ads

import (
	"fmt"
	"net/url"
	"strings"
)

// UTMParams tag the campaign's destination URL so ticket-page traffic
// can be attributed back to the ad build.
type UTMParams struct {
	Source   string
	Medium   string
	Campaign string
	Content  string
}

// DefaultUTM returns the standard tagging for a Meta paid campaign.
func DefaultUTM(campaignSlug string) UTMParams {
	return UTMParams{
		Source:   "facebook",
		Medium:   "paid_social",
		Campaign: campaignSlug,
	}
}

// DestinationURL appends UTM query parameters to base, preserving any
// existing query string.
func DestinationURL(base string, params UTMParams) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse destination url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("destination url must be absolute: %q", base)
	}

	q := u.Query()
	if params.Source != "" {
		q.Set("utm_source", params.Source)
	}
	if params.Medium != "" {
		q.Set("utm_medium", params.Medium)
	}
	if params.Campaign != "" {
		q.Set("utm_campaign", params.Campaign)
	}
	if params.Content != "" {
		q.Set("utm_content", params.Content)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
