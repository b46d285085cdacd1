// internal/ads/meta/client.go

// Package meta is a thin client for the Meta Graph API surface the ad
// builder needs: a read-only credential check and campaign creation.
// Calls are synchronous with a fixed timeout and no retries.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://graph.facebook.com/v19.0"
	defaultTimeout = 20 * time.Second
)

// APIError is a structured Graph API failure.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error %d (%s): %s", e.Code, e.Type, e.Message)
}

// Client talks to the Graph API for one ad account.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	adAccountID string
	accessToken string
}

// NewClient creates a Graph API client. Empty baseURL uses the
// production Graph endpoint; non-positive timeout uses 20 seconds.
func NewClient(baseURL, adAccountID, accessToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		adAccountID: adAccountID,
		accessToken: accessToken,
	}
}

// Configured reports whether the client has credentials to work with.
func (c *Client) Configured() bool {
	return c != nil && c.accessToken != "" && c.adAccountID != ""
}

// Identity is the minimal /me response used by the connection test.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TestConnection performs a read-only credential check against /me.
func (c *Client) TestConnection(ctx context.Context) (*Identity, error) {
	if c == nil || c.accessToken == "" {
		return nil, fmt.Errorf("meta client is not configured")
	}

	var identity Identity
	if err := c.get(ctx, "/me", url.Values{"fields": {"id,name"}}, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Campaign is the created campaign shell.
type Campaign struct {
	ID string `json:"id"`
}

// CreateCampaignRequest carries the campaign shell parameters.
type CreateCampaignRequest struct {
	Name                string
	Objective           string
	Status              string // PAUSED unless explicitly launched
	LifetimeBudgetMinor int64
}

// CreateCampaign creates a paused campaign shell under the ad account.
func (c *Client) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("meta client is not configured")
	}

	status := req.Status
	if status == "" {
		status = "PAUSED"
	}
	form := url.Values{
		"name":                  {req.Name},
		"objective":             {req.Objective},
		"status":                {status},
		"special_ad_categories": {"[]"},
	}
	if req.LifetimeBudgetMinor > 0 {
		form.Set("lifetime_budget", strconv.FormatInt(req.LifetimeBudgetMinor, 10))
	}

	var campaign Campaign
	path := fmt.Sprintf("/act_%s/campaigns", c.adAccountID)
	if err := c.post(ctx, path, form, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("access_token", c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build graph request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	form.Set("access_token", c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build graph request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("path", req.URL.Path).Msg("Graph API request failed")
		return fmt.Errorf("graph api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read graph response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var wrapper struct {
			Error *APIError `json:"error"`
		}
		if jerr := json.Unmarshal(body, &wrapper); jerr == nil && wrapper.Error != nil {
			return wrapper.Error
		}
		return fmt.Errorf("graph api status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode graph response: %w", err)
	}
	return nil
}
