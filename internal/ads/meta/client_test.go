package meta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("access_token") != "token-123" {
			t.Fatalf("missing access token")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"10001","name":"Coney Productions"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "act-1", "token-123", 0)
	identity, err := client.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("test connection: %v", err)
	}
	if identity.ID != "10001" || identity.Name != "Coney Productions" {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestTestConnection_Unconfigured(t *testing.T) {
	client := NewClient("", "", "", 0)
	if _, err := client.TestConnection(context.Background()); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestCreateCampaign(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/act_999/campaigns" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("status") != "PAUSED" {
			t.Fatalf("status = %s", r.PostForm.Get("status"))
		}
		if r.PostForm.Get("lifetime_budget") != "25000" {
			t.Fatalf("lifetime_budget = %s", r.PostForm.Get("lifetime_budget"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"camp-42"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "999", "token-123", 0)
	campaign, err := client.CreateCampaign(context.Background(), CreateCampaignRequest{
		Name:                "Summer Fest ramp",
		Objective:           "OUTCOME_TRAFFIC",
		LifetimeBudgetMinor: 25000,
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	if campaign.ID != "camp-42" {
		t.Fatalf("campaign = %+v", campaign)
	}
}

func TestGraphErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "999", "bad-token", 0)
	_, err := client.TestConnection(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Code != 190 || apiErr.Type != "OAuthException" {
		t.Fatalf("api error = %+v", apiErr)
	}
}
