package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/httputil"
	"github.com/moorline-data/siteplan/internal/survey"
)

// apiClient talks to a running siteplan server, so import and select can
// target a shared instance instead of a local database file.
type apiClient struct {
	base string
	http httputil.HTTPClient
}

// newAPIClient wraps base (e.g. "http://localhost:8080") in a client.
// A nil httpClient falls back to the standard library client.
func newAPIClient(base string, httpClient httputil.HTTPClient) *apiClient {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(nil)
	}
	return &apiClient{base: strings.TrimRight(base, "/"), http: httpClient}
}

// selectionParams mirrors the server's selection request body.
type selectionParams struct {
	Policy         string  `json:"policy"`
	Count          int     `json:"count,omitempty"`
	Fraction       float64 `json:"fraction,omitempty"`
	JitterRadius   float64 `json:"jitter_radius,omitempty"`
	GroupNeighbors bool    `json:"group_neighbors,omitempty"`
	Seed           *int64  `json:"seed,omitempty"`
}

// CreateCampaign creates a campaign on the server and returns it with
// its assigned id.
func (c *apiClient) CreateCampaign(name, region, notes string) (*db.Campaign, error) {
	campaign := db.Campaign{Name: name, Region: region}
	if notes != "" {
		campaign.Notes = &notes
	}

	body, err := json.Marshal(campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to encode campaign: %w", err)
	}

	resp, err := c.http.Post(c.base+"/api/campaigns", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.responseError(resp)
	}

	var created db.Campaign
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode campaign response: %w", err)
	}
	return &created, nil
}

// ReplaceSites uploads the campaign's candidate table as CSV.
func (c *apiClient) ReplaceSites(campaignID string, sites []survey.Site) error {
	var buf bytes.Buffer
	if err := survey.WriteSites(&buf, sites); err != nil {
		return fmt.Errorf("failed to encode sites CSV: %w", err)
	}

	url := fmt.Sprintf("%s/api/campaigns/%s/sites", c.base, campaignID)
	req, err := http.NewRequest(http.MethodPut, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.responseError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// RunSelection executes a selection on the server and returns the
// persisted run.
func (c *apiClient) RunSelection(campaignID string, params selectionParams) (*db.SelectionRun, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode selection request: %w", err)
	}

	url := fmt.Sprintf("%s/api/campaigns/%s/selections", c.base, campaignID)
	resp, err := c.http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.responseError(resp)
	}

	var run db.SelectionRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode selection response: %w", err)
	}
	return &run, nil
}

// responseError surfaces the server's JSON error message, falling back
// to the raw body when the payload isn't the usual error envelope.
func (c *apiClient) responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
