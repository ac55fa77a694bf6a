package api

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/sampler"
)

// postSelection runs a selection request against a campaign and returns the
// recorder. Body is raw JSON.
func postSelection(t *testing.T, server *Server, campaignID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost,
		"/api/campaigns/"+campaignID+"/selections", strings.NewReader(body))
	w := httptest.NewRecorder()
	server.handleCampaignByID(w, req)
	return w
}

func TestRunSelectionPeriodicCount(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Periodic", 10, 1)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d (%s)", w.Code, w.Body.String())
	}

	var run db.SelectionRun
	decodeJSONBody(t, w, &run)

	if run.RunID == "" {
		t.Error("Expected run_id to be assigned")
	}
	if run.Policy != string(sampler.PolicyPeriodicCount) {
		t.Errorf("Expected policy periodic-count, got %q", run.Policy)
	}
	if run.TargetCount != 5 {
		t.Errorf("Expected target_count 5, got %d", run.TargetCount)
	}
	want := []int{1, 3, 5, 7, 9}
	if !reflect.DeepEqual(run.Indices, want) {
		t.Errorf("Expected indices %v, got %v", want, run.Indices)
	}

	// The run must be durable.
	stored, err := dbInst.GetSelectionRun(run.RunID)
	if err != nil {
		t.Fatalf("failed to reload run: %v", err)
	}
	if !reflect.DeepEqual(stored.Indices, want) {
		t.Errorf("Expected stored indices %v, got %v", want, stored.Indices)
	}
}

func TestRunSelectionPeriodicFraction(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Fractional", 10, 1)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-fraction", "fraction": 0.5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d (%s)", w.Code, w.Body.String())
	}

	var run db.SelectionRun
	decodeJSONBody(t, w, &run)

	want := []int{0, 2, 4, 6, 8}
	if !reflect.DeepEqual(run.Indices, want) {
		t.Errorf("Expected indices %v, got %v", want, run.Indices)
	}
}

func TestRunSelectionSpacingCount(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Spaced", 5, 4)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "spacing-count", "count": 4}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d (%s)", w.Code, w.Body.String())
	}

	var run db.SelectionRun
	decodeJSONBody(t, w, &run)

	// The 4-point corner layout lands on the grid corners.
	want := []int{0, 4, 15, 19}
	if !reflect.DeepEqual(run.Indices, want) {
		t.Errorf("Expected corner indices %v, got %v", want, run.Indices)
	}
	if run.PackingUsed != 4 {
		t.Errorf("Expected packing_used 4, got %d", run.PackingUsed)
	}
}

func TestRunSelectionGrouped(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Grouped", 5, 4)

	w := postSelection(t, server, campaign.CampaignID,
		`{"policy": "spacing-count", "count": 4, "jitter_radius": 10, "group_neighbors": true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d (%s)", w.Code, w.Body.String())
	}

	var run db.SelectionRun
	decodeJSONBody(t, w, &run)

	if !run.Grouped {
		t.Error("Expected grouped run")
	}
	// Each corner anchor captures its two 10m neighbors; the 14.14m diagonal
	// is outside the strict sqrt(2)*10 boundary.
	want := []int{0, 1, 5, 3, 4, 9, 10, 15, 16, 14, 18, 19}
	if !reflect.DeepEqual(run.Indices, want) {
		t.Errorf("Expected neighborhood indices %v, got %v", want, run.Indices)
	}
}

func TestRunSelectionSeedReproducible(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Seeded", 5, 4)

	body := `{"policy": "spacing-count", "count": 4, "jitter_radius": 8, "seed": 1234}`

	w1 := postSelection(t, server, campaign.CampaignID, body)
	w2 := postSelection(t, server, campaign.CampaignID, body)
	if w1.Code != http.StatusCreated || w2.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 twice, got %d and %d", w1.Code, w2.Code)
	}

	var run1, run2 db.SelectionRun
	decodeJSONBody(t, w1, &run1)
	decodeJSONBody(t, w2, &run2)

	if !reflect.DeepEqual(run1.Indices, run2.Indices) {
		t.Errorf("Expected identical indices for the same seed, got %v and %v",
			run1.Indices, run2.Indices)
	}
}

func TestRunSelectionInvalidPolicy(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "BadPolicy", 2, 2)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "random", "count": 2}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestRunSelectionCountOutOfRange(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "TooMany", 2, 2)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 99}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestRunSelectionEmptyCampaign(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := &db.Campaign{Name: "NoSites"}
	if err := dbInst.CreateCampaign(campaign); err != nil {
		t.Fatalf("failed to create campaign: %v", err)
	}

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 1}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestRunSelectionMissingPackingSize(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "NoLayout", 5, 4)

	// The test library holds layouts for 1, 2 and 4 points only.
	w := postSelection(t, server, campaign.CampaignID, `{"policy": "spacing-count", "count": 3}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d (%s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "No packing layout for 3 points") {
		t.Errorf("Expected missing-layout message, got %s", w.Body.String())
	}
}

func TestRunSelectionSpacingWithoutLibrary(t *testing.T) {
	_, dbInst := setupTestServer(t)
	server := NewServer(dbInst, nil, "m")
	campaign := createGridCampaign(t, dbInst, "NoLib", 2, 2)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "spacing-count", "count": 4}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestRunSelectionMissingCampaign(t *testing.T) {
	server, _ := setupTestServer(t)

	w := postSelection(t, server, "no-such-campaign", `{"policy": "periodic-count", "count": 1}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestListSelections(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "History", 10, 1)

	for i := 1; i <= 3; i++ {
		body := fmt.Sprintf(`{"policy": "periodic-count", "count": %d}`, i)
		if w := postSelection(t, server, campaign.CampaignID, body); w.Code != http.StatusCreated {
			t.Fatalf("run %d: expected status 201, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/campaigns/"+campaign.CampaignID+"/selections", nil)
	w := httptest.NewRecorder()
	server.handleCampaignByID(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Runs  []db.SelectionRun `json:"runs"`
		Count int               `json:"count"`
	}
	decodeJSONBody(t, w, &resp)

	if resp.Count != 3 {
		t.Errorf("Expected 3 runs, got %d", resp.Count)
	}
}

func TestGetSelectionRunByID(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Fetch", 10, 1)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 2}`)
	var created db.SelectionRun
	decodeJSONBody(t, w, &created)

	req := httptest.NewRequest(http.MethodGet, "/api/selections/"+created.RunID, nil)
	w2 := httptest.NewRecorder()
	server.handleSelectionByID(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w2.Code)
	}

	var got db.SelectionRun
	decodeJSONBody(t, w2, &got)
	if got.RunID != created.RunID {
		t.Errorf("Expected run %s, got %s", created.RunID, got.RunID)
	}
}

func TestGetSelectionRunNotFound(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/selections/no-such-run", nil)
	w := httptest.NewRecorder()
	server.handleSelectionByID(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteSelectionRunByID(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Expunge", 10, 1)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 2}`)
	var created db.SelectionRun
	decodeJSONBody(t, w, &created)

	req := httptest.NewRequest(http.MethodDelete, "/api/selections/"+created.RunID, nil)
	w2 := httptest.NewRecorder()
	server.handleSelectionByID(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w2.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/selections/"+created.RunID, nil)
	w3 := httptest.NewRecorder()
	server.handleSelectionByID(w3, req)
	if w3.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w3.Code)
	}
}

func TestExportSelectionCSV(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Export", 5, 4)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 4}`)
	var created db.SelectionRun
	decodeJSONBody(t, w, &created)

	req := httptest.NewRequest(http.MethodGet, "/api/selections/"+created.RunID+"/export", nil)
	w2 := httptest.NewRecorder()
	server.handleSelectionByID(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (%s)", w2.Code, w2.Body.String())
	}
	if ct := w2.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected Content-Type text/csv, got %q", ct)
	}
	if cd := w2.Header().Get("Content-Disposition"); !strings.Contains(cd, "selection_") {
		t.Errorf("Expected attachment disposition, got %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w2.Body.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected header + 4 rows, got %d lines", len(lines))
	}
	if lines[0] != "index,site_id,x,y" {
		t.Errorf("Expected selection header, got %q", lines[0])
	}
	if lines[1] != "4,S-04,40,0" {
		t.Errorf("Expected first row '4,S-04,40,0', got %q", lines[1])
	}
}

func TestSelectionSummary(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Summed", 5, 4)

	// Picks the right-edge column: sites 10m apart vertically.
	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 4}`)
	var created db.SelectionRun
	decodeJSONBody(t, w, &created)

	req := httptest.NewRequest(http.MethodGet, "/api/selections/"+created.RunID+"/summary", nil)
	w2 := httptest.NewRecorder()
	server.handleSelectionByID(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (%s)", w2.Code, w2.Body.String())
	}

	var resp struct {
		Units string               `json:"units"`
		Stats sampler.SpacingStats `json:"stats"`
	}
	decodeJSONBody(t, w2, &resp)

	if resp.Units != "m" {
		t.Errorf("Expected default units m, got %q", resp.Units)
	}
	if resp.Stats.Distinct != 4 {
		t.Errorf("Expected 4 distinct sites, got %d", resp.Stats.Distinct)
	}
	if resp.Stats.MinSpacing != 10 {
		t.Errorf("Expected min spacing 10m, got %v", resp.Stats.MinSpacing)
	}

	// Same run in kilometres.
	req = httptest.NewRequest(http.MethodGet,
		"/api/selections/"+created.RunID+"/summary?units=km", nil)
	w3 := httptest.NewRecorder()
	server.handleSelectionByID(w3, req)

	var kmResp struct {
		Units string               `json:"units"`
		Stats sampler.SpacingStats `json:"stats"`
	}
	decodeJSONBody(t, w3, &kmResp)

	if kmResp.Units != "km" {
		t.Errorf("Expected units km, got %q", kmResp.Units)
	}
	if math.Abs(kmResp.Stats.MinSpacing-0.01) > 1e-9 {
		t.Errorf("Expected min spacing 0.01km, got %v", kmResp.Stats.MinSpacing)
	}
}

func TestSelectionSummaryInvalidUnits(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "BadUnits", 10, 1)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 3}`)
	var created db.SelectionRun
	decodeJSONBody(t, w, &created)

	req := httptest.NewRequest(http.MethodGet,
		"/api/selections/"+created.RunID+"/summary?units=furlongs", nil)
	w2 := httptest.NewRecorder()
	server.handleSelectionByID(w2, req)

	if w2.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w2.Code)
	}
}

func TestSelectionSummaryTooFewSites(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Lonely", 10, 1)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 1}`)
	var created db.SelectionRun
	decodeJSONBody(t, w, &created)

	req := httptest.NewRequest(http.MethodGet, "/api/selections/"+created.RunID+"/summary", nil)
	w2 := httptest.NewRecorder()
	server.handleSelectionByID(w2, req)

	if w2.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d (%s)", w2.Code, w2.Body.String())
	}
}

func TestSelectionPreviewHTML(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "Pictured", 5, 4)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "spacing-count", "count": 4}`)
	var created db.SelectionRun
	decodeJSONBody(t, w, &created)

	req := httptest.NewRequest(http.MethodGet, "/api/selections/"+created.RunID+"/preview", nil)
	w2 := httptest.NewRecorder()
	server.handleSelectionByID(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (%s)", w2.Code, w2.Body.String())
	}
	if ct := w2.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %q", ct)
	}
	if !strings.Contains(w2.Body.String(), "echarts") {
		t.Error("Expected rendered chart to reference echarts")
	}
	if !strings.Contains(w2.Body.String(), "Pictured") {
		t.Error("Expected chart title to include the campaign name")
	}
}

func TestUnknownSelectionSubresource(t *testing.T) {
	server, dbInst := setupTestServer(t)
	campaign := createGridCampaign(t, dbInst, "SubBogus", 10, 1)

	w := postSelection(t, server, campaign.CampaignID, `{"policy": "periodic-count", "count": 2}`)
	var created db.SelectionRun
	decodeJSONBody(t, w, &created)

	req := httptest.NewRequest(http.MethodGet, "/api/selections/"+created.RunID+"/bogus", nil)
	w2 := httptest.NewRecorder()
	server.handleSelectionByID(w2, req)

	if w2.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w2.Code)
	}
}
