package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/httputil"
	"github.com/moorline-data/siteplan/internal/packing"
	"github.com/moorline-data/siteplan/internal/preview"
	"github.com/moorline-data/siteplan/internal/sampler"
	"github.com/moorline-data/siteplan/internal/security"
	"github.com/moorline-data/siteplan/internal/survey"
	"github.com/moorline-data/siteplan/internal/units"
)

// selectionRequest is the POST body for running a selection against a
// campaign's candidate table. Exactly one of count or fraction applies,
// depending on the policy. Seed makes jittered spacing runs reproducible.
type selectionRequest struct {
	Policy         string  `json:"policy"`
	Count          int     `json:"count,omitempty"`
	Fraction       float64 `json:"fraction,omitempty"`
	JitterRadius   float64 `json:"jitter_radius,omitempty"`
	GroupNeighbors bool    `json:"group_neighbors,omitempty"`
	Seed           *int64  `json:"seed,omitempty"`
}

// handleRunSelection executes a sampling policy over the campaign's sites
// and persists the outcome as a selection run.
func (s *Server) handleRunSelection(w http.ResponseWriter, r *http.Request, campaignID string) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("Invalid JSON body: %v", err))
		return
	}

	policy := sampler.Policy(req.Policy)
	if !policy.Valid() {
		httputil.BadRequest(w, fmt.Sprintf(
			"Invalid 'policy': must be one of %s, %s, %s, %s",
			sampler.PolicyPeriodicCount, sampler.PolicyPeriodicFraction,
			sampler.PolicySpacingCount, sampler.PolicySpacingFraction))
		return
	}

	if _, err := s.db.GetCampaign(campaignID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, fmt.Sprintf("campaign %s not found", campaignID))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to get campaign: %v", err))
		return
	}

	sites, err := s.db.CampaignSites(campaignID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load sites: %v", err))
		return
	}

	selector, err := s.selectorFor(policy, req)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	points := survey.Points(sites)
	var result sampler.Selection
	switch policy {
	case sampler.PolicyPeriodicCount, sampler.PolicySpacingCount:
		result, err = selector.SelectCount(points, req.Count)
	default:
		result, err = selector.SelectFraction(points, req.Fraction)
	}
	if err != nil {
		var missing *packing.MissingSetError
		switch {
		case errors.As(err, &missing):
			httputil.WriteJSONError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("No packing layout for %d points", missing.Points))
		case errors.Is(err, sampler.ErrInvalidRequest):
			httputil.BadRequest(w, err.Error())
		default:
			httputil.InternalServerError(w, fmt.Sprintf("Selection failed: %v", err))
		}
		return
	}

	run := &db.SelectionRun{
		CampaignID:   campaignID,
		Policy:       string(result.Policy),
		TargetCount:  result.TargetCount,
		JitterRadius: result.JitterRadius,
		Grouped:      result.Grouped,
		PackingUsed:  result.PackingUsed,
		Indices:      result.Indices,
	}
	if err := s.db.SaveSelectionRun(run); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to save selection run: %v", err))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, run)
}

// selectorFor builds the selector a policy needs. Spacing policies require
// the packing library, which is optional server state.
func (s *Server) selectorFor(policy sampler.Policy, req selectionRequest) (sampler.Selector, error) {
	switch policy {
	case sampler.PolicySpacingCount, sampler.PolicySpacingFraction:
		if s.lib == nil || s.lib.Len() == 0 {
			return nil, fmt.Errorf("no packing library loaded; spacing policies unavailable")
		}
		params := sampler.SpacingParams{
			JitterRadius:   req.JitterRadius,
			GroupNeighbors: req.GroupNeighbors,
		}
		if req.Seed != nil {
			params.Rand = rand.New(rand.NewSource(*req.Seed))
		}
		return sampler.NewSpacingSelector(s.lib, params), nil
	default:
		return sampler.PeriodicSelector{}, nil
	}
}

// handleSelectionByID routes /api/selections/{id} and its sub-resources:
// export (CSV download), summary (spacing statistics) and preview (HTML
// scatter chart).
func (s *Server) handleSelectionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/selections/")
	parts := strings.SplitN(path, "/", 2)

	runID := strings.TrimSpace(parts[0])
	if runID == "" {
		httputil.BadRequest(w, "run_id is required")
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = strings.Trim(parts[1], "/")
	}

	run, err := s.db.GetSelectionRun(runID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, fmt.Sprintf("selection run %s not found", runID))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to get selection run: %v", err))
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			httputil.WriteJSONOK(w, run)
		case http.MethodDelete:
			s.handleDeleteSelection(w, r, run)
		default:
			httputil.MethodNotAllowed(w)
		}
	case "export":
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		s.handleExportSelection(w, r, run)
	case "summary":
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		s.handleSelectionSummary(w, r, run)
	case "preview":
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		s.handleSelectionPreview(w, r, run)
	default:
		httputil.NotFound(w, fmt.Sprintf("unknown selection resource %q", sub))
	}
}

func (s *Server) handleDeleteSelection(w http.ResponseWriter, r *http.Request, run *db.SelectionRun) {
	if err := s.db.DeleteSelectionRun(run.RunID); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to delete selection run: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"deleted": run.RunID})
}

// handleExportSelection streams the selected sites as a CSV download. Rows
// appear in selection order, repeats included, so the file mirrors the
// stored index list exactly.
func (s *Server) handleExportSelection(w http.ResponseWriter, r *http.Request, run *db.SelectionRun) {
	sites, err := s.db.CampaignSites(run.CampaignID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load sites: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := survey.WriteSelection(&buf, sites, run.Indices); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to write selection CSV: %v", err))
		return
	}

	filename := fmt.Sprintf("selection_%s.csv", security.SanitizeFilename(run.RunID))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSelectionSummary(w http.ResponseWriter, r *http.Request, run *db.SelectionRun) {
	targetUnits := r.URL.Query().Get("units")
	if targetUnits == "" {
		targetUnits = s.units
	}
	if !units.IsValid(targetUnits) {
		httputil.BadRequest(w, fmt.Sprintf(
			"Invalid 'units' parameter: must be one of %s", units.GetValidUnitsString()))
		return
	}

	sites, err := s.db.CampaignSites(run.CampaignID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load sites: %v", err))
		return
	}

	stats, err := sampler.SpacingSummary(survey.Points(sites), run.Indices)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("Cannot summarise selection: %v", err))
		return
	}

	// Site coordinates are meters; convert the spacing figures for display.
	stats.MinSpacing = units.ConvertDistance(stats.MinSpacing, targetUnits)
	stats.MeanSpacing = units.ConvertDistance(stats.MeanSpacing, targetUnits)
	stats.MedianSpacing = units.ConvertDistance(stats.MedianSpacing, targetUnits)

	httputil.WriteJSONOK(w, map[string]interface{}{
		"run_id": run.RunID,
		"units":  targetUnits,
		"stats":  stats,
	})
}

func (s *Server) handleSelectionPreview(w http.ResponseWriter, r *http.Request, run *db.SelectionRun) {
	campaign, err := s.db.GetCampaign(run.CampaignID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to get campaign: %v", err))
		return
	}

	sites, err := s.db.CampaignSites(run.CampaignID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to load sites: %v", err))
		return
	}

	title := fmt.Sprintf("%s / %s", campaign.Name, run.Policy)

	var buf bytes.Buffer
	if err := preview.RenderScatterHTML(&buf, title, sites, run.Indices); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render preview: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
