package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/httputil"
	"github.com/moorline-data/siteplan/internal/survey"
)

// maxSitesCSVBytes caps the accepted size of an uploaded site table.
const maxSitesCSVBytes = 8 << 20

// handleCampaigns handles list and create operations.
func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListCampaigns(w, r)
	case http.MethodPost:
		s.handleCreateCampaign(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.db.ListCampaigns()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list campaigns: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var campaign db.Campaign
	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("Invalid JSON body: %v", err))
		return
	}

	if campaign.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}

	if err := s.db.CreateCampaign(&campaign); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			httputil.WriteJSONError(w, http.StatusConflict,
				fmt.Sprintf("campaign %q already exists", campaign.Name))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to create campaign: %v", err))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, campaign)
}

// handleCampaignByID routes /api/campaigns/{id} and its sub-resources:
// {id}/sites for the candidate table and {id}/selections for sampling runs.
func (s *Server) handleCampaignByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/campaigns/")
	parts := strings.SplitN(path, "/", 2)

	campaignID := strings.TrimSpace(parts[0])
	if campaignID == "" {
		httputil.BadRequest(w, "campaign_id is required")
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = strings.Trim(parts[1], "/")
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.handleGetCampaign(w, r, campaignID)
		case http.MethodPut:
			s.handleUpdateCampaign(w, r, campaignID)
		case http.MethodDelete:
			s.handleDeleteCampaign(w, r, campaignID)
		default:
			httputil.MethodNotAllowed(w)
		}
	case "sites":
		switch r.Method {
		case http.MethodGet:
			s.handleListSites(w, r, campaignID)
		case http.MethodPut:
			s.handleReplaceSites(w, r, campaignID)
		default:
			httputil.MethodNotAllowed(w)
		}
	case "selections":
		switch r.Method {
		case http.MethodGet:
			s.handleListSelections(w, r, campaignID)
		case http.MethodPost:
			s.handleRunSelection(w, r, campaignID)
		default:
			httputil.MethodNotAllowed(w)
		}
	default:
		httputil.NotFound(w, fmt.Sprintf("unknown campaign resource %q", sub))
	}
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request, campaignID string) {
	campaign, err := s.db.GetCampaign(campaignID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, fmt.Sprintf("campaign %s not found", campaignID))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to get campaign: %v", err))
		return
	}

	httputil.WriteJSONOK(w, campaign)
}

func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request, campaignID string) {
	var campaign db.Campaign
	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("Invalid JSON body: %v", err))
		return
	}

	if campaign.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	campaign.CampaignID = campaignID

	if err := s.db.UpdateCampaign(&campaign); err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, fmt.Sprintf("campaign %s not found", campaignID))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to update campaign: %v", err))
		return
	}

	updated, err := s.db.GetCampaign(campaignID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to reload campaign: %v", err))
		return
	}
	httputil.WriteJSONOK(w, updated)
}

func (s *Server) handleDeleteCampaign(w http.ResponseWriter, r *http.Request, campaignID string) {
	if err := s.db.DeleteCampaign(campaignID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, fmt.Sprintf("campaign %s not found", campaignID))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to delete campaign: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{"deleted": campaignID})
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request, campaignID string) {
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
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list sites: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"campaign_id": campaignID,
		"sites":       sites,
		"count":       len(sites),
	})
}

// handleReplaceSites swaps a campaign's candidate table for the CSV in the
// request body. Row order in the CSV defines the selection indices, so a
// replace invalidates earlier runs' index meanings; callers are expected to
// re-run selections afterwards.
func (s *Server) handleReplaceSites(w http.ResponseWriter, r *http.Request, campaignID string) {
	body := http.MaxBytesReader(w, r.Body, maxSitesCSVBytes)
	sites, err := survey.ReadSites(body)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("Invalid site CSV: %v", err))
		return
	}

	if err := s.db.ReplaceCampaignSites(campaignID, sites); err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, fmt.Sprintf("campaign %s not found", campaignID))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to replace sites: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"campaign_id": campaignID,
		"count":       len(sites),
	})
}

func (s *Server) handleListSelections(w http.ResponseWriter, r *http.Request, campaignID string) {
	if _, err := s.db.GetCampaign(campaignID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			httputil.NotFound(w, fmt.Sprintf("campaign %s not found", campaignID))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Failed to get campaign: %v", err))
		return
	}

	runs, err := s.db.ListSelectionRuns(campaignID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list selection runs: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"campaign_id": campaignID,
		"runs":        runs,
		"count":       len(runs),
	})
}
