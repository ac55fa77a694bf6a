package db

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/moorline-data/siteplan/internal/survey"
)

func TestCreateAndGetCampaign(t *testing.T) {
	db := newTestDB(t)

	campaign := &Campaign{
		Name:   "spring-survey",
		Region: "North Basin",
		Notes:  strPtr("first pass over the new grid"),
	}
	if err := db.CreateCampaign(campaign); err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	if campaign.CampaignID == "" {
		t.Fatal("CreateCampaign should assign a campaign ID")
	}
	if campaign.CreatedAt == 0 {
		t.Error("CreateCampaign should set created_at")
	}

	got, err := db.GetCampaign(campaign.CampaignID)
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if got.Name != "spring-survey" {
		t.Errorf("Expected name spring-survey, got %s", got.Name)
	}
	if got.Region != "North Basin" {
		t.Errorf("Expected region North Basin, got %s", got.Region)
	}
	if got.Notes == nil || *got.Notes != "first pass over the new grid" {
		t.Errorf("Notes did not round-trip: %v", got.Notes)
	}
	if got.SiteCount != 0 {
		t.Errorf("Expected site count 0 for new campaign, got %d", got.SiteCount)
	}
}

func TestGetCampaignByName(t *testing.T) {
	db := newTestDB(t)

	created := createTestCampaign(t, db, "named-campaign", 4)

	got, err := db.GetCampaignByName("named-campaign")
	if err != nil {
		t.Fatalf("GetCampaignByName failed: %v", err)
	}
	if got.CampaignID != created.CampaignID {
		t.Errorf("Expected campaign %s, got %s", created.CampaignID, got.CampaignID)
	}
	if got.SiteCount != 4 {
		t.Errorf("Expected site count 4, got %d", got.SiteCount)
	}

	if _, err := db.GetCampaignByName("no-such-campaign"); err == nil {
		t.Error("Expected error for unknown campaign name")
	}
}

func TestDuplicateCampaignNameRejected(t *testing.T) {
	db := newTestDB(t)

	createTestCampaign(t, db, "dupe", 1)

	err := db.CreateCampaign(&Campaign{Name: "dupe"})
	if err == nil {
		t.Error("Expected unique constraint error for duplicate campaign name")
	}
}

func TestListCampaigns(t *testing.T) {
	db := newTestDB(t)

	createTestCampaign(t, db, "bravo", 2)
	createTestCampaign(t, db, "alpha", 3)

	campaigns, err := db.ListCampaigns()
	if err != nil {
		t.Fatalf("ListCampaigns failed: %v", err)
	}
	if len(campaigns) != 2 {
		t.Fatalf("Expected 2 campaigns, got %d", len(campaigns))
	}
	if campaigns[0].Name != "alpha" || campaigns[1].Name != "bravo" {
		t.Errorf("Expected campaigns ordered by name, got %s, %s", campaigns[0].Name, campaigns[1].Name)
	}
	if campaigns[0].SiteCount != 3 {
		t.Errorf("Expected alpha to have 3 sites, got %d", campaigns[0].SiteCount)
	}
}

func TestUpdateCampaign(t *testing.T) {
	db := newTestDB(t)

	campaign := createTestCampaign(t, db, "before", 1)

	campaign.Name = "after"
	campaign.Region = "South Basin"
	if err := db.UpdateCampaign(campaign); err != nil {
		t.Fatalf("UpdateCampaign failed: %v", err)
	}

	got, err := db.GetCampaign(campaign.CampaignID)
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if got.Name != "after" || got.Region != "South Basin" {
		t.Errorf("Update did not stick: name=%s region=%s", got.Name, got.Region)
	}

	missing := &Campaign{CampaignID: "missing", Name: "x"}
	if err := db.UpdateCampaign(missing); err == nil {
		t.Error("Expected error updating missing campaign")
	}
}

func TestReplaceCampaignSitesRoundTrip(t *testing.T) {
	db := newTestDB(t)

	campaign := createTestCampaign(t, db, "round-trip", 0)

	sites := []survey.Site{
		{Label: "A-01", X: 0, Y: 0},
		{Label: "A-02", X: 12.5, Y: -3},
		{Label: "B-01", X: 40, Y: 17.25},
	}
	if err := db.ReplaceCampaignSites(campaign.CampaignID, sites); err != nil {
		t.Fatalf("ReplaceCampaignSites failed: %v", err)
	}

	got, err := db.CampaignSites(campaign.CampaignID)
	if err != nil {
		t.Fatalf("CampaignSites failed: %v", err)
	}
	if diff := cmp.Diff(sites, got); diff != "" {
		t.Errorf("Sites did not round-trip in order (-want +got):\n%s", diff)
	}

	// Replacing swaps the whole list, not appends
	replacement := []survey.Site{{Label: "C-01", X: 1, Y: 1}}
	if err := db.ReplaceCampaignSites(campaign.CampaignID, replacement); err != nil {
		t.Fatalf("ReplaceCampaignSites failed: %v", err)
	}
	got, err = db.CampaignSites(campaign.CampaignID)
	if err != nil {
		t.Fatalf("CampaignSites failed: %v", err)
	}
	if diff := cmp.Diff(replacement, got); diff != "" {
		t.Errorf("Replacement site list mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceCampaignSitesMissingCampaign(t *testing.T) {
	db := newTestDB(t)

	err := db.ReplaceCampaignSites("no-such-id", []survey.Site{{Label: "A", X: 0, Y: 0}})
	if err == nil {
		t.Fatal("Expected error for unknown campaign")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not-found error, got: %v", err)
	}
}

func TestDeleteCampaignCascades(t *testing.T) {
	db := newTestDB(t)

	campaign := createTestCampaign(t, db, "doomed", 5)

	run := &SelectionRun{
		CampaignID:  campaign.CampaignID,
		Policy:      "periodic-count",
		TargetCount: 2,
		Indices:     []int{1, 4},
	}
	if err := db.SaveSelectionRun(run); err != nil {
		t.Fatalf("SaveSelectionRun failed: %v", err)
	}

	if err := db.DeleteCampaign(campaign.CampaignID); err != nil {
		t.Fatalf("DeleteCampaign failed: %v", err)
	}

	if _, err := db.GetCampaign(campaign.CampaignID); err == nil {
		t.Error("Expected campaign to be gone")
	}

	sites, err := db.CampaignSites(campaign.CampaignID)
	if err != nil {
		t.Fatalf("CampaignSites failed: %v", err)
	}
	if len(sites) != 0 {
		t.Errorf("Expected cascade to remove sites, found %d", len(sites))
	}

	if _, err := db.GetSelectionRun(run.RunID); err == nil {
		t.Error("Expected cascade to remove selection runs")
	}

	if err := db.DeleteCampaign(campaign.CampaignID); err == nil {
		t.Error("Expected error deleting already-deleted campaign")
	}
}
