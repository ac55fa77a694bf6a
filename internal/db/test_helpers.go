package db

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/moorline-data/siteplan/internal/survey"
)

// Helper for creating pointer values
func strPtr(s string) *string {
	return &s
}

// newTestDB creates a fully migrated database in a per-test temp directory
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "siteplan_test.db")
	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// createTestCampaign creates a campaign holding a row of n evenly spaced sites.
// This is a helper for tests that need a campaign with a known site list.
func createTestCampaign(t *testing.T, db *DB, name string, n int) *Campaign {
	t.Helper()

	campaign := &Campaign{
		Name:   name,
		Region: "Test Region",
	}
	if err := db.CreateCampaign(campaign); err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	sites := make([]survey.Site, n)
	for i := range sites {
		sites[i] = survey.Site{
			Label: fmt.Sprintf("S-%02d", i),
			X:     float64(i) * 10,
			Y:     0,
		}
	}
	if err := db.ReplaceCampaignSites(campaign.CampaignID, sites); err != nil {
		t.Fatalf("ReplaceCampaignSites failed: %v", err)
	}

	return campaign
}
