package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moorline-data/siteplan/internal/survey"
)

// Campaign groups the measurement sites imported from one survey. The
// site list itself lives in campaign_sites, keyed by import position.
type Campaign struct {
	CampaignID string  `json:"campaign_id"`
	Name       string  `json:"name"`
	Region     string  `json:"region"`
	Notes      *string `json:"notes"`
	SiteCount  int     `json:"site_count"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

// CreateCampaign inserts a new campaign. If CampaignID is empty, a UUID
// is generated.
func (db *DB) CreateCampaign(c *Campaign) error {
	if c.CampaignID == "" {
		c.CampaignID = uuid.New().String()
	}
	now := time.Now().Unix()
	if c.CreatedAt == 0 {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	query := `
		INSERT INTO campaigns (campaign_id, name, region, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err := retryOnBusy(func() error {
		_, err := db.DB.Exec(query, c.CampaignID, c.Name, c.Region, c.Notes, c.CreatedAt, c.UpdatedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

const campaignColumns = `
	c.campaign_id, c.name, c.region, c.notes, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM campaign_sites s WHERE s.campaign_id = c.campaign_id)
`

func scanCampaign(row *sql.Row) (*Campaign, error) {
	var c Campaign
	err := row.Scan(&c.CampaignID, &c.Name, &c.Region, &c.Notes, &c.CreatedAt, &c.UpdatedAt, &c.SiteCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("campaign not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}
	return &c, nil
}

// GetCampaign retrieves a campaign by ID.
func (db *DB) GetCampaign(campaignID string) (*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns c WHERE c.campaign_id = ?`
	return scanCampaign(db.DB.QueryRow(query, campaignID))
}

// GetCampaignByName retrieves a campaign by its unique name.
func (db *DB) GetCampaignByName(name string) (*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns c WHERE c.name = ?`
	return scanCampaign(db.DB.QueryRow(query, name))
}

// ListCampaigns retrieves all campaigns ordered by name.
func (db *DB) ListCampaigns() ([]Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns c ORDER BY c.name ASC`

	rows, err := db.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.CampaignID, &c.Name, &c.Region, &c.Notes, &c.CreatedAt, &c.UpdatedAt, &c.SiteCount); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return campaigns, nil
}

// UpdateCampaign updates the mutable fields of an existing campaign.
func (db *DB) UpdateCampaign(c *Campaign) error {
	c.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE campaigns SET
			name = ?,
			region = ?,
			notes = ?,
			updated_at = ?
		WHERE campaign_id = ?
	`

	result, err := db.DB.Exec(query, c.Name, c.Region, c.Notes, c.UpdatedAt, c.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("campaign not found")
	}

	return nil
}

// DeleteCampaign deletes a campaign. Its sites and selection runs go
// with it via the foreign key cascades.
func (db *DB) DeleteCampaign(campaignID string) error {
	return retryOnBusy(func() error {
		result, err := db.DB.Exec(`DELETE FROM campaigns WHERE campaign_id = ?`, campaignID)
		if err != nil {
			return fmt.Errorf("failed to delete campaign: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return fmt.Errorf("campaign not found")
		}

		return nil
	})
}

// ReplaceCampaignSites swaps the campaign's site list for the given one
// in a single transaction. Position is assigned from slice order, so the
// stored indices match what the samplers will be handed later.
func (db *DB) ReplaceCampaignSites(campaignID string, sites []survey.Site) error {
	tx, err := db.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM campaign_sites WHERE campaign_id = ?`, campaignID); err != nil {
		return fmt.Errorf("failed to clear campaign sites: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO campaign_sites (campaign_id, position, label, x, y)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare site insert: %w", err)
	}
	defer stmt.Close()

	for i, site := range sites {
		if _, err := stmt.Exec(campaignID, i, site.Label, site.X, site.Y); err != nil {
			return fmt.Errorf("failed to insert site %d: %w", i, err)
		}
	}

	result, err := tx.Exec(`UPDATE campaigns SET updated_at = ? WHERE campaign_id = ?`, time.Now().Unix(), campaignID)
	if err != nil {
		return fmt.Errorf("failed to touch campaign: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("campaign not found")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaign sites: %w", err)
	}

	return nil
}

// CampaignSites returns the campaign's sites in import order.
func (db *DB) CampaignSites(campaignID string) ([]survey.Site, error) {
	query := `
		SELECT label, x, y
		FROM campaign_sites
		WHERE campaign_id = ?
		ORDER BY position ASC
	`

	rows, err := db.DB.Query(query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign sites: %w", err)
	}
	defer rows.Close()

	var sites []survey.Site
	for rows.Next() {
		var s survey.Site
		if err := rows.Scan(&s.Label, &s.X, &s.Y); err != nil {
			return nil, fmt.Errorf("failed to scan campaign site: %w", err)
		}
		sites = append(sites, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign sites: %w", err)
	}

	return sites, nil
}
