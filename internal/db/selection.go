package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SelectionRun records one sampling decision for a campaign: the policy
// that was run, its parameters and the 0-based site indices it picked.
// PackingUsed is the point count of the layout a spacing policy matched
// against; it stays 0 for periodic policies.
type SelectionRun struct {
	RunID        string  `json:"run_id"`
	CampaignID   string  `json:"campaign_id"`
	Policy       string  `json:"policy"`
	TargetCount  int     `json:"target_count"`
	JitterRadius float64 `json:"jitter_radius"`
	Grouped      bool    `json:"grouped"`
	PackingUsed  int     `json:"packing_used"`
	Indices      []int   `json:"indices"`
	CreatedAt    int64   `json:"created_at"`
}

// SaveSelectionRun persists a run. If RunID is empty, a UUID is generated.
func (db *DB) SaveSelectionRun(run *SelectionRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	indicesJSON, err := json.Marshal(run.Indices)
	if err != nil {
		return fmt.Errorf("failed to encode indices: %w", err)
	}

	groupedInt := 0
	if run.Grouped {
		groupedInt = 1
	}

	query := `
		INSERT INTO selection_runs (
			run_id, campaign_id, policy, target_count,
			jitter_radius, grouped, packing_used, indices_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = retryOnBusy(func() error {
		_, err := db.DB.Exec(query,
			run.RunID, run.CampaignID, run.Policy, run.TargetCount,
			run.JitterRadius, groupedInt, run.PackingUsed, string(indicesJSON), run.CreatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save selection run: %w", err)
	}

	return nil
}

// GetSelectionRun returns a single run by ID.
func (db *DB) GetSelectionRun(runID string) (*SelectionRun, error) {
	query := `
		SELECT run_id, campaign_id, policy, target_count,
		       jitter_radius, grouped, packing_used, indices_json, created_at
		FROM selection_runs
		WHERE run_id = ?
	`

	run, err := scanSelectionRun(db.DB.QueryRow(query, runID).Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("selection run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get selection run: %w", err)
	}
	return run, nil
}

// ListSelectionRuns returns a campaign's runs, newest first.
func (db *DB) ListSelectionRuns(campaignID string) ([]*SelectionRun, error) {
	query := `
		SELECT run_id, campaign_id, policy, target_count,
		       jitter_radius, grouped, packing_used, indices_json, created_at
		FROM selection_runs
		WHERE campaign_id = ?
		ORDER BY created_at DESC
	`

	rows, err := db.DB.Query(query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selection runs: %w", err)
	}
	defer rows.Close()

	var runs []*SelectionRun
	for rows.Next() {
		run, err := scanSelectionRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan selection run: %w", err)
		}
		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selection runs: %w", err)
	}

	return runs, nil
}

// DeleteSelectionRun removes a run by ID.
func (db *DB) DeleteSelectionRun(runID string) error {
	return retryOnBusy(func() error {
		result, err := db.DB.Exec(`DELETE FROM selection_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("failed to delete selection run: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return fmt.Errorf("selection run %s not found", runID)
		}

		return nil
	})
}

// scanSelectionRun scans one run row via the given Scan function, which
// lets it serve both QueryRow and Rows cursors.
func scanSelectionRun(scan func(...interface{}) error) (*SelectionRun, error) {
	var run SelectionRun
	var groupedInt int
	var indicesJSON string

	err := scan(
		&run.RunID, &run.CampaignID, &run.Policy, &run.TargetCount,
		&run.JitterRadius, &groupedInt, &run.PackingUsed, &indicesJSON, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Grouped = groupedInt == 1
	if err := json.Unmarshal([]byte(indicesJSON), &run.Indices); err != nil {
		return nil, fmt.Errorf("failed to decode indices: %w", err)
	}

	return &run, nil
}
