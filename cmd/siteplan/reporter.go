package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/sampler"
	"github.com/moorline-data/siteplan/internal/survey"
	"github.com/moorline-data/siteplan/internal/units"
)

func handleSummary(args []string) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	configPath := fs.String("config", "", "Configuration file path")
	dbPath := fs.String("db", "", "SQLite database path (default from config)")
	runID := fs.String("run", "", "Selection run id (required)")
	unitsFlag := fs.String("units", "", "Display units: m, km, ft or mi (default from config)")
	fs.Parse(args)

	if *runID == "" {
		fmt.Fprintln(os.Stderr, "Error: --run flag is required. Pass the selection run id printed by select")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfigOrExit(*configPath)
	if *dbPath == "" {
		*dbPath = cfg.GetDBPath()
	}
	if *unitsFlag == "" {
		*unitsFlag = cfg.GetUnits()
	}
	if !units.IsValid(*unitsFlag) {
		fmt.Fprintf(os.Stderr, "Error: invalid --units value %q: must be one of %s\n",
			*unitsFlag, units.GetValidUnitsString())
		os.Exit(1)
	}

	reporter := &Reporter{DBPath: *dbPath, RunID: *runID, Units: *unitsFlag}
	if err := reporter.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Summary failed: %v\n", err)
		os.Exit(1)
	}
}

// Reporter computes spacing statistics for a stored selection run.
type Reporter struct {
	DBPath string
	RunID  string
	Units  string
}

// SummaryReport pairs a run with its spacing statistics, converted to
// the requested display units.
type SummaryReport struct {
	Run      *db.SelectionRun
	Campaign *db.Campaign
	Units    string
	Stats    sampler.SpacingStats
}

// Report loads the run and computes nearest-neighbor spacing over its
// distinct selected sites.
func (rp *Reporter) Report() (*SummaryReport, error) {
	database, err := db.NewDB(rp.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	run, err := database.GetSelectionRun(rp.RunID)
	if err != nil {
		return nil, err
	}

	campaign, err := database.GetCampaign(run.CampaignID)
	if err != nil {
		return nil, err
	}

	sites, err := database.CampaignSites(run.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sites: %w", err)
	}

	stats, err := sampler.SpacingSummary(survey.Points(sites), run.Indices)
	if err != nil {
		return nil, err
	}

	// Site coordinates are meters; convert the spacing figures for display.
	stats.MinSpacing = units.ConvertDistance(stats.MinSpacing, rp.Units)
	stats.MeanSpacing = units.ConvertDistance(stats.MeanSpacing, rp.Units)
	stats.MedianSpacing = units.ConvertDistance(stats.MedianSpacing, rp.Units)

	return &SummaryReport{Run: run, Campaign: campaign, Units: rp.Units, Stats: stats}, nil
}

// Run prints the report.
func (rp *Reporter) Run() error {
	report, err := rp.Report()
	if err != nil {
		return err
	}

	fmt.Printf("Selection run %s (%s)\n", report.Run.RunID, report.Run.Policy)
	fmt.Printf("Campaign: %s\n", report.Campaign.Name)
	fmt.Printf("Selected: %d indices, %d distinct sites\n", report.Stats.Selected, report.Stats.Distinct)
	fmt.Printf("Min spacing:    %.3f %s\n", report.Stats.MinSpacing, report.Units)
	fmt.Printf("Mean spacing:   %.3f %s\n", report.Stats.MeanSpacing, report.Units)
	fmt.Printf("Median spacing: %.3f %s\n", report.Stats.MedianSpacing, report.Units)
	return nil
}
