package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/httputil"
	"github.com/moorline-data/siteplan/internal/monitoring"
	"github.com/moorline-data/siteplan/internal/survey"
)

func handleImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", "", "Configuration file path")
	dbPath := fs.String("db", "", "SQLite database path (default from config)")
	name := fs.String("campaign", "", "Campaign name (required)")
	region := fs.String("region", "", "Campaign region label")
	notes := fs.String("notes", "", "Campaign notes")
	server := fs.String("server", "", "Push to a running siteplan server instead of the local database")
	quiet := fs.Bool("quiet", false, "Suppress progress logging")
	fs.Parse(args)

	if *quiet {
		monitoring.SetLogger(nil)
	}

	if *name == "" {
		fmt.Fprintln(os.Stderr, "Error: --campaign flag is required. Name the campaign the sites belong to (e.g., --campaign \"Harbour spring\")")
		fs.Usage()
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: a sites CSV path is required (e.g., siteplan import --campaign \"Harbour spring\" sites.csv)")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfigOrExit(*configPath)
	if *dbPath == "" {
		*dbPath = cfg.GetDBPath()
	}

	importer := &Importer{
		DBPath:  *dbPath,
		CSVPath: fs.Arg(0),
		Name:    *name,
		Region:  *region,
		Notes:   *notes,
		Server:  *server,
	}

	if err := importer.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
}

// Importer loads a sites CSV into a new campaign, either in the local
// database or on a running server.
type Importer struct {
	DBPath  string
	CSVPath string
	Name    string
	Region  string
	Notes   string
	Server  string

	// Client overrides the HTTP client used in server mode. Nil means
	// the standard client.
	Client httputil.HTTPClient
}

// Run reads the CSV and creates the campaign holding its sites. Site
// order in the file is the index order every later selection refers to.
func (im *Importer) Run() error {
	f, err := os.Open(im.CSVPath)
	if err != nil {
		return fmt.Errorf("failed to open sites CSV: %w", err)
	}
	defer f.Close()

	sites, err := survey.ReadSites(f)
	if err != nil {
		return fmt.Errorf("%s: %w", im.CSVPath, err)
	}
	monitoring.Logf("[Import] read %d sites from %s", len(sites), im.CSVPath)

	if im.Server != "" {
		return im.push(sites)
	}

	database, err := db.NewDB(im.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	campaign := &db.Campaign{Name: im.Name, Region: im.Region}
	if im.Notes != "" {
		campaign.Notes = &im.Notes
	}
	if err := database.CreateCampaign(campaign); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	if err := database.ReplaceCampaignSites(campaign.CampaignID, sites); err != nil {
		return fmt.Errorf("failed to store sites: %w", err)
	}

	fmt.Printf("Imported %d sites into campaign %q (%s)\n", len(sites), campaign.Name, campaign.CampaignID)
	return nil
}

// push creates the campaign on a remote server and uploads the sites.
func (im *Importer) push(sites []survey.Site) error {
	client := newAPIClient(im.Server, im.Client)

	campaign, err := client.CreateCampaign(im.Name, im.Region, im.Notes)
	if err != nil {
		return err
	}
	if err := client.ReplaceSites(campaign.CampaignID, sites); err != nil {
		return err
	}

	fmt.Printf("Imported %d sites into campaign %q (%s) on %s\n", len(sites), campaign.Name, campaign.CampaignID, im.Server)
	return nil
}
