package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/fsutil"
	"github.com/moorline-data/siteplan/internal/httputil"
	"github.com/moorline-data/siteplan/internal/monitoring"
	"github.com/moorline-data/siteplan/internal/packing"
	"github.com/moorline-data/siteplan/internal/preview"
	"github.com/moorline-data/siteplan/internal/sampler"
	"github.com/moorline-data/siteplan/internal/security"
	"github.com/moorline-data/siteplan/internal/survey"
)

func handleSelect(args []string) {
	fs := flag.NewFlagSet("select", flag.ExitOnError)
	configPath := fs.String("config", "", "Configuration file path")
	dbPath := fs.String("db", "", "SQLite database path (default from config)")
	campaign := fs.String("campaign", "", "Campaign id or name to select from")
	sitesCSV := fs.String("sites", "", "Sites CSV to select from directly, skipping the database")
	policy := fs.String("policy", "", "Selection policy (required)")
	count := fs.Int("count", 0, "Number of sites to select (count policies)")
	fraction := fs.Float64("fraction", 0, "Fraction of sites to select (fraction policies)")
	packingDir := fs.String("packings", "", "Packing layout directory (default from config)")
	jitter := fs.Float64("jitter", 0, "Jitter radius in meters (default from config)")
	group := fs.Bool("group", false, "Capture neighbors around each matched site instead of jittering")
	seed := fs.Int64("seed", 0, "Random seed for reproducible jitter (default from config)")
	out := fs.String("out", "", "Write the selected sites to this CSV file")
	plot := fs.String("plot", "", "Write a PNG plot of the selection to this file")
	htmlOut := fs.String("html", "", "Write an HTML preview of the selection to this file")
	server := fs.String("server", "", "Run the selection on a running siteplan server")
	quiet := fs.Bool("quiet", false, "Suppress progress logging")
	fs.Parse(args)

	if *quiet {
		monitoring.SetLogger(nil)
	}

	p := sampler.Policy(*policy)
	if !p.Valid() {
		fmt.Fprintf(os.Stderr, "Error: --policy flag is required and must be one of %s, %s, %s, %s\n",
			sampler.PolicyPeriodicCount, sampler.PolicyPeriodicFraction,
			sampler.PolicySpacingCount, sampler.PolicySpacingFraction)
		fs.Usage()
		os.Exit(1)
	}

	switch p {
	case sampler.PolicyPeriodicCount, sampler.PolicySpacingCount:
		if *count <= 0 {
			fmt.Fprintf(os.Stderr, "Error: --count flag is required for policy %s\n", p)
			fs.Usage()
			os.Exit(1)
		}
	default:
		if *fraction <= 0 {
			fmt.Fprintf(os.Stderr, "Error: --fraction flag is required for policy %s\n", p)
			fs.Usage()
			os.Exit(1)
		}
	}

	if (*campaign == "") == (*sitesCSV == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of --campaign or --sites is required")
		fs.Usage()
		os.Exit(1)
	}
	if *server != "" && *campaign == "" {
		fmt.Fprintln(os.Stderr, "Error: --server mode requires --campaign")
		fs.Usage()
		os.Exit(1)
	}
	if *server != "" && (*out != "" || *plot != "" || *htmlOut != "") {
		fmt.Fprintln(os.Stderr, "Error: --out, --plot and --html require a local selection")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfigOrExit(*configPath)

	// Config file values only fill in flags the user didn't set.
	seen := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	if !seen["db"] {
		*dbPath = cfg.GetDBPath()
	}
	if !seen["packings"] {
		*packingDir = cfg.GetPackingDir()
	}
	if !seen["jitter"] {
		*jitter = cfg.GetJitterRadius()
	}
	if !seen["group"] {
		*group = cfg.GetGroupNeighbors()
	}

	runner := &Runner{
		DBPath:       *dbPath,
		Campaign:     *campaign,
		SitesCSV:     *sitesCSV,
		Server:       *server,
		Policy:       p,
		Count:        *count,
		Fraction:     *fraction,
		PackingDir:   *packingDir,
		JitterRadius: *jitter,
		Group:        *group,
		OutCSV:       *out,
		PlotPNG:      *plot,
		HTMLOut:      *htmlOut,
	}
	if seen["seed"] {
		runner.Seed = seed
	} else if s := cfg.GetRandomSeed(); s != 0 {
		runner.Seed = &s
	}

	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Selection failed: %v\n", err)
		os.Exit(1)
	}
}

// Runner executes one selection end to end: load the candidates, apply
// the policy, persist the run when a campaign is involved, then write
// whatever outputs were requested.
type Runner struct {
	DBPath       string
	Campaign     string // campaign id or name (database and server modes)
	SitesCSV     string // direct CSV mode, nothing persisted
	Server       string
	Policy       sampler.Policy
	Count        int
	Fraction     float64
	PackingDir   string
	JitterRadius float64
	Group        bool
	Seed         *int64

	OutCSV  string
	PlotPNG string
	HTMLOut string

	// Client overrides the HTTP client used in server mode. Nil means
	// the standard client.
	Client httputil.HTTPClient
}

func (r *Runner) Run() error {
	if r.Server != "" {
		return r.runRemote()
	}
	if r.SitesCSV != "" {
		return r.runCSV()
	}
	return r.runDB()
}

// runCSV selects straight from a sites file. Useful for one-off planning
// where no campaign history is wanted.
func (r *Runner) runCSV() error {
	f, err := os.Open(r.SitesCSV)
	if err != nil {
		return fmt.Errorf("failed to open sites CSV: %w", err)
	}
	defer f.Close()

	sites, err := survey.ReadSites(f)
	if err != nil {
		return fmt.Errorf("%s: %w", r.SitesCSV, err)
	}

	result, err := r.selectFrom(survey.Points(sites))
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s / %s", filepath.Base(r.SitesCSV), result.Policy)
	if err := r.writeOutputs(title, sites, result.Indices); err != nil {
		return err
	}

	printSelection(result, len(sites))
	return nil
}

// runDB selects from a stored campaign and persists the run so summary,
// export and preview can find it later.
func (r *Runner) runDB() error {
	database, err := db.NewDB(r.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	campaign, err := resolveCampaign(database, r.Campaign)
	if err != nil {
		return err
	}

	sites, err := database.CampaignSites(campaign.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}

	result, err := r.selectFrom(survey.Points(sites))
	if err != nil {
		return err
	}

	run := &db.SelectionRun{
		CampaignID:   campaign.CampaignID,
		Policy:       string(result.Policy),
		TargetCount:  result.TargetCount,
		JitterRadius: result.JitterRadius,
		Grouped:      result.Grouped,
		PackingUsed:  result.PackingUsed,
		Indices:      result.Indices,
	}
	if err := database.SaveSelectionRun(run); err != nil {
		return fmt.Errorf("failed to save selection run: %w", err)
	}

	title := fmt.Sprintf("%s / %s", campaign.Name, result.Policy)
	if err := r.writeOutputs(title, sites, result.Indices); err != nil {
		return err
	}

	printSelection(result, len(sites))
	fmt.Printf("Saved selection run %s\n", run.RunID)
	return nil
}

// runRemote hands the selection to a running server, which owns both the
// campaign data and the packing library.
func (r *Runner) runRemote() error {
	client := newAPIClient(r.Server, r.Client)

	run, err := client.RunSelection(r.Campaign, selectionParams{
		Policy:         string(r.Policy),
		Count:          r.Count,
		Fraction:       r.Fraction,
		JitterRadius:   r.JitterRadius,
		GroupNeighbors: r.Group,
		Seed:           r.Seed,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Selected %d sites (%s) on %s\n", len(run.Indices), run.Policy, r.Server)
	fmt.Printf("Indices: %v\n", run.Indices)
	fmt.Printf("Saved selection run %s\n", run.RunID)
	return nil
}

// selectFrom applies the configured policy. Spacing policies load the
// packing library on demand so periodic runs never touch the directory.
func (r *Runner) selectFrom(points []survey.Point) (sampler.Selection, error) {
	switch r.Policy {
	case sampler.PolicySpacingCount, sampler.PolicySpacingFraction:
		lib, err := packing.Load(fsutil.OSFileSystem{}, r.PackingDir)
		if err != nil {
			return sampler.Selection{}, fmt.Errorf("failed to load packing layouts: %w", err)
		}
		monitoring.Logf("[Select] loaded %d packing layouts from %s", lib.Len(), r.PackingDir)

		params := sampler.SpacingParams{
			JitterRadius:   r.JitterRadius,
			GroupNeighbors: r.Group,
		}
		if r.Seed != nil {
			params.Rand = rand.New(rand.NewSource(*r.Seed))
		}

		selector := sampler.NewSpacingSelector(lib, params)
		if r.Policy == sampler.PolicySpacingCount {
			return selector.SelectCount(points, r.Count)
		}
		return selector.SelectFraction(points, r.Fraction)
	case sampler.PolicyPeriodicCount:
		return sampler.PeriodicSelector{}.SelectCount(points, r.Count)
	default:
		return sampler.PeriodicSelector{}.SelectFraction(points, r.Fraction)
	}
}

// writeOutputs materialises the requested artifacts. Every path is
// validated so a run can't scribble outside the working or temp
// directory.
func (r *Runner) writeOutputs(title string, sites []survey.Site, indices []int) error {
	if r.OutCSV != "" {
		if err := security.ValidateExportPath(r.OutCSV); err != nil {
			return fmt.Errorf("refusing export path: %w", err)
		}
		var buf bytes.Buffer
		if err := survey.WriteSelection(&buf, sites, indices); err != nil {
			return fmt.Errorf("failed to write selection CSV: %w", err)
		}
		if err := os.WriteFile(r.OutCSV, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.OutCSV, err)
		}
		monitoring.Logf("[Select] wrote %d selection rows to %s", len(indices), r.OutCSV)
	}

	if r.PlotPNG != "" {
		if err := security.ValidateExportPath(r.PlotPNG); err != nil {
			return fmt.Errorf("refusing plot path: %w", err)
		}
		if err := preview.SavePlotPNG(r.PlotPNG, title, sites, indices); err != nil {
			return err
		}
		monitoring.Logf("[Select] wrote plot to %s", r.PlotPNG)
	}

	if r.HTMLOut != "" {
		if err := security.ValidateExportPath(r.HTMLOut); err != nil {
			return fmt.Errorf("refusing preview path: %w", err)
		}
		var buf bytes.Buffer
		if err := preview.RenderScatterHTML(&buf, title, sites, indices); err != nil {
			return err
		}
		if err := os.WriteFile(r.HTMLOut, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.HTMLOut, err)
		}
		monitoring.Logf("[Select] wrote preview to %s", r.HTMLOut)
	}

	return nil
}

func printSelection(result sampler.Selection, total int) {
	fmt.Printf("Selected %d of %d sites (%s)\n", len(result.Indices), total, result.Policy)
	if result.Grouped {
		fmt.Printf("Grouping captured %d sites around %d anchors\n", len(result.Indices), result.PackingUsed)
	}
	fmt.Printf("Indices: %v\n", result.Indices)
}

// resolveCampaign accepts a campaign id or, failing that, a campaign
// name.
func resolveCampaign(database *db.DB, ref string) (*db.Campaign, error) {
	campaign, err := database.GetCampaign(ref)
	if err == nil {
		return campaign, nil
	}
	if !strings.Contains(err.Error(), "not found") {
		return nil, err
	}

	campaign, err = database.GetCampaignByName(ref)
	if err != nil {
		return nil, fmt.Errorf("campaign %q not found by id or name", ref)
	}
	return campaign, nil
}
