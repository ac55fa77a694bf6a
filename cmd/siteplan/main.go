package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/moorline-data/siteplan/internal/config"
	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "import":
		handleImport(args)
	case "select":
		handleSelect(args)
	case "summary":
		handleSummary(args)
	case "serve":
		handleServe(args)
	case "migrate":
		handleMigrate(args)
	case "version":
		fmt.Printf("siteplan version %s (%s)\n", version.Version, version.GitSHA)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "Configuration file path")
	dbPath := fs.String("db", "", "SQLite database path (default from config)")
	fs.Parse(args)

	cfg := loadConfigOrExit(*configPath)
	if *dbPath == "" {
		*dbPath = cfg.GetDBPath()
	}

	db.RunMigrateCommand(fs.Args(), *dbPath)
}

// loadConfigOrExit resolves the effective configuration. An empty path
// means built-in defaults; a named file must load cleanly.
func loadConfigOrExit(path string) *config.Config {
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func printUsage() {
	fmt.Println(`siteplan - Measurement site selection for survey campaigns

Usage: siteplan <command> [options]

Commands:
  import     Import a sites CSV into a new campaign
  select     Run a selection policy over a campaign or CSV
  summary    Show spacing statistics for a stored selection run
  serve      Run the HTTP API server
  migrate    Manage database schema migrations
  version    Show siteplan version
  help       Show this help message

Common Flags:
  --config <file>      Configuration file path (JSON)
                       Flags override config file values
  --db <path>          SQLite database path (default: siteplan.db)
  --server <url>       Talk to a running siteplan server instead of
                       the local database (import and select only)

Selection Policies:
  periodic-count       Every k-th site, exact count
  periodic-fraction    Every k-th site, count from a fraction
  spacing-count        Packing-layout spacing, exact count
  spacing-fraction     Packing-layout spacing, count from a fraction

Examples:
  # Import a survey into the local database
  siteplan import --campaign "Harbour spring" sites.csv

  # Select 12 well-spaced training sites and export them
  siteplan select --campaign "Harbour spring" --policy spacing-count --count 12 --out training.csv

  # Select straight from a CSV, no database involved
  siteplan select --sites sites.csv --policy periodic-fraction --fraction 0.25

  # Reproducible jittered run with a PNG of the layout
  siteplan select --campaign "Harbour spring" --policy spacing-count --count 12 --jitter 5 --seed 42 --plot selection.png

  # Spacing statistics for a stored run, in feet
  siteplan summary --run 1b2e... --units ft

  # Serve the HTTP API
  siteplan serve --listen :8080 --packings ./packings

For more information, see: https://github.com/moorline-data/siteplan`)
}
