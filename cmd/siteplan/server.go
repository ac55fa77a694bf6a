package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/moorline-data/siteplan/internal/api"
	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/fsutil"
	"github.com/moorline-data/siteplan/internal/packing"
	"github.com/moorline-data/siteplan/internal/units"
)

func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Configuration file path")
	dbPath := fs.String("db", "", "SQLite database path (default from config)")
	listen := fs.String("listen", "", "Listen address (default from config)")
	packingDir := fs.String("packings", "", "Packing layout directory (default from config)")
	unitsFlag := fs.String("units", "", "Default display units for summaries (default from config)")
	fs.Parse(args)

	cfg := loadConfigOrExit(*configPath)
	if *dbPath == "" {
		*dbPath = cfg.GetDBPath()
	}
	if *listen == "" {
		*listen = cfg.GetListen()
	}
	if *packingDir == "" {
		*packingDir = cfg.GetPackingDir()
	}
	if *unitsFlag == "" {
		*unitsFlag = cfg.GetUnits()
	}
	if !units.IsValid(*unitsFlag) {
		fmt.Fprintf(os.Stderr, "Error: invalid --units value %q: must be one of %s\n",
			*unitsFlag, units.GetValidUnitsString())
		os.Exit(1)
	}

	serve(*dbPath, *listen, *packingDir, *unitsFlag)
}

// serve runs the HTTP API until SIGINT or SIGTERM.
func serve(dbPath, listen, packingDir, displayUnits string) {
	database, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// A missing packing directory is not fatal; the server comes up with
	// spacing policies disabled and says so.
	var lib *packing.Library
	if loaded, err := packing.Load(fsutil.OSFileSystem{}, packingDir); err != nil {
		log.Printf("packing layouts unavailable (%v); spacing policies disabled", err)
	} else {
		lib = loaded
		log.Printf("loaded %d packing layouts from %s", lib.Len(), packingDir)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(database, lib, displayUnits).ServeMux()
		database.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
