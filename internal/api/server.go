package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/moorline-data/siteplan/internal/db"
	"github.com/moorline-data/siteplan/internal/httputil"
	"github.com/moorline-data/siteplan/internal/packing"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server exposes campaign and selection operations over HTTP. The packing
// library may be nil, in which case spacing policies are unavailable and
// the selection endpoint reports that.
type Server struct {
	db    *db.DB
	lib   *packing.Library
	units string
}

func NewServer(db *db.DB, lib *packing.Library, units string) *Server {
	return &Server{
		db:    db,
		lib:   lib,
		units: units,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/campaigns", s.handleCampaigns)
	mux.HandleFunc("/api/campaigns/", s.handleCampaignByID)
	mux.HandleFunc("/api/selections/", s.handleSelectionByID)
	mux.HandleFunc("/api/packings", s.listPackings)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

// listPackings reports which layout sizes the loaded packing library can
// serve. Spacing selections are only possible for these counts.
func (s *Server) listPackings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	counts := []int{}
	if s.lib != nil {
		counts = s.lib.Counts()
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"counts": counts,
		"count":  len(counts),
	})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	config := map[string]interface{}{
		"units":            s.units,
		"packings_loaded":  s.lib != nil,
		"spacing_policies": s.lib != nil && s.lib.Len() > 0,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		httputil.InternalServerError(w, "Failed to write config")
		return
	}
}
