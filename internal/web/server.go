// Package web serves a small read-only JSON status API over a finished run's
// output directory: the run report, the duplicate audit, and the artifact
// list. It never touches source data.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/gorilla/mux"
)

// Server represents the status web server
type Server struct {
	outputDir  string
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new status server over an output directory.
func NewServer(host string, port int, outputDir string) *Server {
	s := &Server{outputDir: outputDir}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/report", s.handleReport).Methods("GET")
	api.HandleFunc("/duplicates", s.handleDuplicates).Methods("GET")
	api.HandleFunc("/datasets", s.handleDatasets).Methods("GET")
}

// Run starts the server and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Run() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleReport serves the consolidated run report written by the assembler.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, "run_report.json")
}

// handleDuplicates serves the duplicate-resolution audit log.
func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, "lookup_duplicates_log.json")
}

type datasetEntry struct {
	File      string `json:"file"`
	SizeBytes int64  `json:"size_bytes"`
}

// handleDatasets lists the exported artifacts with their sizes.
func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	matches, err := filepath.Glob(filepath.Join(s.outputDir, "fedscope_employment_*.csv"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sort.Strings(matches)

	entries := make([]datasetEntry, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		entries = append(entries, datasetEntry{File: filepath.Base(path), SizeBytes: info.Size()})
	}
	writeJSON(w, entries)
}

// serveFile streams a JSON document from the output directory.
func (s *Server) serveFile(w http.ResponseWriter, name string) {
	path := filepath.Join(s.outputDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, fmt.Sprintf("%s not available: run the pipeline first", name), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
