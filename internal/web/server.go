package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"elmbackup/internal/journal"
	"elmbackup/internal/model"
	"elmbackup/internal/plan"
)

// JournalReader is the read side of the journal.
type JournalReader interface {
	Entries(ctx context.Context, folder string) ([]journal.Entry, error)
	Summarize(ctx context.Context, folder string) (journal.Summary, error)
}

// Server exposes the plan and journal of one backup folder over HTTP.
type Server struct {
	folder  string
	load    func() (model.Plan, error)
	journal JournalReader // nil when the journal is disabled
	log     *slog.Logger
}

// NewServer creates a Server. load is called on every plan request so the
// page reflects the filesystem as it is now.
func NewServer(folder string, load func() (model.Plan, error), j JournalReader, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{folder: folder, load: load, journal: j, log: log}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleReport)
	mux.HandleFunc("GET /api/plan", s.handlePlan)
	mux.HandleFunc("GET /api/journal", s.handleJournal)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Serving %s at http://%s\n", s.folder, addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	pl, err := s.load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, plan.GenerateReport(pl, r.URL.Query().Get("verbose") != ""))
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	pl, err := s.load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, pl)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal is disabled", http.StatusNotFound)
		return
	}
	entries, err := s.journal.Entries(r.Context(), s.folder)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	s.writeJSON(w, entries)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal is disabled", http.StatusNotFound)
		return
	}
	sum, err := s.journal.Summarize(r.Context(), s.folder)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := struct {
		journal.Summary
		Next    string `json:"Next"`
		Version string `json:"Version"`
	}{
		Summary: sum,
		Version: model.Version,
	}
	if sum.HasLast {
		response.Next = sum.Last.Next().String()
	}
	s.writeJSON(w, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Warn("write response", "error", err)
	}
}
