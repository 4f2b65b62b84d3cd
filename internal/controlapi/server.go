// Package controlapi exposes a small, read-mostly HTTP surface over the
// agent's published state: status, queue depth, and a notice submission
// endpoint. It never reaches into the Worker's locks directly — it only
// reads otastate.Publisher snapshots and calls the same Submit path
// Notice Intake exposes in-process (spec.md §4.1's EXPANSION point).
package controlapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"otaagent/internal/notice"
	"otaagent/internal/otaqueue"
	"otaagent/internal/otastate"
)

// Server is the Control API's HTTP surface.
type Server struct {
	publisher *otastate.Publisher
	queue     *otaqueue.Queue
	intake    *notice.Intake
	router    *chi.Mux
	logger    *slog.Logger
}

// New builds a Server. Callers start it by calling Start with a listen
// address.
func New(publisher *otastate.Publisher, queue *otaqueue.Queue, intake *notice.Intake, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		publisher: publisher,
		queue:     queue,
		intake:    intake,
		router:    chi.NewRouter(),
		logger:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/queue", s.handleQueue)
	s.router.Post("/notice", s.handleNotice)
}

// Start binds addr and serves in a background goroutine, returning once
// the listener is up (so callers can log the bound address) or an error
// if the bind itself fails.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("controlapi: listen %s: %w", addr, err)
	}
	s.logger.Info("control api listening", "addr", listener.Addr().String())
	go func() {
		if err := http.Serve(listener, s.router); err != nil {
			s.logger.Error("control api server stopped", "error", err)
		}
	}()
	return nil
}

type statusResponse struct {
	Status         string `json:"status"`
	Error          string `json:"error"`
	AppliedVersion uint32 `json:"applied_version"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.publisher.Snapshot()
	writeJSON(w, statusResponse{
		Status:         string(snap.Status),
		Error:          string(snap.Error),
		AppliedVersion: snap.AppliedVersion,
	})
}

type queueResponse struct {
	Depth    int `json:"depth"`
	Capacity int `json:"capacity"`
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, queueResponse{Depth: s.queue.Len(), Capacity: otaqueue.Capacity})
}

// handleNotice accepts a notice in the same key/value shape Submit
// expects. Submit itself never reports validation failures back to the
// caller (spec.md §4.1: malformed notices are silently dropped since the
// control plane re-announces on reconnect), so this endpoint always
// returns 202 once the body decodes as JSON.
func (s *Server) handleNotice(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	s.intake.Submit(fields)
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
