// Package server exposes the job system over HTTP and WebSocket: a
// JSON mirror of cmd/libflowengine's operations for callers that can't link cgo,
// plus a status-transition stream for any job handle. Grounded on
// pkg/api/server.go's Server/Config/Start shape, repurposed from
// agent-session management to job-system management.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nuulab/flowengine/internal/job"
	"github.com/nuulab/flowengine/internal/jobsystem"
	"github.com/nuulab/flowengine/internal/registry"
)

// Config holds server configuration.
type Config struct {
	Addr string
}

// Server owns every live JobSystem and job Handle created through the
// HTTP API, plus the WebSocket hub that streams their status.
type Server struct {
	cfg Config
	hub *Hub

	mu       sync.RWMutex
	systems  map[uint64]*jobsystem.System[json.RawMessage, json.RawMessage]
	handles  map[uint64]*job.Handle[json.RawMessage, json.RawMessage]
	systemID atomic.Uint64
	handleID atomic.Uint64

	httpServer *http.Server
}

// New creates a Server. Call Start to begin serving.
func New(cfg Config) *Server {
	return &Server{
		cfg:     cfg,
		hub:     NewHub(),
		systems: make(map[uint64]*jobsystem.System[json.RawMessage, json.RawMessage]),
		handles: make(map[uint64]*job.Handle[json.RawMessage, json.RawMessage]),
	}
}

// Handler builds the request mux without binding a port. Exposed for
// tests and for callers that want to embed this API inside another
// http.Server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/systems", s.handleSystems)
	mux.HandleFunc("/api/systems/", s.handleSystem)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/jobs/", s.handleJob)
	mux.HandleFunc("/api/job-types", s.handleJobTypes)
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// Start runs the hub and blocks serving HTTP until the context is
// canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{Addr: s.cfg.Addr, Handler: s.Handler()}

	go s.hub.Run()

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func recoverDoc(recovered any) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("panic in job function: %v", recovered)})
	return b
}

// handleSystems: POST creates a JobSystem (mirrors create_jobsystem).
func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}

	id := s.systemID.Add(1)
	sys := jobsystem.New[json.RawMessage, json.RawMessage](recoverDoc)

	s.mu.Lock()
	s.systems[id] = sys
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "system_id": id})
}

// handleSystem: POST .../workers adds a worker (add_worker); DELETE
// destroys the system (destroy_jobsystem).
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/systems/")
	if strings.HasSuffix(rest, "/workers") && r.Method == http.MethodPost {
		id, err := strconv.ParseUint(strings.TrimSuffix(rest, "/workers"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid system id")
			return
		}
		sys, ok := s.getSystem(id)
		if !ok {
			writeError(w, http.StatusNotFound, "specified system id could not be found")
			return
		}
		sys.AddWorker()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	if r.Method == http.MethodDelete {
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid system id")
			return
		}
		s.mu.Lock()
		sys, ok := s.systems[id]
		if ok {
			delete(s.systems, id)
		}
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "specified system id was not found")
			return
		}
		sys.Close()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "unsupported method or path")
}

func (s *Server) getSystem(id uint64) (*jobsystem.System[json.RawMessage, json.RawMessage], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sys, ok := s.systems[id]
	return sys, ok
}

// handleJobs: POST submits a job to a system (send_job).
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}

	var req struct {
		SystemID uint64          `json:"system_id"`
		Type     string          `json:"type"`
		Input    json.RawMessage `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sys, ok := s.getSystem(req.SystemID)
	if !ok {
		writeError(w, http.StatusNotFound, "specified system id could not be found")
		return
	}
	fn, ok := registry.Lookup(req.Type)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("job type %q was not found", req.Type))
		return
	}

	id := s.handleID.Add(1)
	h := sys.SendJob(req.Input, func(in json.RawMessage) json.RawMessage { return fn(in) })

	s.mu.Lock()
	s.handles[id] = h
	s.mu.Unlock()

	s.watchStatus(id, h)

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "handle_id": id})
}

// watchStatus polls a handle until it completes, broadcasting every
// transition. There is no push notification on Handle (spec.md §4.2
// is a blocking Get, not an event source), so polling is the only
// option; 20ms keeps the stream responsive without busy-looping.
func (s *Server) watchStatus(id uint64, h *job.Handle[json.RawMessage, json.RawMessage]) {
	go func() {
		last := job.Queued
		s.hub.Broadcast(Event{Type: "handle.status", HandleID: id, Status: last.String()})

		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			cur := h.GetStatus()
			if cur != last {
				s.hub.Broadcast(Event{Type: "handle.status", HandleID: id, Status: cur.String()})
				last = cur
			}
			if cur == job.Completed {
				return
			}
		}
	}()
}

// handleJob: GET fetches and removes the completed result (get_job),
// matching via .../status to report status without consuming it
// (get_job_status).
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")

	if strings.HasSuffix(rest, "/status") {
		id, err := strconv.ParseUint(strings.TrimSuffix(rest, "/status"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid handle id")
			return
		}
		s.mu.RLock()
		h, ok := s.handles[id]
		s.mu.RUnlock()
		if !ok {
			writeError(w, http.StatusNotFound, "specified handle id was not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": h.GetStatus().String()})
		return
	}

	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid handle id")
		return
	}
	s.mu.Lock()
	h, ok := s.handles[id]
	if ok {
		delete(s.handles, id)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "specified handle id was not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": h.Get()})
}

// handleJobTypes mirrors list_job_types.
func (s *Server) handleJobTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": registry.Names()})
}

func parseHandleID(r *http.Request) (uint64, bool) {
	q := r.URL.Query().Get("handle_id")
	if q == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(q, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
