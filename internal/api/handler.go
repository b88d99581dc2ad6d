package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/peekabot/peekabot/internal/biz"
	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/repo"
)

// Server provides a local read-only HTTP API for inspecting the running bot
type Server struct {
	historyRepo repo.HistoryRepo // Optional
	platform    string
	startedAt   time.Time

	// Core of the current platform session (replaced on every restart)
	currentCore *biz.Core
	sessions    int
	coreMu      sync.RWMutex

	server *http.Server
	port   int
}

// Status is the /api/status response
type Status struct {
	Platform         string    `json:"platform"`
	StartedAt        time.Time `json:"started_at"`
	Sessions         int       `json:"sessions"`
	PendingExpiries  int       `json:"pending_expiries"`
	TrackedReactions int       `json:"tracked_reactions"`
}

// Task is a pending expiry
type Task struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	Delay     string    `json:"delay"`
	DueAt     time.Time `json:"due_at"`
}

// HistoryEntry is a fired expiry
type HistoryEntry struct {
	TaskID    string         `json:"task_id"`
	ChannelID string         `json:"channel_id"`
	MessageID string         `json:"message_id"`
	UserID    string         `json:"user_id,omitempty"`
	Delay     string         `json:"delay"`
	Deleted   bool           `json:"deleted"`
	Reactions map[string]int `json:"reactions,omitempty"`
	FiredAt   time.Time      `json:"fired_at"`
}

// NewServer creates a new API server
func NewServer(historyRepo repo.HistoryRepo, platform string, port int) *Server {
	return &Server{
		historyRepo: historyRepo,
		platform:    platform,
		startedAt:   time.Now(),
		port:        port,
	}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/tasks", s.handleTasks)
	mux.HandleFunc("/api/history", s.handleHistory)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Start starts the HTTP server and blocks until it is stopped
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Printf("[API] Starting HTTP server on port %d\n", s.port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// SetCore points the API at a new platform session
func (s *Server) SetCore(core *biz.Core) {
	s.coreMu.Lock()
	defer s.coreMu.Unlock()
	s.currentCore = core
	s.sessions++
}

// GetCore returns the current platform session, nil before the first one starts
func (s *Server) GetCore() *biz.Core {
	s.coreMu.RLock()
	defer s.coreMu.RUnlock()
	return s.currentCore
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.coreMu.RLock()
	status := Status{
		Platform:  s.platform,
		StartedAt: s.startedAt,
		Sessions:  s.sessions,
	}
	core := s.currentCore
	s.coreMu.RUnlock()

	if core != nil {
		status.PendingExpiries = core.Scheduler.Pending()
		status.TrackedReactions = core.Tracker.Len()
	}
	s.writeJSON(w, status)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := []Task{}
	if core := s.GetCore(); core != nil {
		for _, t := range core.Scheduler.Tasks() {
			result = append(result, Task{
				ID:        t.ID,
				MessageID: t.Key,
				Delay:     t.Delay.String(),
				DueAt:     t.DueAt(),
			})
		}
	}
	s.writeJSON(w, map[string]interface{}{"tasks": result})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.historyRepo == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	entries, err := s.historyRepo.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{"entries": ConvertHistory(entries)})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// ConvertHistory converts domain entries to API entries
func ConvertHistory(entries []*domain.HistoryEntry) []HistoryEntry {
	result := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		result[i] = HistoryEntry{
			TaskID:    e.TaskID,
			ChannelID: e.ChannelID,
			MessageID: e.MessageID,
			UserID:    e.UserID,
			Delay:     e.DelayText,
			Deleted:   e.Deleted,
			Reactions: e.Reactions,
			FiredAt:   e.FiredAt,
		}
	}
	return result
}
