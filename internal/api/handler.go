package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"
	"github.com/devricklin/smart-listener/internal/service"
)

const (
	defaultJudgmentLimit = 50
	maxJudgmentLimit     = 500
)

// Gate is the part of the gate service the admin API exposes
type Gate interface {
	Config() domain.GateConfig
	Problem() error
	Groups() []string
	History(groupID string) []domain.HistoryEntry
	RecordReply(ctx context.Context, groupID, text string) (bool, error)
	Judge(ctx context.Context, groupID, sender, text string) (*service.JudgeResult, error)
}

// Server provides the admin HTTP API
type Server struct {
	gate      Gate
	judgments repo.JudgmentRepo // Optional

	server *http.Server
	addr   string
}

// ConfigView is the JSON form of the gate configuration
type ConfigView struct {
	Enabled      bool     `json:"enabled"`
	ProviderID   string   `json:"relevance_checker_provider_id"`
	Character    string   `json:"character"`
	SystemPrompt string   `json:"relevance_checker_system_prompt"`
	Whitelist    []string `json:"group_whitelist"`
	Active       bool     `json:"active"`
	Problem      string   `json:"problem,omitempty"`
}

// JudgeRequest is the body of POST /api/judge
type JudgeRequest struct {
	GroupID string `json:"group_id"`
	Sender  string `json:"sender"`
	Text    string `json:"text"`
}

// ReplyRequest is the body of POST /api/groups/{groupID}/replies
type ReplyRequest struct {
	Text string `json:"text"`
}

// NewServer creates a new API server. judgments may be nil.
func NewServer(gate Gate, judgments repo.JudgmentRepo, addr string) *Server {
	return &Server{
		gate:      gate,
		judgments: judgments,
		addr:      addr,
	}
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/groups", s.handleGroups)
		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/history", s.handleHistory)
			r.Post("/replies", s.handleReply)
		})
		r.Post("/judge", s.handleJudge)
		r.Get("/judgments", s.handleJudgments)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("admin API listening")
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.gate.Config()
	view := ConfigView{
		Enabled:      cfg.Enabled,
		ProviderID:   cfg.ProviderID,
		Character:    cfg.PersonaName,
		SystemPrompt: cfg.SystemPrompt,
		Whitelist:    cfg.Whitelist(),
		Active:       cfg.Enabled,
	}
	if err := s.gate.Problem(); err != nil {
		view.Active = false
		view.Problem = err.Error()
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups := s.gate.Groups()
	if groups == nil {
		groups = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	entries := s.gate.History(groupID)
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"group_id": groupID,
		"entries":  entries,
	})
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	recorded, err := s.gate.RecordReply(r.Context(), groupID, req.Text)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recorded": recorded})
}

func (s *Server) handleJudge(w http.ResponseWriter, r *http.Request) {
	var req JudgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := s.gate.Judge(r.Context(), req.GroupID, req.Sender, req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrConfigIncomplete):
			status = http.StatusConflict
		case errors.Is(err, domain.ErrEmptyText):
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleJudgments(w http.ResponseWriter, r *http.Request) {
	if s.judgments == nil {
		writeError(w, http.StatusServiceUnavailable, "audit log disabled")
		return
	}

	filter := repo.JudgmentFilter{
		GroupID: r.URL.Query().Get("group"),
		Limit:   defaultJudgmentLimit,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = min(limit, maxJudgmentLimit)
	}

	judgments, err := s.judgments.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if judgments == nil {
		judgments = []*domain.Judgment{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"judgments": judgments})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
