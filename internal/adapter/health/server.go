package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"lead-manager-telegram-bot/internal/domain"
	"lead-manager-telegram-bot/internal/usecase"
)

// Server exposes liveness and a small JSON status surface for deployment
// checks. It mutates nothing.
type Server struct {
	router  *mux.Router
	stats   *usecase.ActionStats
	started time.Time
	logger  *slog.Logger
}

func NewServer(stats *usecase.ActionStats, logger *slog.Logger) *Server {
	s := &Server{
		stats:   stats,
		started: time.Now(),
		logger:  logger,
	}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router = r
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statusResponse struct {
	UptimeSeconds int64          `json:"uptime_seconds"`
	Alerts        map[string]int `json:"alerts"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	counts, err := s.stats.Counts()
	if err != nil {
		s.logger.Error("status counts failed", "error", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	resp := statusResponse{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Alerts: map[string]int{
			"pending":   counts[domain.ActionNone],
			"called":    counts[domain.ActionCalled],
			"wrote":     counts[domain.ActionWrote],
			"postponed": counts[domain.ActionPostpone],
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("status encode failed", "error", err)
	}
}
