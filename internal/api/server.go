package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bermudago/internal/board"
	"bermudago/internal/config"
	"bermudago/internal/logging"
	"bermudago/internal/model"
	"bermudago/internal/schedule"
)

// Server exposes the departure board as read-only JSON.
type Server struct {
	board *board.Board
	urls  map[model.Mode]string
	cfg   config.ServerConfig
}

func NewServer(b *board.Board, cfg config.ServerConfig, urls map[model.Mode]string) *Server {
	return &Server{board: b, urls: urls, cfg: cfg}
}

type departureView struct {
	ID           string `json:"id"`
	Mode         string `json:"mode"`
	Name         string `json:"name"`
	Destination  string `json:"destination,omitempty"`
	Next         string `json:"next"`
	NextAt       string `json:"nextAt"`
	Frequency    int    `json:"frequency"`
	Status       string `json:"status,omitempty"`
	FullSchedule string `json:"fullSchedule,omitempty"`
}

type boardView struct {
	Now        string          `json:"now"`
	Time       string          `json:"time"`
	Departures []departureView `json:"departures"`
}

func (s *Server) view(d model.Departure) departureView {
	return departureView{
		ID:           d.Route.ID,
		Mode:         string(d.Route.Mode),
		Name:         d.Route.Name,
		Destination:  d.Route.Destination,
		Next:         d.NextLabel,
		NextAt:       d.Next.Format(time.RFC3339),
		Frequency:    d.Route.FrequencyMinutes,
		Status:       d.Route.Status,
		FullSchedule: s.urls[d.Route.Mode],
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Group(func(r chi.Router) {
		r.Use(limit(newLimiter(s.cfg.RequestsPerSecond, s.cfg.Burst)))
		r.Get("/departures", s.handleBoard)
		r.Get("/departures/{routeID}", s.handleRoute)
	})
	return r
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	mode := model.Mode(r.URL.Query().Get("mode"))
	if mode != "" && !mode.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mode")
		return
	}
	now := s.board.Now()
	deps, err := s.board.DeparturesAt(r.Context(), mode, now)
	if err != nil {
		logging.Error("board_error", map[string]any{"mode": string(mode), "error": err.Error()})
	}
	out := boardView{Now: now.Format(time.RFC3339), Time: schedule.FormatClock(now), Departures: make([]departureView, 0, len(deps))}
	for _, d := range deps {
		out.Departures = append(out.Departures, s.view(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "routeID")
	d, err := s.board.Lookup(r.Context(), id)
	switch {
	case errors.Is(err, board.ErrUnknownRoute):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.view(d))
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logging.Info("http_listen", map[string]any{"addr": s.cfg.Addr})
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
