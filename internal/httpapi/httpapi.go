// Package httpapi exposes the engine's control and read-model surface
// over HTTP: health/readiness probes, Prometheus metrics, the GUI's
// pause/resume/reset/save control commands (spec §6), and a read-only
// lookup of previously persisted encounters.
//
// Grounded on MOHCentral-opm-stats-api/internal/handlers' Handler/Config
// dependency-injection struct, its Health/Ready probe pair, and its
// jsonResponse/errorResponse helper-method idiom; the server lifecycle
// (Run(ctx) error, graceful shutdown on cancellation) follows the
// teacher's own cmd/gameserver/main.go component-Run-inside-errgroup
// convention.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udisondev/raidtrack/internal/protocol"
)

// Controller is the subset of encounter.Engine's control surface the
// GUI's HTTP commands drive.
type Controller interface {
	Pause()
	Resume()
	Paused() bool
	Reset()
	ManualSave()
	SetBossOnlyDamage(bool)
	BossOnlyDamage() bool
}

// Pinger is satisfied by internal/storage.Postgres; narrowed here so
// Ready doesn't need the whole storage package as a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EncounterReader is satisfied by internal/storage.Postgres.
type EncounterReader interface {
	GetEncounter(ctx context.Context, id int64) (protocol.PreviewRow, error)
}

// Config bundles the Handler's collaborators, mirroring the teacher's
// handlers.Config pattern.
type Config struct {
	Addr        string
	CORSOrigins []string

	Controller Controller
	Storage    Pinger
	Encounters EncounterReader
}

// Handler owns the control/read-model routes.
type Handler struct {
	controller Controller
	storage    Pinger
	encounters EncounterReader
}

// New builds the chi router and wraps it in an *http.Server.
func New(cfg Config) *Server {
	h := &Handler{
		controller: cfg.Controller,
		storage:    cfg.Storage,
		encounters: cfg.Encounters,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/control", func(r chi.Router) {
		r.Post("/pause", h.Pause)
		r.Post("/resume", h.Resume)
		r.Post("/reset", h.Reset)
		r.Post("/save", h.Save)
		r.Post("/boss-only-damage", h.SetBossOnlyDamage)
	})

	r.Get("/encounters/{id}", h.GetEncounter)

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &Server{httpServer: &http.Server{Addr: addr, Handler: r}}
}

// Server wraps the configured http.Server with a Run(ctx) error method,
// matching the teacher's component-lifecycle convention so it can be
// fanned out alongside every other long-running component in the same
// errgroup.
type Server struct {
	httpServer *http.Server
}

// Run starts serving and blocks until ctx is cancelled, at which point
// it shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serving http: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Health reports liveness unconditionally: if the process can answer,
// it is alive.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready reports whether the storage backend is reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{
		"storage": h.storage == nil || h.storage.Ping(r.Context()) == nil,
	}
	ready := true
	for _, ok := range checks {
		if !ok {
			ready = false
			break
		}
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, map[string]any{
		"ready":  ready,
		"checks": checks,
	})
}

// Pause stops the live broadcast loop's emit ticks (spec §6).
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.controller.Pause()
	h.jsonResponse(w, http.StatusOK, map[string]bool{"paused": h.controller.Paused()})
}

// Resume restarts emit ticks after a Pause.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	h.controller.Resume()
	h.jsonResponse(w, http.StatusOK, map[string]bool{"paused": h.controller.Paused()})
}

// Reset discards the live encounter without persisting it.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.controller.Reset()
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Save forces an immediate persist of the live encounter.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	h.controller.ManualSave()
	h.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "save requested"})
}

// SetBossOnlyDamage toggles the boss-only-damage attribution flag. The
// request body is a JSON object {"enabled": bool}.
func (h *Handler) SetBossOnlyDamage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1024)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.controller.SetBossOnlyDamage(body.Enabled)
	h.jsonResponse(w, http.StatusOK, map[string]bool{"boss_only_damage": h.controller.BossOnlyDamage()})
}

// GetEncounter reads back a previously persisted encounter's preview row.
func (h *Handler) GetEncounter(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid encounter id")
		return
	}
	preview, err := h.encounters.GetEncounter(r.Context(), id)
	if err != nil {
		h.errorResponse(w, http.StatusNotFound, "encounter not found")
		return
	}
	h.jsonResponse(w, http.StatusOK, preview)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
