package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"scriptures/mapped/internal/client"
	"scriptures/mapped/internal/config"
	"scriptures/mapped/internal/domain"
	"scriptures/mapped/internal/mapview"
	"scriptures/mapped/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// Browser is what the API drives. *service.Browser satisfies it.
type Browser interface {
	HandleFragmentChange(ctx context.Context, fragment string) (router.View, error)
	ShowLocation(ctx context.Context, geotag domain.Geotag)
	View() (router.View, bool)
	Volumes() []*domain.Volume
	Map() mapview.Snapshot
	SetMapReady()
	Loaded() bool
}

type Server struct {
	cfg        config.ServerConfig
	browser    Browser
	router     chi.Router
	httpServer *http.Server
}

func New(cfg config.ServerConfig, browser Browser) *Server {
	s := &Server{
		cfg:     cfg,
		browser: browser,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if !s.browser.Loaded() {
			status = "loading"
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/volumes", s.handleVolumes)
		r.Post("/navigate", s.handleNavigate)
		r.Get("/view", s.handleView)
		r.Get("/map", s.handleMap)
		r.Post("/map/ready", s.handleMapReady)
		r.Post("/geotag", s.handleGeotag)
	})

	return r
}

func (s *Server) Router() chi.Router { return s.router }

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Infof("🚀 Scriptures browser listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

type navigateRequest struct {
	Fragment string `json:"fragment"`
}

type geotagRequest struct {
	// showLocation arguments in order:
	// id, name, lat, lon, view lat, view lon, tilt, roll, altitude, heading, flag
	Fields []string `json:"fields"`
}

func (s *Server) handleVolumes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.browser.Volumes())
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.browser.HandleFragmentChange(r.Context(), req.Fragment)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view, ok := s.browser.View()
	if !ok {
		writeError(w, http.StatusNotFound, "nothing rendered yet")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.browser.Map())
}

func (s *Server) handleMapReady(w http.ResponseWriter, r *http.Request) {
	s.browser.SetMapReady()
	writeJSON(w, http.StatusOK, s.browser.Map())
}

func (s *Server) handleGeotag(w http.ResponseWriter, r *http.Request) {
	var req geotagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	geotag, err := client.GeotagFromFields(req.Fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.browser.ShowLocation(r.Context(), geotag)
	writeJSON(w, http.StatusOK, s.browser.Map())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("❌ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
