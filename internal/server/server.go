// Package server exposes the dashboard views over a small read-only HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gonum.org/v1/plot"

	"github.com/KaramelBytes/climatelens-cli/internal/chart"
	"github.com/KaramelBytes/climatelens-cli/internal/dashboard"
)

// Server routes requests to one Dashboard. Handlers keep no state between requests.
type Server struct {
	dash   *dashboard.Dashboard
	log    *zap.Logger
	router *mux.Router
}

// New builds the router. A nil logger discards output.
func New(d *dashboard.Dashboard, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{dash: d, log: log, router: mux.NewRouter()}
	s.router.Use(s.logRequests)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/questions", s.handleQuestions).Methods(http.MethodGet)
	api.HandleFunc("/countries", s.handleCountries).Methods(http.MethodGet)
	api.HandleFunc("/waves", s.handleWaves).Methods(http.MethodGet)
	api.HandleFunc("/trends", s.handleTrends).Methods(http.MethodGet)
	api.HandleFunc("/youth", s.handleYouth).Methods(http.MethodGet)
	api.HandleFunc("/emissions", s.handleEmissions).Methods(http.MethodGet)
	api.HandleFunc("/pricing", s.handlePricing).Methods(http.MethodGet)
	api.HandleFunc("/epi", s.handleEPI).Methods(http.MethodGet)
	s.router.HandleFunc("/charts/{view}.png", s.handleChart).Methods(http.MethodGet)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Questions())
}

type countryOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	cs := s.dash.Catalog().Countries
	out := make([]countryOption, 0, cs.Len())
	for _, c := range cs.Codes() {
		out = append(out, countryOption{Code: c, Name: cs.Name(c)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWaves(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.WaveOptions())
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, func(sel dashboard.Selection) (any, error) { return s.dash.Trends(sel) })
}

func (s *Server) handleYouth(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, func(sel dashboard.Selection) (any, error) { return s.dash.Youth(sel) })
}

func (s *Server) handleEmissions(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, func(sel dashboard.Selection) (any, error) { return s.dash.Emissions(sel) })
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, func(dashboard.Selection) (any, error) { return s.dash.PricingMap() })
}

func (s *Server) handleEPI(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, func(sel dashboard.Selection) (any, error) { return s.dash.EPI(sel) })
}

func (s *Server) serveView(w http.ResponseWriter, r *http.Request, view func(dashboard.Selection) (any, error)) {
	sel, err := ParseSelection(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v, err := view(sel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseSelection(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := RenderView(s.dash, mux.Vars(r)["view"], sel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := chart.WritePNG(w, p); err != nil {
		s.log.Error("write chart", zap.Error(err))
	}
}

// ErrUnknownView is returned for chart names outside Views.
var ErrUnknownView = errors.New("unknown view")

// Views lists the chartable view names.
var Views = []string{"trends", "youth", "emissions", "pricing", "epi"}

// RenderView computes the named view and draws it.
func RenderView(d *dashboard.Dashboard, name string, sel dashboard.Selection) (*plot.Plot, error) {
	switch name {
	case "trends":
		v, err := d.Trends(sel)
		if err != nil {
			return nil, err
		}
		return chart.Trends(v)
	case "youth":
		v, err := d.Youth(sel)
		if err != nil {
			return nil, err
		}
		return chart.Youth(v)
	case "emissions":
		v, err := d.Emissions(sel)
		if err != nil {
			return nil, err
		}
		return chart.Emissions(v)
	case "pricing":
		v, err := d.PricingMap()
		if err != nil {
			return nil, err
		}
		return chart.Pricing(v)
	case "epi":
		v, err := d.EPI(sel)
		if err != nil {
			return nil, err
		}
		return chart.EPI(v)
	}
	return nil, fmt.Errorf("%w %q (use one of %s)", ErrUnknownView, name, strings.Join(Views, ", "))
}

// ParseSelection reads country, wave, question, from, to and year query
// parameters. country and wave repeat or take comma-separated lists; for the
// youth view the first wave is the single selected wave.
func ParseSelection(r *http.Request) (dashboard.Selection, error) {
	q := r.URL.Query()
	sel := dashboard.Selection{
		Countries: splitList(q["country"]),
		Waves:     splitList(q["wave"]),
		Question:  strings.TrimSpace(q.Get("question")),
	}
	if len(sel.Waves) > 0 {
		sel.Wave = sel.Waves[0]
	}
	for name, dst := range map[string]*int{"from": &sel.From, "to": &sel.To, "year": &sel.Year} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return sel, fmt.Errorf("%w: %s must be a year, got %q", dashboard.ErrBadSelection, name, raw)
		}
		*dst = n
	}
	return sel, nil
}

func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

type errorBody struct {
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dashboard.ErrNoData), errors.Is(err, dashboard.ErrNotLoaded), errors.Is(err, ErrUnknownView):
		status = http.StatusNotFound
	case errors.Is(err, dashboard.ErrBadSelection):
		status = http.StatusBadRequest
	default:
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
