package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"BreakoutScanner/internal/breakout"
	"BreakoutScanner/internal/collector"
	"BreakoutScanner/internal/config"
	"BreakoutScanner/internal/exporter"
	"BreakoutScanner/internal/model"
)

// Analyzer runs one symbol's scan.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, start, end time.Time, params model.Params) *model.TickerReport
}

var _ Analyzer = (*collector.Collector)(nil)

// Server exposes breakout scans over HTTP.
type Server struct {
	router   *mux.Router
	server   *http.Server
	analyzer Analyzer
	defaults model.Params
	lookback int
	now      func() time.Time
}

// NewServer wires routes. gatherer may be nil to omit /metrics.
func NewServer(addr string, analyzer Analyzer, defaults model.Params, lookbackDays int, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		analyzer: analyzer,
		defaults: defaults,
		lookback: lookbackDays,
		now:      time.Now,
	}
	s.setupRoutes(gatherer)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/breakouts/{symbol}", s.breakouts).Methods(http.MethodGet)
	api.HandleFunc("/breakouts/{symbol}/csv", s.breakoutsCSV).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}

type requestIDKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		id, _ := r.Context().Value(requestIDKey{}).(string)
		log.Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(began)).
			Msg("request")
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type breakoutResponse struct {
	Symbol  string                  `json:"symbol"`
	Start   string                  `json:"start"`
	End     string                  `json:"end"`
	Params  model.Params            `json:"params"`
	Bars    int                     `json:"bars"`
	Summary model.SummaryStatistics `json:"summary"`
	Trades  []tradeJSON             `json:"trades"`
	Skipped []model.SkippedBreakout `json:"skipped"`
}

type tradeJSON struct {
	EntryDate   string  `json:"entry_date"`
	EntryPrice  float64 `json:"entry_price"`
	ExitDate    string  `json:"exit_date"`
	ExitPrice   float64 `json:"exit_price"`
	ReturnPct   float64 `json:"return_pct"`
	VolumeRatio float64 `json:"volume_ratio"`
}

func (s *Server) breakouts(w http.ResponseWriter, r *http.Request) {
	report, ok := s.scan(w, r)
	if !ok {
		return
	}
	resp := breakoutResponse{
		Symbol:  report.Symbol,
		Start:   report.Start.Format(model.DateLayout),
		End:     report.End.Format(model.DateLayout),
		Params:  report.Params,
		Bars:    report.Bars,
		Summary: report.Summary,
		Trades:  make([]tradeJSON, 0, len(report.Result.Trades)),
		Skipped: report.Result.Skipped,
	}
	for _, tr := range report.Result.Trades {
		resp.Trades = append(resp.Trades, tradeJSON{
			EntryDate:   tr.EntryDate.Format(model.DateLayout),
			EntryPrice:  tr.EntryPrice,
			ExitDate:    tr.ExitDate.Format(model.DateLayout),
			ExitPrice:   tr.ExitPrice,
			ReturnPct:   tr.ReturnPct,
			VolumeRatio: tr.VolumeRatio,
		})
	}
	if resp.Skipped == nil {
		resp.Skipped = []model.SkippedBreakout{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) breakoutsCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := s.scan(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName(report.Symbol)))
	if err := exporter.WriteCSV(w, report.Result.Trades); err != nil {
		log.Error().Err(err).Str("symbol", report.Symbol).Msg("write csv response")
	}
}

// scan parses the request, runs the analysis and writes an error response when it fails.
func (s *Server) scan(w http.ResponseWriter, r *http.Request) (*model.TickerReport, bool) {
	symbols := config.ParseTickers(mux.Vars(r)["symbol"])
	if len(symbols) != 1 {
		writeError(w, http.StatusBadRequest, "exactly one symbol is required")
		return nil, false
	}
	start, end, params, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	report := s.analyzer.Analyze(r.Context(), symbols[0], start, end, params)
	switch {
	case report.NoData:
		writeError(w, http.StatusNotFound, fmt.Sprintf("no data found for %s", report.Symbol))
		return nil, false
	case errors.Is(report.Err, breakout.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, report.Err.Error())
		return nil, false
	case report.Err != nil:
		writeError(w, http.StatusBadGateway, report.Err.Error())
		return nil, false
	}
	return report, true
}

func (s *Server) parseQuery(r *http.Request) (time.Time, time.Time, model.Params, error) {
	q := r.URL.Query()
	now := s.now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -s.lookback)
	params := s.defaults

	var err error
	if v := q.Get("start"); v != "" {
		if start, err = time.Parse(model.DateLayout, v); err != nil {
			return start, end, params, fmt.Errorf("invalid start date %q", v)
		}
	}
	if v := q.Get("end"); v != "" {
		if end, err = time.Parse(model.DateLayout, v); err != nil {
			return start, end, params, fmt.Errorf("invalid end date %q", v)
		}
	}
	if err := config.ValidateDateRange(start, end, now); err != nil {
		return start, end, params, err
	}

	if v := q.Get("volume"); v != "" {
		if params.VolumeThresholdPct, err = strconv.ParseFloat(v, 64); err != nil {
			return start, end, params, fmt.Errorf("invalid volume threshold %q", v)
		}
	}
	if v := q.Get("price"); v != "" {
		if params.PriceThresholdPct, err = strconv.ParseFloat(v, 64); err != nil {
			return start, end, params, fmt.Errorf("invalid price threshold %q", v)
		}
	}
	if v := q.Get("hold"); v != "" {
		if params.HoldingPeriodDays, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return start, end, params, fmt.Errorf("invalid holding period %q", v)
		}
	}
	return start, end, params, config.ValidateParams(params)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
