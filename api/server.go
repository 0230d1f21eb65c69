// Package api provides the HTTP server for finmetrics.
//
// It exposes the legacy flat /analyze endpoint, the versioned metric,
// snapshot, F-Score, fair value and headline endpoints, and a WebSocket
// stream of completed analyses.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/finmetrics/internal/analysis/fundamental"
	"github.com/seenimoa/finmetrics/internal/analysis/metrics"
	"github.com/seenimoa/finmetrics/internal/config"
	"github.com/seenimoa/finmetrics/internal/datasource"
	"github.com/seenimoa/finmetrics/pkg/models"
	"github.com/seenimoa/finmetrics/pkg/utils"
)

// Version is reported by the health endpoint. The CLI sets it from build flags.
var Version = "dev"

const (
	defaultNewsLimit = 10
	maxNewsLimit     = 50
)

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	finviz    *datasource.Finviz
	extractor *metrics.Extractor
	analyzer  *metrics.Analyzer
	scorer    *fundamental.Scorer
	valuer    *fundamental.Valuer
	news      *datasource.News
	wsHub     *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	finviz := datasource.NewFinviz(cfg.Finviz)

	source, err := datasource.NewFundamentalsSource(cfg, finviz)
	if err != nil {
		return nil, fmt.Errorf("fundamentals source setup failed: %w", err)
	}

	timeout := cfg.Finviz.Timeout()
	extractor := metrics.NewExtractor(finviz)

	srv := &Server{
		cfg:       cfg,
		finviz:    finviz,
		extractor: extractor,
		analyzer:  metrics.NewAnalyzer(extractor, cfg.Analysis.ConcurrentFetches),
		scorer:    fundamental.NewScorer(source),
		valuer:    fundamental.NewValuer(datasource.NewYahoo(cfg.Yahoo, timeout), cfg.Analysis.ConcurrentFetches),
		news:      datasource.NewNews(cfg.Yahoo, timeout),
		wsHub:     NewWSHub(),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until SIGINT or SIGTERM,
// then shuts down gracefully.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("finmetrics API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-done:
	}
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)
	r.Get("/analyze", s.handleAnalyzeFlat)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/metrics", s.handleListMetrics)
		r.Get("/metrics/{ticker}", s.handleMetrics)
		r.Get("/metrics/{ticker}/{metric}", s.handleMetric)

		r.Get("/snapshot/{ticker}", s.handleSnapshot)
		r.Get("/fscore/{ticker}", s.handleFScore)
		r.Get("/fairvalue/{ticker}", s.handleFairValue)
		r.Get("/news/{ticker}", s.handleNews)

		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// requestLogger logs one line per request through the global zerolog logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope for /api/v1 responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// FScoreResponse is the body of GET /api/v1/fscore/{ticker}.
type FScoreResponse struct {
	models.FScoreResult
	Source string   `json:"source"`
	Checks []string `json:"checks"`
}

// FairValueResponse is the body of GET /api/v1/fairvalue/{ticker}.
type FairValueResponse struct {
	models.FairValueResult
	Suggestion string `json:"suggestion"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Financial Metrics API!",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":       "ok",
			"version":      Version,
			"fundamentals": s.scorer.Source(),
			"ws_clients":   s.wsHub.ClientCount(),
			"time":         time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleAnalyzeFlat serves the legacy contract: a flat object with one key
// per metric and a bare {"error": ...} on a missing ticker.
func (s *Server) handleAnalyzeFlat(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(r.URL.Query().Get("ticker"))
	if ticker == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Ticker parameter is required",
		})
		return
	}

	report := s.analyzer.Analyze(r.Context(), ticker)
	s.broadcastAnalysis(report)

	writeJSON(w, http.StatusOK, report.Flat())
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    metrics.All(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	report := s.analyzer.Analyze(r.Context(), ticker)
	s.broadcastAnalysis(report)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report.Model(),
	})
}

func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	m, err := metrics.Lookup(chi.URLParam(r, "metric"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	v, err := s.extractor.Extract(r.Context(), ticker, m.Label)
	res := metrics.ResultModel(metrics.Result{Metric: m, Value: v, Err: err})
	if err != nil {
		res.Error = displayError(err)
		writeJSON(w, statusForError(err), APIResponse{
			Success: false,
			Data:    res,
			Error:   res.Error,
		})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    res,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	snap, err := s.finviz.Snapshot(r.Context(), ticker)
	if err != nil {
		writeError(w, statusForError(err), displayError(err))
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    snap,
	})
}

func (s *Server) handleFScore(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	res, err := s.scorer.Score(r.Context(), ticker)
	if err != nil {
		writeError(w, statusForError(err), displayError(err))
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "fscore_complete",
		Data: map[string]interface{}{
			"ticker":  res.Ticker,
			"f_score": res.Score,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: FScoreResponse{
			FScoreResult: res,
			Source:       s.scorer.Source(),
			Checks:       fundamental.Checks(res),
		},
	})
}

func (s *Server) handleFairValue(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	res, err := s.valuer.Value(r.Context(), ticker)
	if err != nil {
		writeError(w, statusForError(err), displayError(err))
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "fairvalue_complete",
		Data: map[string]interface{}{
			"ticker":  res.Ticker,
			"verdict": res.Verdict,
			"skipped": res.Skipped,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: FairValueResponse{
			FairValueResult: res,
			Suggestion:      fundamental.Suggestion(res),
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	limit := defaultNewsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxNewsLimit)
	}

	headlines, err := s.news.Headlines(r.Context(), ticker, limit)
	if err != nil {
		writeError(w, statusForError(err), displayError(err))
		return
	}
	if headlines == nil {
		headlines = []models.Headline{}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    headlines,
	})
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) broadcastAnalysis(report *metrics.Report) {
	s.wsHub.Broadcast(WSMessage{
		Type: "analysis_complete",
		Data: map[string]interface{}{
			"ticker":  report.Ticker,
			"metrics": len(report.Results),
			"failed":  report.Failed(),
		},
	})
}

// tickerParam reads and normalizes the {ticker} path parameter, writing a
// 400 when it is blank.
func tickerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return "", false
	}
	return ticker, true
}

// statusForError maps a failure kind to an HTTP status.
func statusForError(err error) int {
	switch datasource.KindOf(err) {
	case datasource.KindFetch:
		return http.StatusBadGateway
	case datasource.KindParse:
		return http.StatusUnprocessableEntity
	case datasource.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// displayError renders err for API clients. Fetch failures are reduced to
// the ticker and upstream status so request URLs (and any API key in them)
// stay out of responses.
func displayError(err error) string {
	var fe *datasource.FetchError
	if errors.As(err, &fe) {
		if code := fe.StatusCode(); code != 0 {
			return fmt.Sprintf("data source returned HTTP %d for %s", code, fe.Ticker)
		}
		return fmt.Sprintf("could not reach data source for %s", fe.Ticker)
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub fans broadcast events out to every connected WebSocket client.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// slow client
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client and closes its send channel. Callers hold h.mu.
func (h *WSHub) drop(client *WSClient) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Broadcast queues msg for every connected client. The message is dropped
// when the queue is full.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		log.Debug().Str("type", msg.Type).Msg("websocket broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}
