package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/cointrack/internal/clients"
	"github.com/vadiminshakov/cointrack/internal/domain"
	"github.com/vadiminshakov/cointrack/internal/services/coinlist"
	"github.com/vadiminshakov/cointrack/internal/services/icons"
	"go.uber.org/zap"
)

const (
	journalPollInterval = 2 * time.Second
	defaultToggleLimit  = 10
	maxToggleLimit      = 100
)

type coinSynchronizer interface {
	Initialize(ctx context.Context) domain.LoadResult
	Toggle(ctx context.Context, symbol string, enabled bool) error
	Snapshot() coinlist.Snapshot
	Subscribe() (<-chan coinlist.Snapshot, func())
}

type toggleJournal interface {
	EventsAfter(index uint64) ([]domain.ToggleEventRecord, error)
	Recent(limit int, failedOnly bool) ([]domain.ToggleEventRecord, error)
	LastIndex() uint64
}

// Server exposes the dashboard pages, a small JSON API and an SSE stream of list changes.
type Server struct {
	Addr    string
	Coins   coinSynchronizer
	Journal toggleJournal
	logger  *zap.Logger

	pollInterval time.Duration
}

// NewServer creates a new web server instance. journal may be nil.
func NewServer(addr string, coins coinSynchronizer, journal toggleJournal, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, Coins: coins, Journal: journal, logger: logger, pollInterval: journalPollInterval}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /coins", s.handleCoinsPage)
	mux.HandleFunc("GET /coins/stream", s.handleStream)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("POST /api/coins/{symbol}", s.handleToggle)
	mux.HandleFunc("GET /api/toggles", s.handleToggles)
	mux.Handle("GET "+icons.PathPrefix, http.StripPrefix(icons.PathPrefix, http.FileServer(http.FS(icons.Assets()))))
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dashboard listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type coinView struct {
	Symbol  string `json:"symbol"`
	Enabled bool   `json:"enabled"`
	Icon    string `json:"icon"`
}

type stateView struct {
	State   string     `json:"state"`
	Error   string     `json:"error,omitempty"`
	Version uint64     `json:"version"`
	Coins   []coinView `json:"coins"`
}

// newStateView renders one row per coin from a snapshot.
func newStateView(snap coinlist.Snapshot) stateView {
	v := stateView{
		State:   snap.Status.String(),
		Version: snap.Version,
		Coins:   make([]coinView, 0, len(snap.Coins)),
	}
	if snap.Err != nil {
		v.Error = snap.Err.Error()
	}
	for _, c := range snap.Coins {
		v.Coins = append(v.Coins, coinView{Symbol: c.Symbol, Enabled: c.Enabled, Icon: icons.Resolve(c.Symbol)})
	}
	return v
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, nil); err != nil {
		s.logger.Error("render home page", zap.Error(err))
	}
}

func (s *Server) handleCoinsPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := coinsTemplate.Execute(w, newStateView(s.Coins.Snapshot())); err != nil {
		s.logger.Error("render coins page", zap.Error(err))
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newStateView(s.Coins.Snapshot()))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	res := s.Coins.Initialize(r.Context())
	status := http.StatusOK
	if res.Failed() {
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, newStateView(s.Coins.Snapshot()))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enable"))
	if err != nil {
		http.Error(w, "enable must be true or false", http.StatusBadRequest)
		return
	}

	if err := s.Coins.Toggle(r.Context(), symbol, enabled); err != nil {
		switch {
		case errors.Is(err, coinlist.ErrCoinNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case clients.IsTransportError(err):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, newStateView(s.Coins.Snapshot()))
}

func (s *Server) handleToggles(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		s.writeJSON(w, http.StatusOK, []domain.ToggleEvent{})
		return
	}

	limit := defaultToggleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxToggleLimit)
	}
	failedOnly := r.URL.Query().Get("failed") == "true"

	records, err := s.Journal.Recent(limit, failedOnly)
	if err != nil {
		s.logger.Error("read toggle journal", zap.Error(err))
		http.Error(w, "failed to read toggle journal", http.StatusInternalServerError)
		return
	}

	events := make([]domain.ToggleEvent, 0, len(records))
	for _, rec := range records {
		events = append(events, rec.Event)
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, unsubscribe := s.Coins.Subscribe()
	defer unsubscribe()

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()

	// only events journaled after the client connected are streamed
	var lastIndex uint64
	if s.Journal != nil {
		lastIndex = s.Journal.LastIndex()
	}

	sendToggles := func() error {
		if s.Journal == nil {
			return nil
		}
		records, err := s.Journal.EventsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			if err := writeEvent(w, "toggle", record.Event); err != nil {
				return err
			}
			lastIndex = record.Index
		}
		flusher.Flush()
		return nil
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-updates:
			if err := writeEvent(w, "coins", newStateView(snap)); err != nil {
				s.logger.Warn("coin stream write", zap.Error(err))
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendToggles(); err != nil {
				s.logger.Warn("toggle stream poll", zap.Error(err))
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s event", name)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write json response", zap.Error(err))
	}
}
