// Package api serves a read-only view of the session: the synchronized
// state, the current write specs and the dispatch journal.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollup_book/internal/state"
	"rollup_book/internal/storage"
	"rollup_book/internal/writereq"
)

// Journal is the read side of the dispatch journal.
type Journal interface {
	Recent(ctx context.Context, limit int) ([]storage.Entry, error)
}

// SpecSource yields the current write specs.
type SpecSource interface {
	Specs() writereq.Specs
}

// Options configure the server.
type Options struct {
	Addr         string
	Metrics      bool          // serve /metrics from the default registry
	PingInterval time.Duration // websocket keepalive
}

// Server holds the HTTP router and its read sources.
type Server struct {
	store     *state.Store
	journal   Journal
	specs     SpecSource
	router    *mux.Router
	upgrader  websocket.Upgrader
	opts      Options
	startTime time.Time
}

// NewServer creates the state API. journal and specs may be nil.
func NewServer(store *state.Store, journal Journal, specs SpecSource, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 20 * time.Second
	}
	s := &Server{
		store:   store,
		journal: journal,
		specs:   specs,
		router:  mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		opts:      opts,
		startTime: time.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/state", s.handleState).Methods("GET")
	s.router.HandleFunc("/book", s.handleBook).Methods("GET")
	s.router.HandleFunc("/orders", s.handleOrders).Methods("GET")
	s.router.HandleFunc("/balances", s.handleBalances).Methods("GET")
	s.router.HandleFunc("/specs", s.handleSpecs).Methods("GET")
	s.router.HandleFunc("/journal", s.handleJournal).Methods("GET")
	s.router.HandleFunc("/stream", s.handleStream).Methods("GET")
	if s.opts.Metrics {
		s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}
}

// Handler exposes the router (for tests and embedding).
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("State API listening", slog.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	response := map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"version":        snap.Version,
		"book_seq":       uint64(s.store.LastSeq(state.SlotPublicBook)),
	}
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"asks": snap.PublicAsks,
		"bids": snap.PublicBids,
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap.Address == nil {
		respondError(w, http.StatusConflict, "no address connected")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"address": snap.Address.Hex(),
		"asks":    snap.UserAsks,
		"bids":    snap.UserBids,
	})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap.Address == nil {
		respondError(w, http.StatusConflict, "no address connected")
		return
	}
	out := make([]BalanceView, 0, len(snap.UserBalances))
	for _, b := range snap.UserBalances {
		out = append(out, NewBalanceView(b))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"address":  snap.Address.Hex(),
		"balances": out,
	})
}

func (s *Server) handleSpecs(w http.ResponseWriter, r *http.Request) {
	if s.specs == nil {
		respondError(w, http.StatusNotFound, "no write specs available")
		return
	}
	specs := s.specs.Specs()
	out := make([]SpecView, 0, len(writereq.Kinds))
	for _, k := range writereq.Kinds {
		spec, _ := specs.Get(k)
		out = append(out, NewSpecView(spec))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		respondJSON(w, http.StatusOK, []storage.Entry{})
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]string{
		"error": message,
	}
	respondJSON(w, statusCode, response)
}
