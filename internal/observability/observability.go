// Package observability serves the physics debug endpoints: Prometheus
// metrics, a JSON snapshot of the world and pprof.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"sync"
	"time"

	"citysim/internal/physics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Board holds the latest physics.Stats published by the simulation loop.
// The World itself is not safe for concurrent use, so handlers only ever
// read this copy.
type Board struct {
	mu    sync.RWMutex
	stats physics.Stats
	at    time.Time
}

// Publish stores s. Call it from the goroutine that runs World.Update.
func (b *Board) Publish(s physics.Stats) {
	b.mu.Lock()
	b.stats = s
	b.at = time.Now()
	b.mu.Unlock()
}

// Latest returns the last published stats and when they were published.
func (b *Board) Latest() (physics.Stats, time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats, b.at
}

// Snapshot is the /debug/physics response body.
type Snapshot struct {
	Ticks       uint64  `json:"ticks"`
	Statics     int     `json:"statics"`
	Dynamics    int     `json:"dynamics"`
	Cells       int     `json:"cells"`
	Collisions  int     `json:"collisions"`
	LastTickMs  float64 `json:"last_tick_ms"`
	PublishedAt string  `json:"published_at,omitempty"`
}

// Config configures the debug server.
type Config struct {
	ListenAddr string
	Board      *Board
	Gatherer   prometheus.Gatherer // defaults to prometheus.DefaultGatherer

	// SnapshotRate limits /debug/physics requests per second; 0 disables.
	SnapshotRate  float64
	SnapshotBurst int

	DisableLogging bool
}

// DefaultConfig binds to localhost only.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    "127.0.0.1:6060",
		SnapshotRate:  20,
		SnapshotBurst: 40,
	}
}

// NewRouter builds the debug routes. It starts nothing, so tests can wrap
// it in httptest.NewServer.
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	board := cfg.Board
	if board == nil {
		board = &Board{}
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/debug", func(r chi.Router) {
		r.With(limit(cfg.SnapshotRate, cfg.SnapshotBurst)).Get("/physics", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, snapshot(board))
		})

		r.HandleFunc("/pprof/", pprof.Index)
		r.HandleFunc("/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/pprof/profile", pprof.Profile)
		r.HandleFunc("/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/pprof/trace", pprof.Trace)
		r.Handle("/pprof/{profile}", http.HandlerFunc(pprof.Index))
	})
	return r
}

func snapshot(b *Board) Snapshot {
	s, at := b.Latest()
	snap := Snapshot{
		Ticks:      s.Ticks,
		Statics:    s.Statics,
		Dynamics:   s.Dynamics,
		Cells:      s.Cells,
		Collisions: s.Collisions,
		LastTickMs: float64(s.LastTick) / float64(time.Millisecond),
	}
	if !at.IsZero() {
		snap.PublishedAt = at.UTC().Format(time.RFC3339Nano)
	}
	return snap
}

// limit rejects requests beyond perSecond with 429.
func limit(perSecond float64, burst int) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Start serves the router until ctx is cancelled. Non-loopback addresses are
// forced back to localhost unless ALLOW_DEBUG_EXTERNAL=true.
func Start(ctx context.Context, cfg Config) (net.Addr, error) {
	addr := cfg.ListenAddr
	if !isLoopback(addr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Printf("Debug: %s is not loopback, binding 127.0.0.1:6060", addr)
		addr = "127.0.0.1:6060"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("Debug: serving on http://%s (/metrics, /debug/physics, /debug/pprof/)", ln.Addr())

	// A Serve failure cancels the group, which shuts the server down
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	go func() {
		if err := g.Wait(); err != nil {
			log.Printf("Debug: server error: %v", err)
		}
	}()
	return ln.Addr(), nil
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
