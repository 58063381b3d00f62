// Package adminapi is the operator-facing HTTP/WebSocket surface: world
// stats, the kill/death leaderboard, a live outcome-event tail, and the
// Prometheus exporter. None of it is on the simulation's critical path;
// every handler here only reads state the tick loop has already produced.
package adminapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats is the world-level snapshot served at /api/stats.
type Stats struct {
	TickNumber       uint64
	EntityCount      int
	HeroCount        int
	CreepCount       int
	TowerCount       int
	CascadeOverflows uint64
}

// PlayerSummary is one hero-controlled player, served at /api/players.
type PlayerSummary struct {
	PlayerID string
	Level    int
	HP       float64
	MaxHP    float64
	X        float64
	Y        float64
	Alive    bool
}

// SimulationInterface is the read-only view the admin API needs from the
// running simulation. Implemented by the server's runtime wrapper
// (cmd/server) so this package never imports the scheduler or world
// directly, which keeps NewRouter pure and mockable in tests.
type SimulationInterface interface {
	Stats() Stats
	Players() []PlayerSummary
}

// RouterConfig carries everything NewRouter needs to build the mux.
type RouterConfig struct {
	// Simulation is the read-only world view (required).
	Simulation SimulationInterface

	// Leaderboard ranks players by kills/deaths (required).
	Leaderboard *Leaderboard

	// EventHub tails outbound events to debug WebSocket clients. Nil
	// disables the /ws/events route.
	EventHub *EventHub

	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig
	CORSOrigins     []string
	DisableLogging  bool
}

type routerHandlers struct {
	sim SimulationInterface
	lb  *Leaderboard
}

// NewRouter builds the admin mux. Pure: no goroutines, no listeners, safe
// to drive with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		limitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			limitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(limitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = AllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{sim: cfg.Simulation, lb: cfg.Leaderboard}

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.handleStats)
		r.Get("/leaderboard", h.handleLeaderboard)
		r.Get("/players", h.handlePlayers)
	})

	if cfg.EventHub != nil {
		r.Get("/ws/events", cfg.EventHub.HandleWebSocket)
	}

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

// GetRateLimiterFromRouter builds the rate limiter a RouterConfig would
// use, for tests that need to assert on it directly.
func GetRateLimiterFromRouter(cfg RouterConfig) *IPRateLimiter {
	if cfg.RateLimiter != nil {
		return cfg.RateLimiter
	}
	limitCfg := DefaultRateLimitConfig
	if cfg.RateLimitConfig != nil {
		limitCfg = *cfg.RateLimitConfig
	}
	return NewIPRateLimiter(limitCfg)
}
