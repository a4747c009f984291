package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/cirqulofit/internal/auth"
	"github.com/claude/cirqulofit/internal/gifs"
	"github.com/claude/cirqulofit/internal/metrics"
	"github.com/claude/cirqulofit/internal/profile"
	"github.com/claude/cirqulofit/internal/session"
)

// Deps are the collaborators the HTTP layer routes to. Metrics, Registry and
// MCP are optional.
type Deps struct {
	Machine  *session.Machine
	Auth     *auth.Session
	Gateway  auth.Gateway
	Profile  *profile.Client
	Gifs     *gifs.Finder
	Metrics  *metrics.Manager
	Registry *prometheus.Registry
	MCP      http.Handler
	APIKey   string
	Log      *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	machine  *session.Machine
	auth     *auth.Session
	gateway  auth.Gateway
	profile  *profile.Client
	gifs     *gifs.Finder
	metrics  *metrics.Manager
	registry *prometheus.Registry
	mcp      http.Handler
	apiKey   string
	log      *slog.Logger
	whois    WhoIser
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(d Deps) *Server {
	s := &Server{
		machine:  d.Machine,
		auth:     d.Auth,
		gateway:  d.Gateway,
		profile:  d.Profile,
		gifs:     d.Gifs,
		metrics:  d.Metrics,
		registry: d.Registry,
		mcp:      d.MCP,
		apiKey:   d.APIKey,
		log:      d.Log,
		router:   chi.NewRouter(),
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables caller identification through the tailnet. Call it
// before serving.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

func (s *Server) routes() {
	s.router.Use(PanicRecovery(s.metrics, s.log))
	s.router.Use(TailscaleIdentity(func() WhoIser { return s.whois }, s.log))
	s.router.Use(RequestLogging(s.log))
	s.router.Use(Metrics(s.metrics))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Workout endpoints (no auth; tsnet handles access)
		r.Get("/state", s.handleState)
		r.Route("/session", func(r chi.Router) {
			r.Post("/start", s.handleStartWorkout)
			r.Post("/stop", s.handleStopWorkout)
			r.Post("/complete", s.handleCompleteWorkout)
			r.Route("/exercises/{exercise}/sets/{set}", func(r chi.Router) {
				r.Post("/complete", s.handleCompleteSet)
				r.Put("/weight", s.handleUpdateWeight)
				r.Put("/reps", s.handleUpdateReps)
			})
		})
		r.Post("/timer/start", s.handleStartTimer)
		r.Post("/timer/stop", s.handleStopTimer)

		r.Get("/user", s.handleUser)
		r.Get("/user/history", s.handleHistory)
		r.Post("/user/achievements", s.handleUnlockAchievement)
		r.Post("/user/level-up", s.handleLevelUp)

		r.Get("/catalog/exercises", s.handleExercises)
		r.Get("/catalog/levels", s.handleLevels)
		r.Get("/gifs", s.handlePreloadGifs)
		r.Get("/gifs/{exercise}", s.handleGif)

		// Identity endpoints
		r.Get("/auth/me", s.handleAuthMe)
		r.Get("/auth/login", s.handleLoginURL)
		r.Get("/auth/register", s.handleRegisterURL)
		r.Post("/auth/session", s.handleSignIn)
		r.Post("/auth/logout", s.handleLogout)

		// Remote profile (Maestro session required)
		r.Group(func(r chi.Router) {
			r.Use(RequireSession(s.gateway, s.auth.Token))
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
		})
	})

	// Agent endpoint (API key required)
	if s.mcp != nil {
		s.router.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Handle("/mcp", s.mcp)
		})
	}

	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
}
