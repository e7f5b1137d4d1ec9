package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openclaw/claw/internal/api/handler"
	mw "github.com/openclaw/claw/internal/api/middleware"
	"github.com/openclaw/claw/internal/config"
	"github.com/openclaw/claw/internal/core"
	"github.com/openclaw/claw/internal/ratelimit"
	"github.com/openclaw/claw/internal/webhook"
)

// Version is reported in the discovery manifest.
const Version = "1.0.0"

// Per-route admission budgets, keyed by client IP.
var (
	// limitStrict guards key-issuing routes.
	limitStrict = ratelimit.Config{Window: time.Hour, Max: 5}
	// limitWrite guards state-changing routes.
	limitWrite = ratelimit.Config{Window: time.Minute, Max: 10}
	// limitRead guards public listings.
	limitRead = ratelimit.Config{Window: time.Minute, Max: 120}
)

type Server struct {
	router     chi.Router
	logger     zerolog.Logger
	services   *core.Services
	pool       *pgxpool.Pool
	cfg        *config.Config
	dispatcher *webhook.Dispatcher
	limiter    *ratelimit.Limiter
	verifier   handler.GitHubVerifier
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, provider core.LightningProvider,
	verifier handler.GitHubVerifier, cfg *config.Config) *Server {
	services := core.NewServices(pool, provider, time.Duration(cfg.APIKeyTTLDays)*24*time.Hour)

	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger,
		services:   services,
		pool:       pool,
		cfg:        cfg,
		dispatcher: webhook.NewDispatcher(services.Webhook, nil, logger),
		limiter:    ratelimit.NewLimiter(ratelimit.NewMemoryStore(0)),
		verifier:   verifier,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// Discovery surface (no auth required)
	discovery := handler.NewDiscovery(s.cfg.PublicBaseURL, Version)
	s.router.Get("/.well-known/claw.json", discovery.Manifest)
	s.router.Get("/skill.md", discovery.Skill)

	user := handler.NewUser(s.services.User, s.verifier, s.logger)
	gig := handler.NewGig(s.services.Gig, s.dispatcher)
	application := handler.NewApplication(s.services.Application, s.services.Gig, s.dispatcher)
	submission := handler.NewSubmission(s.services.Submission, s.services.Gig, s.services.User,
		s.services.Payment, s.dispatcher, s.logger)
	payment := handler.NewPayment(s.services.Payment, s.services.Gig, s.dispatcher)
	wh := handler.NewWebhook(s.services.Webhook, s.dispatcher)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/categories", discovery.Categories)
		r.Get("/capabilities", discovery.Capabilities)

		// Registration is the only unauthenticated write, so it gets the
		// tightest budget.
		r.With(s.limit("register", limitStrict)).Post("/register", user.Register)

		// Public browsing
		r.With(s.limit("gigs_read", limitRead)).Get("/gigs", gig.List)
		r.With(s.limit("gigs_read", limitRead)).Get("/gigs/{id}", gig.Get)
		r.With(s.limit("agents_read", limitRead)).Get("/agents", user.List)
		r.With(s.limit("agents_read", limitRead)).Get("/agents/{id}", user.Get)

		// Everything below requires a valid API key. The limiter is chained
		// ahead of auth so over-budget clients are rejected with 429 before
		// the key lookup touches the database.
		auth := mw.Auth(s.services.User)
		authed := func(route string, cfg ratelimit.Config) chi.Router {
			return r.With(s.limit(route, cfg), auth)
		}

		authed("me_read", limitRead).Get("/me", user.Me)
		authed("me_write", limitWrite).Patch("/me", user.UpdateMe)
		authed("regenerate_key", limitStrict).Post("/me/regenerate-key", user.RegenerateKey)

		authed("gigs_read", limitRead).Get("/gigs/matches", gig.Matches)
		authed("gigs_write", limitWrite).Post("/gigs", gig.Create)
		authed("gigs_write", limitWrite).Patch("/gigs/{id}", gig.Update)
		authed("gigs_write", limitWrite).Post("/gigs/{id}/cancel", gig.Cancel)

		authed("applications_read", limitRead).Get("/gigs/{id}/applications", application.ListByGig)
		authed("applications_read", limitRead).Get("/applications", application.ListMine)
		authed("applications_write", limitWrite).Post("/gigs/{id}/apply", application.Apply)
		authed("applications_write", limitWrite).Post("/applications/{id}/accept", application.Accept)
		authed("applications_write", limitWrite).Post("/applications/{id}/reject", application.Reject)
		authed("applications_write", limitWrite).Post("/applications/{id}/withdraw", application.Withdraw)

		authed("submissions_read", limitRead).Get("/gigs/{id}/submissions", submission.ListByGig)
		authed("submissions_write", limitWrite).Post("/gigs/{id}/submit", submission.Submit)
		authed("submissions_write", limitWrite).Post("/submissions/{id}/approve", submission.Approve)
		authed("submissions_write", limitWrite).Post("/submissions/{id}/reject", submission.Reject)

		authed("payments_read", limitRead).Get("/payments", payment.ListMine)
		authed("payments_read", limitRead).Get("/payments/{id}", payment.Get)
		authed("payments_write", limitWrite).Post("/gigs/{id}/invoice", payment.CreateInvoice)
		authed("payments_write", limitWrite).Post("/payments/{id}/check", payment.Check)

		authed("webhooks_read", limitRead).Get("/webhooks", wh.List)
		authed("webhooks_write", limitWrite).Post("/webhooks", wh.Create)
		authed("webhooks_write", limitWrite).Delete("/webhooks/{id}", wh.Delete)
		authed("webhooks_write", limitWrite).Post("/webhooks/test", wh.Test)
	})
}

func (s *Server) limit(route string, cfg ratelimit.Config) func(http.Handler) http.Handler {
	return mw.RateLimit(s.limiter, route, cfg)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
