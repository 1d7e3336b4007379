package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/servr/pkg/api/auth"
	"github.com/marmos91/servr/pkg/api/handlers"
	"github.com/marmos91/servr/pkg/api/middleware"
)

// Dependencies are the services behind the routes.
type Dependencies struct {
	Accounts handlers.AccountService
	Storage  handlers.StorageService
	JWT      *auth.JWTService

	// Checks are probed by GET /health/ready, keyed by dependency name.
	Checks map[string]handlers.Checker

	// Metrics may be nil.
	Metrics Metrics
}

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET  /health, /health/ready
//   - POST /api/v1/auth/sign-up, /api/v1/auth/sign-in, /api/v1/auth/refresh
//   - authenticated and rate limited per owner:
//     GET /api/v1/auth/me, POST /api/v1/container, GET /api/v1/nodes,
//     POST /api/v1/folders, POST /api/v1/files, PATCH|DELETE /api/v1/nodes/{id},
//     GET /api/v1/quota
func NewRouter(config APIConfig, deps Dependencies) (http.Handler, error) {
	config.ApplyDefaults()

	limiter, err := middleware.NewLimiter(config.RateLimit)
	if err != nil {
		return nil, err
	}

	rec := deps.Metrics

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(rec))
	r.Use(chimw.Timeout(config.RequestTimeout))

	health := handlers.NewHealthHandler(deps.Checks)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.JWT)
	nodes := handlers.NewNodeHandler(deps.Storage, config.MaxUploadSize)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/sign-up", authHandler.SignUp)
		r.Post("/auth/sign-in", authHandler.SignIn)
		r.Post("/auth/refresh", authHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(deps.JWT))
			r.Use(middleware.RateLimit(limiter, rec))

			r.Get("/auth/me", authHandler.Me)
			r.Post("/container", nodes.ProvisionContainer)
			r.Get("/nodes", nodes.List)
			r.Patch("/nodes/{id}", nodes.Rename)
			r.Delete("/nodes/{id}", nodes.Delete)
			r.Post("/folders", nodes.CreateFolder)
			r.Post("/files", nodes.Upload)
			r.Get("/quota", nodes.Quota)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r, nil
}
