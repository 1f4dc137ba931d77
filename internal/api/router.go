package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
)

// Deps holds everything the router needs.
type Deps struct {
	Service   *service.Service
	JWTSecret string
	// Providers maps a login provider name to its implementation. The
	// password provider is added when missing.
	Providers map[string]auth.Provider
	// Hub serves the notification WebSocket. Nil disables /ws.
	Hub          http.Handler
	CORSOrigins  []string
	LoginLimiter *RateLimiter
	SecureCookie bool
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	providers := make(map[string]auth.Provider, len(d.Providers)+1)
	for name, p := range d.Providers {
		providers[name] = p
	}
	if _, ok := providers[ProviderPassword]; !ok {
		providers[ProviderPassword] = &auth.PasswordProvider{DB: d.Service.DB()}
	}

	authHandler := &AuthHandler{
		Service:      d.Service,
		JWTSecret:    d.JWTSecret,
		Providers:    providers,
		SecureCookie: d.SecureCookie,
	}
	itemsHandler := &ItemsHandler{Service: d.Service}
	claimsHandler := &ClaimsHandler{Service: d.Service}
	notificationsHandler := &NotificationsHandler{Service: d.Service}
	reportsHandler := &ReportsHandler{Service: d.Service}
	photosHandler := &PhotosHandler{Service: d.Service}

	authMW := AuthMiddleware(d.JWTSecret, d.Service.DB())
	optionalAuth := OptionalAuth(d.JWTSecret, d.Service.DB())
	requireStaff := RequireRole(model.RoleStaff)
	requireStudent := RequireRole(model.RoleStudent)

	limit := func(next http.Handler) http.Handler { return next }
	if d.LoginLimiter != nil {
		limit = d.LoginLimiter.Limit
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		// Public: account creation and login.
		r.With(limit).Post("/auth/signup", authHandler.Signup)
		r.With(limit).Post("/auth/login", authHandler.Login)
		r.With(limit).Post("/auth/login/{provider}", authHandler.LoginWith)

		// Browsing works anonymously; staff see more when logged in.
		r.With(optionalAuth).Get("/items", itemsHandler.List)
		r.With(optionalAuth).Get("/items/{id}", itemsHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/user", authHandler.Me)
			r.Put("/auth/password", authHandler.ChangePassword)

			r.Get("/claims", claimsHandler.List)
			r.Get("/claims/{id}", claimsHandler.Get)
			r.With(requireStudent).Post("/claims", claimsHandler.Submit)
			r.With(requireStudent).Patch("/claims/{id}/revise", claimsHandler.Revise)

			r.Get("/notifications", notificationsHandler.List)
			r.Patch("/notifications/read-all", notificationsHandler.MarkAllRead)
			r.Patch("/notifications/{id}/read", notificationsHandler.MarkRead)

			// Staff only.
			r.Group(func(r chi.Router) {
				r.Use(requireStaff)

				r.Post("/items", itemsHandler.Create)
				r.Patch("/items/{id}", itemsHandler.Update)
				r.Post("/archive-old-items", itemsHandler.Archive)
				r.Patch("/claims/{id}", claimsHandler.Review)
				r.Get("/analytics", reportsHandler.Analytics)
				r.Get("/export-report", reportsHandler.Export)
			})
		})
	})

	r.Get("/photos/{ref}", photosHandler.Get)
	if d.Hub != nil {
		r.With(authMW).Get("/ws", d.Hub.ServeHTTP)
	}

	return r
}
