package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/templui/portfolio/internal/app"
	"github.com/templui/portfolio/internal/handler"
	"github.com/templui/portfolio/internal/middleware"
	"github.com/templui/portfolio/internal/storage"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.ProfileService)
	projects := handler.NewProjectHandler(app.ProjectService)
	portfolio := handler.NewPortfolioHandler(app.PortfolioService, app.ProfileService)
	health := handler.NewHealthHandler(app.DB)

	requireAuth := middleware.RequireAuth(app.AuthService)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(app.Cfg.AllowedOrigins()))
	r.Use(middleware.Config(app.Cfg))

	r.Get("/healthz", health.Check)

	// Uploaded files are only served from here with the local driver;
	// S3 objects are addressed directly.
	if local, ok := app.Storage.(*storage.LocalStorage); ok {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(local.Root())))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", auth.Signup)
			r.Post("/signin", auth.Signin)
			r.Post("/forgot-password", auth.ForgotPassword)
			r.Post("/reset-password/{token}", auth.ResetPassword)
			r.Post("/refresh-token", auth.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", auth.Me)
				r.Put("/profile", auth.UpdateProfile)
				r.Put("/password", auth.ChangePassword)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projects.List)
			r.Get("/{id}", projects.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", projects.Create)
				r.Post("/import", projects.Import)
				r.Put("/{id}", projects.Update)
				r.Delete("/{id}", projects.Delete)
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/{userId}", portfolio.Get)
			r.With(requireAuth).Put("/", portfolio.Update)
		})
	})

	return r
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
