package auth

import (
	"net/http"

	"github.com/GeoControl/GC-Backend/internal/config"
	"github.com/GeoControl/GC-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(cfg config.Config) http.Handler {
	r := chi.NewRouter()
	sessionFetcher := SessionInfo{}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(cfg.LoginRatePerSec, cfg.LoginBurst))
		r.Post("/login", LoginHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Post("/logout", LogoutHandler)
		r.Get("/me", MeHandler)
		r.Post("/update-password", UpdatePasswordHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminMiddleware(sessionFetcher))
			r.Post("/register", RegisterHandler)
		})
	})

	return r
}
