package directory

import (
	"net/http"

	"github.com/GeoControl/GC-Backend/internal/auth"
	"github.com/GeoControl/GC-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Get("/dashboard", DashboardHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminMiddleware(sessionFetcher))
			r.Get("/companies", ListCompaniesHandler)
			r.Post("/companies", CreateCompanyHandler)
			r.Get("/users", ListUsersHandler)
			r.Get("/users/{user_id}", GetUserHandler)
			r.Patch("/users/{user_id}", UpdateUserHandler)
			r.Post("/licenses/grant", GrantLicenseHandler)
			r.Post("/licenses/revoke", RevokeLicenseHandler)
		})
	})

	return r
}
