package survey

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

		r.Get("/projects", ListProjectsHandler)
		r.Post("/projects", CreateProjectHandler)
		r.Get("/projects/{project_id}/campaigns", GetCampaignsHandler)
		r.Get("/projects/{project_id}/data", GetProjectDataHandler)
		r.Post("/projects/{project_id}/upload", UploadCSVHandler)
		r.Post("/points", UploadPointHandler)
		r.Get("/campaigns/{campaign_id}/log", GetCampaignLogHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminMiddleware(sessionFetcher))
			r.Patch("/projects/{project_id}", UpdateProjectHandler)
			r.Delete("/projects/{project_id}", DeleteProjectHandler)
			r.Post("/projects/{project_id}/reset", ResetProjectDataHandler)
			r.Post("/campaigns", CreateCampaignHandler)
			r.Patch("/campaigns/{campaign_id}/status", ToggleCampaignStatusHandler)
			r.Delete("/campaigns/{campaign_id}", DeleteCampaignHandler)
			r.Delete("/measurements/{measurement_id}", DeleteMeasurementHandler)
		})
	})

	return r
}
