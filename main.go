package main

import (
	"fmt"
	"net/http"

	"github.com/GeoControl/GC-Backend/internal/auth"
	"github.com/GeoControl/GC-Backend/internal/config"
	"github.com/GeoControl/GC-Backend/internal/db"
	"github.com/GeoControl/GC-Backend/internal/directory"
	"github.com/GeoControl/GC-Backend/internal/middleware"
	"github.com/GeoControl/GC-Backend/internal/survey"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	cfg := config.Load()
	db.Connect()

	auth.Init()
	directory.Init()
	survey.Init(cfg)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(cfg))
	r.Mount("/directory", directory.SetupRoutes())
	r.Mount("/survey", survey.SetupRoutes())

	// Captured photos are served straight from the uploads dir.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))

	fmt.Println("Server listening on port :" + cfg.Port + "...")

	http.ListenAndServe("0.0.0.0:"+cfg.Port, r)
}
