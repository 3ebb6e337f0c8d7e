package survey

import (
	"log"

	"github.com/GeoControl/GC-Backend/internal/config"
	"github.com/GeoControl/GC-Backend/internal/db"
)

var (
	ingestor   *Ingestor
	uploadsDir string
)

func Init(cfg config.Config) {
	if err := db.EnsureSchema(db.DB, "survey"); err != nil {
		log.Fatal("Failed to ensure schema survey: ", err)
	}

	if err := db.DB.AutoMigrate(&Project{}, &Campaign{}, &Measurement{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	ingestor = NewIngestor(db.DB)
	uploadsDir = cfg.UploadsDir
}
