package directory

import (
	"log"

	"github.com/GeoControl/GC-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "directory"); err != nil {
		log.Fatal("Failed to ensure schema directory: ", err)
	}

	if err := db.DB.AutoMigrate(&Company{}, &ProductModule{}, &License{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
