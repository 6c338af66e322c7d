package main

import (
	"log"
	"net/http"

	"grua_fleet/internal/config"
	"grua_fleet/internal/logger"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/routes"
)

func main() {
	// Structured logging to a rotating file
	logger.Setup()

	// The store handle is owned here and passed down explicitly
	db, err := config.OpenDB()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer sqlDB.Close()

	if err := config.EnsureDefaultAdmin(db); err != nil {
		log.Fatalf("default admin bootstrap: %v", err)
	}

	r := routes.SetupRouter(db)

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	log.Println("🚀 Server running at :8080")
	log.Fatal(http.ListenAndServe("0.0.0.0:8080", handler))
}
