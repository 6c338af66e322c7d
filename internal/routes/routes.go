package routes

import (
	"net/http"
	"time"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/reports"
)

// SetupRouter wires every resource group under /api. The store handle
// is passed down to each group; nothing here keeps global state.
func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())

	engine := reports.NewEngine(db)

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	AuthRoutes(r, db)
	UserRoutes(r, db)
	SiteRoutes(r, db)
	TruckRoutes(r, db)
	RouteRoutes(r, db, engine)
	ReportRoutes(r, db, engine)

	return r
}
