package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/controllers"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
	"grua_fleet/internal/reports"
)

func ReportRoutes(r *gin.Engine, db *gorm.DB, engine *reports.Engine) {
	rp := controllers.NewReportController(engine)

	rpt := r.Group("/api/reports")
	rpt.Use(middleware.RequireAuth(db), middleware.RequireRole(models.RoleAdmin))
	{
		rpt.GET("/balance", rp.Balance)
	}
}
