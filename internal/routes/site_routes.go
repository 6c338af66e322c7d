package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/controllers"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
)

func SiteRoutes(r *gin.Engine, db *gorm.DB) {
	sc := controllers.NewSiteController(db)

	sites := r.Group("/api/sites")
	sites.Use(middleware.RequireAuth(db))
	{
		sites.POST("", middleware.RequireRole(models.RoleAdmin), sc.Create)
		sites.GET("", sc.List)
		sites.GET("/:id", sc.Get)
		sites.PUT("/:id", middleware.RequireRole(models.RoleAdmin), sc.Update)
		sites.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), sc.Delete)
	}
}
