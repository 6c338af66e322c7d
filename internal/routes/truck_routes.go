package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/controllers"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
)

func TruckRoutes(r *gin.Engine, db *gorm.DB) {
	tc := controllers.NewTruckController(db)

	trucks := r.Group("/api/trucks")
	trucks.Use(middleware.RequireAuth(db))
	{
		trucks.POST("", middleware.RequireRole(models.RoleAdmin, models.RoleSiteManager), tc.Create)
		trucks.GET("", tc.List)
		trucks.GET("/:id", tc.Get)
		trucks.PUT("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleSiteManager), tc.Update)
		trucks.DELETE("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleSiteManager), tc.Delete)
	}
}
