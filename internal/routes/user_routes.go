package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/controllers"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
)

func UserRoutes(r *gin.Engine, db *gorm.DB) {
	uc := controllers.NewUserController(db)

	users := r.Group("/api/users")
	users.Use(middleware.RequireAuth(db))
	{
		users.POST("", middleware.RequireRole(models.RoleAdmin), uc.Create)
		users.GET("", middleware.RequireRole(models.RoleAdmin, models.RoleSiteManager), uc.List)
		users.PUT("/:id", middleware.RequireRole(models.RoleAdmin), uc.Update)
		users.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), uc.Delete)
	}
}
