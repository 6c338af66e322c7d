package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/controllers"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
)

func AuthRoutes(r *gin.Engine, db *gorm.DB) {
	ac := controllers.NewAuthController(db)
	uc := controllers.NewUserController(db)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", ac.Login)
		auth.POST("/register",
			middleware.RequireAuth(db), middleware.RequireRole(models.RoleAdmin), uc.Create)
		auth.GET("/profile", middleware.RequireAuth(db), ac.Profile)
	}
}
