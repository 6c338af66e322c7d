package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/controllers"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
	"grua_fleet/internal/reports"
)

func RouteRoutes(r *gin.Engine, db *gorm.DB, engine *reports.Engine) {
	rc := controllers.NewRouteController(db, engine)
	ec := controllers.NewExpenseController(db)
	gc := controllers.NewRechargeController(db)

	rts := r.Group("/api/routes")
	rts.Use(middleware.RequireAuth(db))
	{
		rts.POST("", middleware.RequireRole(models.RoleAdmin, models.RoleSiteManager), rc.Create)
		rts.GET("", rc.List)
		rts.GET("/summary/driver", middleware.RequireRole(models.RoleDriver), rc.DriverSummary)
		rts.GET("/summary/manager", middleware.RequireRole(models.RoleSiteManager), rc.ManagerSummary)
		rts.GET("/:id", rc.Get)
		rts.PUT("/:id", rc.Update)

		rts.POST("/:id/expenses", ec.Create)
		rts.GET("/:id/expenses", ec.List)
		rts.PUT("/:id/expenses/:expenseId", ec.Update)
		rts.DELETE("/:id/expenses/:expenseId", ec.Delete)

		rts.POST("/:id/recharges", gc.Create)
		rts.GET("/:id/recharges", gc.List)
		rts.PUT("/:id/recharges/:rechargeId", gc.Update)
		rts.DELETE("/:id/recharges/:rechargeId", gc.Delete)
	}
}
