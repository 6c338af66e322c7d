package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
	"grua_fleet/internal/policy"
	"grua_fleet/internal/reports"
)

type RouteController struct {
	DB     *gorm.DB
	Engine *reports.Engine
}

func NewRouteController(db *gorm.DB, engine *reports.Engine) *RouteController {
	return &RouteController{DB: db, Engine: engine}
}

func routePreloads(db *gorm.DB) *gorm.DB {
	return db.Preload("OriginSite").Preload("DestinationSite").Preload("Truck").Preload("Driver")
}

// verifyDriver ensures the referenced user exists, drives, and is
// active.
func (rc *RouteController) verifyDriver(driverID uint) (*models.User, error) {
	var driver models.User
	if err := rc.DB.First(&driver, driverID).Error; err != nil {
		return nil, apperr.FromDB(err, "the driver does not exist")
	}
	if driver.Role != models.RoleDriver {
		return nil, apperr.Validation("the assigned user does not hold the DRIVER role")
	}
	if !driver.Active {
		return nil, apperr.Validation("the driver is inactive")
	}
	return &driver, nil
}

type createRouteInput struct {
	Name              string   `json:"name" binding:"required"`
	OriginSiteID      uint     `json:"origin_site_id" binding:"required"`
	DestinationSiteID uint     `json:"destination_site_id" binding:"required"`
	TruckID           uint     `json:"truck_id" binding:"required"`
	DriverID          uint     `json:"driver_id" binding:"required"`
	StartDate         string   `json:"start_date" binding:"required"`
	EndDate           string   `json:"end_date"`
	Status            string   `json:"status"`
	DistanceKm        *float64 `json:"distance_km"`
	Notes             string   `json:"notes"`
}

func (rc *RouteController) Create(c *gin.Context) {
	var input createRouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	actor := middleware.Actor(c)
	if err := policy.CanCreateRoute(actor, input.OriginSiteID, input.DestinationSiteID); err != nil {
		apperr.Respond(c, err)
		return
	}

	driver, err := rc.verifyDriver(input.DriverID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var truck models.Truck
	if err := rc.DB.First(&truck, input.TruckID).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "the truck does not exist"))
		return
	}
	if truck.SiteID != input.OriginSiteID {
		apperr.Respond(c, apperr.Validation("the truck must belong to the origin site"))
		return
	}

	startDate, err := parseDate(input.StartDate, "start_date")
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	var endDate *time.Time
	if input.EndDate != "" {
		parsed, err := parseDate(input.EndDate, "end_date")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		endDate = &parsed
	}

	status := strings.ToUpper(strings.TrimSpace(input.Status))
	if status == "" {
		status = models.RouteScheduled
	}
	if !models.IsValidRouteStatus(status) {
		apperr.Respond(c, apperr.Validation("invalid route status"))
		return
	}

	route := models.Route{
		Name:              input.Name,
		OriginSiteID:      input.OriginSiteID,
		DestinationSiteID: input.DestinationSiteID,
		TruckID:           truck.ID,
		DriverID:          driver.ID,
		StartDate:         startDate,
		EndDate:           endDate,
		Status:            status,
		DistanceKm:        input.DistanceKm,
		Notes:             input.Notes,
	}
	if err := rc.DB.Create(&route).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "route not found"))
		return
	}

	routePreloads(rc.DB).First(&route, route.ID)
	logrus.WithFields(logrus.Fields{"route_id": route.ID, "actor_id": actor.ID}).Info("route registered")
	c.JSON(http.StatusCreated, gin.H{"message": "route registered", "route": route})
}

type routeWithSummary struct {
	models.Route
	Summary reports.RouteTotals `json:"summary"`
}

// List applies the user-supplied filters AND the implicit scope the
// actor's role imposes, then attaches per-route totals.
func (rc *RouteController) List(c *gin.Context) {
	actor := middleware.Actor(c)

	query := rc.DB.Model(&models.Route{})
	if status := strings.ToUpper(c.Query("status")); status != "" {
		if !models.IsValidRouteStatus(status) {
			apperr.Respond(c, apperr.Validation("invalid route status"))
			return
		}
		query = query.Where("status = ?", status)
	}
	if raw := c.Query("driver"); raw != "" {
		driverID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperr.Respond(c, apperr.Validation("the driver identifier is invalid"))
			return
		}
		query = query.Where("driver_id = ?", uint(driverID))
	}
	if raw := c.Query("site"); raw != "" {
		siteID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperr.Respond(c, apperr.Validation("the site identifier is invalid"))
			return
		}
		query = query.Where("(origin_site_id = ? OR destination_site_id = ?)", uint(siteID), uint(siteID))
	}

	scope, err := policy.RouteScope(actor)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var routes []models.Route
	if err := routePreloads(query.Scopes(scope)).Order("start_date DESC").Find(&routes).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	rc.respondWithTotals(c, routes)
}

func (rc *RouteController) respondWithTotals(c *gin.Context, routes []models.Route) {
	ids := make([]uint, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	totals, err := rc.Engine.TotalsByRoute(ids)
	if err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	withTotals := make([]routeWithSummary, 0, len(routes))
	for _, r := range routes {
		withTotals = append(withTotals, routeWithSummary{Route: r, Summary: totals[r.ID]})
	}
	c.JSON(http.StatusOK, gin.H{"routes": withTotals})
}

// Get returns the route together with both of its event streams.
func (rc *RouteController) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var route models.Route
	if err := routePreloads(rc.DB).First(&route, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "route not found"))
		return
	}
	if err := policy.CanViewRoute(middleware.Actor(c), &route); err != nil {
		apperr.Respond(c, err)
		return
	}

	var expenses []models.Expense
	if err := rc.DB.Where("route_id = ?", route.ID).Preload("Driver").
		Order("date DESC").Find(&expenses).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}
	var recharges []models.Recharge
	if err := rc.DB.Where("route_id = ?", route.ID).Preload("Manager").
		Order("date DESC").Find(&recharges).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"route": route, "expenses": expenses, "recharges": recharges})
}

type updateRouteInput struct {
	Name              *string  `json:"name"`
	OriginSiteID      *uint    `json:"origin_site_id"`
	DestinationSiteID *uint    `json:"destination_site_id"`
	TruckID           *uint    `json:"truck_id"`
	DriverID          *uint    `json:"driver_id"`
	StartDate         *string  `json:"start_date"`
	EndDate           *string  `json:"end_date"`
	Status            *string  `json:"status"`
	DistanceKm        *float64 `json:"distance_km"`
	Notes             *string  `json:"notes"`
}

func (rc *RouteController) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var route models.Route
	if err := rc.DB.First(&route, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "route not found"))
		return
	}
	if err := policy.CanViewRoute(middleware.Actor(c), &route); err != nil {
		apperr.Respond(c, err)
		return
	}

	var input updateRouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	if input.DriverID != nil && *input.DriverID != route.DriverID {
		if _, err := rc.verifyDriver(*input.DriverID); err != nil {
			apperr.Respond(c, err)
			return
		}
		route.DriverID = *input.DriverID
	}
	if input.TruckID != nil && *input.TruckID != route.TruckID {
		// Truck-to-origin consistency is only checked at creation.
		var truck models.Truck
		if err := rc.DB.First(&truck, *input.TruckID).Error; err != nil {
			apperr.Respond(c, apperr.FromDB(err, "the truck does not exist"))
			return
		}
		route.TruckID = *input.TruckID
	}
	if input.OriginSiteID != nil {
		route.OriginSiteID = *input.OriginSiteID
	}
	if input.DestinationSiteID != nil {
		route.DestinationSiteID = *input.DestinationSiteID
	}
	if input.Name != nil {
		route.Name = *input.Name
	}
	if input.Notes != nil {
		route.Notes = *input.Notes
	}
	if input.DistanceKm != nil {
		route.DistanceKm = input.DistanceKm
	}
	if input.StartDate != nil {
		startDate, err := parseDate(*input.StartDate, "start_date")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		route.StartDate = startDate
	}
	if input.EndDate != nil {
		if *input.EndDate == "" {
			route.EndDate = nil
		} else {
			endDate, err := parseDate(*input.EndDate, "end_date")
			if err != nil {
				apperr.Respond(c, err)
				return
			}
			route.EndDate = &endDate
		}
	}
	if input.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*input.Status))
		if !models.IsValidRouteStatus(status) {
			apperr.Respond(c, apperr.Validation("invalid route status"))
			return
		}
		route.Status = status
	}

	if err := rc.DB.Save(&route).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "route not found"))
		return
	}

	routePreloads(rc.DB).First(&route, route.ID)
	c.JSON(http.StatusOK, gin.H{"message": "route updated", "route": route})
}

// DriverSummary is the driver's own dashboard: their routes, their
// expenses and per-route totals.
func (rc *RouteController) DriverSummary(c *gin.Context) {
	actor := middleware.Actor(c)

	var routes []models.Route
	if err := routePreloads(rc.DB.Where("driver_id = ?", actor.ID)).
		Order("start_date DESC").Find(&routes).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	var expenses []models.Expense
	if err := rc.DB.Where("driver_id = ?", actor.ID).Preload("Route").
		Order("date DESC").Find(&expenses).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	ids := make([]uint, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	totals, err := rc.Engine.TotalsByRoute(ids)
	if err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"routes": routes, "expenses": expenses, "totals_by_route": totals})
}

// ManagerSummary lists every route touching the manager's site with its
// totals.
func (rc *RouteController) ManagerSummary(c *gin.Context) {
	actor := middleware.Actor(c)
	if actor.SiteID == nil || *actor.SiteID == 0 {
		apperr.Respond(c, apperr.Validation("you have no site assigned"))
		return
	}

	var routes []models.Route
	if err := routePreloads(rc.DB.Where("origin_site_id = ? OR destination_site_id = ?", *actor.SiteID, *actor.SiteID)).
		Order("start_date DESC").Find(&routes).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	ids := make([]uint, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	totals, err := rc.Engine.TotalsByRoute(ids)
	if err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"routes": routes, "totals_by_route": totals})
}
