package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
	"grua_fleet/internal/policy"
)

// RechargeController manages the recharge sub-resource of a route.
type RechargeController struct {
	DB *gorm.DB
}

func NewRechargeController(db *gorm.DB) *RechargeController {
	return &RechargeController{DB: db}
}

func (rc *RechargeController) loadRoute(c *gin.Context) (*models.Route, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var route models.Route
	if err := rc.DB.First(&route, id).Error; err != nil {
		return nil, apperr.FromDB(err, "route not found")
	}
	return &route, nil
}

// loadRecharge fetches the recharge plus its route, checking the path
// route id matches. The route is re-loaded so scope checks run against
// current data, not against what the recharge looked like when written.
func (rc *RechargeController) loadRecharge(c *gin.Context) (*models.Recharge, *models.Route, error) {
	routeID, err := parseIDParam(c, "id")
	if err != nil {
		return nil, nil, err
	}
	rechargeID, err := parseIDParam(c, "rechargeId")
	if err != nil {
		return nil, nil, err
	}
	var recharge models.Recharge
	if err := rc.DB.First(&recharge, rechargeID).Error; err != nil {
		return nil, nil, apperr.FromDB(err, "recharge not found")
	}
	if recharge.RouteID != routeID {
		return nil, nil, apperr.NotFound("recharge not found")
	}
	var route models.Route
	if err := rc.DB.First(&route, recharge.RouteID).Error; err != nil {
		return nil, nil, apperr.FromDB(err, "route not found")
	}
	return &recharge, &route, nil
}

type rechargeInput struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

func (rc *RechargeController) Create(c *gin.Context) {
	route, err := rc.loadRoute(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	actor := middleware.Actor(c)
	if err := policy.CanRecordRecharge(actor, route); err != nil {
		apperr.Respond(c, err)
		return
	}

	var input rechargeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		apperr.Respond(c, apperr.Validation("the description is required"))
		return
	}
	if input.Amount <= 0 {
		apperr.Respond(c, apperr.Validation("the amount must be greater than 0"))
		return
	}
	date := time.Now()
	if input.Date != "" {
		date, err = parseDate(input.Date, "date")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
	}

	recharge := models.Recharge{
		Description: description,
		Amount:      input.Amount,
		Date:        date,
		RouteID:     route.ID,
		ManagerID:   actor.ID,
	}
	if err := rc.DB.Create(&recharge).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "recharge not found"))
		return
	}

	rc.DB.Preload("Manager").First(&recharge, recharge.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "recharge recorded", "recharge": recharge})
}

func (rc *RechargeController) List(c *gin.Context) {
	route, err := rc.loadRoute(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := policy.CanViewRoute(middleware.Actor(c), route); err != nil {
		apperr.Respond(c, err)
		return
	}

	var recharges []models.Recharge
	if err := rc.DB.Where("route_id = ?", route.ID).Preload("Manager").
		Order("date DESC").Find(&recharges).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"recharges": recharges})
}

type updateRechargeInput struct {
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Date        *string  `json:"date"`
}

func (rc *RechargeController) Update(c *gin.Context) {
	recharge, route, err := rc.loadRecharge(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := policy.CanModifyRecharge(middleware.Actor(c), recharge, route); err != nil {
		apperr.Respond(c, err)
		return
	}

	var input updateRechargeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	changed := false
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			apperr.Respond(c, apperr.Validation("the description is required"))
			return
		}
		recharge.Description = description
		changed = true
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			apperr.Respond(c, apperr.Validation("the amount must be greater than 0"))
			return
		}
		recharge.Amount = *input.Amount
		changed = true
	}
	if input.Date != nil {
		date, err := parseDate(*input.Date, "date")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		recharge.Date = date
		changed = true
	}

	if !changed {
		apperr.Respond(c, apperr.Validation("no changes to apply"))
		return
	}

	if err := rc.DB.Save(recharge).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "recharge not found"))
		return
	}

	rc.DB.Preload("Manager").First(recharge, recharge.ID)
	c.JSON(http.StatusOK, gin.H{"message": "recharge updated", "recharge": recharge})
}

func (rc *RechargeController) Delete(c *gin.Context) {
	recharge, route, err := rc.loadRecharge(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := policy.CanDeleteRecharge(middleware.Actor(c), recharge, route); err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := rc.DB.Delete(recharge).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "recharge not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "recharge deleted"})
}
