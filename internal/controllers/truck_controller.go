package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
	"grua_fleet/internal/policy"
)

type TruckController struct {
	DB *gorm.DB
}

func NewTruckController(db *gorm.DB) *TruckController {
	return &TruckController{DB: db}
}

type createTruckInput struct {
	Code         string  `json:"code" binding:"required"`
	Plate        string  `json:"plate" binding:"required"`
	Model        string  `json:"model"`
	CapacityTons float64 `json:"capacity_tons"`
	Status       string  `json:"status"`
	Description  string  `json:"description"`
	SiteID       uint    `json:"site_id" binding:"required"`
}

func (tc *TruckController) Create(c *gin.Context) {
	var input createTruckInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	if err := policy.CanManageTruck(middleware.Actor(c), input.SiteID); err != nil {
		apperr.Respond(c, err)
		return
	}

	var site models.Site
	if err := tc.DB.First(&site, input.SiteID).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "the site does not exist"))
		return
	}

	status := strings.ToUpper(strings.TrimSpace(input.Status))
	if status == "" {
		status = models.TruckInService
	}
	if !models.IsValidTruckStatus(status) {
		apperr.Respond(c, apperr.Validation("invalid truck status"))
		return
	}

	truck := models.Truck{
		Code:         input.Code,
		Plate:        input.Plate,
		TruckModel:   input.Model,
		CapacityTons: input.CapacityTons,
		Status:       status,
		Description:  input.Description,
		SiteID:       input.SiteID,
	}
	if err := tc.DB.Create(&truck).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "truck not found"))
		return
	}

	tc.DB.Preload("Site").First(&truck, truck.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "truck registered", "truck": truck})
}

func (tc *TruckController) List(c *gin.Context) {
	scope := policy.TruckScope(middleware.Actor(c))

	var trucks []models.Truck
	if err := tc.DB.Scopes(scope).Preload("Site").Order("code ASC").Find(&trucks).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"trucks": trucks})
}

func (tc *TruckController) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var truck models.Truck
	if err := tc.DB.Preload("Site").First(&truck, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "truck not found"))
		return
	}

	if err := policy.CanManageTruck(middleware.Actor(c), truck.SiteID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"truck": truck})
}

type updateTruckInput struct {
	Code         *string  `json:"code"`
	Plate        *string  `json:"plate"`
	Model        *string  `json:"model"`
	CapacityTons *float64 `json:"capacity_tons"`
	Status       *string  `json:"status"`
	Description  *string  `json:"description"`
	SiteID       *uint    `json:"site_id"`
}

func (tc *TruckController) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var truck models.Truck
	if err := tc.DB.First(&truck, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "truck not found"))
		return
	}

	var input updateTruckInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	// The actor must be allowed to manage the truck where it ends up,
	// not only where it is now.
	targetSite := truck.SiteID
	if input.SiteID != nil && *input.SiteID != 0 {
		targetSite = *input.SiteID
	}
	if err := policy.CanManageTruck(middleware.Actor(c), targetSite); err != nil {
		apperr.Respond(c, err)
		return
	}

	if input.SiteID != nil && *input.SiteID != 0 && *input.SiteID != truck.SiteID {
		var site models.Site
		if err := tc.DB.First(&site, *input.SiteID).Error; err != nil {
			apperr.Respond(c, apperr.FromDB(err, "the site does not exist"))
			return
		}
		// Open routes created from the old site keep referencing this
		// truck; consistency is only enforced at route creation.
		truck.SiteID = *input.SiteID
	}
	if input.Code != nil {
		truck.Code = *input.Code
	}
	if input.Plate != nil {
		truck.Plate = *input.Plate
	}
	if input.Model != nil {
		truck.TruckModel = *input.Model
	}
	if input.CapacityTons != nil {
		truck.CapacityTons = *input.CapacityTons
	}
	if input.Description != nil {
		truck.Description = *input.Description
	}
	if input.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*input.Status))
		if !models.IsValidTruckStatus(status) {
			apperr.Respond(c, apperr.Validation("invalid truck status"))
			return
		}
		truck.Status = status
	}

	if err := tc.DB.Save(&truck).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "truck not found"))
		return
	}

	tc.DB.Preload("Site").First(&truck, truck.ID)
	c.JSON(http.StatusOK, gin.H{"message": "truck updated", "truck": truck})
}

func (tc *TruckController) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var truck models.Truck
	if err := tc.DB.First(&truck, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "truck not found"))
		return
	}

	if err := policy.CanManageTruck(middleware.Actor(c), truck.SiteID); err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := tc.DB.Delete(&truck).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "truck not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "truck deleted"})
}
