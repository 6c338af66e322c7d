package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/models"
)

type SiteController struct {
	DB *gorm.DB
}

func NewSiteController(db *gorm.DB) *SiteController {
	return &SiteController{DB: db}
}

type siteInput struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
	ManagerID   *uint  `json:"manager_id"`
}

// assignManager links a SITE_MANAGER to the site in both directions:
// site.manager_id and the manager's own site assignment.
func assignManager(db *gorm.DB, site *models.Site, managerID uint) error {
	var manager models.User
	if err := db.First(&manager, managerID).Error; err != nil {
		return apperr.FromDB(err, "the manager does not exist")
	}
	if manager.Role != models.RoleSiteManager {
		return apperr.Validation("the selected user does not hold the SITE_MANAGER role")
	}
	if err := db.Model(&manager).Update("site_id", site.ID).Error; err != nil {
		return apperr.Internal(err)
	}
	if err := db.Model(site).Update("manager_id", manager.ID).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func clearManager(db *gorm.DB, site *models.Site) error {
	if site.ManagerID == nil {
		return nil
	}
	if err := db.Model(&models.User{}).Where("id = ?", *site.ManagerID).
		Update("site_id", nil).Error; err != nil {
		return apperr.Internal(err)
	}
	if err := db.Model(site).Update("manager_id", nil).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (sc *SiteController) Create(c *gin.Context) {
	var input siteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	site := models.Site{
		Name:        input.Name,
		Address:     input.Address,
		Phone:       input.Phone,
		Description: input.Description,
	}
	if err := sc.DB.Create(&site).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "site not found"))
		return
	}

	if input.ManagerID != nil && *input.ManagerID != 0 {
		if err := assignManager(sc.DB, &site, *input.ManagerID); err != nil {
			apperr.Respond(c, err)
			return
		}
	}

	sc.DB.Preload("Manager").First(&site, site.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "site created", "site": site})
}

func (sc *SiteController) List(c *gin.Context) {
	var sites []models.Site
	if err := sc.DB.Preload("Manager").Order("name ASC").Find(&sites).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

func (sc *SiteController) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var site models.Site
	if err := sc.DB.Preload("Manager").Preload("Trucks").First(&site, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "site not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"site": site})
}

type updateSiteInput struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Description *string `json:"description"`
	ManagerID   *uint   `json:"manager_id"`
}

func (sc *SiteController) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var site models.Site
	if err := sc.DB.First(&site, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "site not found"))
		return
	}

	var input updateSiteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	if input.Name != nil {
		site.Name = *input.Name
	}
	if input.Address != nil {
		site.Address = *input.Address
	}
	if input.Phone != nil {
		site.Phone = *input.Phone
	}
	if input.Description != nil {
		site.Description = *input.Description
	}
	if err := sc.DB.Save(&site).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "site not found"))
		return
	}

	if input.ManagerID != nil {
		if *input.ManagerID == 0 {
			err = clearManager(sc.DB, &site)
		} else {
			err = assignManager(sc.DB, &site, *input.ManagerID)
		}
		if err != nil {
			apperr.Respond(c, err)
			return
		}
	}

	sc.DB.Preload("Manager").First(&site, site.ID)
	c.JSON(http.StatusOK, gin.H{"message": "site updated", "site": site})
}

// Delete removes a site and everything hanging off it in one
// transaction: the expenses and recharges of every route touching the
// site, those routes, the manager link, then the site itself. Any step
// failing rolls the whole cascade back.
func (sc *SiteController) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var site models.Site
	if err := sc.DB.First(&site, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "site not found"))
		return
	}

	if err := sc.DB.Transaction(func(tx *gorm.DB) error {
		return removeSiteCascade(tx, &site)
	}); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "site deleted with its routes and financial records"})
}

func removeSiteCascade(tx *gorm.DB, site *models.Site) error {
	var routeIDs []uint
	if err := tx.Model(&models.Route{}).
		Where("origin_site_id = ? OR destination_site_id = ?", site.ID, site.ID).
		Pluck("id", &routeIDs).Error; err != nil {
		return err
	}

	if len(routeIDs) > 0 {
		if err := tx.Where("route_id IN ?", routeIDs).Delete(&models.Expense{}).Error; err != nil {
			return err
		}
		if err := tx.Where("route_id IN ?", routeIDs).Delete(&models.Recharge{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", routeIDs).Delete(&models.Route{}).Error; err != nil {
			return err
		}
	}

	if site.ManagerID != nil {
		if err := tx.Model(&models.User{}).Where("id = ?", *site.ManagerID).
			Update("site_id", nil).Error; err != nil {
			return err
		}
	}

	return tx.Delete(site).Error
}
