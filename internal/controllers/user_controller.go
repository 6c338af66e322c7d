package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

type createUserInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
	SiteID   *uint  `json:"site_id"`
}

func (uc *UserController) Create(c *gin.Context) {
	var input createUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	role := strings.ToUpper(strings.TrimSpace(input.Role))
	if !models.IsValidRole(role) {
		apperr.Respond(c, apperr.Validation("invalid role"))
		return
	}

	var existing models.User
	if err := uc.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		apperr.Respond(c, apperr.Conflict("the email is already registered"))
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	if input.SiteID != nil && *input.SiteID != 0 {
		var site models.Site
		if err := uc.DB.First(&site, *input.SiteID).Error; err != nil {
			apperr.Respond(c, apperr.FromDB(err, "the site does not exist"))
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hash),
		Role:     role,
		Active:   true,
		SiteID:   input.SiteID,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "user not found"))
		return
	}

	uc.DB.Preload("Site").First(&user, user.ID)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// List supports role/site query filters. A site manager only ever sees
// the drivers of their own site regardless of the filters sent.
func (uc *UserController) List(c *gin.Context) {
	actor := middleware.Actor(c)
	query := uc.DB.Model(&models.User{})

	roleFilter := strings.ToUpper(c.Query("role"))
	if roleFilter != "" {
		if !models.IsValidRole(roleFilter) {
			apperr.Respond(c, apperr.Validation("invalid role"))
			return
		}
		query = query.Where("role = ?", roleFilter)
	}
	if raw := c.Query("site"); raw != "" {
		siteID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperr.Respond(c, apperr.Validation("the site identifier is invalid"))
			return
		}
		query = query.Where("site_id = ?", uint(siteID))
	}

	if actor.Role == models.RoleSiteManager {
		if actor.SiteID == nil || *actor.SiteID == 0 {
			apperr.Respond(c, apperr.Validation("you have no site assigned"))
			return
		}
		if roleFilter != "" && roleFilter != models.RoleDriver {
			apperr.Respond(c, apperr.Forbidden("you cannot list users with that role"))
			return
		}
		query = query.Where("role = ? AND site_id = ?", models.RoleDriver, *actor.SiteID)
	}

	var users []models.User
	if err := query.Preload("Site").Order("name ASC").Find(&users).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type updateUserInput struct {
	Name   *string `json:"name"`
	Role   *string `json:"role"`
	SiteID *uint   `json:"site_id"`
	Active *bool   `json:"active"`
}

func (uc *UserController) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var user models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "user not found"))
		return
	}

	var input updateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if input.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*input.Role))
		if !models.IsValidRole(role) {
			apperr.Respond(c, apperr.Validation("invalid role"))
			return
		}
		user.Role = role
	}
	if input.SiteID != nil {
		if *input.SiteID == 0 {
			user.SiteID = nil
		} else {
			var site models.Site
			if err := uc.DB.First(&site, *input.SiteID).Error; err != nil {
				apperr.Respond(c, apperr.FromDB(err, "the site does not exist"))
				return
			}
			user.SiteID = input.SiteID
		}
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "user not found"))
		return
	}

	uc.DB.Preload("Site").First(&user, user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "user updated", "user": user})
}

func (uc *UserController) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var user models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "user not found"))
		return
	}

	if middleware.Actor(c).ID == user.ID {
		apperr.Respond(c, apperr.Validation("you cannot delete your own account"))
		return
	}

	if err := uc.DB.Delete(&user).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "user not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
