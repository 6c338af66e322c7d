package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

func (ac *AuthController) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	var user models.User
	err := ac.DB.Where("email = ?", body.Email).Preload("Site").First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperr.Respond(c, apperr.Unauthenticated("invalid credentials"))
		} else {
			apperr.Respond(c, apperr.Internal(err))
		}
		return
	}
	if !user.Active {
		apperr.Respond(c, apperr.Unauthenticated("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		apperr.Respond(c, apperr.Unauthenticated("invalid credentials"))
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Profile echoes the authenticated actor.
func (ac *AuthController) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.Actor(c)})
}
