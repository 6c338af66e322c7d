package config

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"grua_fleet/internal/models"
)

// EnsureDefaultAdmin seeds the initial ADMIN account from
// DEFAULT_ADMIN_EMAIL / DEFAULT_ADMIN_PASSWORD. It is idempotent: if the
// account already exists nothing happens, and without the env vars the
// step is skipped with a warning.
func EnsureDefaultAdmin(db *gorm.DB) error {
	email := os.Getenv("DEFAULT_ADMIN_EMAIL")
	password := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	name := getEnv("DEFAULT_ADMIN_NAME", "Administrator")

	if email == "" || password == "" {
		logrus.Warn("DEFAULT_ADMIN_EMAIL/DEFAULT_ADMIN_PASSWORD not set, skipping default admin")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     models.RoleAdmin,
		Active:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logrus.WithField("email", email).Info("default admin created")
	return nil
}
