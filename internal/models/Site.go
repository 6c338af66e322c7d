package models

import "gorm.io/gorm"

// Site is an operating base: it owns trucks, staffs drivers and has at
// most one manager.
type Site struct {
	gorm.Model
	Name        string `json:"name" gorm:"unique" binding:"required"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Description string `json:"description"`

	ManagerID *uint `json:"manager_id"`
	Manager   *User `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`

	Trucks []Truck `gorm:"foreignKey:SiteID" json:"trucks,omitempty"`
}
