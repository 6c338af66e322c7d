package models

import "gorm.io/gorm"

const (
	TruckInService   = "IN_SERVICE"
	TruckMaintenance = "MAINTENANCE"
	TruckInactive    = "INACTIVE"
)

var TruckStatuses = []string{TruckInService, TruckMaintenance, TruckInactive}

func IsValidTruckStatus(status string) bool {
	for _, s := range TruckStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Truck struct {
	gorm.Model
	Code         string  `json:"code" gorm:"unique" binding:"required"`
	Plate        string  `json:"plate" gorm:"unique" binding:"required"`
	TruckModel   string  `json:"model"`
	CapacityTons float64 `json:"capacity_tons" gorm:"type:numeric(10,2)"`
	Status       string  `json:"status" gorm:"default:IN_SERVICE"`
	Description  string  `json:"description"`

	SiteID uint `json:"site_id"`
	Site   Site `gorm:"foreignKey:SiteID" json:"site,omitempty"`
}
