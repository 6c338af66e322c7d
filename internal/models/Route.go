package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RouteScheduled  = "SCHEDULED"
	RouteInProgress = "IN_PROGRESS"
	RouteCompleted  = "COMPLETED"
	RouteCancelled  = "CANCELLED"
)

var RouteStatuses = []string{RouteScheduled, RouteInProgress, RouteCompleted, RouteCancelled}

func IsValidRouteStatus(status string) bool {
	for _, s := range RouteStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Route moves a truck and driver between two sites. It is the unit every
// expense and recharge hangs off.
type Route struct {
	gorm.Model
	Name string `json:"name" binding:"required"`

	OriginSiteID      uint `json:"origin_site_id"`
	DestinationSiteID uint `json:"destination_site_id"`
	TruckID           uint `json:"truck_id"`
	DriverID          uint `json:"driver_id"`

	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	Status     string     `json:"status" gorm:"default:SCHEDULED"`
	DistanceKm *float64   `json:"distance_km" gorm:"type:numeric(10,2)"`
	Notes      string     `json:"notes"`

	OriginSite      Site  `gorm:"foreignKey:OriginSiteID" json:"origin_site,omitempty"`
	DestinationSite Site  `gorm:"foreignKey:DestinationSiteID" json:"destination_site,omitempty"`
	Truck           Truck `gorm:"foreignKey:TruckID" json:"truck,omitempty"`
	Driver          User  `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
}
