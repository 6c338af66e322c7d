package models

import (
	"time"

	"gorm.io/gorm"
)

// Recharge is a funding credit a site manager books against a route.
type Recharge struct {
	gorm.Model
	Description string    `json:"description"`
	Amount      float64   `json:"amount" gorm:"type:numeric(10,2)"`
	Date        time.Time `json:"date"`

	RouteID   uint  `json:"route_id" gorm:"index"`
	ManagerID uint  `json:"manager_id" gorm:"index"`
	Route     Route `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	Manager   User  `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
}
