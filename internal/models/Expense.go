package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ExpenseToll        = "TOLL"
	ExpenseFuel        = "FUEL"
	ExpenseFood        = "FOOD"
	ExpenseLodging     = "LODGING"
	ExpenseMaintenance = "MAINTENANCE"
	ExpenseOther       = "OTHER"
)

var ExpenseCategories = []string{
	ExpenseToll, ExpenseFuel, ExpenseFood, ExpenseLodging, ExpenseMaintenance, ExpenseOther,
}

func IsValidExpenseCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Expense is a driver-attributed cost against a route. Amount is always
// strictly positive, currency with 2 decimals.
type Expense struct {
	gorm.Model
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount" gorm:"type:numeric(10,2)"`
	Date        time.Time `json:"date"`
	ReceiptURL  *string   `json:"receipt_url"`

	RouteID  uint  `json:"route_id" gorm:"index"`
	DriverID uint  `json:"driver_id" gorm:"index"`
	Route    Route `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	Driver   User  `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
}
