package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/middleware"
	"grua_fleet/internal/models"
	"grua_fleet/internal/policy"
)

// ExpenseController manages the expense sub-resource of a route.
type ExpenseController struct {
	DB *gorm.DB
}

func NewExpenseController(db *gorm.DB) *ExpenseController {
	return &ExpenseController{DB: db}
}

func (ec *ExpenseController) loadRoute(c *gin.Context) (*models.Route, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var route models.Route
	if err := ec.DB.First(&route, id).Error; err != nil {
		return nil, apperr.FromDB(err, "route not found")
	}
	return &route, nil
}

// loadExpense fetches the expense and checks it belongs to the route in
// the path; a mismatch reads as not found.
func (ec *ExpenseController) loadExpense(c *gin.Context) (*models.Expense, error) {
	routeID, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	expenseID, err := parseIDParam(c, "expenseId")
	if err != nil {
		return nil, err
	}
	var expense models.Expense
	if err := ec.DB.First(&expense, expenseID).Error; err != nil {
		return nil, apperr.FromDB(err, "expense not found")
	}
	if expense.RouteID != routeID {
		return nil, apperr.NotFound("expense not found")
	}
	return &expense, nil
}

type expenseInput struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	ReceiptURL  *string `json:"receipt_url"`
}

func (ec *ExpenseController) Create(c *gin.Context) {
	route, err := ec.loadRoute(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	driverID, err := policy.ExpenseDriver(middleware.Actor(c), route)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	var input expenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	category := strings.ToUpper(strings.TrimSpace(input.Category))
	if !models.IsValidExpenseCategory(category) {
		apperr.Respond(c, apperr.Validation("invalid expense category"))
		return
	}
	if input.Amount <= 0 {
		apperr.Respond(c, apperr.Validation("the amount must be greater than 0"))
		return
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		apperr.Respond(c, apperr.Validation("the description is required"))
		return
	}
	date := time.Now()
	if input.Date != "" {
		date, err = parseDate(input.Date, "date")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
	}

	expense := models.Expense{
		Description: description,
		Category:    category,
		Amount:      input.Amount,
		Date:        date,
		ReceiptURL:  input.ReceiptURL,
		RouteID:     route.ID,
		DriverID:    driverID,
	}
	if err := ec.DB.Create(&expense).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "expense not found"))
		return
	}

	ec.DB.Preload("Driver").First(&expense, expense.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "expense recorded", "expense": expense})
}

func (ec *ExpenseController) List(c *gin.Context) {
	route, err := ec.loadRoute(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := policy.CanViewRoute(middleware.Actor(c), route); err != nil {
		apperr.Respond(c, err)
		return
	}

	var expenses []models.Expense
	if err := ec.DB.Where("route_id = ?", route.ID).Preload("Driver").
		Order("date DESC").Find(&expenses).Error; err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

type updateExpenseInput struct {
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Amount      *float64 `json:"amount"`
	Date        *string  `json:"date"`
	ReceiptURL  *string  `json:"receipt_url"`
}

func (ec *ExpenseController) Update(c *gin.Context) {
	expense, err := ec.loadExpense(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := policy.CanModifyExpense(middleware.Actor(c), expense); err != nil {
		apperr.Respond(c, err)
		return
	}

	var input updateExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Validation(err.Error()))
		return
	}

	changed := false
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			apperr.Respond(c, apperr.Validation("the description is required"))
			return
		}
		expense.Description = description
		changed = true
	}
	if input.Category != nil {
		category := strings.ToUpper(strings.TrimSpace(*input.Category))
		if !models.IsValidExpenseCategory(category) {
			apperr.Respond(c, apperr.Validation("invalid expense category"))
			return
		}
		expense.Category = category
		changed = true
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			apperr.Respond(c, apperr.Validation("the amount must be greater than 0"))
			return
		}
		expense.Amount = *input.Amount
		changed = true
	}
	if input.Date != nil {
		date, err := parseDate(*input.Date, "date")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		expense.Date = date
		changed = true
	}
	if input.ReceiptURL != nil {
		if trimmed := strings.TrimSpace(*input.ReceiptURL); trimmed == "" {
			expense.ReceiptURL = nil
		} else {
			expense.ReceiptURL = &trimmed
		}
		changed = true
	}

	if !changed {
		apperr.Respond(c, apperr.Validation("no changes to apply"))
		return
	}

	if err := ec.DB.Save(expense).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "expense not found"))
		return
	}

	ec.DB.Preload("Driver").First(expense, expense.ID)
	c.JSON(http.StatusOK, gin.H{"message": "expense updated", "expense": expense})
}

func (ec *ExpenseController) Delete(c *gin.Context) {
	expense, err := ec.loadExpense(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := policy.CanDeleteExpense(middleware.Actor(c), expense); err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := ec.DB.Delete(expense).Error; err != nil {
		apperr.Respond(c, apperr.FromDB(err, "expense not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "expense deleted"})
}
