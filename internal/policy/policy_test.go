package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %v", err)
	return appErr.Kind
}

func admin() *models.User {
	u := &models.User{Role: models.RoleAdmin}
	u.ID = 1
	return u
}

func manager(siteID uint) *models.User {
	u := &models.User{Role: models.RoleSiteManager}
	u.ID = 2
	if siteID != 0 {
		u.SiteID = uintPtr(siteID)
	}
	return u
}

func driver(id uint) *models.User {
	u := &models.User{Role: models.RoleDriver}
	u.ID = id
	return u
}

func route(origin, destination, driverID uint) *models.Route {
	return &models.Route{OriginSiteID: origin, DestinationSiteID: destination, DriverID: driverID}
}

func TestCanManageTruck(t *testing.T) {
	tests := []struct {
		name     string
		actor    *models.User
		siteID   uint
		wantKind *apperr.Kind
	}{
		{name: "admin manages any site", actor: admin(), siteID: 9},
		{name: "manager manages own site", actor: manager(3), siteID: 3},
		{name: "manager denied other site", actor: manager(3), siteID: 4, wantKind: kindPtr(apperr.KindForbidden)},
		{name: "manager without site", actor: manager(0), siteID: 3, wantKind: kindPtr(apperr.KindValidation)},
		{name: "driver denied", actor: driver(7), siteID: 3, wantKind: kindPtr(apperr.KindForbidden)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanManageTruck(tt.actor, tt.siteID)
			if tt.wantKind == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, *tt.wantKind, kindOf(t, err))
		})
	}
}

func kindPtr(k apperr.Kind) *apperr.Kind { return &k }

func TestCanCreateRoute(t *testing.T) {
	assert.NoError(t, CanCreateRoute(admin(), 1, 2))
	assert.NoError(t, CanCreateRoute(manager(1), 1, 2))
	assert.NoError(t, CanCreateRoute(manager(2), 1, 2), "destination counts as involvement")

	err := CanCreateRoute(manager(3), 1, 2)
	assert.Equal(t, apperr.KindForbidden, kindOf(t, err))

	err = CanCreateRoute(driver(7), 1, 2)
	assert.Equal(t, apperr.KindForbidden, kindOf(t, err))
}

func TestCanViewRoute(t *testing.T) {
	rt := route(1, 2, 7)

	assert.NoError(t, CanViewRoute(admin(), rt))
	assert.NoError(t, CanViewRoute(manager(2), rt))
	assert.NoError(t, CanViewRoute(driver(7), rt))

	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanViewRoute(manager(5), rt)))
	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanViewRoute(driver(8), rt)))
}

func TestExpenseDriver(t *testing.T) {
	rt := route(1, 2, 7)

	t.Run("assigned driver records own expense", func(t *testing.T) {
		driverID, err := ExpenseDriver(driver(7), rt)
		require.NoError(t, err)
		assert.Equal(t, uint(7), driverID)
	})

	t.Run("unassigned driver denied", func(t *testing.T) {
		_, err := ExpenseDriver(driver(8), rt)
		assert.Equal(t, apperr.KindForbidden, kindOf(t, err))
	})

	t.Run("admin records on behalf of the route driver", func(t *testing.T) {
		driverID, err := ExpenseDriver(admin(), rt)
		require.NoError(t, err)
		assert.Equal(t, uint(7), driverID)
	})

	t.Run("admin denied when route has no driver", func(t *testing.T) {
		_, err := ExpenseDriver(admin(), route(1, 2, 0))
		assert.Equal(t, apperr.KindValidation, kindOf(t, err))
	})

	t.Run("manager never records expenses", func(t *testing.T) {
		_, err := ExpenseDriver(manager(1), rt)
		assert.Equal(t, apperr.KindForbidden, kindOf(t, err))
	})
}

func TestCanRecordRecharge(t *testing.T) {
	rt := route(1, 2, 7)

	assert.NoError(t, CanRecordRecharge(admin(), rt))
	assert.NoError(t, CanRecordRecharge(manager(1), rt))
	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanRecordRecharge(manager(9), rt)))
	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanRecordRecharge(driver(7), rt)))
}

func TestExpenseMutation(t *testing.T) {
	own := &models.Expense{DriverID: 7}
	other := &models.Expense{DriverID: 8}

	assert.NoError(t, CanModifyExpense(driver(7), own))
	assert.NoError(t, CanDeleteExpense(driver(7), own))
	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanModifyExpense(driver(7), other)))
	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanDeleteExpense(driver(7), other)))

	assert.NoError(t, CanModifyExpense(admin(), other))
	assert.NoError(t, CanDeleteExpense(admin(), other))

	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanModifyExpense(manager(1), own)))
}

func TestRechargeMutation(t *testing.T) {
	rt := route(1, 2, 7)
	mgr := manager(1)
	own := &models.Recharge{ManagerID: mgr.ID}
	other := &models.Recharge{ManagerID: 99}

	assert.NoError(t, CanModifyRecharge(mgr, own, rt))
	assert.NoError(t, CanDeleteRecharge(mgr, own, rt))
	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanModifyRecharge(mgr, other, rt)))

	// Reassigned manager loses access to recharges on routes their new
	// site does not touch.
	moved := manager(5)
	moved.ID = mgr.ID
	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanModifyRecharge(moved, own, rt)))

	assert.NoError(t, CanModifyRecharge(admin(), other, rt))
	assert.Equal(t, apperr.KindForbidden, kindOf(t, CanDeleteRecharge(driver(7), other, rt)))
}

func openScopeDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Site{}, &models.Truck{}, &models.Route{},
	))
	return db
}

func TestRouteScope(t *testing.T) {
	db := openScopeDB(t)

	seed := []models.Route{
		{Name: "north-south", OriginSiteID: 1, DestinationSiteID: 2, DriverID: 7},
		{Name: "south-east", OriginSiteID: 2, DestinationSiteID: 3, DriverID: 8},
		{Name: "east-north", OriginSiteID: 3, DestinationSiteID: 1, DriverID: 7},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	list := func(actor *models.User) []string {
		scope, err := RouteScope(actor)
		require.NoError(t, err)
		var names []string
		require.NoError(t, db.Model(&models.Route{}).Scopes(scope).
			Order("name ASC").Pluck("name", &names).Error)
		return names
	}

	t.Run("admin sees everything", func(t *testing.T) {
		assert.Equal(t, []string{"east-north", "north-south", "south-east"}, list(admin()))
	})

	t.Run("manager sees routes touching their site on either end", func(t *testing.T) {
		assert.Equal(t, []string{"north-south", "south-east"}, list(manager(2)))
	})

	t.Run("driver sees only assigned routes", func(t *testing.T) {
		assert.Equal(t, []string{"east-north", "north-south"}, list(driver(7)))
	})

	t.Run("manager without site is rejected", func(t *testing.T) {
		_, err := RouteScope(manager(0))
		assert.Equal(t, apperr.KindValidation, kindOf(t, err))
	})
}

func TestTruckScope(t *testing.T) {
	db := openScopeDB(t)

	trucks := []models.Truck{
		{Code: "T-01", Plate: "AA-111", SiteID: 1},
		{Code: "T-02", Plate: "BB-222", SiteID: 2},
	}
	for i := range trucks {
		require.NoError(t, db.Create(&trucks[i]).Error)
	}

	var codes []string
	require.NoError(t, db.Model(&models.Truck{}).Scopes(TruckScope(manager(2))).
		Pluck("code", &codes).Error)
	assert.Equal(t, []string{"T-02"}, codes)

	codes = nil
	require.NoError(t, db.Model(&models.Truck{}).Scopes(TruckScope(admin())).
		Order("code ASC").Pluck("code", &codes).Error)
	assert.Equal(t, []string{"T-01", "T-02"}, codes)
}
