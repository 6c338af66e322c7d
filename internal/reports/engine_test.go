package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"grua_fleet/internal/models"
)

// fixture is a small three-route world: one route with an expense and a
// recharge in January, one with only an expense in February, and one
// with no financial events at all.
type fixture struct {
	db      *gorm.DB
	engine  *Engine
	north   models.Site
	south   models.Site
	east    models.Site
	dana    models.User
	eli     models.User
	manager models.User
	haulA   models.Route
	haulB   models.Route
	haulC   models.Route
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Site{}, &models.Truck{},
		&models.Route{}, &models.Expense{}, &models.Recharge{},
	))

	f := &fixture{db: db, engine: NewEngine(db)}

	f.north = models.Site{Name: "North Base"}
	f.south = models.Site{Name: "South Base"}
	f.east = models.Site{Name: "East Base"}
	for _, s := range []*models.Site{&f.north, &f.south, &f.east} {
		require.NoError(t, db.Create(s).Error)
	}

	f.dana = models.User{Name: "Dana", Email: "dana@fleet.test", Role: models.RoleDriver, Active: true}
	f.eli = models.User{Name: "Eli", Email: "eli@fleet.test", Role: models.RoleDriver, Active: true}
	f.manager = models.User{Name: "Mara", Email: "mara@fleet.test", Role: models.RoleSiteManager, Active: true, SiteID: &f.north.ID}
	for _, u := range []*models.User{&f.dana, &f.eli, &f.manager} {
		require.NoError(t, db.Create(u).Error)
	}

	f.haulA = models.Route{
		Name: "Haul A", OriginSiteID: f.north.ID, DestinationSiteID: f.south.ID,
		DriverID: f.dana.ID, StartDate: date(2024, time.January, 5), Status: models.RouteCompleted,
	}
	f.haulB = models.Route{
		Name: "Haul B", OriginSiteID: f.south.ID, DestinationSiteID: f.east.ID,
		DriverID: f.eli.ID, StartDate: date(2024, time.February, 1), Status: models.RouteInProgress,
	}
	f.haulC = models.Route{
		Name: "Haul C", OriginSiteID: f.east.ID, DestinationSiteID: f.north.ID,
		DriverID: f.dana.ID, StartDate: date(2024, time.March, 1), Status: models.RouteScheduled,
	}
	for _, r := range []*models.Route{&f.haulA, &f.haulB, &f.haulC} {
		require.NoError(t, db.Create(r).Error)
	}

	events := []interface{}{
		&models.Expense{RouteID: f.haulA.ID, DriverID: f.dana.ID, Category: models.ExpenseFuel,
			Description: "diesel", Amount: 50, Date: date(2024, time.January, 10)},
		&models.Recharge{RouteID: f.haulA.ID, ManagerID: f.manager.ID,
			Description: "route funding", Amount: 80, Date: date(2024, time.January, 12)},
		&models.Expense{RouteID: f.haulB.ID, DriverID: f.eli.ID, Category: models.ExpenseToll,
			Description: "highway toll", Amount: 20, Date: date(2024, time.February, 3)},
	}
	for _, e := range events {
		require.NoError(t, db.Create(e).Error)
	}
	return f
}

func TestAggregateByMonth(t *testing.T) {
	f := newFixture(t)

	got, err := f.engine.Aggregate(StreamExpense, GroupMonth, Filters{})
	require.NoError(t, err)
	assert.Equal(t, []GroupTotal{
		{Key: "2024-01", Label: "2024-01", Total: 50},
		{Key: "2024-02", Label: "2024-02", Total: 20},
	}, got)
}

func TestAggregateByDimension(t *testing.T) {
	f := newFixture(t)

	t.Run("route", func(t *testing.T) {
		got, err := f.engine.Aggregate(StreamExpense, GroupRoute, Filters{})
		require.NoError(t, err)
		// Haul C has no expenses and emits no row.
		require.Len(t, got, 2)
		assert.Equal(t, "Haul A", got[0].Label)
		assert.Equal(t, 50.0, got[0].Total)
		assert.Equal(t, "Haul B", got[1].Label)
		assert.Equal(t, 20.0, got[1].Total)
	})

	t.Run("site keys on the route origin", func(t *testing.T) {
		got, err := f.engine.Aggregate(StreamExpense, GroupSite, Filters{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "North Base", got[0].Label)
		assert.Equal(t, 50.0, got[0].Total)
		assert.Equal(t, "South Base", got[1].Label)
		assert.Equal(t, 20.0, got[1].Total)
	})

	t.Run("driver", func(t *testing.T) {
		got, err := f.engine.Aggregate(StreamExpense, GroupDriver, Filters{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Dana", got[0].Label)
		assert.Equal(t, "Eli", got[1].Label)
	})

	t.Run("none collapses to a single row", func(t *testing.T) {
		got, err := f.engine.Aggregate(StreamExpense, GroupNone, Filters{})
		require.NoError(t, err)
		assert.Equal(t, []GroupTotal{{Key: "expense", Label: "Expenses", Total: 70}}, got)
	})
}

func TestAggregateFilters(t *testing.T) {
	f := newFixture(t)

	t.Run("site filter matches origin or destination", func(t *testing.T) {
		// South Base is Haul A's destination and Haul B's origin; both
		// routes' expenses count.
		got, err := f.engine.Aggregate(StreamExpense, GroupRoute, Filters{SiteID: f.south.ID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Haul A", got[0].Label)
		assert.Equal(t, "Haul B", got[1].Label)
	})

	t.Run("date window", func(t *testing.T) {
		got, err := f.engine.Aggregate(StreamExpense, GroupMonth, Filters{
			From: datePtr(2024, time.January, 1),
			To:   datePtr(2024, time.January, 31),
		})
		require.NoError(t, err)
		assert.Equal(t, []GroupTotal{{Key: "2024-01", Label: "2024-01", Total: 50}}, got)
	})

	t.Run("driver filter", func(t *testing.T) {
		got, err := f.engine.Aggregate(StreamExpense, GroupNone, Filters{DriverID: f.eli.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 20.0, got[0].Total)
	})

	t.Run("empty window yields no rows", func(t *testing.T) {
		got, err := f.engine.Aggregate(StreamExpense, GroupMonth, Filters{
			From: datePtr(2025, time.January, 1),
		})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestAggregateIsReadOnlyAndRepeatable(t *testing.T) {
	f := newFixture(t)

	first, err := f.engine.Aggregate(StreamRecharge, GroupMonth, Filters{})
	require.NoError(t, err)
	second, err := f.engine.Aggregate(StreamRecharge, GroupMonth, Filters{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregateExcludesSoftDeletedEvents(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.db.Where("route_id = ?", f.haulB.ID).Delete(&models.Expense{}).Error)

	got, err := f.engine.Aggregate(StreamExpense, GroupMonth, Filters{})
	require.NoError(t, err)
	assert.Equal(t, []GroupTotal{{Key: "2024-01", Label: "2024-01", Total: 50}}, got)
}

func TestBalanceByGroupMonth(t *testing.T) {
	f := newFixture(t)

	got, err := f.engine.BalanceByGroup(GroupMonth, Filters{})
	require.NoError(t, err)
	assert.Equal(t, []BalanceRow{
		{Key: "2024-01", Label: "2024-01", TotalExpense: 50, TotalRecharge: 80, Balance: 30},
		{Key: "2024-02", Label: "2024-02", TotalExpense: 20, TotalRecharge: 0, Balance: -20},
	}, got)
}

func TestMergeBalance(t *testing.T) {
	expenses := []GroupTotal{
		{Key: "a", Label: "Alpha", Total: 10.50},
		{Key: "b", Label: "Beta", Total: 3.25},
	}
	recharges := []GroupTotal{
		{Key: "c", Label: "Gamma", Total: 7},
		{Key: "a", Label: "Alpha (renamed)", Total: 12},
	}

	got := mergeBalance(expenses, recharges)
	assert.Equal(t, []BalanceRow{
		{Key: "a", Label: "Alpha", TotalExpense: 10.50, TotalRecharge: 12, Balance: 1.50},
		{Key: "b", Label: "Beta", TotalExpense: 3.25, TotalRecharge: 0, Balance: -3.25},
		{Key: "c", Label: "Gamma", TotalExpense: 0, TotalRecharge: 7, Balance: 7},
	}, got)
}

func TestRouteDetail(t *testing.T) {
	f := newFixture(t)

	t.Run("every route appears, newest first", func(t *testing.T) {
		got, err := f.engine.RouteDetail(Filters{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Haul C", got[0].Name)
		assert.Equal(t, "Haul B", got[1].Name)
		assert.Equal(t, "Haul A", got[2].Name)

		// A route without events still shows up, zeroed.
		assert.Zero(t, got[0].TotalExpense)
		assert.Zero(t, got[0].TotalRecharge)
		assert.Zero(t, got[0].Balance)

		haulA := got[2]
		assert.Equal(t, 50.0, haulA.TotalExpense)
		assert.Equal(t, 80.0, haulA.TotalRecharge)
		assert.Equal(t, 30.0, haulA.Balance)
		assert.Equal(t, "Dana", haulA.Driver.Name)
		assert.Equal(t, "North Base", haulA.OriginSite.Name)
		assert.Equal(t, "South Base", haulA.DestinationSite.Name)
	})

	t.Run("date window trims the sums but keeps the route", func(t *testing.T) {
		got, err := f.engine.RouteDetail(Filters{To: datePtr(2024, time.January, 31)})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Haul B", got[1].Name)
		assert.Zero(t, got[1].TotalExpense)
	})

	t.Run("driver filter drops other drivers' routes", func(t *testing.T) {
		got, err := f.engine.RouteDetail(Filters{DriverID: f.eli.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Haul B", got[0].Name)
	})
}

func TestSummaryBundle(t *testing.T) {
	f := newFixture(t)

	got, err := f.engine.Summary(Filters{})
	require.NoError(t, err)
	assert.Len(t, got.ExpensesBySite, 2)
	assert.Len(t, got.ExpensesByDriver, 2)
	assert.Len(t, got.ExpensesByRoute, 2)
	require.Len(t, got.RechargesBySite, 1)
	assert.Equal(t, 80.0, got.RechargesBySite[0].Total)
	require.Len(t, got.RechargesByRoute, 1)
	assert.Equal(t, "Haul A", got.RechargesByRoute[0].Label)
}

func TestBalanceReport(t *testing.T) {
	f := newFixture(t)

	report, err := f.engine.BalanceReport(GroupRoute, Filters{})
	require.NoError(t, err)

	assert.Equal(t, GroupRoute, report.Filters.GroupBy)
	assert.Equal(t, Totals{TotalExpense: 70, TotalRecharge: 80, Balance: 10}, report.GrandTotals)
	require.NotNil(t, report.Summary)

	// The grouped rows and the per-route detail describe the same events,
	// so their balances must reconcile.
	var detailBalance float64
	for _, rt := range report.Routes {
		detailBalance += rt.Balance
	}
	assert.InDelta(t, report.GrandTotals.Balance, detailBalance, 0.001)
}

func TestTotalsByRoute(t *testing.T) {
	f := newFixture(t)

	got, err := f.engine.TotalsByRoute([]uint{f.haulA.ID, f.haulB.ID, f.haulC.ID})
	require.NoError(t, err)

	haulA := got[f.haulA.ID]
	assert.Equal(t, RouteTotals{
		TotalExpense: 50, ExpenseCount: 1,
		TotalRecharge: 80, RechargeCount: 1,
		Balance: 30,
	}, haulA)

	haulB := got[f.haulB.ID]
	assert.Equal(t, 20.0, haulB.TotalExpense)
	assert.Equal(t, -20.0, haulB.Balance)

	// No events, no row; the zero value is the answer.
	assert.Zero(t, got[f.haulC.ID])

	empty, err := f.engine.TotalsByRoute(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseDimension(t *testing.T) {
	tests := []struct {
		raw  string
		want Dimension
		ok   bool
	}{
		{"", GroupMonth, true},
		{"month", GroupMonth, true},
		{"route", GroupRoute, true},
		{"site", GroupSite, true},
		{"driver", GroupDriver, true},
		{"none", GroupNone, true},
		{"week", "", false},
		{"ROUTE", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDimension(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}
}
