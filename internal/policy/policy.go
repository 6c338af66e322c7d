// Package policy decides what an actor may do to a record. Authorization
// is two-tiered: the capability table answers the coarse (role, action)
// question, and each predicate then checks the organizational scope —
// site membership or authorship — derived from the actor's profile and
// the target's foreign keys. There is no row-level ACL table.
package policy

import (
	"gorm.io/gorm"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/models"
)

// Action names a guarded operation.
type Action string

const (
	ManageTruck    Action = "truck:manage"
	CreateRoute    Action = "route:create"
	ViewRoute      Action = "route:view"
	RecordExpense  Action = "expense:record"
	ModifyExpense  Action = "expense:modify"
	DeleteExpense  Action = "expense:delete"
	RecordRecharge Action = "recharge:record"
	ModifyRecharge Action = "recharge:modify"
	DeleteRecharge Action = "recharge:delete"
)

// Resource carries the records a predicate inspects. Only the fields an
// action needs are set: SiteID for truck management, Route for
// route-level actions, Expense/Recharge (plus their Route) for event
// mutations.
type Resource struct {
	SiteID   uint
	Route    *models.Route
	Expense  *models.Expense
	Recharge *models.Recharge
}

type predicate func(actor *models.User, res Resource) error

type capKey struct {
	role   string
	action Action
}

func allow(*models.User, Resource) error { return nil }

// capabilities is the single place permissions live. A (role, action)
// pair missing from the table is denied.
var capabilities = map[capKey]predicate{
	{models.RoleAdmin, ManageTruck}:    allow,
	{models.RoleAdmin, CreateRoute}:    allow,
	{models.RoleAdmin, ViewRoute}:      allow,
	{models.RoleAdmin, RecordExpense}:  routeHasDriver,
	{models.RoleAdmin, ModifyExpense}:  allow,
	{models.RoleAdmin, DeleteExpense}:  allow,
	{models.RoleAdmin, RecordRecharge}: allow,
	{models.RoleAdmin, ModifyRecharge}: allow,
	{models.RoleAdmin, DeleteRecharge}: allow,

	{models.RoleSiteManager, ManageTruck}:    managerOwnsSite,
	{models.RoleSiteManager, CreateRoute}:    managerTouchesRoute,
	{models.RoleSiteManager, ViewRoute}:      managerTouchesRoute,
	{models.RoleSiteManager, RecordRecharge}: managerTouchesRoute,
	{models.RoleSiteManager, ModifyRecharge}: managerOwnsRecharge,
	{models.RoleSiteManager, DeleteRecharge}: managerOwnsRecharge,

	{models.RoleDriver, ViewRoute}:     driverOwnsRoute,
	{models.RoleDriver, RecordExpense}: driverOwnsRoute,
	{models.RoleDriver, ModifyExpense}: driverOwnsExpense,
	{models.RoleDriver, DeleteExpense}: driverOwnsExpense,
}

var denied = map[Action]string{
	ManageTruck:    "you do not have permission to manage trucks",
	CreateRoute:    "you do not have permission to create routes",
	ViewRoute:      "you do not have access to this route",
	RecordExpense:  "you do not have permission to record expenses",
	ModifyExpense:  "you cannot modify this expense",
	DeleteExpense:  "you cannot delete this expense",
	RecordRecharge: "you do not have permission to record recharges",
	ModifyRecharge: "you cannot modify this recharge",
	DeleteRecharge: "you cannot delete this recharge",
}

// Check runs the capability predicate for (actor.Role, action). A nil
// return means the operation is allowed.
func Check(action Action, actor *models.User, res Resource) error {
	p, ok := capabilities[capKey{actor.Role, action}]
	if !ok {
		return apperr.Forbidden(denied[action])
	}
	return p(actor, res)
}

func assignedSite(actor *models.User) (uint, error) {
	if actor.SiteID == nil || *actor.SiteID == 0 {
		return 0, apperr.Validation("you have no site assigned")
	}
	return *actor.SiteID, nil
}

func managerOwnsSite(actor *models.User, res Resource) error {
	siteID, err := assignedSite(actor)
	if err != nil {
		return err
	}
	if siteID != res.SiteID {
		return apperr.Forbidden("you can only manage trucks of your own site")
	}
	return nil
}

func managerTouchesRoute(actor *models.User, res Resource) error {
	siteID, err := assignedSite(actor)
	if err != nil {
		return err
	}
	if siteID != res.Route.OriginSiteID && siteID != res.Route.DestinationSiteID {
		return apperr.Forbidden("the route does not involve your site")
	}
	return nil
}

func managerOwnsRecharge(actor *models.User, res Resource) error {
	if res.Recharge.ManagerID != actor.ID {
		return apperr.Forbidden("you can only change recharges you recorded")
	}
	// The site link is re-checked against the recharge's route, loaded
	// by the caller, in case the actor was reassigned since.
	return managerTouchesRoute(actor, res)
}

func driverOwnsRoute(actor *models.User, res Resource) error {
	if actor.ID != res.Route.DriverID {
		return apperr.Forbidden("only the assigned driver can act on this route")
	}
	return nil
}

func driverOwnsExpense(actor *models.User, res Resource) error {
	if actor.ID != res.Expense.DriverID {
		return apperr.Forbidden("you can only change expenses you recorded")
	}
	return nil
}

func routeHasDriver(_ *models.User, res Resource) error {
	if res.Route.DriverID == 0 {
		return apperr.Validation("the route has no driver assigned")
	}
	return nil
}

// CanManageTruck gates create/update/delete/get of a truck owned by the
// given site.
func CanManageTruck(actor *models.User, siteID uint) error {
	return Check(ManageTruck, actor, Resource{SiteID: siteID})
}

func CanCreateRoute(actor *models.User, originSiteID, destinationSiteID uint) error {
	return Check(CreateRoute, actor, Resource{Route: &models.Route{
		OriginSiteID:      originSiteID,
		DestinationSiteID: destinationSiteID,
	}})
}

// CanViewRoute also gates route mutation and the listing of a route's
// expenses and recharges.
func CanViewRoute(actor *models.User, route *models.Route) error {
	return Check(ViewRoute, actor, Resource{Route: route})
}

// ExpenseDriver decides whether the actor may record an expense on the
// route and returns the driver the expense is attributed to: drivers
// record their own, admins record on behalf of the route's driver.
func ExpenseDriver(actor *models.User, route *models.Route) (uint, error) {
	if err := Check(RecordExpense, actor, Resource{Route: route}); err != nil {
		return 0, err
	}
	if actor.Role == models.RoleAdmin {
		return route.DriverID, nil
	}
	return actor.ID, nil
}

func CanRecordRecharge(actor *models.User, route *models.Route) error {
	return Check(RecordRecharge, actor, Resource{Route: route})
}

func CanModifyExpense(actor *models.User, expense *models.Expense) error {
	return Check(ModifyExpense, actor, Resource{Expense: expense})
}

func CanDeleteExpense(actor *models.User, expense *models.Expense) error {
	return Check(DeleteExpense, actor, Resource{Expense: expense})
}

func CanModifyRecharge(actor *models.User, recharge *models.Recharge, route *models.Route) error {
	return Check(ModifyRecharge, actor, Resource{Recharge: recharge, Route: route})
}

func CanDeleteRecharge(actor *models.User, recharge *models.Recharge, route *models.Route) error {
	return Check(DeleteRecharge, actor, Resource{Recharge: recharge, Route: route})
}

// RouteScope returns the implicit row filter an actor's role imposes on
// route listings, merged by the caller with any user-supplied filters.
func RouteScope(actor *models.User) (func(*gorm.DB) *gorm.DB, error) {
	switch actor.Role {
	case models.RoleSiteManager:
		siteID, err := assignedSite(actor)
		if err != nil {
			return nil, err
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("origin_site_id = ? OR destination_site_id = ?", siteID, siteID)
		}, nil
	case models.RoleDriver:
		driverID := actor.ID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("driver_id = ?", driverID)
		}, nil
	default:
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	}
}

// TruckScope restricts truck listings: a site manager only sees trucks
// of their own site when one is assigned.
func TruckScope(actor *models.User) func(*gorm.DB) *gorm.DB {
	if actor.Role == models.RoleSiteManager && actor.SiteID != nil && *actor.SiteID != 0 {
		siteID := *actor.SiteID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("site_id = ?", siteID)
		}
	}
	return func(db *gorm.DB) *gorm.DB { return db }
}
