package reports

import (
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// BalanceRow merges the two streams for one group key.
type BalanceRow struct {
	Key           string  `json:"key"`
	Label         string  `json:"label"`
	TotalExpense  float64 `json:"total_expense"`
	TotalRecharge float64 `json:"total_recharge"`
	Balance       float64 `json:"balance"`
}

// BalanceByGroup aggregates both streams with identical filters and
// outer-joins them on group key: every key present on either side
// survives, expense keys first in their label order, recharge-only keys
// appended after.
func (e *Engine) BalanceByGroup(dim Dimension, f Filters) ([]BalanceRow, error) {
	expenses, err := e.Aggregate(StreamExpense, dim, f)
	if err != nil {
		return nil, err
	}
	recharges, err := e.Aggregate(StreamRecharge, dim, f)
	if err != nil {
		return nil, err
	}
	return mergeBalance(expenses, recharges), nil
}

func mergeBalance(expenses, recharges []GroupTotal) []BalanceRow {
	type entry struct {
		label    string
		expense  int64
		recharge int64
	}
	order := make([]string, 0, len(expenses)+len(recharges))
	byKey := make(map[string]*entry, len(expenses)+len(recharges))

	for _, g := range expenses {
		byKey[g.Key] = &entry{label: g.Label, expense: cents(g.Total)}
		order = append(order, g.Key)
	}
	for _, g := range recharges {
		item, ok := byKey[g.Key]
		if !ok {
			item = &entry{label: g.Label}
			byKey[g.Key] = item
			order = append(order, g.Key)
		}
		item.recharge = cents(g.Total)
		// Label mismatch between streams: first write wins.
		if item.label == "" {
			item.label = g.Label
		}
	}

	rows := make([]BalanceRow, 0, len(order))
	for _, key := range order {
		item := byKey[key]
		rows = append(rows, BalanceRow{
			Key:           key,
			Label:         item.label,
			TotalExpense:  fromCents(item.expense),
			TotalRecharge: fromCents(item.recharge),
			Balance:       fromCents(item.recharge - item.expense),
		})
	}
	return rows
}

// EntityRef is a minimal id/name pair for nested report output.
type EntityRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// RouteDetail is one per-route report row with its nested sums.
type RouteDetail struct {
	RouteID         uint       `json:"route_id"`
	Name            string     `json:"name"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	Driver          EntityRef  `json:"driver"`
	OriginSite      EntityRef  `json:"origin_site"`
	DestinationSite EntityRef  `json:"destination_site"`
	TotalExpense    float64    `json:"total_expense"`
	TotalRecharge   float64    `json:"total_recharge"`
	Balance         float64    `json:"balance"`
}

type routeDetailRow struct {
	RouteID             uint       `gorm:"column:route_id"`
	RouteName           string     `gorm:"column:route_name"`
	StartDate           time.Time  `gorm:"column:start_date"`
	EndDate             *time.Time `gorm:"column:end_date"`
	DriverID            uint       `gorm:"column:driver_id"`
	DriverName          string     `gorm:"column:driver_name"`
	OriginSiteID        uint       `gorm:"column:origin_site_id"`
	OriginSiteName      string     `gorm:"column:origin_site_name"`
	DestinationSiteID   uint       `gorm:"column:destination_site_id"`
	DestinationSiteName string     `gorm:"column:destination_site_name"`
	TotalExpense        float64    `gorm:"column:total_expense"`
	TotalRecharge       float64    `gorm:"column:total_recharge"`
}

// RouteDetail lists every route matching the route/site/driver filters.
// The date range does not constrain the routes themselves, only the
// nested expense and recharge sums.
func (e *Engine) RouteDetail(f Filters) ([]RouteDetail, error) {
	expenseDates, expenseArgs := eventDateCond("e", f)
	rechargeDates, rechargeArgs := eventDateCond("rc", f)

	var sb strings.Builder
	var args []interface{}

	sb.WriteString(`SELECT
  rt.id AS route_id, rt.name AS route_name, rt.start_date, rt.end_date,
  u.id AS driver_id, u.name AS driver_name,
  so.id AS origin_site_id, so.name AS origin_site_name,
  sd.id AS destination_site_id, sd.name AS destination_site_name,
  COALESCE((SELECT SUM(e.amount) FROM expenses e
    WHERE e.route_id = rt.id AND e.deleted_at IS NULL`)
	sb.WriteString(expenseDates)
	args = append(args, expenseArgs...)
	sb.WriteString(`), 0) AS total_expense,
  COALESCE((SELECT SUM(rc.amount) FROM recharges rc
    WHERE rc.route_id = rt.id AND rc.deleted_at IS NULL`)
	sb.WriteString(rechargeDates)
	args = append(args, rechargeArgs...)
	sb.WriteString(`), 0) AS total_recharge
FROM routes rt
JOIN users u ON u.id = rt.driver_id
JOIN sites so ON so.id = rt.origin_site_id
JOIN sites sd ON sd.id = rt.destination_site_id
WHERE rt.deleted_at IS NULL`)

	if f.RouteID != 0 {
		sb.WriteString(" AND rt.id = ?")
		args = append(args, f.RouteID)
	}
	if f.SiteID != 0 {
		sb.WriteString(" AND (rt.origin_site_id = ? OR rt.destination_site_id = ?)")
		args = append(args, f.SiteID, f.SiteID)
	}
	if f.DriverID != 0 {
		sb.WriteString(" AND rt.driver_id = ?")
		args = append(args, f.DriverID)
	}
	sb.WriteString(" ORDER BY rt.start_date DESC, rt.name ASC")

	var rows []routeDetailRow
	if err := e.db.Raw(sb.String(), args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	details := make([]RouteDetail, 0, len(rows))
	for _, r := range rows {
		expense := cents(r.TotalExpense)
		recharge := cents(r.TotalRecharge)
		details = append(details, RouteDetail{
			RouteID:         r.RouteID,
			Name:            r.RouteName,
			StartDate:       r.StartDate,
			EndDate:         r.EndDate,
			Driver:          EntityRef{ID: r.DriverID, Name: r.DriverName},
			OriginSite:      EntityRef{ID: r.OriginSiteID, Name: r.OriginSiteName},
			DestinationSite: EntityRef{ID: r.DestinationSiteID, Name: r.DestinationSiteName},
			TotalExpense:    fromCents(expense),
			TotalRecharge:   fromCents(recharge),
			Balance:         fromCents(recharge - expense),
		})
	}
	return details, nil
}

func eventDateCond(alias string, f Filters) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}
	if f.From != nil {
		sb.WriteString(" AND " + alias + ".date >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		sb.WriteString(" AND " + alias + ".date <= ?")
		args = append(args, *f.To)
	}
	return sb.String(), args
}

// Summary is the fixed multi-dimension bundle the balance report ships.
type Summary struct {
	ExpensesBySite   []GroupTotal `json:"expenses_by_site"`
	ExpensesByDriver []GroupTotal `json:"expenses_by_driver"`
	ExpensesByRoute  []GroupTotal `json:"expenses_by_route"`
	RechargesBySite  []GroupTotal `json:"recharges_by_site"`
	RechargesByRoute []GroupTotal `json:"recharges_by_route"`
}

// Summary runs the five fixed aggregations concurrently. They are
// independent point-in-time reads; no shared transaction is needed.
func (e *Engine) Summary(f Filters) (*Summary, error) {
	var summary Summary
	var g errgroup.Group

	g.Go(func() (err error) {
		summary.ExpensesBySite, err = e.Aggregate(StreamExpense, GroupSite, f)
		return
	})
	g.Go(func() (err error) {
		summary.ExpensesByDriver, err = e.Aggregate(StreamExpense, GroupDriver, f)
		return
	})
	g.Go(func() (err error) {
		summary.ExpensesByRoute, err = e.Aggregate(StreamExpense, GroupRoute, f)
		return
	})
	g.Go(func() (err error) {
		summary.RechargesBySite, err = e.Aggregate(StreamRecharge, GroupSite, f)
		return
	})
	g.Go(func() (err error) {
		summary.RechargesByRoute, err = e.Aggregate(StreamRecharge, GroupRoute, f)
		return
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Totals is a grand total over every emitted balance row.
type Totals struct {
	TotalExpense  float64 `json:"total_expense"`
	TotalRecharge float64 `json:"total_recharge"`
	Balance       float64 `json:"balance"`
}

// AppliedFilters echoes the request back in the report payload.
type AppliedFilters struct {
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
	RouteID  uint       `json:"route_id,omitempty"`
	SiteID   uint       `json:"site_id,omitempty"`
	DriverID uint       `json:"driver_id,omitempty"`
	GroupBy  Dimension  `json:"group_by"`
}

// Report is the full balance report payload.
type Report struct {
	Filters     AppliedFilters `json:"applied_filters"`
	Results     []BalanceRow   `json:"results"`
	GrandTotals Totals         `json:"grand_totals"`
	Routes      []RouteDetail  `json:"route_detail"`
	Summary     *Summary       `json:"summary"`
}

// BalanceReport obtains the grouped balance, the route detail and the
// summary bundle concurrently, then computes grand totals over the
// grouped rows.
func (e *Engine) BalanceReport(dim Dimension, f Filters) (*Report, error) {
	report := Report{
		Filters: AppliedFilters{
			From:     f.From,
			To:       f.To,
			RouteID:  f.RouteID,
			SiteID:   f.SiteID,
			DriverID: f.DriverID,
			GroupBy:  dim,
		},
	}

	var g errgroup.Group
	g.Go(func() (err error) {
		report.Results, err = e.BalanceByGroup(dim, f)
		return
	})
	g.Go(func() (err error) {
		report.Routes, err = e.RouteDetail(f)
		return
	})
	g.Go(func() (err error) {
		report.Summary, err = e.Summary(f)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var expense, recharge int64
	for _, row := range report.Results {
		expense += cents(row.TotalExpense)
		recharge += cents(row.TotalRecharge)
	}
	report.GrandTotals = Totals{
		TotalExpense:  fromCents(expense),
		TotalRecharge: fromCents(recharge),
		Balance:       fromCents(recharge - expense),
	}
	return &report, nil
}
