// Package reports holds the financial aggregation engine: grouped sums
// over the expense and recharge streams, the merged balance view, the
// per-route detail listing and the fixed summary bundle.
//
// Sums happen in the database over NUMERIC columns and are merged here
// in integer cents; float64 only appears at the output boundary,
// re-rounded to 2 decimals.
package reports

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Stream selects which financial event table a query runs over.
type Stream string

const (
	StreamExpense  Stream = "expense"
	StreamRecharge Stream = "recharge"
)

// Dimension selects the grouping of an aggregation.
type Dimension string

const (
	GroupRoute  Dimension = "route"
	GroupSite   Dimension = "site"
	GroupDriver Dimension = "driver"
	GroupMonth  Dimension = "month"
	GroupNone   Dimension = "none"
)

// ParseDimension maps a query-string value onto a Dimension, defaulting
// to month.
func ParseDimension(raw string) (Dimension, bool) {
	switch Dimension(raw) {
	case GroupRoute, GroupSite, GroupDriver, GroupMonth, GroupNone:
		return Dimension(raw), true
	case "":
		return GroupMonth, true
	default:
		return "", false
	}
}

// Filters narrows an aggregation. All fields are optional and combine
// with logical AND. SiteID matches routes where the site is either the
// origin or the destination.
type Filters struct {
	From     *time.Time
	To       *time.Time
	RouteID  uint
	SiteID   uint
	DriverID uint
}

// GroupTotal is one aggregation row: a group key, its display label and
// the summed amount.
type GroupTotal struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// Engine runs read-only aggregation queries against the store.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

func cents(v float64) int64 { return int64(math.Round(v * 100)) }

func fromCents(c int64) float64 { return float64(c) / 100 }

type aggRow struct {
	GroupKey   string  `gorm:"column:group_key"`
	GroupLabel string  `gorm:"column:group_label"`
	Total      float64 `gorm:"column:total"`
}

// monthExpr returns the dialect's year-month formatter for an event
// date column.
func (e *Engine) monthExpr(col string) string {
	if e.db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m', " + col + ")"
	}
	return "to_char(" + col + ", 'YYYY-MM')"
}

// Aggregate computes one grouped-sum row per distinct group value for
// the given stream, sorted by label. Groups without matching events are
// simply not emitted. Key and label expressions come from the dimension
// enum, never from caller strings; filter values are bound parameters.
func (e *Engine) Aggregate(stream Stream, dim Dimension, f Filters) ([]GroupTotal, error) {
	table, alias := "expenses", "e"
	noneLabel := "'Expenses'"
	if stream == StreamRecharge {
		table, alias = "recharges", "rc"
		noneLabel = "'Recharges'"
	}

	// Raw table queries bypass gorm's soft-delete scoping, so exclude
	// deleted rows explicitly.
	q := e.db.Table(table+" AS "+alias).
		Joins("JOIN routes rt ON rt.id = "+alias+".route_id").
		Where(alias + ".deleted_at IS NULL").
		Where("rt.deleted_at IS NULL")

	var keyExpr, labelExpr string
	switch dim {
	case GroupRoute:
		keyExpr, labelExpr = "rt.id", "rt.name"
	case GroupSite:
		// Site grouping keys on the route's origin site.
		keyExpr, labelExpr = "rt.origin_site_id", "sd.name"
		q = q.Joins("JOIN sites sd ON sd.id = rt.origin_site_id")
	case GroupDriver:
		keyExpr, labelExpr = "rt.driver_id", "u.name"
		q = q.Joins("JOIN users u ON u.id = rt.driver_id")
	case GroupMonth:
		expr := e.monthExpr(alias + ".date")
		keyExpr, labelExpr = expr, expr
	default:
		keyExpr, labelExpr = "'"+string(stream)+"'", noneLabel
	}

	q = applyEventFilters(q, alias, f)

	var rows []aggRow
	err := q.Select(keyExpr+" AS group_key, "+labelExpr+" AS group_label, SUM("+alias+".amount) AS total").
		Group("1, 2").
		Order("group_label ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make([]GroupTotal, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, GroupTotal{
			Key:   r.GroupKey,
			Label: r.GroupLabel,
			Total: fromCents(cents(r.Total)),
		})
	}
	return totals, nil
}

func applyEventFilters(q *gorm.DB, alias string, f Filters) *gorm.DB {
	if f.From != nil {
		q = q.Where(alias+".date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where(alias+".date <= ?", *f.To)
	}
	if f.RouteID != 0 {
		q = q.Where(alias+".route_id = ?", f.RouteID)
	}
	if f.SiteID != 0 {
		q = q.Where("(rt.origin_site_id = ? OR rt.destination_site_id = ?)", f.SiteID, f.SiteID)
	}
	if f.DriverID != 0 {
		q = q.Where("rt.driver_id = ?", f.DriverID)
	}
	return q
}
