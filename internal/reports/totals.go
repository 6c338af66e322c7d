package reports

import "golang.org/x/sync/errgroup"

// RouteTotals is the per-route financial summary attached to route
// listings and the role summary endpoints.
type RouteTotals struct {
	TotalExpense  float64 `json:"total_expense"`
	ExpenseCount  int64   `json:"expense_count"`
	TotalRecharge float64 `json:"total_recharge"`
	RechargeCount int64   `json:"recharge_count"`
	Balance       float64 `json:"balance"`
}

type routeSumRow struct {
	RouteID uint    `gorm:"column:route_id"`
	Total   float64 `gorm:"column:total"`
	Count   int64   `gorm:"column:cnt"`
}

// TotalsByRoute computes both streams' sums and counts for the given
// routes in two set-based queries. Routes without events map to zeroed
// totals on access.
func (e *Engine) TotalsByRoute(routeIDs []uint) (map[uint]RouteTotals, error) {
	totals := make(map[uint]RouteTotals, len(routeIDs))
	if len(routeIDs) == 0 {
		return totals, nil
	}

	var expenses, recharges []routeSumRow
	var g errgroup.Group
	g.Go(func() error {
		return e.db.Table("expenses").
			Select("route_id, SUM(amount) AS total, COUNT(id) AS cnt").
			Where("route_id IN ? AND deleted_at IS NULL", routeIDs).
			Group("route_id").
			Scan(&expenses).Error
	})
	g.Go(func() error {
		return e.db.Table("recharges").
			Select("route_id, SUM(amount) AS total, COUNT(id) AS cnt").
			Where("route_id IN ? AND deleted_at IS NULL", routeIDs).
			Group("route_id").
			Scan(&recharges).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, row := range expenses {
		item := totals[row.RouteID]
		item.TotalExpense = fromCents(cents(row.Total))
		item.ExpenseCount = row.Count
		totals[row.RouteID] = item
	}
	for _, row := range recharges {
		item := totals[row.RouteID]
		item.TotalRecharge = fromCents(cents(row.Total))
		item.RechargeCount = row.Count
		totals[row.RouteID] = item
	}
	for id, item := range totals {
		item.Balance = fromCents(cents(item.TotalRecharge) - cents(item.TotalExpense))
		totals[id] = item
	}
	return totals, nil
}
