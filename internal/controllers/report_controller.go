package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"grua_fleet/internal/apperr"
	"grua_fleet/internal/reports"
)

// ReportController exposes the ADMIN-only balance report.
type ReportController struct {
	Engine *reports.Engine
}

func NewReportController(engine *reports.Engine) *ReportController {
	return &ReportController{Engine: engine}
}

func parseQueryID(c *gin.Context, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation("the " + name + " identifier is invalid")
	}
	return uint(id), nil
}

// Balance builds the full financial report for a date range with
// optional route/site/driver filters, grouped by the requested
// dimension (month when unspecified).
func (rp *ReportController) Balance(c *gin.Context) {
	filters := reports.Filters{}

	if raw := c.Query("desde"); raw != "" {
		from, err := parseDate(raw, "desde")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		filters.From = &from
	}
	if raw := c.Query("hasta"); raw != "" {
		to, err := parseDate(raw, "hasta")
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		filters.To = &to
	}

	var err error
	if filters.RouteID, err = parseQueryID(c, "ruta"); err != nil {
		apperr.Respond(c, err)
		return
	}
	if filters.SiteID, err = parseQueryID(c, "sede"); err != nil {
		apperr.Respond(c, err)
		return
	}
	if filters.DriverID, err = parseQueryID(c, "conductor"); err != nil {
		apperr.Respond(c, err)
		return
	}

	groupBy, ok := reports.ParseDimension(c.Query("agrupacion"))
	if !ok {
		apperr.Respond(c, apperr.Validation("invalid grouping dimension"))
		return
	}

	report, err := rp.Engine.BalanceReport(groupBy, filters)
	if err != nil {
		apperr.Respond(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, report)
}
