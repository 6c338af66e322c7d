package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"grua_fleet/internal/apperr"
)

// parseIDParam coerces a numeric path parameter, rejecting anything
// that is not a positive integer.
func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation("the " + name + " identifier is invalid")
	}
	return uint(id), nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseDate accepts RFC3339 timestamps or plain dates.
func parseDate(raw, label string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("the \"" + label + "\" date format is invalid")
}
