package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

const dateLayout = "2006-01-02"

// providerFromQuery reads shop_id and barber_id. Which of them is set is
// validated by the use case, so both or neither pass through.
func providerFromQuery(c *gin.Context) (domain.ProviderRef, error) {
	var p domain.ProviderRef

	if s := c.Query("shop_id"); s != "" {
		id, err := parseID(s)
		if err != nil {
			return p, err
		}
		p.ShopID = &id
	}
	if s := c.Query("barber_id"); s != "" {
		id, err := parseID(s)
		if err != nil {
			return p, err
		}
		p.BarberID = &id
	}
	return p, nil
}

// parseDay keeps only the calendar components; the provider's timezone is
// applied by the use case. Empty means today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, httperr.Validation("invalid_date")
	}
	return d, nil
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, httperr.Validation("invalid_input")
	}
	return uint(id), nil
}

func idParam(c *gin.Context, name string) (uint, error) {
	return parseID(c.Param(name))
}
