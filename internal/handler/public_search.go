package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// SearchSchedules finds bookable departures. Filters: origin,
// destination, date (exact day, or +/- 3 days with flexible=true) and
// passengers (minimum free seats). Results are paginated.
func (h *PublicHandler) SearchSchedules(c echo.Context) error {
	origin := strings.TrimSpace(c.QueryParam("origin"))
	destination := strings.TrimSpace(c.QueryParam("destination"))
	date := strings.TrimSpace(c.QueryParam("date"))
	flexible := c.QueryParam("flexible") == "true" || c.QueryParam("flexible") == "1"

	passengers := uint32(0)
	if p, err := strconv.ParseUint(c.QueryParam("passengers"), 10, 32); err == nil {
		passengers = uint32(p)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := repository.ScheduleSearchQuery{
		Origin:      origin,
		Destination: destination,
		Date:        date,
		Passengers:  passengers,
		Flexible:    flexible,
		Page:        page,
		PageSize:    ps,
	}

	items, total, err := h.ScheduleRepo.Search(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "database_error",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}
