package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelops/internal/app/dto"
	dashboardapp "hotelops/internal/app/handlers/dashboard"
	"hotelops/internal/app/queries"
)

type DashboardHandler struct {
	Queries queries.Bus
}

// Stats reports today's figures unless ?date= overrides the day.
func (h DashboardHandler) Stats(c *gin.Context) {
	today, err := parseDate(c.Query("date"))
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := queries.Ask[dashboardapp.StatsQuery, dto.DashboardStats](c.Request.Context(), h.Queries, dashboardapp.StatsQuery{Today: today})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ DashboardHTTP = DashboardHandler{}
