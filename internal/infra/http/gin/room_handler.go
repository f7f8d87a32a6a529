package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelops/internal/app/commands"
	"hotelops/internal/app/dto"
	availabilityapp "hotelops/internal/app/handlers/availability"
	inventoryapp "hotelops/internal/app/handlers/inventory"
	"hotelops/internal/app/queries"
	"hotelops/internal/domain/inventory"
)

type RoomHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type roomStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h RoomHandler) Calendar(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: "room not found", Code: "not_found"})
		return
	}
	from, err := parseDate(c.Query("from"))
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.GetRoomCalendarQuery{RoomID: inventory.RoomID(id), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetRoomCalendarQuery, dto.RoomCalendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RoomHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: "room not found", Code: "not_found"})
		return
	}
	var req roomStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := inventoryapp.UpdateRoomStatusCommand{RoomID: inventory.RoomID(id), Status: inventory.RoomStatus(req.Status)}
	result, err := commands.Dispatch[inventoryapp.UpdateRoomStatusCommand, inventoryapp.UpdateRoomStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RoomHTTP = RoomHandler{}
