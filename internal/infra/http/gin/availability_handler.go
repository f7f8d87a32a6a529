package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"hotelops/internal/app/dto"
	availabilityapp "hotelops/internal/app/handlers/availability"
	"hotelops/internal/app/queries"
	"hotelops/internal/domain/inventory"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Search(c *gin.Context) {
	checkIn, err := parseDate(c.Query("check_in"))
	if err != nil {
		badRequest(c, err)
		return
	}
	checkOut, err := parseDate(c.Query("check_out"))
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.FindAvailableQuery{CheckIn: checkIn, CheckOut: checkOut, PartySize: 1}
	if raw := c.Query("guests"); raw != "" {
		guests, convErr := strconv.Atoi(raw)
		if convErr != nil {
			badRequest(c, convErr)
			return
		}
		query.PartySize = guests
	}
	if raw := c.Query("room_type_id"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "room_type_id must be a positive integer", Code: "invalid_request_body"})
			return
		}
		typeID := inventory.RoomTypeID(id)
		query.RoomTypeID = &typeID
	}
	result, err := queries.Ask[availabilityapp.FindAvailableQuery, dto.AvailableRoomCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
