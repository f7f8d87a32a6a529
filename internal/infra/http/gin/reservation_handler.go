package ginserver

import (
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"hotelops/internal/app/commands"
	"hotelops/internal/app/dto"
	reservationsapp "hotelops/internal/app/handlers/reservations"
	"hotelops/internal/app/queries"
	"hotelops/internal/domain/inventory"
	domainres "hotelops/internal/domain/reservations"
)

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type admitReservationRequest struct {
	GuestID         int64  `json:"guest_id" binding:"required"`
	RoomTypeID      int64  `json:"room_type_id" binding:"required"`
	RoomID          *int64 `json:"room_id"`
	CheckIn         string `json:"check_in" binding:"required"`
	CheckOut        string `json:"check_out" binding:"required"`
	Adults          int    `json:"adults"`
	Children        int    `json:"children"`
	Status          string `json:"status"`
	SpecialRequests string `json:"special_requests"`
	Notes           string `json:"notes"`
}

type amendReservationRequest struct {
	GuestID         *int64  `json:"guest_id"`
	RoomTypeID      *int64  `json:"room_type_id"`
	RoomID          *int64  `json:"room_id"`
	ClearRoom       bool    `json:"clear_room"`
	CheckIn         *string `json:"check_in"`
	CheckOut        *string `json:"check_out"`
	Adults          *int    `json:"adults"`
	Children        *int    `json:"children"`
	Status          *string `json:"status"`
	SpecialRequests *string `json:"special_requests"`
	Notes           *string `json:"notes"`
}

func (h ReservationHandler) Admit(c *gin.Context) {
	var req admitReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		badRequest(c, err)
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := reservationsapp.AdmitReservationCommand{
		GuestID:         domainres.GuestID(req.GuestID),
		RoomTypeID:      inventory.RoomTypeID(req.RoomTypeID),
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          req.Adults,
		Children:        req.Children,
		SpecialRequests: req.SpecialRequests,
		Notes:           req.Notes,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	}
	if req.RoomID != nil {
		roomID := inventory.RoomID(*req.RoomID)
		cmd.RoomID = &roomID
	}
	if req.Status != "" {
		status, parseErr := domainres.ParseStatus(req.Status)
		if parseErr != nil {
			respondError(c, parseErr)
			return
		}
		cmd.Status = status
	}
	result, err := commands.Dispatch[reservationsapp.AdmitReservationCommand, *dto.AdmissionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) List(c *gin.Context) {
	var query reservationsapp.ListReservationsQuery
	if raw := c.Query("status"); raw != "" {
		status, err := domainres.ParseStatus(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		query.Status = &status
	}
	var err error
	if query.DateFrom, err = parseDate(c.Query("date_from")); err != nil {
		badRequest(c, err)
		return
	}
	if query.DateTo, err = parseDate(c.Query("date_to")); err != nil {
		badRequest(c, err)
		return
	}
	if raw := c.Query("limit"); raw != "" {
		if query.Limit, err = strconv.Atoi(raw); err != nil {
			badRequest(c, err)
			return
		}
	}
	result, err := queries.Ask[reservationsapp.ListReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get resolves either an opaque id or a RES- reservation number.
func (h ReservationHandler) Get(c *gin.Context) {
	query := reservationsapp.GetReservationQuery{Ref: c.Param("id")}
	result, err := queries.Ask[reservationsapp.GetReservationQuery, dto.ReservationView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Amend(c *gin.Context) {
	var req amendReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := reservationsapp.AmendReservationCommand{
		ID:              domainres.ID(c.Param("id")),
		ClearRoom:       req.ClearRoom,
		Adults:          req.Adults,
		Children:        req.Children,
		SpecialRequests: req.SpecialRequests,
		Notes:           req.Notes,
	}
	if req.GuestID != nil {
		guestID := domainres.GuestID(*req.GuestID)
		cmd.GuestID = &guestID
	}
	if req.RoomTypeID != nil {
		typeID := inventory.RoomTypeID(*req.RoomTypeID)
		cmd.RoomTypeID = &typeID
	}
	if req.RoomID != nil {
		roomID := inventory.RoomID(*req.RoomID)
		cmd.RoomID = &roomID
	}
	var err error
	if cmd.CheckIn, err = parseDatePtr(req.CheckIn); err != nil {
		badRequest(c, err)
		return
	}
	if cmd.CheckOut, err = parseDatePtr(req.CheckOut); err != nil {
		badRequest(c, err)
		return
	}
	if req.Status != nil {
		status, parseErr := domainres.ParseStatus(*req.Status)
		if parseErr != nil {
			respondError(c, parseErr)
			return
		}
		cmd.Status = &status
	}
	result, err := commands.Dispatch[reservationsapp.AmendReservationCommand, dto.ReservationView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Delete(c *gin.Context) {
	cmd := reservationsapp.DeleteReservationCommand{ID: domainres.ID(c.Param("id"))}
	result, err := commands.Dispatch[reservationsapp.DeleteReservationCommand, reservationsapp.DeleteReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReservationHTTP = ReservationHandler{}
