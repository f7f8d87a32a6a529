package dto

import (
	"time"

	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
)

type AvailableRoom struct {
	RoomID       int64    `json:"room_id"`
	RoomNumber   string   `json:"room_number"`
	Floor        string   `json:"floor"`
	RoomTypeID   int64    `json:"room_type_id"`
	RoomTypeName string   `json:"room_type_name"`
	BasePrice    MoneyDTO `json:"base_price"`
	MaxOccupancy int      `json:"max_occupancy"`
}

type AvailableRoomCollection struct {
	CheckIn  string          `json:"check_in"`
	CheckOut string          `json:"check_out"`
	Nights   int             `json:"nights"`
	Items    []AvailableRoom `json:"items"`
}

func MapAvailableRoom(room inventory.Room, rt inventory.RoomType) AvailableRoom {
	return AvailableRoom{
		RoomID:       int64(room.ID),
		RoomNumber:   room.Number,
		Floor:        room.Floor,
		RoomTypeID:   int64(rt.ID),
		RoomTypeName: rt.Name,
		BasePrice:    MapMoney(rt.BasePrice),
		MaxOccupancy: rt.MaxOccupancy,
	}
}

// CalendarBlock is one active stay occupying a room.
type CalendarBlock struct {
	ReservationID     string `json:"reservation_id"`
	ReservationNumber string `json:"reservation_number"`
	CheckIn           string `json:"check_in"`
	CheckOut          string `json:"check_out"`
	Status            string `json:"status"`
}

type RoomCalendar struct {
	RoomID     int64           `json:"room_id"`
	RoomNumber string          `json:"room_number"`
	Status     string          `json:"status"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Blocks     []CalendarBlock `json:"blocks"`
	FreeNights int             `json:"free_nights"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func MapCalendarBlock(r *reservations.Reservation) CalendarBlock {
	return CalendarBlock{
		ReservationID:     string(r.ID),
		ReservationNumber: string(r.Number),
		CheckIn:           r.Range.CheckIn.Format(dateLayout),
		CheckOut:          r.Range.CheckOut.Format(dateLayout),
		Status:            string(r.Status),
	}
}
