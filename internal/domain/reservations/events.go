package reservations

import (
	"time"

	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/shared/daterange"
	"hotelops/internal/domain/shared/money"
)

type Admitted struct {
	ReservationID ID                   `json:"reservation_id"`
	Number        Number               `json:"number"`
	RoomID        *inventory.RoomID    `json:"room_id"`
	RoomTypeID    inventory.RoomTypeID `json:"room_type_id"`
	Range         daterange.DateRange  `json:"range"`
	Status        Status               `json:"status"`
	Total         money.Money          `json:"total"`
	At            time.Time            `json:"at"`
}

func (e Admitted) EventName() string     { return "reservation.admitted" }
func (e Admitted) AggregateID() string   { return string(e.ReservationID) }
func (e Admitted) OccurredAt() time.Time { return e.At }

type Amended struct {
	ReservationID ID                   `json:"reservation_id"`
	Number        Number               `json:"number"`
	RoomID        *inventory.RoomID    `json:"room_id"`
	RoomTypeID    inventory.RoomTypeID `json:"room_type_id"`
	Range         daterange.DateRange  `json:"range"`
	Total         money.Money          `json:"total"`
	At            time.Time            `json:"at"`
}

func (e Amended) EventName() string     { return "reservation.amended" }
func (e Amended) AggregateID() string   { return string(e.ReservationID) }
func (e Amended) OccurredAt() time.Time { return e.At }

type StatusChanged struct {
	ReservationID ID        `json:"reservation_id"`
	Number        Number    `json:"number"`
	From          Status    `json:"from"`
	To            Status    `json:"to"`
	At            time.Time `json:"at"`
}

func (e StatusChanged) EventName() string     { return "reservation.status_changed" }
func (e StatusChanged) AggregateID() string   { return string(e.ReservationID) }
func (e StatusChanged) OccurredAt() time.Time { return e.At }

type Deleted struct {
	ReservationID ID        `json:"reservation_id"`
	Number        Number    `json:"number"`
	At            time.Time `json:"at"`
}

func (e Deleted) EventName() string     { return "reservation.deleted" }
func (e Deleted) AggregateID() string   { return string(e.ReservationID) }
func (e Deleted) OccurredAt() time.Time { return e.At }
