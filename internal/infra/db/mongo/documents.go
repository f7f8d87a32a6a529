package mongo

import (
	"fmt"
	"time"

	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
	"hotelops/internal/domain/shared/money"
)

type roomTypeDocument struct {
	ID             int64    `bson:"_id"`
	Name           string   `bson:"name"`
	Description    string   `bson:"description"`
	BasePriceMinor int64    `bson:"base_price_minor"`
	Currency       string   `bson:"currency"`
	MaxOccupancy   int      `bson:"max_occupancy"`
	Amenities      []string `bson:"amenities"`
	LockSeq        int64    `bson:"lock_seq"`
}

func newRoomTypeDocument(rt inventory.RoomType) roomTypeDocument {
	return roomTypeDocument{
		ID:             int64(rt.ID),
		Name:           rt.Name,
		Description:    rt.Description,
		BasePriceMinor: rt.BasePrice.Amount,
		Currency:       rt.BasePrice.Currency,
		MaxOccupancy:   rt.MaxOccupancy,
		Amenities:      rt.Amenities,
	}
}

func (d roomTypeDocument) toDomain() (inventory.RoomType, error) {
	price, err := money.New(d.BasePriceMinor, d.Currency)
	if err != nil {
		return inventory.RoomType{}, fmt.Errorf("room type %d price: %w", d.ID, err)
	}
	return inventory.RoomType{
		ID:           inventory.RoomTypeID(d.ID),
		Name:         d.Name,
		Description:  d.Description,
		BasePrice:    price,
		MaxOccupancy: d.MaxOccupancy,
		Amenities:    d.Amenities,
	}, nil
}

type roomDocument struct {
	ID        int64     `bson:"_id"`
	Number    string    `bson:"room_number"`
	TypeID    int64     `bson:"room_type_id"`
	Floor     string    `bson:"floor"`
	Status    string    `bson:"status"`
	Notes     string    `bson:"notes"`
	UpdatedAt time.Time `bson:"updated_at"`
	LockSeq   int64     `bson:"lock_seq"`
}

func newRoomDocument(r inventory.Room) roomDocument {
	status := r.Status
	if status == "" {
		status = inventory.RoomAvailable
	}
	return roomDocument{
		ID:        int64(r.ID),
		Number:    r.Number,
		TypeID:    int64(r.TypeID),
		Floor:     r.Floor,
		Status:    string(status),
		Notes:     r.Notes,
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (d roomDocument) toDomain() inventory.Room {
	return inventory.Room{
		ID:        inventory.RoomID(d.ID),
		Number:    d.Number,
		TypeID:    inventory.RoomTypeID(d.TypeID),
		Floor:     d.Floor,
		Status:    inventory.RoomStatus(d.Status),
		Notes:     d.Notes,
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type reservationDocument struct {
	ID              string     `bson:"_id"`
	Number          string     `bson:"reservation_number"`
	GuestID         int64      `bson:"guest_id"`
	RoomID          *int64     `bson:"room_id"`
	RoomTypeID      int64      `bson:"room_type_id"`
	CheckIn         time.Time  `bson:"check_in"`
	CheckOut        time.Time  `bson:"check_out"`
	Adults          int        `bson:"adults"`
	Children        int        `bson:"children"`
	Status          string     `bson:"status"`
	TotalMinor      int64      `bson:"total_minor"`
	Currency        string     `bson:"currency"`
	SpecialRequests string     `bson:"special_requests"`
	Notes           string     `bson:"notes"`
	CheckedInAt     *time.Time `bson:"checked_in_at,omitempty"`
	CheckedOutAt    *time.Time `bson:"checked_out_at,omitempty"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
	Version         int64      `bson:"version"`
}

func newReservationDocument(r *reservations.Reservation) reservationDocument {
	var roomID *int64
	if r.RoomID != nil {
		v := int64(*r.RoomID)
		roomID = &v
	}
	return reservationDocument{
		ID:              string(r.ID),
		Number:          string(r.Number),
		GuestID:         int64(r.GuestID),
		RoomID:          roomID,
		RoomTypeID:      int64(r.RoomTypeID),
		CheckIn:         r.Range.CheckIn.UTC(),
		CheckOut:        r.Range.CheckOut.UTC(),
		Adults:          r.Adults,
		Children:        r.Children,
		Status:          string(r.Status),
		TotalMinor:      r.Total.Amount,
		Currency:        r.Total.Currency,
		SpecialRequests: r.SpecialRequests,
		Notes:           r.Notes,
		CheckedInAt:     r.CheckedInAt,
		CheckedOutAt:    r.CheckedOutAt,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
		Version:         r.Version,
	}
}

func (d reservationDocument) toDomain() (*reservations.Reservation, error) {
	total, err := money.New(d.TotalMinor, d.Currency)
	if err != nil {
		return nil, fmt.Errorf("reservation %s total: %w", d.ID, err)
	}
	r := &reservations.Reservation{
		ID:              reservations.ID(d.ID),
		Number:          reservations.Number(d.Number),
		GuestID:         reservations.GuestID(d.GuestID),
		RoomTypeID:      inventory.RoomTypeID(d.RoomTypeID),
		Range:           daterange.DateRange{CheckIn: daterange.Day(d.CheckIn.UTC()), CheckOut: daterange.Day(d.CheckOut.UTC())},
		Adults:          d.Adults,
		Children:        d.Children,
		Status:          reservations.Status(d.Status),
		Total:           total,
		SpecialRequests: d.SpecialRequests,
		Notes:           d.Notes,
		CheckedInAt:     utcPtr(d.CheckedInAt),
		CheckedOutAt:    utcPtr(d.CheckedOutAt),
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
		Version:         d.Version,
	}
	if d.RoomID != nil {
		id := inventory.RoomID(*d.RoomID)
		r.RoomID = &id
	}
	return r, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
