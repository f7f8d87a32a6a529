package dto

import (
	"time"

	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
)

const dateLayout = daterange.DateLayout

// AdmissionResult is what the front desk sees after a successful booking.
type AdmissionResult struct {
	ReservationID     string   `json:"reservation_id"`
	ReservationNumber string   `json:"reservation_number"`
	TotalAmount       MoneyDTO `json:"total_amount"`
	Status            string   `json:"status"`
}

func MapAdmissionResult(r *reservations.Reservation) *AdmissionResult {
	return &AdmissionResult{
		ReservationID:     string(r.ID),
		ReservationNumber: string(r.Number),
		TotalAmount:       MapMoney(r.Total),
		Status:            string(r.Status),
	}
}

type ReservationView struct {
	ID              string     `json:"id"`
	Number          string     `json:"reservation_number"`
	GuestID         int64      `json:"guest_id"`
	RoomID          *int64     `json:"room_id,omitempty"`
	RoomTypeID      int64      `json:"room_type_id"`
	CheckIn         string     `json:"check_in"`
	CheckOut        string     `json:"check_out"`
	Nights          int        `json:"nights"`
	Adults          int        `json:"adults"`
	Children        int        `json:"children"`
	Status          string     `json:"status"`
	TotalAmount     MoneyDTO   `json:"total_amount"`
	SpecialRequests string     `json:"special_requests,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt    *time.Time `json:"checked_out_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type ReservationCollection struct {
	Items []ReservationView `json:"items"`
}

func MapReservation(r *reservations.Reservation) ReservationView {
	view := ReservationView{
		ID:              string(r.ID),
		Number:          string(r.Number),
		GuestID:         int64(r.GuestID),
		RoomTypeID:      int64(r.RoomTypeID),
		CheckIn:         r.Range.CheckIn.Format(dateLayout),
		CheckOut:        r.Range.CheckOut.Format(dateLayout),
		Nights:          r.Range.Nights(),
		Adults:          r.Adults,
		Children:        r.Children,
		Status:          string(r.Status),
		TotalAmount:     MapMoney(r.Total),
		SpecialRequests: r.SpecialRequests,
		Notes:           r.Notes,
		CheckedInAt:     r.CheckedInAt,
		CheckedOutAt:    r.CheckedOutAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.RoomID != nil {
		id := int64(*r.RoomID)
		view.RoomID = &id
	}
	return view
}

func MapReservations(items []*reservations.Reservation) ReservationCollection {
	out := ReservationCollection{Items: make([]ReservationView, 0, len(items))}
	for _, r := range items {
		out.Items = append(out.Items, MapReservation(r))
	}
	return out
}
