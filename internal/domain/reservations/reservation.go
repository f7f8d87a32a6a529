package reservations

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/shared/daterange"
	"hotelops/internal/domain/shared/events"
	"hotelops/internal/domain/shared/money"
)

type ID string

// Number is the human-readable reservation reference printed on confirmations.
type Number string

type GuestID int64

type Reservation struct {
	ID              ID
	Number          Number
	GuestID         GuestID
	RoomID          *inventory.RoomID
	RoomTypeID      inventory.RoomTypeID
	Range           daterange.DateRange
	Adults          int
	Children        int
	Status          Status
	Total           money.Money
	SpecialRequests string
	Notes           string
	CheckedInAt     *time.Time
	CheckedOutAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

// Ledger is the authoritative reservation store. Writes are only legal inside a
// unit of work that has taken the matching Lock* guards first.
type Ledger interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	ByNumber(ctx context.Context, number Number) (*Reservation, error)
	List(ctx context.Context, filter ListFilter) ([]*Reservation, error)
	ActiveForRoom(ctx context.Context, roomID inventory.RoomID, within daterange.DateRange) ([]*Reservation, error)
	ActiveForRoomType(ctx context.Context, typeID inventory.RoomTypeID, within daterange.DateRange) ([]*Reservation, error)
	Insert(ctx context.Context, r *Reservation) error
	Update(ctx context.Context, r *Reservation) error
	Delete(ctx context.Context, id ID) error
	LockRoom(ctx context.Context, roomID inventory.RoomID) error
	LockRoomType(ctx context.Context, typeID inventory.RoomTypeID) error
}

// ListFilter mirrors the front desk reservation screen: optional status plus a
// check-in lower bound and check-out upper bound.
type ListFilter struct {
	Status   *Status
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
}

func (f ListFilter) Matches(r *Reservation) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if !f.DateFrom.IsZero() && r.Range.CheckIn.Before(daterange.Day(f.DateFrom)) {
		return false
	}
	if !f.DateTo.IsZero() && r.Range.CheckOut.After(daterange.Day(f.DateTo)) {
		return false
	}
	return true
}

type CreateParams struct {
	ID              ID
	Number          Number
	GuestID         GuestID
	RoomID          *inventory.RoomID
	RoomTypeID      inventory.RoomTypeID
	Range           daterange.DateRange
	Adults          int
	Children        int
	Status          Status
	Total           money.Money
	SpecialRequests string
	Notes           string
	CreatedAt       time.Time
}

// NewReservation builds a reservation that passed structural checks. Conflict
// and capacity checks are the admission handler's job.
func NewReservation(p CreateParams) (*Reservation, error) {
	if p.GuestID <= 0 {
		return nil, ErrGuestRequired
	}
	if err := p.Range.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateOccupancy(p.Adults, p.Children); err != nil {
		return nil, err
	}
	status := p.Status
	if status == "" {
		status = StatusConfirmed
	}
	if !InitialStatus(status) {
		return nil, ErrInvalidTransition
	}
	now := p.CreatedAt.UTC()
	r := &Reservation{
		ID:              p.ID,
		Number:          p.Number,
		GuestID:         p.GuestID,
		RoomID:          cloneRoomID(p.RoomID),
		RoomTypeID:      p.RoomTypeID,
		Range:           p.Range,
		Adults:          p.Adults,
		Children:        p.Children,
		Status:          status,
		Total:           p.Total,
		SpecialRequests: strings.TrimSpace(p.SpecialRequests),
		Notes:           strings.TrimSpace(p.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if status == StatusCheckedIn {
		r.CheckedInAt = &now
	}
	r.Record(Admitted{
		ReservationID: r.ID,
		Number:        r.Number,
		RoomID:        cloneRoomID(r.RoomID),
		RoomTypeID:    r.RoomTypeID,
		Range:         r.Range,
		Status:        r.Status,
		Total:         r.Total,
		At:            now,
	})
	return r, nil
}

// NewNumber derives a reservation number from a random token.
func NewNumber(token uuid.UUID) Number {
	raw := strings.ToUpper(strings.ReplaceAll(token.String(), "-", ""))
	return Number("RES-" + raw[:12])
}

func ValidateOccupancy(adults, children int) error {
	if adults < 1 || children < 0 {
		return ErrInvalidOccupancy
	}
	return nil
}

// CheckCapacity rejects parties larger than the room type allows.
func CheckCapacity(adults, children int, rt inventory.RoomType) error {
	if !rt.Fits(adults + children) {
		return ErrCapacityExceeded
	}
	return nil
}

func (r *Reservation) Occupants() int {
	return r.Adults + r.Children
}

func (r *Reservation) Active() bool {
	return r.Status.Active()
}

// ConflictsWith implements the room-level conflict relation.
func (r *Reservation) ConflictsWith(other *Reservation) bool {
	if r.RoomID == nil || other.RoomID == nil || *r.RoomID != *other.RoomID {
		return false
	}
	if r.ID != "" && r.ID == other.ID {
		return false
	}
	return r.Active() && other.Active() && r.Range.Overlaps(other.Range)
}

// TransitionTo moves the reservation through its lifecycle, stamping the
// actual check-in and check-out times.
func (r *Reservation) TransitionTo(next Status, now time.Time) error {
	if !CanTransition(r.Status, next) {
		return ErrInvalidTransition
	}
	if r.Status == next {
		return nil
	}
	now = now.UTC()
	prev := r.Status
	r.Status = next
	switch next {
	case StatusCheckedIn:
		r.CheckedInAt = &now
	case StatusCheckedOut:
		r.CheckedOutAt = &now
	}
	r.UpdatedAt = now
	r.Record(StatusChanged{ReservationID: r.ID, Number: r.Number, From: prev, To: next, At: now})
	return nil
}

// Clone returns a deep copy without pending events.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	c := *r
	c.EventRecorder = events.EventRecorder{}
	c.RoomID = cloneRoomID(r.RoomID)
	c.CheckedInAt = cloneTime(r.CheckedInAt)
	c.CheckedOutAt = cloneTime(r.CheckedOutAt)
	return &c
}

func cloneRoomID(id *inventory.RoomID) *inventory.RoomID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
