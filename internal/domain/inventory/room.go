package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"hotelops/internal/domain/shared/money"
)

var (
	ErrNotFound            = errors.New("inventory: not found")
	ErrRoomNotFound        = fmt.Errorf("%w: room", ErrNotFound)
	ErrRoomTypeNotFound    = fmt.Errorf("%w: room type", ErrNotFound)
	ErrInvalidRoomStatus   = errors.New("inventory: invalid room status")
	ErrInvalidMaxOccupancy = errors.New("inventory: max occupancy must be at least 1")
	ErrNegativeBasePrice   = errors.New("inventory: base price cannot be negative")
)

type RoomID int64

type RoomTypeID int64

// RoomStatus is the administrative state of a physical room. It is maintained by
// housekeeping and is independent of any reservation.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
	RoomOutOfOrder  RoomStatus = "out_of_order"
)

func ParseRoomStatus(raw string) (RoomStatus, error) {
	switch s := RoomStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case RoomAvailable, RoomOccupied, RoomMaintenance, RoomOutOfOrder:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomStatus, raw)
	}
}

type RoomType struct {
	ID           RoomTypeID
	Name         string
	Description  string
	BasePrice    money.Money
	MaxOccupancy int
	Amenities    []string
}

// Validate checks the invariants a room type must hold before it can be booked.
func (t RoomType) Validate() error {
	if t.MaxOccupancy < 1 {
		return ErrInvalidMaxOccupancy
	}
	if t.BasePrice.Amount < 0 {
		return ErrNegativeBasePrice
	}
	return nil
}

// Fits reports whether a party of the given size can sleep in this type.
func (t RoomType) Fits(partySize int) bool {
	return partySize <= t.MaxOccupancy
}

type Room struct {
	ID        RoomID
	Number    string
	TypeID    RoomTypeID
	Floor     string
	Status    RoomStatus
	Notes     string
	UpdatedAt time.Time
}

// Sellable reports whether the room counts toward type-wide capacity.
func (r Room) Sellable() bool {
	return r.Status != RoomOutOfOrder
}

// RoomFilter narrows Rooms. Zero values match everything.
type RoomFilter struct {
	TypeID   *RoomTypeID
	Statuses []RoomStatus
}

func (f RoomFilter) Matches(r Room) bool {
	if f.TypeID != nil && r.TypeID != *f.TypeID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// View is the read side of the room inventory. SetRoomStatus exists for the
// housekeeping feed only.
type View interface {
	Rooms(ctx context.Context, filter RoomFilter) ([]Room, error)
	Room(ctx context.Context, id RoomID) (Room, error)
	RoomType(ctx context.Context, id RoomTypeID) (RoomType, error)
	RoomTypes(ctx context.Context) ([]RoomType, error)
	SetRoomStatus(ctx context.Context, id RoomID, status RoomStatus, at time.Time) error
}

// SortByNumber orders rooms by room number, numerically when both numbers are integers.
func SortByNumber(rooms []Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		return LessNumber(rooms[i].Number, rooms[j].Number)
	})
}

func LessNumber(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		if ai != bi {
			return ai < bi
		}
		return a < b
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}

// CountSellable returns how many of rooms count toward type-wide capacity.
func CountSellable(rooms []Room) int {
	n := 0
	for _, r := range rooms {
		if r.Sellable() {
			n++
		}
	}
	return n
}
