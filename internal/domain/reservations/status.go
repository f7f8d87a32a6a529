package reservations

import (
	"fmt"
	"strings"
)

// Status is the reservation lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
)

// transitions lists every legal move; same-state moves are handled separately.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut, StatusCancelled},
}

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Active statuses are the only ones that hold a room.
func (s Status) Active() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

func (s Status) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// CanTransition reports whether a reservation may move from one status to another.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InitialStatus reports whether a reservation may be admitted directly in s.
func InitialStatus(s Status) bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

// ActiveStatuses is handy for storage filters.
func ActiveStatuses() []Status {
	return []Status{StatusConfirmed, StatusCheckedIn}
}
