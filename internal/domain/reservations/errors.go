package reservations

import "errors"

var (
	ErrInvalidOccupancy  = errors.New("reservations: invalid occupancy")
	ErrCapacityExceeded  = errors.New("reservations: occupants exceed room type capacity")
	ErrScheduleConflict  = errors.New("reservations: schedule conflict")
	ErrInvalidTransition = errors.New("reservations: invalid status transition")
	ErrInvalidStatus     = errors.New("reservations: unknown status")
	ErrNotFound          = errors.New("reservations: not found")
	ErrRoomTypeMismatch  = errors.New("reservations: room does not belong to room type")
	ErrCheckInInPast     = errors.New("reservations: check-in date is in the past")
	ErrGuestRequired     = errors.New("reservations: guest id required")
)
