package ginserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"hotelops/internal/app/commands"
	"hotelops/internal/app/middleware"
	"hotelops/internal/app/queries"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
)

const idempotencyHeader = "Idempotency-Key"

type errorBody struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}

// classify maps application errors to a status and a stable code.
func classify(err error) (int, string) {
	var validation *middleware.ValidationError
	var storage *uow.StorageError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "invalid_request_body"
	case errors.Is(err, daterange.ErrInvalidRange):
		return http.StatusBadRequest, "invalid_interval"
	case errors.Is(err, reservations.ErrInvalidOccupancy):
		return http.StatusBadRequest, "invalid_occupancy"
	case errors.Is(err, reservations.ErrInvalidStatus),
		errors.Is(err, inventory.ErrInvalidRoomStatus),
		errors.Is(err, reservations.ErrGuestRequired):
		return http.StatusBadRequest, "invalid_request_body"
	case errors.Is(err, reservations.ErrNotFound), errors.Is(err, inventory.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, reservations.ErrScheduleConflict):
		return http.StatusConflict, "schedule_conflict"
	case errors.Is(err, reservations.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, uow.ErrConcurrentUpdate):
		return http.StatusConflict, "concurrent_update"
	case errors.Is(err, middleware.ErrIdempotencyKeyReuse):
		return http.StatusConflict, "idempotency_key_reused"
	case errors.Is(err, middleware.ErrIdempotencyInProgress):
		return http.StatusConflict, "idempotency_in_progress"
	case errors.Is(err, reservations.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity, "capacity_exceeded"
	case errors.Is(err, reservations.ErrRoomTypeMismatch):
		return http.StatusUnprocessableEntity, "room_type_mismatch"
	case errors.Is(err, reservations.ErrCheckInInPast):
		return http.StatusUnprocessableEntity, "check_in_in_past"
	case errors.As(err, &storage):
		return http.StatusServiceUnavailable, "storage_error"
	case errors.Is(err, commands.ErrHandlerNotFound), errors.Is(err, queries.ErrHandlerNotFound):
		return http.StatusNotImplemented, "not_implemented"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	body := errorBody{Error: err.Error(), Code: code}
	var validation *middleware.ValidationError
	if errors.As(err, &validation) {
		body.Fields = validation.Fields
	}
	if status >= http.StatusInternalServerError {
		// Driver messages stay in the logs.
		_ = c.Error(err)
		body.Error = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "invalid_request_body"})
}

// parseDate accepts YYYY-MM-DD and tolerates full RFC3339 timestamps.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(daterange.DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("dates must use YYYY-MM-DD")
	}
	return daterange.Day(t), nil
}

func parseDatePtr(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		return nil, errors.New("dates must use YYYY-MM-DD")
	}
	return &t, nil
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
