package reservations

import (
	"context"
	"strings"
	"time"

	"hotelops/internal/app/dto"
	"hotelops/internal/app/queries"
	"hotelops/internal/app/uow"
	domainres "hotelops/internal/domain/reservations"
)

const (
	getReservationKey   = "reservations.get"
	listReservationsKey = "reservations.list"
)

// GetReservationQuery accepts either the opaque id or the RES- number.
type GetReservationQuery struct {
	Ref string `validate:"required"`
}

func (q GetReservationQuery) Key() string { return getReservationKey }

type GetReservationHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetReservationHandler) Handle(ctx context.Context, q GetReservationQuery) (dto.ReservationView, error) {
	unit, ctx, scope, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.ReservationView{}, err
	}
	defer scope.End(ctx)

	var r *domainres.Reservation
	if strings.HasPrefix(strings.ToUpper(q.Ref), "RES-") {
		r, err = unit.Reservations().ByNumber(ctx, domainres.Number(strings.ToUpper(q.Ref)))
	} else {
		r, err = unit.Reservations().ByID(ctx, domainres.ID(q.Ref))
	}
	if err != nil {
		return dto.ReservationView{}, err
	}
	return dto.MapReservation(r), nil
}

type ListReservationsQuery struct {
	Status   *domainres.Status
	DateFrom time.Time
	DateTo   time.Time
	Limit    int `validate:"gte=0,lte=500"`
}

func (q ListReservationsQuery) Key() string { return listReservationsKey }

type ListReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListReservationsHandler) Handle(ctx context.Context, q ListReservationsQuery) (dto.ReservationCollection, error) {
	unit, ctx, scope, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	defer scope.End(ctx)

	items, err := unit.Reservations().List(ctx, domainres.ListFilter{
		Status:   q.Status,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Limit:    q.Limit,
	})
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	return dto.MapReservations(items), nil
}

var (
	_ queries.Handler[GetReservationQuery, dto.ReservationView]         = (*GetReservationHandler)(nil)
	_ queries.Handler[ListReservationsQuery, dto.ReservationCollection] = (*ListReservationsHandler)(nil)
)
