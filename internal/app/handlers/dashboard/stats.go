package dashboard

import (
	"context"
	"time"

	"hotelops/internal/app/clock"
	"hotelops/internal/app/dto"
	"hotelops/internal/app/queries"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
	"hotelops/internal/domain/shared/daterange"
)

const statsKey = "dashboard.stats"

// StatsQuery asks for the front desk summary of one day; zero Today means now.
type StatsQuery struct {
	Today time.Time
}

func (q StatsQuery) Key() string { return statsKey }

type StatsHandler struct {
	UoWFactory uow.UoWFactory
	Clock      clock.Clock
}

func (h *StatsHandler) Handle(ctx context.Context, q StatsQuery) (dto.DashboardStats, error) {
	today := q.Today
	if today.IsZero() {
		today = clock.OrSystem(h.Clock).Now()
	}
	today = daterange.Day(today)

	unit, ctx, scope, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.DashboardStats{}, err
	}
	defer scope.End(ctx)

	rooms, err := unit.Inventory().Rooms(ctx, inventory.RoomFilter{})
	if err != nil {
		return dto.DashboardStats{}, err
	}
	types, err := unit.Inventory().RoomTypes(ctx)
	if err != nil {
		return dto.DashboardStats{}, err
	}
	items, err := unit.Reservations().List(ctx, reservations.ListFilter{})
	if err != nil {
		return dto.DashboardStats{}, err
	}

	stats := dto.DashboardStats{
		Date:       today.Format(daterange.DateLayout),
		TotalRooms: len(rooms),
		RoomTypes:  make([]dto.RoomTypeCount, 0, len(types)),
	}
	perType := make(map[inventory.RoomTypeID]int, len(types))
	for _, room := range rooms {
		perType[room.TypeID]++
		switch room.Status {
		case inventory.RoomAvailable:
			stats.AvailableRooms++
		case inventory.RoomOccupied:
			stats.OccupiedRooms++
		case inventory.RoomMaintenance:
			stats.MaintenanceRooms++
		case inventory.RoomOutOfOrder:
			stats.OutOfOrderRooms++
		}
	}
	for _, rt := range types {
		stats.RoomTypes = append(stats.RoomTypes, dto.RoomTypeCount{
			RoomTypeID:   int64(rt.ID),
			RoomTypeName: rt.Name,
			Rooms:        perType[rt.ID],
		})
	}
	for _, r := range items {
		if r.Active() {
			stats.ActiveReservations++
		}
		if r.Status == reservations.StatusConfirmed && r.Range.CheckIn.Equal(today) {
			stats.TodayCheckIns++
		}
		if r.Status == reservations.StatusCheckedIn && r.Range.CheckOut.Equal(today) {
			stats.TodayCheckOuts++
		}
	}
	return stats, nil
}

var _ queries.Handler[StatsQuery, dto.DashboardStats] = (*StatsHandler)(nil)
