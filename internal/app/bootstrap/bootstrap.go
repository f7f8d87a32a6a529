// Package bootstrap registers every command and query handler on the buses
// and wraps them in the middleware pipeline. Storage drivers and transports
// are chosen by the caller.
package bootstrap

import (
	"log/slog"

	"hotelops/internal/app/clock"
	"hotelops/internal/app/commands"
	availabilityapp "hotelops/internal/app/handlers/availability"
	dashboardapp "hotelops/internal/app/handlers/dashboard"
	inventoryapp "hotelops/internal/app/handlers/inventory"
	reservationsapp "hotelops/internal/app/handlers/reservations"
	"hotelops/internal/app/middleware"
	"hotelops/internal/app/outbox"
	"hotelops/internal/app/queries"
	"hotelops/internal/app/uow"
)

type Deps struct {
	UoW         uow.UoWFactory
	Idempotency middleware.IdempotencyStore
	// Flusher is optional; without it committed events wait for the next poll.
	Flusher outbox.Flusher
	Clock   clock.Clock
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

type Buses struct {
	Commands    commands.Bus
	Queries     queries.Bus
	// Registered keys, for startup logs and wiring tests.
	CommandKeys []string
	QueryKeys   []string
}

func Build(d Deps) Buses {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Encoder == nil {
		d.Encoder = outbox.JSONEventEncoder{}
	}
	d.Clock = clock.OrSystem(d.Clock)

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, reservationsapp.AdmitReservationCommand{}.Key(), &reservationsapp.AdmitReservationHandler{
		UoWFactory: d.UoW,
		Clock:      d.Clock,
		Encoder:    d.Encoder,
	})
	commands.RegisterHandler(commandBus, reservationsapp.AmendReservationCommand{}.Key(), &reservationsapp.AmendReservationHandler{
		UoWFactory: d.UoW,
		Clock:      d.Clock,
		Encoder:    d.Encoder,
	})
	commands.RegisterHandler(commandBus, reservationsapp.DeleteReservationCommand{}.Key(), &reservationsapp.DeleteReservationHandler{
		UoWFactory: d.UoW,
		Clock:      d.Clock,
		Encoder:    d.Encoder,
	})
	commands.RegisterHandler(commandBus, inventoryapp.UpdateRoomStatusCommand{}.Key(), &inventoryapp.UpdateRoomStatusHandler{
		UoWFactory: d.UoW,
		Clock:      d.Clock,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.FindAvailableQuery{}.Key(), &availabilityapp.FindAvailableHandler{UoWFactory: d.UoW})
	queries.RegisterHandler(queryBus, availabilityapp.GetRoomCalendarQuery{}.Key(), &availabilityapp.GetRoomCalendarHandler{UoWFactory: d.UoW})
	queries.RegisterHandler(queryBus, reservationsapp.GetReservationQuery{}.Key(), &reservationsapp.GetReservationHandler{UoWFactory: d.UoW})
	queries.RegisterHandler(queryBus, reservationsapp.ListReservationsQuery{}.Key(), &reservationsapp.ListReservationsHandler{UoWFactory: d.UoW})
	queries.RegisterHandler(queryBus, dashboardapp.StatsQuery{}.Key(), &dashboardapp.StatsHandler{UoWFactory: d.UoW, Clock: d.Clock})

	validator := middleware.NewStructValidator()
	commandMWs := []middleware.CommandMiddleware{
		middleware.Logging(d.Logger),
		middleware.Validation(validator),
	}
	if d.Idempotency != nil {
		commandMWs = append(commandMWs, middleware.Idempotency(d.Idempotency, nil, d.Logger))
	}
	if d.Flusher != nil {
		commandMWs = append(commandMWs, middleware.OutboxFlush(d.Flusher, d.Logger))
	}
	commandMWs = append(commandMWs, middleware.Transaction(d.UoW, nil))

	d.Logger.Debug("buses ready", "commands", commandBus.Keys(), "queries", queryBus.Keys())
	return Buses{
		CommandKeys: commandBus.Keys(),
		QueryKeys:   queryBus.Keys(),
		Commands:    middleware.ChainCommands(commandBus, commandMWs...),
		Queries:     middleware.ChainQueries(queryBus,
			middleware.QueryLogging(d.Logger),
			middleware.QueryValidation(validator),
			middleware.ReadOnlyQueries(d.UoW),
		),
	}
}
