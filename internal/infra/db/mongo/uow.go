package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	appoutbox "hotelops/internal/app/outbox"
	"hotelops/internal/app/uow"
	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/reservations"
)

var (
	ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")
	ErrReadOnly                = errors.New("mongo: unit of work is read-only")
)

// Factory wires Mongo session transactions into the UnitOfWork interface.
// Room and room type guards bump a lock_seq counter inside the transaction, so
// two writers guarding the same document collide with a write conflict.
type Factory struct {
	DB *mongo.Database
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, uow.Storage("start session", err)
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, uow.Storage("start transaction", err)
	}
	return &Unit{db: f.DB, session: session, readOnly: opts.ReadOnly}, nil
}

type Unit struct {
	db       *mongo.Database
	session  mongo.Session
	readOnly bool
	done     bool
}

func (u *Unit) Inventory() inventory.View         { return unitInventory{u: u} }
func (u *Unit) Reservations() reservations.Ledger { return unitLedger{u: u} }
func (u *Unit) Guests() uow.GuestDirectory        { return unitGuests{u: u} }
func (u *Unit) Outbox() appoutbox.Outbox          { return unitOutbox{u: u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return fmt.Errorf("%w: %v", uow.ErrConcurrentUpdate, err)
		}
		return uow.Storage("commit", err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	if err := u.session.AbortTransaction(ctx); err != nil {
		return uow.Storage("abort", err)
	}
	return nil
}

// InjectContext makes the session available to code that talks to the
// driver directly with the request context.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

// sc binds ctx to the unit's session whatever ctx the caller passed.
func (u *Unit) sc(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

func (u *Unit) writable() error {
	if u.readOnly {
		return ErrReadOnly
	}
	if u.done {
		return errors.New("mongo: unit of work already finished")
	}
	return nil
}

func (u *Unit) col(name string) *mongo.Collection {
	return u.db.Collection(name)
}

// storage maps driver errors: write conflicts become ErrConcurrentUpdate, the
// rest StorageError.
func storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if isWriteConflict(err) {
		return fmt.Errorf("%w: %s: %v", uow.ErrConcurrentUpdate, op, err)
	}
	return uow.Storage(op, err)
}

type unitGuests struct{ u *Unit }

func (g unitGuests) Exists(ctx context.Context, id reservations.GuestID) (bool, error) {
	n, err := g.u.col(guestsCollection).CountDocuments(g.u.sc(ctx), bson.M{"_id": int64(id)})
	if err != nil {
		return false, storage("guest exists", err)
	}
	return n > 0, nil
}

var _ uow.UoWFactory = Factory{}
