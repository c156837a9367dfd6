package repository

import (
	"context"

	"ticket-booking/pkg/database"

	"go.uber.org/zap"
)

// Transactor runs fn as one atomic unit. Repositories called with the
// ctx passed to fn join that unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repository struct {
	Tx          Transactor
	User        UserRepository
	Session     SessionRepository
	Screen      ScreenRepository
	Show        ShowRepository
	OpenShow    OpenShowRepository
	Seat        SeatRepository
	Booking     BookingRepository
	BookingSeat BookingSeatRepository
	ZoneBooking ZoneBookingRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Tx:          NewTransactor(db),
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		Screen:      NewScreenRepository(db, log),
		Show:        NewShowRepository(db, log),
		OpenShow:    NewOpenShowRepository(db, log),
		Seat:        NewSeatRepository(db, log),
		Booking:     NewBookingRepository(db, log),
		BookingSeat: NewBookingSeatRepository(db, log),
		ZoneBooking: NewZoneBookingRepository(db, log),
	}
}

type pgTransactor struct {
	db database.PgxIface
}

func NewTransactor(db database.PgxIface) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, t.db, fn)
}
