package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Transition is a compare-and-swap on booking status: it applies only
// while the row is still in From.
type Transition struct {
	BookingID uuid.UUID
	From      entity.BookingStatus
	To        entity.BookingStatus
	Payment   entity.PaymentStatus
	PaymentID *string
	Signature *string
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByReference(ctx context.Context, reference string) (*entity.Booking, error)
	FindByPaymentOrder(ctx context.Context, orderID string) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	ExistsReference(ctx context.Context, reference string) (bool, error)
	ExistsForShow(ctx context.Context, showID uuid.UUID) (bool, error)

	// Lifecycle
	Transition(ctx context.Context, t Transition) (bool, error)
	SetPaymentOrder(ctx context.Context, id uuid.UUID, orderID string) error
	FindExpiredPending(ctx context.Context, cutoff time.Time, exclude []uuid.UUID, limit int) ([]uuid.UUID, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, reference, user_id, kind, show_id, open_show_id, total_quantity, total_amount::text,
		       status, payment_status, payment_order_id, payment_id, payment_signature, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.UserID,
		&booking.Kind,
		&booking.ShowID,
		&booking.OpenShowID,
		&booking.TotalQuantity,
		&booking.TotalAmount,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.PaymentOrderID,
		&booking.PaymentID,
		&booking.PaymentSignature,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, reference, user_id, kind, show_id, open_show_id, total_quantity, total_amount,
		                      status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		booking.Reference,
		booking.UserID,
		booking.Kind,
		booking.ShowID,
		booking.OpenShowID,
		booking.TotalQuantity,
		booking.TotalAmount.String(),
		booking.Status,
		booking.PaymentStatus,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
			zap.String("user_id", booking.UserID.String()),
		)
		return wrapStoreErr(fmt.Sprintf("create booking %s", booking.Reference), err)
	}

	return nil
}

func (r *bookingRepository) findOne(ctx context.Context, where string, arg any) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + where

	booking, err := scanBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return booking, err
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := r.findOne(ctx, "id = $1", id)
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	booking, err := r.findOne(ctx, "reference = $1", reference)
	if err != nil {
		r.log.Error("Failed to find booking by reference",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("find booking by reference %s: %w", reference, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByPaymentOrder(ctx context.Context, orderID string) (*entity.Booking, error) {
	booking, err := r.findOne(ctx, "payment_order_id = $1", orderID)
	if err != nil {
		r.log.Error("Failed to find booking by payment order",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return nil, fmt.Errorf("find booking by payment order %s: %w", orderID, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID, err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID, err)
	}

	return count, nil
}

func (r *bookingRepository) ExistsReference(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := database.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE reference = $1)`, reference).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check booking reference",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return false, fmt.Errorf("check reference %s: %w", reference, err)
	}

	return exists, nil
}

func (r *bookingRepository) ExistsForShow(ctx context.Context, showID uuid.UUID) (bool, error) {
	var exists bool
	err := database.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE show_id = $1)`, showID).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check bookings for show",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return false, fmt.Errorf("check bookings for show %s: %w", showID, err)
	}

	return exists, nil
}

// Transition reports false when the booking is no longer in t.From.
func (r *bookingRepository) Transition(ctx context.Context, t Transition) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $3,
		    payment_status = $4,
		    payment_id = COALESCE($5, payment_id),
		    payment_signature = COALESCE($6, payment_signature),
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query,
		t.BookingID, t.From, t.To, t.Payment, t.PaymentID, t.Signature)
	if err != nil {
		r.log.Error("Failed to transition booking",
			zap.Error(err),
			zap.String("booking_id", t.BookingID.String()),
			zap.String("from", string(t.From)),
			zap.String("to", string(t.To)),
		)
		return false, wrapStoreErr(fmt.Sprintf("transition booking %s", t.BookingID), err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *bookingRepository) SetPaymentOrder(ctx context.Context, id uuid.UUID, orderID string) error {
	query := `
		UPDATE bookings
		SET payment_order_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, orderID)
	if err != nil {
		r.log.Error("Failed to set payment order",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("set payment order for booking %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id, entity.ErrInvalidState)
	}

	return nil
}

// FindExpiredPending uses idx_bookings_payment_sweep. Ids in exclude are
// skipped so a sweep can page past bookings it already tried.
func (r *bookingRepository) FindExpiredPending(ctx context.Context, cutoff time.Time, exclude []uuid.UUID, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM bookings
		WHERE payment_status = 'pending' AND created_at < $1
		  AND id <> ALL(COALESCE($2::uuid[], '{}'))
		ORDER BY created_at
		LIMIT $3
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, cutoff, exclude, limit)
	if err != nil {
		r.log.Error("Failed to find expired bookings",
			zap.Error(err),
			zap.Time("cutoff", cutoff),
		)
		return nil, fmt.Errorf("find expired bookings: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect expired bookings: %w", err)
	}

	return ids, nil
}
