package repository

import (
	"context"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookedSeat is a booking line item joined with its seat.
type BookedSeat struct {
	entity.BookingSeat
	RowLabel   string
	SeatNumber int
	SeatType   entity.SeatType
}

func (b *BookedSeat) Label() string {
	return fmt.Sprintf("%s%d", b.RowLabel, b.SeatNumber)
}

type BookingSeatRepository interface {
	CreateBatch(ctx context.Context, items []*entity.BookingSeat) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*BookedSeat, error)
	CountHeldByShow(ctx context.Context, showID uuid.UUID) (int, error)
}

type bookingSeatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingSeatRepository(db database.PgxIface, log *zap.Logger) BookingSeatRepository {
	return &bookingSeatRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking_seat")),
	}
}

func (r *bookingSeatRepository) CreateBatch(ctx context.Context, items []*entity.BookingSeat) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(items))
	seatIDs := make([]uuid.UUID, len(items))
	prices := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
		seatIDs[i] = it.SeatID
		prices[i] = it.SeatPrice.String()
	}

	query := `
		INSERT INTO booking_seats (id, booking_id, seat_id, seat_price, created_at)
		SELECT u.id, $1, u.seat_id, u.seat_price::numeric, NOW()
		FROM unnest($2::uuid[], $3::uuid[], $4::text[]) AS u(id, seat_id, seat_price)
	`

	bookingID := items[0].BookingID
	_, err := database.Conn(ctx, r.db).Exec(ctx, query, bookingID, ids, seatIDs, prices)
	if err != nil {
		r.log.Error("Failed to create booking seats",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.Int("count", len(items)),
		)
		return wrapStoreErr(fmt.Sprintf("create booking seats for %s", bookingID), err)
	}

	return nil
}

func (r *bookingSeatRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*BookedSeat, error) {
	query := `
		SELECT bs.id, bs.booking_id, bs.seat_id, bs.seat_price::text, bs.created_at,
		       s.row_label, s.seat_number, s.seat_type
		FROM booking_seats bs
		JOIN seats s ON s.id = bs.seat_id
		WHERE bs.booking_id = $1
		ORDER BY length(s.row_label), s.row_label, s.position
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find booking seats",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find booking seats for %s: %w", bookingID, err)
	}
	defer rows.Close()

	var seats []*BookedSeat
	for rows.Next() {
		var bs BookedSeat
		if err := rows.Scan(
			&bs.ID,
			&bs.BookingID,
			&bs.SeatID,
			&bs.SeatPrice,
			&bs.CreatedAt,
			&bs.RowLabel,
			&bs.SeatNumber,
			&bs.SeatType,
		); err != nil {
			r.log.Error("Failed to scan booking seat row", zap.Error(err))
			return nil, fmt.Errorf("scan booking seat row: %w", err)
		}
		seats = append(seats, &bs)
	}

	return seats, rows.Err()
}

// CountHeldByShow counts seats linked to bookings that still hold inventory.
func (r *bookingSeatRepository) CountHeldByShow(ctx context.Context, showID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM booking_seats bs
		JOIN bookings b ON b.id = bs.booking_id
		WHERE b.show_id = $1 AND b.status IN ('pending', 'confirmed')
	`

	var count int
	if err := database.Conn(ctx, r.db).QueryRow(ctx, query, showID).Scan(&count); err != nil {
		r.log.Error("Failed to count held seats",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return 0, fmt.Errorf("count held seats for show %s: %w", showID, err)
	}

	return count, nil
}
