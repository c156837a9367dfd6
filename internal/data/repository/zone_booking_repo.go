package repository

import (
	"context"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ZoneBookingRepository interface {
	CreateBatch(ctx context.Context, items []*entity.ZoneBooking) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.ZoneBooking, error)
}

type zoneBookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewZoneBookingRepository(db database.PgxIface, log *zap.Logger) ZoneBookingRepository {
	return &zoneBookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "zone_booking")),
	}
}

func (r *zoneBookingRepository) CreateBatch(ctx context.Context, items []*entity.ZoneBooking) error {
	conn := database.Conn(ctx, r.db)

	query := `
		INSERT INTO booking_zones (id, booking_id, zone_id, zone_name, quantity, price_per_ticket, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
	`

	for _, it := range items {
		_, err := conn.Exec(ctx, query,
			it.ID,
			it.BookingID,
			it.ZoneID,
			it.ZoneName,
			it.Quantity,
			it.PricePerTicket.String(),
			it.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create zone booking",
				zap.Error(err),
				zap.String("booking_id", it.BookingID.String()),
				zap.String("zone", it.ZoneName),
			)
			return wrapStoreErr(fmt.Sprintf("create zone booking %s", it.ZoneName), err)
		}
	}

	return nil
}

func (r *zoneBookingRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.ZoneBooking, error) {
	query := `
		SELECT id, booking_id, zone_id, zone_name, quantity, price_per_ticket::text, created_at
		FROM booking_zones
		WHERE booking_id = $1
		ORDER BY zone_name
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find zone bookings",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find zone bookings for %s: %w", bookingID, err)
	}
	defer rows.Close()

	var items []*entity.ZoneBooking
	for rows.Next() {
		var z entity.ZoneBooking
		if err := rows.Scan(
			&z.ID,
			&z.BookingID,
			&z.ZoneID,
			&z.ZoneName,
			&z.Quantity,
			&z.PricePerTicket,
			&z.CreatedAt,
		); err != nil {
			r.log.Error("Failed to scan zone booking row", zap.Error(err))
			return nil, fmt.Errorf("scan zone booking row: %w", err)
		}
		items = append(items, &z)
	}

	return items, rows.Err()
}
