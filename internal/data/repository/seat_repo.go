package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.Seat, error)
	FindByLabels(ctx context.Context, showID uuid.UUID, rows []string, numbers []int) ([]*entity.Seat, error)
	CountAvailable(ctx context.Context, showID uuid.UUID) (int, error)
	DeleteByShowID(ctx context.Context, showID uuid.UUID) (int64, error)

	// Reservation primitives, meant to run inside a transaction
	LockByIDs(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Seat, error)
	MarkUnavailable(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]uuid.UUID, error)
	MarkAvailable(ctx context.Context, seatIDs []uuid.UUID) (int64, error)
	RepriceAvailable(ctx context.Context, showID uuid.UUID, basePrice decimal.Decimal, tiers map[entity.SeatType]decimal.Decimal) (int64, error)
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

const seatColumns = `id, show_id, row_label, seat_number, position, seat_type, price::text,
		       is_available, is_blocked, created_at, updated_at`

func scanSeat(row pgx.Row) (*entity.Seat, error) {
	var seat entity.Seat
	err := row.Scan(
		&seat.ID,
		&seat.ShowID,
		&seat.RowLabel,
		&seat.SeatNumber,
		&seat.Position,
		&seat.SeatType,
		&seat.Price,
		&seat.IsAvailable,
		&seat.IsBlocked,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepository) collect(rows pgx.Rows) ([]*entity.Seat, error) {
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seat rows: %w", err)
	}

	return seats, nil
}

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	n := len(seats)
	ids := make([]uuid.UUID, n)
	rowLabels := make([]string, n)
	numbers := make([]int32, n)
	positions := make([]int32, n)
	types := make([]string, n)
	prices := make([]string, n)
	available := make([]bool, n)
	blocked := make([]bool, n)
	for i, s := range seats {
		ids[i] = s.ID
		rowLabels[i] = s.RowLabel
		numbers[i] = int32(s.SeatNumber)
		positions[i] = int32(s.Position)
		types[i] = string(s.SeatType)
		prices[i] = s.Price.String()
		available[i] = s.IsAvailable
		blocked[i] = s.IsBlocked
	}

	query := `
		INSERT INTO seats (id, show_id, row_label, seat_number, position, seat_type, price,
		                   is_available, is_blocked, created_at, updated_at)
		SELECT u.id, $1, u.row_label, u.seat_number, u.position, u.seat_type, u.price::numeric,
		       u.is_available, u.is_blocked, NOW(), NOW()
		FROM unnest($2::uuid[], $3::text[], $4::int[], $5::int[], $6::text[], $7::text[], $8::bool[], $9::bool[])
		     AS u(id, row_label, seat_number, position, seat_type, price, is_available, is_blocked)
	`

	showID := seats[0].ShowID
	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		showID, ids, rowLabels, numbers, positions, types, prices, available, blocked)
	if err != nil {
		r.log.Error("Failed to create seats",
			zap.Error(err),
			zap.String("show_id", showID.String()),
			zap.Int("count", n),
		)
		return wrapStoreErr(fmt.Sprintf("create %d seats for show %s", n, showID), err)
	}

	return nil
}

func (r *seatRepository) FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE show_id = $1
		ORDER BY length(row_label), row_label, position
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, showID)
	if err != nil {
		r.log.Error("Failed to list seats",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return nil, fmt.Errorf("list seats for show %s: %w", showID, err)
	}

	return r.collect(rows)
}

func (r *seatRepository) FindByLabels(ctx context.Context, showID uuid.UUID, rowLabels []string, numbers []int) ([]*entity.Seat, error) {
	nums := make([]int32, len(numbers))
	for i, n := range numbers {
		nums[i] = int32(n)
	}

	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE show_id = $1
		  AND (row_label, seat_number) IN (SELECT * FROM unnest($2::text[], $3::int[]))
		  AND NOT is_blocked
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, showID, rowLabels, nums)
	if err != nil {
		r.log.Error("Failed to find seats by label",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return nil, fmt.Errorf("find seats by label for show %s: %w", showID, err)
	}

	return r.collect(rows)
}

func (r *seatRepository) CountAvailable(ctx context.Context, showID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM seats WHERE show_id = $1 AND is_available AND NOT is_blocked`

	var count int
	if err := database.Conn(ctx, r.db).QueryRow(ctx, query, showID).Scan(&count); err != nil {
		r.log.Error("Failed to count available seats",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return 0, fmt.Errorf("count available seats for show %s: %w", showID, err)
	}

	return count, nil
}

func (r *seatRepository) DeleteByShowID(ctx context.Context, showID uuid.UUID) (int64, error) {
	tag, err := database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM seats WHERE show_id = $1`, showID)
	if err != nil {
		r.log.Error("Failed to delete seats",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return 0, wrapStoreErr(fmt.Sprintf("delete seats for show %s", showID), err)
	}

	return tag.RowsAffected(), nil
}

// LockByIDs takes row locks in id order so concurrent reservations
// over overlapping sets cannot deadlock.
func (r *seatRepository) LockByIDs(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE show_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, showID, seatIDs)
	if err != nil {
		r.log.Error("Failed to lock seats",
			zap.Error(err),
			zap.String("show_id", showID.String()),
			zap.Int("count", len(seatIDs)),
		)
		return nil, wrapStoreErr(fmt.Sprintf("lock seats for show %s", showID), err)
	}

	return r.collect(rows)
}

// MarkUnavailable flips only seats that are currently bookable and
// returns the ids it actually flipped.
func (r *seatRepository) MarkUnavailable(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]uuid.UUID, error) {
	query := `
		UPDATE seats
		SET is_available = FALSE, updated_at = NOW()
		WHERE show_id = $1 AND id = ANY($2) AND is_available AND NOT is_blocked
		RETURNING id
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, showID, seatIDs)
	if err != nil {
		r.log.Error("Failed to reserve seats",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return nil, wrapStoreErr(fmt.Sprintf("reserve seats for show %s", showID), err)
	}

	flipped, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("reserve seats for show %s", showID), err)
	}

	return flipped, nil
}

// MarkAvailable is idempotent; seats already available are left alone.
func (r *seatRepository) MarkAvailable(ctx context.Context, seatIDs []uuid.UUID) (int64, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE seats
		SET is_available = TRUE, updated_at = NOW()
		WHERE id = ANY($1) AND NOT is_available AND NOT is_blocked
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, seatIDs)
	if err != nil {
		r.log.Error("Failed to release seats",
			zap.Error(err),
			zap.Int("count", len(seatIDs)),
		)
		return 0, wrapStoreErr("release seats", err)
	}

	return tag.RowsAffected(), nil
}

func (r *seatRepository) RepriceAvailable(ctx context.Context, showID uuid.UUID, basePrice decimal.Decimal, tiers map[entity.SeatType]decimal.Decimal) (int64, error) {
	tierJSON, err := json.Marshal(tiers)
	if err != nil {
		return 0, fmt.Errorf("encode pricing tiers: %w", err)
	}

	query := `
		UPDATE seats
		SET price = COALESCE(($3::jsonb ->> seat_type)::numeric, $2::numeric), updated_at = NOW()
		WHERE show_id = $1 AND is_available AND NOT is_blocked
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, showID, basePrice.String(), string(tierJSON))
	if err != nil {
		r.log.Error("Failed to reprice seats",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return 0, wrapStoreErr(fmt.Sprintf("reprice seats for show %s", showID), err)
	}

	return tag.RowsAffected(), nil
}
