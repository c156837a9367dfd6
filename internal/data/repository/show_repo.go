package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ShowRepository interface {
	Create(ctx context.Context, show *entity.Show) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error)
	UpdatePricing(ctx context.Context, id uuid.UUID, basePrice decimal.Decimal, tiers map[entity.SeatType]decimal.Decimal) error

	// Capacity counter
	DecrementAvailable(ctx context.Context, id uuid.UUID, n int) error
	IncrementAvailable(ctx context.Context, id uuid.UUID, n int) error
	ClampAvailable(ctx context.Context, id uuid.UUID) error
	ResetCapacity(ctx context.Context, id uuid.UUID, total int) error
}

type showRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewShowRepository(db database.PgxIface, log *zap.Logger) ShowRepository {
	return &showRepository{
		db:  db,
		log: log.With(zap.String("repository", "show")),
	}
}

func (r *showRepository) Create(ctx context.Context, show *entity.Show) error {
	tiers, err := json.Marshal(show.PricingTiers)
	if err != nil {
		return fmt.Errorf("encode pricing tiers: %w", err)
	}

	query := `
		INSERT INTO shows (id, screen_id, title, starts_at, base_price, pricing_tiers,
		                   total_seats, available_seats, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::jsonb, $7, $8, $9, $10, $11)
	`

	_, err = database.Conn(ctx, r.db).Exec(ctx, query,
		show.ID,
		show.ScreenID,
		show.Title,
		show.StartsAt,
		show.BasePrice.String(),
		string(tiers),
		show.TotalSeats,
		show.AvailableSeats,
		show.IsActive,
		show.CreatedAt,
		show.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create show",
			zap.Error(err),
			zap.String("show_id", show.ID.String()),
		)
		return fmt.Errorf("create show %s: %w", show.ID, err)
	}

	return nil
}

func (r *showRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error) {
	query := `
		SELECT id, screen_id, title, starts_at, base_price::text, pricing_tiers,
		       total_seats, available_seats, is_active, created_at, updated_at
		FROM shows
		WHERE id = $1
	`

	var show entity.Show
	var tiers []byte
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&show.ID,
		&show.ScreenID,
		&show.Title,
		&show.StartsAt,
		&show.BasePrice,
		&tiers,
		&show.TotalSeats,
		&show.AvailableSeats,
		&show.IsActive,
		&show.CreatedAt,
		&show.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find show by ID",
			zap.Error(err),
			zap.String("show_id", id.String()),
		)
		return nil, fmt.Errorf("find show by ID %s: %w", id, err)
	}

	if len(tiers) > 0 {
		if err := json.Unmarshal(tiers, &show.PricingTiers); err != nil {
			return nil, fmt.Errorf("decode pricing tiers for show %s: %w", id, err)
		}
	}

	return &show, nil
}

func (r *showRepository) UpdatePricing(ctx context.Context, id uuid.UUID, basePrice decimal.Decimal, tiers map[entity.SeatType]decimal.Decimal) error {
	encoded, err := json.Marshal(tiers)
	if err != nil {
		return fmt.Errorf("encode pricing tiers: %w", err)
	}

	query := `
		UPDATE shows
		SET base_price = $2::numeric, pricing_tiers = $3::jsonb, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, basePrice.String(), string(encoded))
	if err != nil {
		r.log.Error("Failed to update show pricing",
			zap.Error(err),
			zap.String("show_id", id.String()),
		)
		return fmt.Errorf("update pricing for show %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("show %s: %w", id, entity.ErrNotFound)
	}

	return nil
}

// DecrementAvailable fails with ErrInsufficientCapacity instead of going negative.
func (r *showRepository) DecrementAvailable(ctx context.Context, id uuid.UUID, n int) error {
	query := `
		UPDATE shows
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1 AND available_seats >= $2
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, n)
	if err != nil {
		r.log.Error("Failed to decrement show capacity",
			zap.Error(err),
			zap.String("show_id", id.String()),
			zap.Int("n", n),
		)
		return wrapStoreErr(fmt.Sprintf("decrement capacity for show %s", id), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("show %s: %w", id, entity.ErrInsufficientCapacity)
	}

	return nil
}

// IncrementAvailable never exceeds total_seats; an overflow is reported
// as ErrInvariantViolation and leaves the counter untouched.
func (r *showRepository) IncrementAvailable(ctx context.Context, id uuid.UUID, n int) error {
	query := `
		UPDATE shows
		SET available_seats = available_seats + $2, updated_at = NOW()
		WHERE id = $1 AND available_seats + $2 <= total_seats
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, n)
	if err != nil {
		r.log.Error("Failed to increment show capacity",
			zap.Error(err),
			zap.String("show_id", id.String()),
			zap.Int("n", n),
		)
		return wrapStoreErr(fmt.Sprintf("increment capacity for show %s", id), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("show %s: increment by %d exceeds total: %w", id, n, entity.ErrInvariantViolation)
	}

	return nil
}

func (r *showRepository) ClampAvailable(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shows SET available_seats = total_seats, updated_at = NOW() WHERE id = $1`

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, id); err != nil {
		r.log.Error("Failed to clamp show capacity",
			zap.Error(err),
			zap.String("show_id", id.String()),
		)
		return wrapStoreErr(fmt.Sprintf("clamp capacity for show %s", id), err)
	}

	return nil
}

func (r *showRepository) ResetCapacity(ctx context.Context, id uuid.UUID, total int) error {
	query := `
		UPDATE shows
		SET total_seats = $2, available_seats = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, total)
	if err != nil {
		r.log.Error("Failed to reset show capacity",
			zap.Error(err),
			zap.String("show_id", id.String()),
			zap.Int("total", total),
		)
		return wrapStoreErr(fmt.Sprintf("reset capacity for show %s", id), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("show %s: %w", id, entity.ErrNotFound)
	}

	return nil
}
