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
	"go.uber.org/zap"
)

type ScreenRepository interface {
	Create(ctx context.Context, screen *entity.Screen) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Screen, error)
}

type screenRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewScreenRepository(db database.PgxIface, log *zap.Logger) ScreenRepository {
	return &screenRepository{
		db:  db,
		log: log.With(zap.String("repository", "screen")),
	}
}

func (r *screenRepository) Create(ctx context.Context, screen *entity.Screen) error {
	tiers, err := json.Marshal(screen.RowTiers)
	if err != nil {
		return fmt.Errorf("encode row tiers: %w", err)
	}

	blocked := screen.BlockedLabels
	if blocked == nil {
		blocked = []string{}
	}

	query := `
		INSERT INTO screens (id, venue_name, name, row_count, seats_per_row, blocked_labels, row_tiers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
	`

	_, err = database.Conn(ctx, r.db).Exec(ctx, query,
		screen.ID,
		screen.VenueName,
		screen.Name,
		screen.RowCount,
		screen.SeatsPerRow,
		blocked,
		string(tiers),
		screen.CreatedAt,
		screen.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create screen",
			zap.Error(err),
			zap.String("screen_id", screen.ID.String()),
		)
		return fmt.Errorf("create screen %s: %w", screen.ID, err)
	}

	return nil
}

func (r *screenRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Screen, error) {
	query := `
		SELECT id, venue_name, name, row_count, seats_per_row, blocked_labels, row_tiers, created_at, updated_at
		FROM screens
		WHERE id = $1
	`

	var screen entity.Screen
	var tiers []byte
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&screen.ID,
		&screen.VenueName,
		&screen.Name,
		&screen.RowCount,
		&screen.SeatsPerRow,
		&screen.BlockedLabels,
		&tiers,
		&screen.CreatedAt,
		&screen.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find screen by ID",
			zap.Error(err),
			zap.String("screen_id", id.String()),
		)
		return nil, fmt.Errorf("find screen by ID %s: %w", id, err)
	}

	if len(tiers) > 0 {
		if err := json.Unmarshal(tiers, &screen.RowTiers); err != nil {
			return nil, fmt.Errorf("decode row tiers for screen %s: %w", id, err)
		}
	}

	return &screen, nil
}
