package repository

import (
	"context"
	"errors"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type OpenShowRepository interface {
	Create(ctx context.Context, show *entity.OpenShow) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.OpenShow, error)

	// Zone capacity counters
	LockZones(ctx context.Context, openShowID uuid.UUID, names []string) ([]*entity.ShowZone, error)
	DecrementZone(ctx context.Context, zoneID uuid.UUID, n int) error
	IncrementZone(ctx context.Context, zoneID uuid.UUID, n int) error
	ClampZone(ctx context.Context, zoneID uuid.UUID) error
}

type openShowRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOpenShowRepository(db database.PgxIface, log *zap.Logger) OpenShowRepository {
	return &openShowRepository{
		db:  db,
		log: log.With(zap.String("repository", "open_show")),
	}
}

func (r *openShowRepository) Create(ctx context.Context, show *entity.OpenShow) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context) error {
		conn := database.Conn(ctx, r.db)

		_, err := conn.Exec(ctx, `
			INSERT INTO open_shows (id, title, venue_name, starts_at, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, show.ID, show.Title, show.VenueName, show.StartsAt, show.IsActive, show.CreatedAt, show.UpdatedAt)
		if err != nil {
			r.log.Error("Failed to create open show",
				zap.Error(err),
				zap.String("open_show_id", show.ID.String()),
			)
			return fmt.Errorf("create open show %s: %w", show.ID, err)
		}

		for _, z := range show.Zones {
			_, err := conn.Exec(ctx, `
				INSERT INTO show_zones (id, open_show_id, name, price, capacity, available, created_at, updated_at)
				VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
			`, z.ID, show.ID, z.Name, z.Price.String(), z.Capacity, z.Available, z.CreatedAt, z.UpdatedAt)
			if err != nil {
				r.log.Error("Failed to create show zone",
					zap.Error(err),
					zap.String("open_show_id", show.ID.String()),
					zap.String("zone", z.Name),
				)
				return fmt.Errorf("create zone %s: %w", z.Name, err)
			}
		}

		return nil
	})
}

const zoneColumns = `id, open_show_id, name, price::text, capacity, available, created_at, updated_at`

func (r *openShowRepository) scanZones(rows pgx.Rows) ([]*entity.ShowZone, error) {
	defer rows.Close()

	var zones []*entity.ShowZone
	for rows.Next() {
		var z entity.ShowZone
		if err := rows.Scan(
			&z.ID,
			&z.OpenShowID,
			&z.Name,
			&z.Price,
			&z.Capacity,
			&z.Available,
			&z.CreatedAt,
			&z.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to scan zone row", zap.Error(err))
			return nil, fmt.Errorf("scan zone row: %w", err)
		}
		zones = append(zones, &z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zone rows: %w", err)
	}

	return zones, nil
}

func (r *openShowRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.OpenShow, error) {
	conn := database.Conn(ctx, r.db)

	var show entity.OpenShow
	err := conn.QueryRow(ctx, `
		SELECT id, title, venue_name, starts_at, is_active, created_at, updated_at
		FROM open_shows
		WHERE id = $1
	`, id).Scan(
		&show.ID,
		&show.Title,
		&show.VenueName,
		&show.StartsAt,
		&show.IsActive,
		&show.CreatedAt,
		&show.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find open show by ID",
			zap.Error(err),
			zap.String("open_show_id", id.String()),
		)
		return nil, fmt.Errorf("find open show by ID %s: %w", id, err)
	}

	rows, err := conn.Query(ctx, `SELECT `+zoneColumns+` FROM show_zones WHERE open_show_id = $1 ORDER BY name`, id)
	if err != nil {
		r.log.Error("Failed to load show zones",
			zap.Error(err),
			zap.String("open_show_id", id.String()),
		)
		return nil, fmt.Errorf("load zones for open show %s: %w", id, err)
	}

	show.Zones, err = r.scanZones(rows)
	if err != nil {
		return nil, err
	}

	return &show, nil
}

// LockZones locks the named zones in id order.
func (r *openShowRepository) LockZones(ctx context.Context, openShowID uuid.UUID, names []string) ([]*entity.ShowZone, error) {
	query := `
		SELECT ` + zoneColumns + `
		FROM show_zones
		WHERE open_show_id = $1 AND name = ANY($2)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, openShowID, names)
	if err != nil {
		r.log.Error("Failed to lock show zones",
			zap.Error(err),
			zap.String("open_show_id", openShowID.String()),
		)
		return nil, wrapStoreErr(fmt.Sprintf("lock zones for open show %s", openShowID), err)
	}

	return r.scanZones(rows)
}

func (r *openShowRepository) DecrementZone(ctx context.Context, zoneID uuid.UUID, n int) error {
	query := `
		UPDATE show_zones
		SET available = available - $2, updated_at = NOW()
		WHERE id = $1 AND available >= $2
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, zoneID, n)
	if err != nil {
		r.log.Error("Failed to decrement zone capacity",
			zap.Error(err),
			zap.String("zone_id", zoneID.String()),
			zap.Int("n", n),
		)
		return wrapStoreErr(fmt.Sprintf("decrement zone %s", zoneID), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("zone %s: %w", zoneID, entity.ErrInsufficientCapacity)
	}

	return nil
}

func (r *openShowRepository) IncrementZone(ctx context.Context, zoneID uuid.UUID, n int) error {
	query := `
		UPDATE show_zones
		SET available = available + $2, updated_at = NOW()
		WHERE id = $1 AND available + $2 <= capacity
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, zoneID, n)
	if err != nil {
		r.log.Error("Failed to increment zone capacity",
			zap.Error(err),
			zap.String("zone_id", zoneID.String()),
			zap.Int("n", n),
		)
		return wrapStoreErr(fmt.Sprintf("increment zone %s", zoneID), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("zone %s: increment by %d exceeds capacity: %w", zoneID, n, entity.ErrInvariantViolation)
	}

	return nil
}

func (r *openShowRepository) ClampZone(ctx context.Context, zoneID uuid.UUID) error {
	query := `UPDATE show_zones SET available = capacity, updated_at = NOW() WHERE id = $1`

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, zoneID); err != nil {
		r.log.Error("Failed to clamp zone capacity",
			zap.Error(err),
			zap.String("zone_id", zoneID.String()),
		)
		return wrapStoreErr(fmt.Sprintf("clamp zone %s", zoneID), err)
	}

	return nil
}
