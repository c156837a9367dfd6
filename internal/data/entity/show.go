package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Show struct {
	BaseNoDelete
	ScreenID       uuid.UUID                    `db:"screen_id"`
	Title          string                       `db:"title"`
	StartsAt       time.Time                    `db:"starts_at"`
	BasePrice      decimal.Decimal              `db:"base_price"`
	PricingTiers   map[SeatType]decimal.Decimal `db:"pricing_tiers"`
	TotalSeats     int                          `db:"total_seats"`
	AvailableSeats int                          `db:"available_seats"`
	IsActive       bool                         `db:"is_active"`
}

// PriceFor returns the tier price, or the base price for unpriced tiers.
func (s *Show) PriceFor(tier SeatType) decimal.Decimal {
	if p, ok := s.PricingTiers[tier]; ok {
		return p
	}
	return s.BasePrice
}

type Screen struct {
	BaseNoDelete
	VenueName     string              `db:"venue_name"`
	Name          string              `db:"name"`
	RowCount      int                 `db:"row_count"`
	SeatsPerRow   int                 `db:"seats_per_row"`
	BlockedLabels []string            `db:"blocked_labels"` // row label + position, e.g. "A5"
	RowTiers      map[string]SeatType `db:"row_tiers"`
}
