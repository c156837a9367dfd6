package entity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SeatType string

const (
	SeatTypePremium  SeatType = "PREMIUM"
	SeatTypeRegular  SeatType = "REGULAR"
	SeatTypeEconomy  SeatType = "ECONOMY"
	SeatTypeRecliner SeatType = "RECLINER"
	SeatTypeVIP      SeatType = "VIP"
)

func (t SeatType) Valid() bool {
	switch t {
	case SeatTypePremium, SeatTypeRegular, SeatTypeEconomy, SeatTypeRecliner, SeatTypeVIP:
		return true
	}
	return false
}

type Seat struct {
	BaseNoDelete
	ShowID      uuid.UUID       `db:"show_id"`
	RowLabel    string          `db:"row_label"`   // A, B, ... AA
	SeatNumber  int             `db:"seat_number"` // per-row, skips blocked slots; -position when blocked
	Position    int             `db:"position"`    // 1-based column in the row
	SeatType    SeatType        `db:"seat_type"`
	Price       decimal.Decimal `db:"price"`
	IsAvailable bool            `db:"is_available"`
	IsBlocked   bool            `db:"is_blocked"`
}

// Label is the customer-facing seat name, e.g. "C7". Blocked seats have none.
func (s *Seat) Label() string {
	if s.IsBlocked {
		return ""
	}
	return fmt.Sprintf("%s%d", s.RowLabel, s.SeatNumber)
}

func (s *Seat) Bookable() bool {
	return s.IsAvailable && !s.IsBlocked
}
