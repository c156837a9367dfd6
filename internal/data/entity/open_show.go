package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenShow is a general-admission show sold by zone quantity.
type OpenShow struct {
	BaseNoDelete
	Title     string    `db:"title"`
	VenueName string    `db:"venue_name"`
	StartsAt  time.Time `db:"starts_at"`
	IsActive  bool      `db:"is_active"`
	Zones     []*ShowZone
}

type ShowZone struct {
	BaseNoDelete
	OpenShowID uuid.UUID       `db:"open_show_id"`
	Name       string          `db:"name"`
	Price      decimal.Decimal `db:"price"`
	Capacity   int             `db:"capacity"`
	Available  int             `db:"available"`
}

func (o *OpenShow) TotalCapacity() int {
	total := 0
	for _, z := range o.Zones {
		total += z.Capacity
	}
	return total
}

func (o *OpenShow) TotalAvailable() int {
	total := 0
	for _, z := range o.Zones {
		total += z.Available
	}
	return total
}

func (o *OpenShow) Zone(name string) *ShowZone {
	for _, z := range o.Zones {
		if z.Name == name {
			return z
		}
	}
	return nil
}
