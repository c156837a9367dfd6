package request

import "github.com/shopspring/decimal"

// GenerateSeatsRequest falls back to the screen seat map when
// row_count and seats_per_row are omitted.
type GenerateSeatsRequest struct {
	RowCount      int               `json:"row_count" validate:"omitempty,min=1,max=52"`
	SeatsPerRow   int               `json:"seats_per_row" validate:"omitempty,min=1,max=100"`
	BlockedLabels []string          `json:"blocked_labels" validate:"omitempty,unique,dive,seatlabel"`
	RowTiers      map[string]string `json:"row_tiers" validate:"omitempty,dive,keys,required,max=3,endkeys,oneof=PREMIUM REGULAR ECONOMY RECLINER VIP"`
}

func (r *GenerateSeatsRequest) UsesScreenMap() bool {
	return r.RowCount == 0 && r.SeatsPerRow == 0
}

type UpdatePricingRequest struct {
	BasePrice decimal.Decimal            `json:"base_price"`
	Tiers     map[string]decimal.Decimal `json:"tiers" validate:"omitempty,dive,keys,oneof=PREMIUM REGULAR ECONOMY RECLINER VIP,endkeys"`
}
