package request

type CreateBookingRequest struct {
	// Seated show: show_id with seat_ids or seat_labels
	ShowID     string   `json:"show_id" validate:"omitempty,uuid"`
	SeatIDs    []string `json:"seat_ids" validate:"omitempty,max=50,unique,dive,uuid"`
	SeatLabels []string `json:"seat_labels" validate:"omitempty,max=50,unique,dive,seatlabel"`

	// Open-capacity show: open_show_id with zones
	OpenShowID string        `json:"open_show_id" validate:"omitempty,uuid"`
	Zones      []ZoneRequest `json:"zones" validate:"omitempty,max=10,unique=Zone,dive"`
}

type ZoneRequest struct {
	Zone     string `json:"zone" validate:"required,max=50"`
	Quantity int    `json:"quantity" validate:"required,gt=0,max=50"`
}

func (r *CreateBookingRequest) IsSeated() bool {
	return r.ShowID != ""
}
