package response

import "time"

type SeatResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label,omitempty"`
	Row         string `json:"row"`
	Number      int    `json:"number"`
	Position    int    `json:"position"`
	SeatType    string `json:"seat_type"`
	Price       string `json:"price"`
	IsAvailable bool   `json:"is_available"`
	IsBlocked   bool   `json:"is_blocked"`
}

type SeatMapResponse struct {
	ShowID         string         `json:"show_id"`
	Title          string         `json:"title"`
	StartsAt       time.Time      `json:"starts_at"`
	TotalSeats     int            `json:"total_seats"`
	AvailableSeats int            `json:"available_seats"`
	Seats          []SeatResponse `json:"seats"`
}

type AvailabilityResponse struct {
	ShowID           string `json:"show_id"`
	TotalSeats       int    `json:"total_seats"`
	AvailableSeats   int    `json:"available_seats"`
	CountedAvailable int    `json:"counted_available"`
	HeldSeats        int    `json:"held_seats"`
	Consistent       bool   `json:"consistent"`
}

type GenerateSeatsResponse struct {
	ShowID       string `json:"show_id"`
	SeatCount    int    `json:"seat_count"`
	BlockedCount int    `json:"blocked_count"`
}

type PricingResponse struct {
	ShowID        string `json:"show_id"`
	BasePrice     string `json:"base_price"`
	RepricedSeats int64  `json:"repriced_seats"`
}

type ZoneResponse struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	Capacity  int    `json:"capacity"`
	Available int    `json:"available"`
}

type OpenShowResponse struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Venue          string         `json:"venue"`
	StartsAt       time.Time      `json:"starts_at"`
	IsActive       bool           `json:"is_active"`
	TotalCapacity  int            `json:"total_capacity"`
	TotalAvailable int            `json:"total_available"`
	Zones          []ZoneResponse `json:"zones"`
}

type TicketVerifyResponse struct {
	BookingID string   `json:"booking_id"`
	Reference string   `json:"reference"`
	ShowID    string   `json:"show_id"`
	Items     []string `json:"items"`
	Status    string   `json:"status"`
	Admit     bool     `json:"admit"`
}
