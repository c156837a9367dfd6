package response

type PaymentOrderResponse struct {
	BookingID string `json:"booking_id"`
	Reference string `json:"reference"`
	OrderID   string `json:"order_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	KeyID     string `json:"key_id"`
}

type PaymentResponse struct {
	BookingID     string `json:"booking_id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PaymentID     string `json:"payment_id,omitempty"`
}

type SweepResponse struct {
	Expired int `json:"expired"`
}
