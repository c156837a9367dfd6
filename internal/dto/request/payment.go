package request

import "github.com/shopspring/decimal"

// VerifyPaymentRequest is the provider checkout callback payload.
type VerifyPaymentRequest struct {
	OrderID   string           `json:"razorpay_order_id" validate:"required,max=100"`
	PaymentID string           `json:"razorpay_payment_id" validate:"required,max=100"`
	Signature string           `json:"razorpay_signature" validate:"required,max=255"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

type FailPaymentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// PaymentWebhookRequest is the part of a Razorpay webhook event the
// service reads.
type PaymentWebhookRequest struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorCode        string `json:"error_code"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
