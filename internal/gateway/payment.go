package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ticket-booking/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Order struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// PaymentGateway is the external payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, reference string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	VerifyWebhook(payload []byte, signature string) bool
}

// RazorpayGateway talks to the Razorpay orders API and checks
// checkout signatures with the account key secret.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	hookKey   string
	baseURL   string
	hc        *http.Client
	log       *zap.Logger
}

func NewRazorpayGateway(config utils.PaymentConfig, log *zap.Logger) *RazorpayGateway {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RazorpayGateway{
		keyID:     config.KeyID,
		keySecret: config.KeySecret,
		hookKey:   config.WebhookSecret,
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		hc:        &http.Client{Timeout: timeout},
		log:       log.With(zap.String("gateway", "razorpay")),
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder sends the amount in minor units (paise).
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, reference string) (*Order, error) {
	minor := amount.Shift(2).Round(0).IntPart()

	body, err := json.Marshal(createOrderRequest{Amount: minor, Currency: currency, Receipt: reference})
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.hc.Do(req)
	if err != nil {
		g.log.Error("Create order request failed", zap.Error(err), zap.String("reference", reference))
		return nil, fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		g.log.Error("Create order rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", msg),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("create order: provider returned %d", resp.StatusCode)
	}

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	return &Order{
		ID:       out.ID,
		Amount:   decimal.New(out.Amount, -2),
		Currency: out.Currency,
		Receipt:  out.Receipt,
	}, nil
}

func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(g.keySecret, orderID, paymentID, signature)
}

// VerifyWebhook checks the X-Razorpay-Signature of a raw webhook body.
func (g *RazorpayGateway) VerifyWebhook(payload []byte, signature string) bool {
	return VerifyWebhookSignature(g.hookKey, payload, signature)
}

// Sign computes hex(HMAC-SHA256(orderID|paymentID, secret)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time. An empty secret never verifies.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// SignWebhook computes hex(HMAC-SHA256(payload, secret)).
func SignWebhook(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifyWebhookSignature(secret string, payload []byte, signature string) bool {
	if secret == "" || len(payload) == 0 || signature == "" {
		return false
	}
	expected := SignWebhook(secret, payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
