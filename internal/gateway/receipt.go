package gateway

import (
	"errors"
	"fmt"
	"time"

	"ticket-booking/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

var ErrInvalidTicket = errors.New("invalid ticket pass")

// TicketData is what goes on a receipt.
type TicketData struct {
	BookingID uuid.UUID
	Reference string
	UserID    uuid.UUID
	ShowID    uuid.UUID
	Items     []string // seat labels or "Zone x3"
	StartsAt  time.Time
}

type TicketClaims struct {
	BookingID uuid.UUID `json:"bid"`
	Reference string    `json:"ref"`
	ShowID    uuid.UUID `json:"sid"`
	Items     []string  `json:"items"`
	jwt.RegisteredClaims
}

// ReceiptGenerator renders a scannable artifact for a booking.
type ReceiptGenerator interface {
	Generate(data TicketData) ([]byte, error)
}

// TicketVerifier checks passes presented at the gate.
type TicketVerifier interface {
	Verify(token string) (*TicketClaims, error)
}

// QRReceiptGenerator encodes a signed ticket pass into a PNG QR code.
type QRReceiptGenerator struct {
	secret   []byte
	issuer   string
	validity time.Duration
	size     int
	now      func() time.Time
}

func NewQRReceiptGenerator(config utils.TicketConfig) *QRReceiptGenerator {
	size := config.QRSize
	if size <= 0 {
		size = 256
	}
	days := config.ValidDays
	if days <= 0 {
		days = 30
	}

	return &QRReceiptGenerator{
		secret:   []byte(config.Secret),
		issuer:   config.Issuer,
		validity: time.Duration(days) * 24 * time.Hour,
		size:     size,
		now:      time.Now,
	}
}

// Pass signs the ticket claims. Passes stay valid until the show has
// started plus the configured validity window.
func (g *QRReceiptGenerator) Pass(data TicketData) (string, error) {
	if len(g.secret) == 0 {
		return "", errors.New("ticket secret not configured")
	}

	now := g.now()
	expires := now.Add(g.validity)
	if !data.StartsAt.IsZero() && data.StartsAt.Add(g.validity).After(expires) {
		expires = data.StartsAt.Add(g.validity)
	}

	claims := TicketClaims{
		BookingID: data.BookingID,
		Reference: data.Reference,
		ShowID:    data.ShowID,
		Items:     data.Items,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   data.UserID.String(),
			ID:        data.Reference,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket pass: %w", err)
	}

	return token, nil
}

func (g *QRReceiptGenerator) Generate(data TicketData) ([]byte, error) {
	token, err := g.Pass(data)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(token, qrcode.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	return png, nil
}

func (g *QRReceiptGenerator) Verify(token string) (*TicketClaims, error) {
	claims := &TicketClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	},
		jwt.WithIssuer(g.issuer),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidTicket
	}

	return claims, nil
}
