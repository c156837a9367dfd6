package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/gateway"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGateway struct {
	mu         sync.Mutex
	secret     string
	hookSecret string
	orders     int
}

func (g *stubGateway) CreateOrder(_ context.Context, amount decimal.Decimal, currency, reference string) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders++
	return &gateway.Order{ID: "order_" + reference, Amount: amount, Currency: currency, Receipt: reference}, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(g.secret, orderID, paymentID, signature)
}

func (g *stubGateway) VerifyWebhook(payload []byte, signature string) bool {
	return gateway.VerifyWebhookSignature(g.hookSecret, payload, signature)
}

type fixture struct {
	store    *memStore
	config   *utils.Config
	svc      *Service
	gateway  *stubGateway
	notifier *recordingNotifier
	user     entity.User
}

func testConfig() *utils.Config {
	return &utils.Config{
		Booking: utils.BookingConfig{
			ReferencePrefix:    "BK",
			MaxSeatsPerBooking: 10,
			SweepInterval:      10 * time.Millisecond,
			GraceWindow:        5 * time.Minute,
			SweepBatchSize:     100,
			SweepLockKey:       "ticket-booking:sweeper",
		},
		Payment: utils.PaymentConfig{
			KeyID:            "rzp_test",
			KeySecret:        "payment-secret",
			WebhookSecret:    "webhook-secret",
			Currency:         "INR",
			RevalidateAmount: true,
		},
		Ticket: utils.TicketConfig{Secret: "ticket-secret", Issuer: "test"},
	}
}

func newFixture(t *testing.T, tweak ...func(*utils.Config)) *fixture {
	t.Helper()

	config := testConfig()
	for _, fn := range tweak {
		fn(config)
	}

	store := newMemStore()
	f := &fixture{
		store:    store,
		config:   config,
		gateway:  &stubGateway{secret: config.Payment.KeySecret, hookSecret: config.Payment.WebhookSecret},
		notifier: &recordingNotifier{},
	}

	qr := gateway.NewQRReceiptGenerator(config.Ticket)
	f.svc = NewService(store.repository(), config, Gateways{
		Payment:  f.gateway,
		Notifier: f.notifier,
		Receipts: qr,
		Tickets:  qr,
	}, nil, zap.NewNop())
	f.user = store.addUser(true)

	return f
}

func (f *fixture) book(t *testing.T, showID uuid.UUID, labels ...string) (string, uuid.UUID) {
	t.Helper()
	resp, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID:     showID.String(),
		SeatLabels: labels,
	})
	require.NoError(t, err)
	return resp.Reference, uuid.MustParse(resp.ID)
}

func seatByLabel(seats []entity.Seat, label string) entity.Seat {
	for _, s := range seats {
		if s.Label() == label {
			return s
		}
	}
	return entity.Seat{}
}

func TestCreateBooking_TwoSeatsAtHundred(t *testing.T) {
	f := newFixture(t)
	show, seats := f.store.addShow(1, 10, decimal.NewFromInt(100))

	resp, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID:     show.ID.String(),
		SeatLabels: []string{"a1", "A2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "200.00", resp.TotalAmount)
	assert.Equal(t, string(entity.BookingStatusPending), resp.Status)
	assert.Equal(t, string(entity.PaymentStatusPending), resp.PaymentStatus)
	assert.Equal(t, 2, resp.TotalQuantity)
	assert.Equal(t, "Grand Hall", resp.Venue)
	assert.Regexp(t, `^BK-\d{8}-[2-9A-HJ-NP-Z]{10}$`, resp.Reference)
	require.Len(t, resp.Seats, 2)
	assert.Equal(t, "A1", resp.Seats[0].Label)
	assert.Equal(t, "A2", resp.Seats[1].Label)
	assert.NotEmpty(t, resp.ReceiptQR)
	assert.NotNil(t, resp.ExpiresAt)

	assert.False(t, f.store.seat(seatByLabel(seats, "A1").ID).IsAvailable)
	assert.False(t, f.store.seat(seatByLabel(seats, "A2").ID).IsAvailable)
	assert.True(t, f.store.seat(seatByLabel(seats, "A3").ID).IsAvailable)
	assert.Equal(t, 8, f.store.show(show.ID).AvailableSeats)
	assert.Equal(t, 1, f.notifier.count())

	unavailable, held := f.store.unavailableMatchesHeld(show.ID)
	assert.Equal(t, unavailable, held)
}

func TestCreateBooking_BySeatIDs(t *testing.T) {
	f := newFixture(t)
	show, seats := f.store.addShow(2, 5, decimal.NewFromInt(80))
	b3 := seatByLabel(seats, "B3")

	resp, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID:  show.ID.String(),
		SeatIDs: []string{b3.ID.String()},
	})
	require.NoError(t, err)
	require.Len(t, resp.Seats, 1)
	assert.Equal(t, "B3", resp.Seats[0].Label)
	assert.Equal(t, "80.00", resp.TotalAmount)
}

func TestCreateBooking_NoPartialHold(t *testing.T) {
	f := newFixture(t)
	show, seats := f.store.addShow(1, 5, decimal.NewFromInt(100))
	f.book(t, show.ID, "A2")

	_, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID:     show.ID.String(),
		SeatLabels: []string{"A1", "A2"},
	})
	require.ErrorIs(t, err, entity.ErrSeatUnavailable)

	var conflict *entity.SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"A2"}, conflict.Labels)

	assert.True(t, f.store.seat(seatByLabel(seats, "A1").ID).IsAvailable)
	assert.Equal(t, 4, f.store.show(show.ID).AvailableSeats)
	assert.Equal(t, 1, f.store.bookingCount())
}

func TestCreateBooking_ConcurrentSameSeat(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 5, decimal.NewFromInt(100))

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
				ShowID:     show.ID.String(),
				SeatLabels: []string{"A1"},
			})
		}(i)
	}
	close(start)
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, entity.ErrSeatUnavailable)
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, f.store.bookingCount())
	assert.Equal(t, 4, f.store.show(show.ID).AvailableSeats)
}

func TestCreateBooking_NonOverlappingBothSucceed(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 5, decimal.NewFromInt(100))

	f.book(t, show.ID, "A1")
	f.book(t, show.ID, "A2")

	assert.Equal(t, 3, f.store.show(show.ID).AvailableSeats)
}

func TestCreateBooking_RollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	show, seats := f.store.addShow(1, 5, decimal.NewFromInt(100))
	f.store.failOn("BookingSeat.CreateBatch", errors.New("connection reset"))

	_, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID:     show.ID.String(),
		SeatLabels: []string{"A1", "A2"},
	})
	require.Error(t, err)

	assert.True(t, f.store.seat(seatByLabel(seats, "A1").ID).IsAvailable)
	assert.True(t, f.store.seat(seatByLabel(seats, "A2").ID).IsAvailable)
	assert.Equal(t, 5, f.store.show(show.ID).AvailableSeats)
	assert.Equal(t, 0, f.store.bookingCount())
	assert.Equal(t, 0, f.store.seatLinks())
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	show, seats := f.store.addShow(1, 5, decimal.NewFromInt(100))
	open := f.store.addOpenShow(map[string]int{"General": 10}, decimal.NewFromInt(50))

	tests := []struct {
		name string
		req  request.CreateBookingRequest
	}{
		{"no target", request.CreateBookingRequest{SeatLabels: []string{"A1"}}},
		{"both targets", request.CreateBookingRequest{ShowID: show.ID.String(), OpenShowID: open.ID.String(), SeatLabels: []string{"A1"}}},
		{"no seats", request.CreateBookingRequest{ShowID: show.ID.String()}},
		{"ids and labels", request.CreateBookingRequest{ShowID: show.ID.String(), SeatIDs: []string{seats[0].ID.String()}, SeatLabels: []string{"A2"}}},
		{"duplicate labels", request.CreateBookingRequest{ShowID: show.ID.String(), SeatLabels: []string{"A1", "a1"}}},
		{"malformed label", request.CreateBookingRequest{ShowID: show.ID.String(), SeatLabels: []string{"1A"}}},
		{"malformed show id", request.CreateBookingRequest{ShowID: "nope", SeatLabels: []string{"A1"}}},
		{"zones on seated", request.CreateBookingRequest{ShowID: show.ID.String(), SeatLabels: []string{"A1"}, Zones: []request.ZoneRequest{{Zone: "General", Quantity: 1}}}},
		{"zero quantity", request.CreateBookingRequest{OpenShowID: open.ID.String(), Zones: []request.ZoneRequest{{Zone: "General", Quantity: 0}}}},
		{"no zones", request.CreateBookingRequest{OpenShowID: open.ID.String()}},
		{"too many tickets", request.CreateBookingRequest{OpenShowID: open.ID.String(), Zones: []request.ZoneRequest{{Zone: "General", Quantity: 11}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &req)
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}

	assert.Equal(t, 0, f.store.bookingCount())
	assert.Equal(t, 5, f.store.show(show.ID).AvailableSeats)
}

func TestCreateBooking_NotFound(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 5, decimal.NewFromInt(100))
	inactive := f.store.addUser(false)

	_, err := f.svc.Booking.CreateBooking(context.Background(), uuid.New(), &request.CreateBookingRequest{
		ShowID: show.ID.String(), SeatLabels: []string{"A1"},
	})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = f.svc.Booking.CreateBooking(context.Background(), inactive.ID, &request.CreateBookingRequest{
		ShowID: show.ID.String(), SeatLabels: []string{"A1"},
	})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID: uuid.NewString(), SeatLabels: []string{"A1"},
	})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID: show.ID.String(), SeatLabels: []string{"A1", "A9"},
	})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID: show.ID.String(), SeatIDs: []string{uuid.NewString()},
	})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	assert.Equal(t, 5, f.store.show(show.ID).AvailableSeats)
}

func TestCreateBooking_InactiveShow(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 5, decimal.NewFromInt(100))
	show.IsActive = false
	require.NoError(t, f.store.repository().Show.Create(context.Background(), &show))

	_, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID: show.ID.String(), SeatLabels: []string{"A1"},
	})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestCreateBooking_BlockedSeatIsUnavailable(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 1, decimal.NewFromInt(100))

	_, err := f.svc.Seat.GenerateSeats(context.Background(), show.ID, &request.GenerateSeatsRequest{
		RowCount: 1, SeatsPerRow: 4, BlockedLabels: []string{"A2"},
	})
	require.NoError(t, err)

	grid, err := f.svc.Seat.ListSeats(context.Background(), show.ID)
	require.NoError(t, err)
	var blockedID string
	for _, s := range grid.Seats {
		if s.IsBlocked {
			blockedID = s.ID
		}
	}
	require.NotEmpty(t, blockedID)

	_, err = f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID: show.ID.String(), SeatIDs: []string{blockedID},
	})
	assert.ErrorIs(t, err, entity.ErrSeatUnavailable)
}

func TestCreateBooking_PriceFrozenAfterRepricing(t *testing.T) {
	f := newFixture(t)
	show, seats := f.store.addShow(1, 5, decimal.NewFromInt(200))
	_, bookingID := f.book(t, show.ID, "A1")

	_, err := f.svc.Seat.UpdatePricing(context.Background(), show.ID, &request.UpdatePricingRequest{
		BasePrice: decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	booking, err := f.svc.Booking.GetBooking(context.Background(), bookingID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "200.00", booking.TotalAmount)
	assert.Equal(t, "200.00", booking.Seats[0].Price)

	assert.True(t, f.store.seat(seatByLabel(seats, "A1").ID).Price.Equal(decimal.NewFromInt(200)))
	assert.True(t, f.store.seat(seatByLabel(seats, "A2").ID).Price.Equal(decimal.NewFromInt(300)))

	next, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID: show.ID.String(), SeatLabels: []string{"A2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "300.00", next.TotalAmount)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	show, seats := f.store.addShow(1, 5, decimal.NewFromInt(100))
	_, bookingID := f.book(t, show.ID, "A1", "A2")
	stranger := f.store.addUser(true)

	_, err := f.svc.Booking.CancelBooking(context.Background(), bookingID, stranger.ID)
	require.ErrorIs(t, err, entity.ErrForbidden)
	assert.Equal(t, 3, f.store.show(show.ID).AvailableSeats)

	resp, err := f.svc.Booking.CancelBooking(context.Background(), bookingID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusCancelled), resp.Status)
	assert.Equal(t, string(entity.PaymentStatusFailed), resp.PaymentStatus)
	assert.True(t, f.store.seat(seatByLabel(seats, "A1").ID).IsAvailable)
	assert.True(t, f.store.seat(seatByLabel(seats, "A2").ID).IsAvailable)
	assert.Equal(t, 5, f.store.show(show.ID).AvailableSeats)

	_, err = f.svc.Booking.CancelBooking(context.Background(), bookingID, f.user.ID)
	assert.ErrorIs(t, err, entity.ErrAlreadyCancelled)
	assert.Equal(t, 5, f.store.show(show.ID).AvailableSeats)

	_, err = f.svc.Booking.CancelBooking(context.Background(), uuid.New(), f.user.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestRelease_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	show, seats := f.store.addShow(1, 5, decimal.NewFromInt(100))
	_, bookingID := f.book(t, show.ID, "A1")

	inv := newInventory(f.store.repository(), false, zap.NewNop())
	booking := f.store.booking(bookingID)
	alloc, err := inv.load(context.Background(), &booking)
	require.NoError(t, err)

	require.NoError(t, alloc.release(context.Background(), inv))
	require.NoError(t, alloc.release(context.Background(), inv))

	assert.True(t, f.store.seat(seatByLabel(seats, "A1").ID).IsAvailable)
	assert.Equal(t, 5, f.store.show(show.ID).AvailableSeats)
}

func TestRelease_OverflowIsInvariantViolation(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 5, decimal.NewFromInt(100))
	_, bookingID := f.book(t, show.ID, "A1")
	booking := f.store.booking(bookingID)

	// counter drifted back to full while the seat is still held
	require.NoError(t, f.store.repository().Show.ResetCapacity(context.Background(), show.ID, 5))

	strict := newInventory(f.store.repository(), false, zap.NewNop())
	alloc, err := strict.load(context.Background(), &booking)
	require.NoError(t, err)
	assert.ErrorIs(t, alloc.release(context.Background(), strict), entity.ErrInvariantViolation)

	_, err = f.store.repository().Seat.MarkUnavailable(context.Background(), show.ID, []uuid.UUID{alloc.(*seatAllocation).lines[0].SeatID})
	require.NoError(t, err)

	lenient := newInventory(f.store.repository(), true, zap.NewNop())
	require.NoError(t, alloc.release(context.Background(), lenient))
	assert.Equal(t, 5, f.store.show(show.ID).AvailableSeats)
}

func TestZoneBooking(t *testing.T) {
	f := newFixture(t)
	open := f.store.addOpenShow(map[string]int{"General": 5, "VIP": 2}, decimal.NewFromInt(50))

	_, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		OpenShowID: open.ID.String(),
		Zones:      []request.ZoneRequest{{Zone: "General", Quantity: 3}, {Zone: "VIP", Quantity: 3}},
	})
	require.ErrorIs(t, err, entity.ErrInsufficientCapacity)
	var conflict *entity.ZoneConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"VIP"}, conflict.Zones)
	assert.Equal(t, 5, f.store.zone(open.ID, "General").Available)

	_, err = f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		OpenShowID: open.ID.String(),
		Zones:      []request.ZoneRequest{{Zone: "Balcony", Quantity: 1}},
	})
	require.ErrorIs(t, err, entity.ErrNotFound)

	resp, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		OpenShowID: open.ID.String(),
		Zones:      []request.ZoneRequest{{Zone: "General", Quantity: 3}, {Zone: "VIP", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingKindOpen), resp.Kind)
	assert.Equal(t, 5, resp.TotalQuantity)
	assert.Equal(t, "250.00", resp.TotalAmount)
	require.Len(t, resp.Zones, 2)
	assert.Equal(t, "150.00", resp.Zones[0].Subtotal)
	assert.Equal(t, 2, f.store.zone(open.ID, "General").Available)
	assert.Equal(t, 0, f.store.zone(open.ID, "VIP").Available)

	_, err = f.svc.Booking.CancelBooking(context.Background(), uuid.MustParse(resp.ID), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.store.zone(open.ID, "General").Available)
	assert.Equal(t, 2, f.store.zone(open.ID, "VIP").Available)

	view, err := f.svc.Seat.GetOpenShow(context.Background(), open.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, view.TotalCapacity)
	assert.Equal(t, 7, view.TotalAvailable)
}

func TestCreateBooking_BestEffortCollaborators(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 5, decimal.NewFromInt(100))

	f.notifier.err = errors.New("broker down")
	svc := f.svc.Booking.(*bookingService)
	svc.receipts = failingReceipts{}

	resp, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID: show.ID.String(), SeatLabels: []string{"A1"},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.ReceiptQR)
	assert.Equal(t, string(entity.BookingStatusPending), resp.Status)
}

func TestGetBookingByReferenceAndList(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 5, decimal.NewFromInt(100))
	reference, _ := f.book(t, show.ID, "A1")
	f.book(t, show.ID, "A2")
	f.book(t, show.ID, "A3")

	got, err := f.svc.Booking.GetBookingByReference(context.Background(), reference, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, reference, got.Reference)

	_, err = f.svc.Booking.GetBookingByReference(context.Background(), reference, uuid.New())
	assert.ErrorIs(t, err, entity.ErrForbidden)

	page, err := f.svc.Booking.GetUserBookings(context.Background(), f.user.ID, &request.PaginatedRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestVerifyTicket(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 5, decimal.NewFromInt(100))
	_, bookingID := f.book(t, show.ID, "A1")

	booking := f.store.booking(bookingID)
	pass, err := gateway.NewQRReceiptGenerator(f.config.Ticket).Pass(gateway.TicketData{
		BookingID: booking.ID,
		Reference: booking.Reference,
		UserID:    booking.UserID,
		ShowID:    show.ID,
		Items:     []string{"A1"},
		StartsAt:  time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	resp, err := f.svc.Booking.VerifyTicket(context.Background(), pass)
	require.NoError(t, err)
	assert.False(t, resp.Admit, "pending bookings are not admitted")

	_, err = f.svc.Booking.VerifyTicket(context.Background(), pass+"x")
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func zoneRequest(openShowID, zone string, quantity int) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		OpenShowID: openShowID,
		Zones:      []request.ZoneRequest{{Zone: zone, Quantity: quantity}},
	}
}

func uuidOf(t *testing.T, raw string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(raw)
	require.NoError(t, err)
	return id
}

// scriptedRefs hands out refs in order and repeats the last one.
func scriptedRefs(refs ...string) (func(string, time.Time) string, *int) {
	calls := 0
	return func(string, time.Time) string {
		ref := refs[min(calls, len(refs)-1)]
		calls++
		return ref
	}, &calls
}

func TestCreateBooking_RegeneratesCollidingReference(t *testing.T) {
	f := newFixture(t)
	show, _ := f.store.addShow(1, 5, decimal.NewFromInt(100))
	svc := f.svc.Booking.(*bookingService)

	svc.nextRef, _ = scriptedRefs("BK-20261018-AAAAAAAAAA")
	first, _ := f.book(t, show.ID, "A1")
	require.Equal(t, "BK-20261018-AAAAAAAAAA", first)

	var calls *int
	svc.nextRef, calls = scriptedRefs("BK-20261018-AAAAAAAAAA", "BK-20261018-AAAAAAAAAA", "BK-20261018-BBBBBBBBBB")
	second, _ := f.book(t, show.ID, "A2")

	assert.Equal(t, "BK-20261018-BBBBBBBBBB", second)
	assert.Equal(t, 3, *calls)
}

func TestCreateBooking_ReferenceAttemptsExhausted(t *testing.T) {
	f := newFixture(t)
	show, seats := f.store.addShow(1, 5, decimal.NewFromInt(100))
	svc := f.svc.Booking.(*bookingService)

	svc.nextRef, _ = scriptedRefs("BK-20261018-AAAAAAAAAA")
	f.book(t, show.ID, "A1")

	var calls *int
	svc.nextRef, calls = scriptedRefs("BK-20261018-AAAAAAAAAA")
	_, err := f.svc.Booking.CreateBooking(context.Background(), f.user.ID, &request.CreateBookingRequest{
		ShowID:     show.ID.String(),
		SeatLabels: []string{"A2"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no free booking reference after 5 attempts")
	assert.Equal(t, maxReferenceAttempts, *calls)

	// the reservation made before the reference lookup rolled back
	assert.True(t, f.store.seat(seatByLabel(seats, "A2").ID).IsAvailable)
	assert.Equal(t, 4, f.store.show(show.ID).AvailableSeats)
}
