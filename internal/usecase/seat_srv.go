package usecase

import (
	"context"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SeatService interface {
	// Public endpoints
	ListSeats(ctx context.Context, showID uuid.UUID) (*response.SeatMapResponse, error)
	Availability(ctx context.Context, showID uuid.UUID) (*response.AvailabilityResponse, error)
	GetOpenShow(ctx context.Context, openShowID uuid.UUID) (*response.OpenShowResponse, error)

	// Admin endpoints
	GenerateSeats(ctx context.Context, showID uuid.UUID, req *request.GenerateSeatsRequest) (*response.GenerateSeatsResponse, error)
	UpdatePricing(ctx context.Context, showID uuid.UUID, req *request.UpdatePricingRequest) (*response.PricingResponse, error)
}

type seatService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewSeatService(repo *repository.Repository, log *zap.Logger) SeatService {
	return &seatService{
		repo: repo,
		log:  log.With(zap.String("service", "seat")),
		now:  time.Now,
	}
}

func (s *seatService) findShow(ctx context.Context, showID uuid.UUID) (*entity.Show, error) {
	show, err := s.repo.Show.FindByID(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("find show: %w", err)
	}
	if show == nil {
		return nil, fmt.Errorf("show %s: %w", showID, entity.ErrNotFound)
	}
	return show, nil
}

func (s *seatService) ListSeats(ctx context.Context, showID uuid.UUID) (*response.SeatMapResponse, error) {
	show, err := s.findShow(ctx, showID)
	if err != nil {
		return nil, err
	}

	seats, err := s.repo.Seat.FindByShowID(ctx, showID)
	if err != nil {
		s.log.Error("Failed to list seats", zap.Error(err), zap.String("show_id", showID.String()))
		return nil, fmt.Errorf("list seats: %w", err)
	}

	return &response.SeatMapResponse{
		ShowID:         show.ID.String(),
		Title:          show.Title,
		StartsAt:       show.StartsAt,
		TotalSeats:     show.TotalSeats,
		AvailableSeats: show.AvailableSeats,
		Seats:          lo.Map(seats, func(seat *entity.Seat, _ int) response.SeatResponse { return toSeatResponse(seat) }),
	}, nil
}

// Availability compares the O(1) counter with a full count of the seat
// rows. A mismatch is reported and logged as an invariant violation.
func (s *seatService) Availability(ctx context.Context, showID uuid.UUID) (*response.AvailabilityResponse, error) {
	show, err := s.findShow(ctx, showID)
	if err != nil {
		return nil, err
	}

	counted, err := s.repo.Seat.CountAvailable(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("count available seats: %w", err)
	}

	held, err := s.repo.BookingSeat.CountHeldByShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("count held seats: %w", err)
	}

	resp := &response.AvailabilityResponse{
		ShowID:           show.ID.String(),
		TotalSeats:       show.TotalSeats,
		AvailableSeats:   show.AvailableSeats,
		CountedAvailable: counted,
		HeldSeats:        held,
		Consistent:       show.AvailableSeats == counted && show.TotalSeats-counted == held,
	}

	if !resp.Consistent {
		s.log.Error("Seat inventory drift detected",
			zap.Error(entity.ErrInvariantViolation),
			zap.String("show_id", showID.String()),
			zap.Int("total", show.TotalSeats),
			zap.Int("counter", show.AvailableSeats),
			zap.Int("counted", counted),
			zap.Int("held", held),
		)
	}

	return resp, nil
}

func (s *seatService) GetOpenShow(ctx context.Context, openShowID uuid.UUID) (*response.OpenShowResponse, error) {
	show, err := s.repo.OpenShow.FindByID(ctx, openShowID)
	if err != nil {
		return nil, fmt.Errorf("find open show: %w", err)
	}
	if show == nil {
		return nil, fmt.Errorf("open show %s: %w", openShowID, entity.ErrNotFound)
	}

	return &response.OpenShowResponse{
		ID:             show.ID.String(),
		Title:          show.Title,
		Venue:          show.VenueName,
		StartsAt:       show.StartsAt,
		IsActive:       show.IsActive,
		TotalCapacity:  show.TotalCapacity(),
		TotalAvailable: show.TotalAvailable(),
		Zones: lo.Map(show.Zones, func(z *entity.ShowZone, _ int) response.ZoneResponse {
			return response.ZoneResponse{
				Name:      z.Name,
				Price:     utils.FormatMoney(z.Price),
				Capacity:  z.Capacity,
				Available: z.Available,
			}
		}),
	}, nil
}

func (s *seatService) GenerateSeats(ctx context.Context, showID uuid.UUID, req *request.GenerateSeatsRequest) (*response.GenerateSeatsResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Generate seats validation failed", zap.Any("errors", errs))
		return nil, &entity.ValidationError{Fields: errs}
	}
	if !req.UsesScreenMap() && (req.RowCount == 0 || req.SeatsPerRow == 0) {
		return nil, entity.NewValidationError("row_count", "Provide both row_count and seats_per_row, or neither")
	}

	var seats []*entity.Seat
	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		show, err := s.findShow(ctx, showID)
		if err != nil {
			return err
		}

		booked, err := s.repo.Booking.ExistsForShow(ctx, showID)
		if err != nil {
			return fmt.Errorf("check bookings: %w", err)
		}
		if booked {
			return fmt.Errorf("show %s: %w", showID, entity.ErrAlreadyBooked)
		}

		layout, err := s.layoutFor(ctx, show, req)
		if err != nil {
			return err
		}

		if seats, err = BuildSeatGrid(show, layout, s.now()); err != nil {
			return err
		}

		if _, err := s.repo.Seat.DeleteByShowID(ctx, showID); err != nil {
			return fmt.Errorf("delete seats: %w", err)
		}
		if err := s.repo.Seat.CreateBatch(ctx, seats); err != nil {
			return fmt.Errorf("create seats: %w", err)
		}

		bookable := lo.CountBy(seats, func(seat *entity.Seat) bool { return !seat.IsBlocked })
		return s.repo.Show.ResetCapacity(ctx, showID, bookable)
	})
	if err != nil {
		s.log.Warn("Generate seats failed", zap.Error(err), zap.String("show_id", showID.String()))
		return nil, err
	}

	blocked := lo.CountBy(seats, func(seat *entity.Seat) bool { return seat.IsBlocked })
	s.log.Info("Seats generated",
		zap.String("show_id", showID.String()),
		zap.Int("seats", len(seats)-blocked),
		zap.Int("blocked", blocked),
	)

	return &response.GenerateSeatsResponse{
		ShowID:       showID.String(),
		SeatCount:    len(seats) - blocked,
		BlockedCount: blocked,
	}, nil
}

// layoutFor uses the request dimensions, or the screen seat map when omitted.
func (s *seatService) layoutFor(ctx context.Context, show *entity.Show, req *request.GenerateSeatsRequest) (SeatLayout, error) {
	if !req.UsesScreenMap() {
		return SeatLayout{
			RowCount:      req.RowCount,
			SeatsPerRow:   req.SeatsPerRow,
			BlockedLabels: req.BlockedLabels,
			RowTiers: lo.MapValues(req.RowTiers, func(tier string, _ string) entity.SeatType {
				return entity.SeatType(tier)
			}),
		}, nil
	}

	screen, err := s.repo.Screen.FindByID(ctx, show.ScreenID)
	if err != nil {
		return SeatLayout{}, fmt.Errorf("find screen: %w", err)
	}
	if screen == nil {
		return SeatLayout{}, fmt.Errorf("screen %s: %w", show.ScreenID, entity.ErrNotFound)
	}

	return SeatLayout{
		RowCount:      screen.RowCount,
		SeatsPerRow:   screen.SeatsPerRow,
		BlockedLabels: screen.BlockedLabels,
		RowTiers:      screen.RowTiers,
	}, nil
}

// SeatLayout is the grid shape for one show.
type SeatLayout struct {
	RowCount      int
	SeatsPerRow   int
	BlockedLabels []string // row + position, e.g. "C4"
	RowTiers      map[string]entity.SeatType
}

// BuildSeatGrid lays out rows A, B, ... by ordinal. Seat numbers restart
// at 1 in every row and skip blocked positions, so only (row, number)
// identifies a seat. Blocked positions are stored unavailable with
// number -position.
func BuildSeatGrid(show *entity.Show, layout SeatLayout, now time.Time) ([]*entity.Seat, error) {
	if layout.RowCount < 1 || layout.SeatsPerRow < 1 {
		return nil, entity.NewValidationError("row_count", "Seat map needs at least one row and one seat per row")
	}

	blocked := make(map[string]bool, len(layout.BlockedLabels))
	for _, label := range layout.BlockedLabels {
		row, position, ok := utils.SplitSeatLabel(label)
		if !ok {
			return nil, entity.NewValidationError("blocked_labels", fmt.Sprintf("invalid label %q", label))
		}
		if position > layout.SeatsPerRow || !rowInRange(row, layout.RowCount) {
			return nil, entity.NewValidationError("blocked_labels", fmt.Sprintf("%s is outside the seat map", label))
		}
		blocked[fmt.Sprintf("%s%d", row, position)] = true
	}

	seats := make([]*entity.Seat, 0, layout.RowCount*layout.SeatsPerRow)
	for r := 0; r < layout.RowCount; r++ {
		row := utils.RowLabel(r)
		tier, ok := layout.RowTiers[row]
		if !ok || !tier.Valid() {
			tier = entity.SeatTypeRegular
		}
		price := show.PriceFor(tier)

		number := 0
		for position := 1; position <= layout.SeatsPerRow; position++ {
			seat := &entity.Seat{
				BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
				ShowID:       show.ID,
				RowLabel:     row,
				Position:     position,
				SeatType:     tier,
				Price:        price,
			}

			if blocked[fmt.Sprintf("%s%d", row, position)] {
				seat.SeatNumber = -position
				seat.IsBlocked = true
			} else {
				number++
				seat.SeatNumber = number
				seat.IsAvailable = true
			}

			seats = append(seats, seat)
		}
	}

	return seats, nil
}

func rowInRange(row string, rowCount int) bool {
	for r := 0; r < rowCount; r++ {
		if utils.RowLabel(r) == row {
			return true
		}
	}
	return false
}

// UpdatePricing reprices seats still on sale. Booked seats and the
// prices frozen on their bookings are left alone.
func (s *seatService) UpdatePricing(ctx context.Context, showID uuid.UUID, req *request.UpdatePricingRequest) (*response.PricingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, &entity.ValidationError{Fields: errs}
	}
	if req.BasePrice.IsNegative() {
		return nil, entity.NewValidationError("base_price", "Must not be negative")
	}

	tiers := make(map[entity.SeatType]decimal.Decimal, len(req.Tiers))
	for name, price := range req.Tiers {
		tier := entity.SeatType(name)
		if !tier.Valid() {
			return nil, entity.NewValidationError("tiers", fmt.Sprintf("unknown seat type %q", name))
		}
		if price.IsNegative() {
			return nil, entity.NewValidationError("tiers", fmt.Sprintf("%s price must not be negative", name))
		}
		tiers[tier] = price
	}

	var repriced int64
	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Show.UpdatePricing(ctx, showID, req.BasePrice, tiers); err != nil {
			return err
		}

		var err error
		repriced, err = s.repo.Seat.RepriceAvailable(ctx, showID, req.BasePrice, tiers)
		return err
	})
	if err != nil {
		s.log.Warn("Update pricing failed", zap.Error(err), zap.String("show_id", showID.String()))
		return nil, err
	}

	s.log.Info("Show repriced",
		zap.String("show_id", showID.String()),
		zap.String("base_price", req.BasePrice.String()),
		zap.Int64("seats", repriced),
	)

	return &response.PricingResponse{
		ShowID:        showID.String(),
		BasePrice:     utils.FormatMoney(req.BasePrice),
		RepricedSeats: repriced,
	}, nil
}

func toSeatResponse(seat *entity.Seat) response.SeatResponse {
	return response.SeatResponse{
		ID:          seat.ID.String(),
		Label:       seat.Label(),
		Row:         seat.RowLabel,
		Number:      seat.SeatNumber,
		Position:    seat.Position,
		SeatType:    string(seat.SeatType),
		Price:       utils.FormatMoney(seat.Price),
		IsAvailable: seat.IsAvailable,
		IsBlocked:   seat.IsBlocked,
	}
}
