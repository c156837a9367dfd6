package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Allocation is the inventory a booking holds: discrete seats on a seated
// show, or zone quantities on an open-capacity show. Both variants share
// the booking lifecycle; only reserve/persist/release differ.
type Allocation interface {
	Kind() entity.BookingKind
	TargetID() uuid.UUID
	Quantity() int
	Total() decimal.Decimal
	Items() []string

	resolve(ctx context.Context, inv *inventory) (*target, error)
	reserve(ctx context.Context, inv *inventory) error
	persist(ctx context.Context, inv *inventory, bookingID uuid.UUID, now time.Time) error
	release(ctx context.Context, inv *inventory) error
}

// target is the show a booking points at, as shown to the customer.
type target struct {
	Title    string
	Venue    string
	StartsAt time.Time
	IsActive bool
}

type seatLine struct {
	SeatID uuid.UUID
	Label  string
	Type   entity.SeatType
	Price  decimal.Decimal
}

type seatAllocation struct {
	showID  uuid.UUID
	seatIDs []uuid.UUID
	labels  []string
	lines   []seatLine
}

func (a *seatAllocation) Kind() entity.BookingKind { return entity.BookingKindSeated }
func (a *seatAllocation) TargetID() uuid.UUID      { return a.showID }

func (a *seatAllocation) Quantity() int {
	if len(a.lines) > 0 {
		return len(a.lines)
	}
	return len(a.seatIDs) + len(a.labels)
}

func (a *seatAllocation) Total() decimal.Decimal {
	return lo.Reduce(a.lines, func(sum decimal.Decimal, l seatLine, _ int) decimal.Decimal {
		return sum.Add(l.Price)
	}, decimal.Zero)
}

func (a *seatAllocation) Items() []string {
	return lo.Map(a.lines, func(l seatLine, _ int) string { return l.Label })
}

func (a *seatAllocation) resolve(ctx context.Context, inv *inventory) (*target, error) {
	show, err := inv.repo.Show.FindByID(ctx, a.showID)
	if err != nil {
		return nil, fmt.Errorf("find show: %w", err)
	}
	if show == nil || !show.IsActive {
		return nil, fmt.Errorf("show %s: %w", a.showID, entity.ErrNotFound)
	}

	t := &target{Title: show.Title, StartsAt: show.StartsAt, IsActive: show.IsActive}
	if screen, err := inv.repo.Screen.FindByID(ctx, show.ScreenID); err == nil && screen != nil {
		t.Venue = screen.VenueName
	}

	if len(a.labels) == 0 {
		return t, nil
	}

	rows := make([]string, len(a.labels))
	numbers := make([]int, len(a.labels))
	for i, label := range a.labels {
		row, number, ok := utils.SplitSeatLabel(label)
		if !ok {
			return nil, entity.NewValidationError("seat_labels", fmt.Sprintf("invalid seat label %q", label))
		}
		rows[i], numbers[i] = row, number
	}

	seats, err := inv.repo.Seat.FindByLabels(ctx, a.showID, rows, numbers)
	if err != nil {
		return nil, fmt.Errorf("find seats by label: %w", err)
	}

	byLabel := lo.KeyBy(seats, func(s *entity.Seat) string { return s.Label() })
	missing := lo.Filter(a.labels, func(label string, _ int) bool {
		_, ok := byLabel[label]
		return !ok
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("seats %s: %w", strings.Join(missing, ", "), entity.ErrNotFound)
	}

	a.seatIDs = lo.Map(a.labels, func(label string, _ int) uuid.UUID { return byLabel[label].ID })
	return t, nil
}

func (a *seatAllocation) reserve(ctx context.Context, inv *inventory) error {
	locked, err := inv.repo.Seat.LockByIDs(ctx, a.showID, a.seatIDs)
	if err != nil {
		return fmt.Errorf("lock seats: %w", err)
	}

	if len(locked) != len(a.seatIDs) {
		found := lo.Map(locked, func(s *entity.Seat, _ int) uuid.UUID { return s.ID })
		missing, _ := lo.Difference(a.seatIDs, found)
		return fmt.Errorf("seats %s: %w", strings.Join(lo.Map(missing, func(id uuid.UUID, _ int) string {
			return id.String()
		}), ", "), entity.ErrNotFound)
	}

	if taken := lo.Filter(locked, func(s *entity.Seat, _ int) bool { return !s.Bookable() }); len(taken) > 0 {
		return &entity.SeatConflictError{Labels: seatLabels(taken)}
	}

	flipped, err := inv.repo.Seat.MarkUnavailable(ctx, a.showID, a.seatIDs)
	if err != nil {
		return fmt.Errorf("mark seats unavailable: %w", err)
	}
	if len(flipped) != len(a.seatIDs) {
		return &entity.SeatConflictError{Labels: seatLabels(lo.Filter(locked, func(s *entity.Seat, _ int) bool {
			return !lo.Contains(flipped, s.ID)
		}))}
	}

	if err := inv.repo.Show.DecrementAvailable(ctx, a.showID, len(a.seatIDs)); err != nil {
		return fmt.Errorf("decrement show capacity: %w", err)
	}

	// keep the caller's ordering; prices are frozen from the locked rows
	byID := lo.KeyBy(locked, func(s *entity.Seat) uuid.UUID { return s.ID })
	a.lines = lo.Map(a.seatIDs, func(id uuid.UUID, _ int) seatLine {
		s := byID[id]
		return seatLine{SeatID: s.ID, Label: s.Label(), Type: s.SeatType, Price: s.Price}
	})

	return nil
}

func (a *seatAllocation) persist(ctx context.Context, inv *inventory, bookingID uuid.UUID, now time.Time) error {
	items := lo.Map(a.lines, func(l seatLine, _ int) *entity.BookingSeat {
		return &entity.BookingSeat{
			BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			BookingID:  bookingID,
			SeatID:     l.SeatID,
			SeatPrice:  l.Price,
		}
	})

	if err := inv.repo.BookingSeat.CreateBatch(ctx, items); err != nil {
		return fmt.Errorf("create booking seats: %w", err)
	}
	return nil
}

// release is idempotent: only seats actually flipped back count
// towards the capacity increment.
func (a *seatAllocation) release(ctx context.Context, inv *inventory) error {
	ids := lo.Map(a.lines, func(l seatLine, _ int) uuid.UUID { return l.SeatID })

	released, err := inv.repo.Seat.MarkAvailable(ctx, ids)
	if err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	if released == 0 {
		return nil
	}

	err = inv.repo.Show.IncrementAvailable(ctx, a.showID, int(released))
	if errors.Is(err, entity.ErrInvariantViolation) && inv.clamp {
		inv.log.Warn("Show capacity overflow on release, clamping",
			zap.String("show_id", a.showID.String()),
			zap.Int64("released", released))
		err = inv.repo.Show.ClampAvailable(ctx, a.showID)
	}
	if err != nil {
		return fmt.Errorf("increment show capacity: %w", err)
	}

	return nil
}

func seatLabels(seats []*entity.Seat) []string {
	labels := lo.Map(seats, func(s *entity.Seat, _ int) string {
		if s.IsBlocked {
			return fmt.Sprintf("%s(pos %d)", s.RowLabel, s.Position)
		}
		return s.Label()
	})
	sort.Strings(labels)
	return labels
}

type zoneLine struct {
	ZoneID   uuid.UUID
	Name     string
	Quantity int
	Price    decimal.Decimal
}

func (l zoneLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type zoneAllocation struct {
	openShowID uuid.UUID
	lines      []zoneLine
}

func (a *zoneAllocation) Kind() entity.BookingKind { return entity.BookingKindOpen }
func (a *zoneAllocation) TargetID() uuid.UUID      { return a.openShowID }

func (a *zoneAllocation) Quantity() int {
	return lo.SumBy(a.lines, func(l zoneLine) int { return l.Quantity })
}

func (a *zoneAllocation) Total() decimal.Decimal {
	return lo.Reduce(a.lines, func(sum decimal.Decimal, l zoneLine, _ int) decimal.Decimal {
		return sum.Add(l.Subtotal())
	}, decimal.Zero)
}

func (a *zoneAllocation) Items() []string {
	return lo.Map(a.lines, func(l zoneLine, _ int) string {
		return fmt.Sprintf("%s x%d", l.Name, l.Quantity)
	})
}

func (a *zoneAllocation) names() []string {
	return lo.Map(a.lines, func(l zoneLine, _ int) string { return l.Name })
}

func (a *zoneAllocation) resolve(ctx context.Context, inv *inventory) (*target, error) {
	show, err := inv.repo.OpenShow.FindByID(ctx, a.openShowID)
	if err != nil {
		return nil, fmt.Errorf("find open show: %w", err)
	}
	if show == nil || !show.IsActive {
		return nil, fmt.Errorf("open show %s: %w", a.openShowID, entity.ErrNotFound)
	}

	missing := lo.Filter(a.names(), func(name string, _ int) bool { return show.Zone(name) == nil })
	if len(missing) > 0 {
		return nil, fmt.Errorf("zones %s: %w", strings.Join(missing, ", "), entity.ErrNotFound)
	}

	return &target{Title: show.Title, Venue: show.VenueName, StartsAt: show.StartsAt, IsActive: show.IsActive}, nil
}

// reserve checks every zone before decrementing any of them.
func (a *zoneAllocation) reserve(ctx context.Context, inv *inventory) error {
	locked, err := inv.repo.OpenShow.LockZones(ctx, a.openShowID, a.names())
	if err != nil {
		return fmt.Errorf("lock zones: %w", err)
	}
	byName := lo.KeyBy(locked, func(z *entity.ShowZone) string { return z.Name })

	var short []string
	for _, l := range a.lines {
		z, ok := byName[l.Name]
		if !ok {
			return fmt.Errorf("zone %s: %w", l.Name, entity.ErrNotFound)
		}
		if z.Available < l.Quantity {
			short = append(short, l.Name)
		}
	}
	if len(short) > 0 {
		sort.Strings(short)
		return &entity.ZoneConflictError{Zones: short}
	}

	for i, l := range a.lines {
		z := byName[l.Name]
		if err := inv.repo.OpenShow.DecrementZone(ctx, z.ID, l.Quantity); err != nil {
			return fmt.Errorf("decrement zone %s: %w", l.Name, err)
		}
		a.lines[i].ZoneID = z.ID
		a.lines[i].Price = z.Price
	}

	return nil
}

func (a *zoneAllocation) persist(ctx context.Context, inv *inventory, bookingID uuid.UUID, now time.Time) error {
	items := lo.Map(a.lines, func(l zoneLine, _ int) *entity.ZoneBooking {
		return &entity.ZoneBooking{
			BaseSimple:     entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			BookingID:      bookingID,
			ZoneID:         l.ZoneID,
			ZoneName:       l.Name,
			Quantity:       l.Quantity,
			PricePerTicket: l.Price,
		}
	})

	if err := inv.repo.ZoneBooking.CreateBatch(ctx, items); err != nil {
		return fmt.Errorf("create zone bookings: %w", err)
	}
	return nil
}

func (a *zoneAllocation) release(ctx context.Context, inv *inventory) error {
	for _, l := range a.lines {
		err := inv.repo.OpenShow.IncrementZone(ctx, l.ZoneID, l.Quantity)
		if errors.Is(err, entity.ErrInvariantViolation) && inv.clamp {
			inv.log.Warn("Zone capacity overflow on release, clamping",
				zap.String("zone_id", l.ZoneID.String()),
				zap.Int("quantity", l.Quantity))
			err = inv.repo.OpenShow.ClampZone(ctx, l.ZoneID)
		}
		if err != nil {
			return fmt.Errorf("increment zone %s: %w", l.Name, err)
		}
	}
	return nil
}
