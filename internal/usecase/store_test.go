package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for Postgres. Transactions are
// serialized and roll back by restoring a snapshot, which is enough to
// observe all-or-nothing behaviour from the services.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users        map[uuid.UUID]entity.User
	sessions     map[uuid.UUID]entity.Session
	screens      map[uuid.UUID]entity.Screen
	shows        map[uuid.UUID]entity.Show
	openShows    map[uuid.UUID]entity.OpenShow
	zones        map[uuid.UUID]entity.ShowZone
	seats        map[uuid.UUID]entity.Seat
	bookings     map[uuid.UUID]entity.Booking
	bookingSeats []entity.BookingSeat
	zoneBookings []entity.ZoneBooking

	failures map[string]error
	stuck    map[uuid.UUID]error
}

type memTxKey struct{}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]entity.User{},
		sessions:  map[uuid.UUID]entity.Session{},
		screens:   map[uuid.UUID]entity.Screen{},
		shows:     map[uuid.UUID]entity.Show{},
		openShows: map[uuid.UUID]entity.OpenShow{},
		zones:     map[uuid.UUID]entity.ShowZone{},
		seats:     map[uuid.UUID]entity.Seat{},
		bookings:  map[uuid.UUID]entity.Booking{},
		failures:  map[string]error{},
		stuck:     map[uuid.UUID]error{},
	}
}

func (m *memStore) repository() *repository.Repository {
	return &repository.Repository{
		Tx:          memTx{m},
		User:        memUsers{m},
		Session:     memSessions{m},
		Screen:      memScreens{m},
		Show:        memShows{m},
		OpenShow:    memOpenShows{m},
		Seat:        memSeats{m},
		Booking:     memBookings{m},
		BookingSeat: memBookingSeats{m},
		ZoneBooking: memZoneBookings{m},
	}
}

// failOn makes the next call of op return err.
func (m *memStore) failOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// failTransitions makes every status change of booking id return err.
func (m *memStore) failTransitions(id uuid.UUID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stuck[id] = err
}

func (m *memStore) injected(op string) error {
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		return err
	}
	return nil
}

type memSnapshot struct {
	shows        map[uuid.UUID]entity.Show
	zones        map[uuid.UUID]entity.ShowZone
	seats        map[uuid.UUID]entity.Seat
	bookings     map[uuid.UUID]entity.Booking
	bookingSeats []entity.BookingSeat
	zoneBookings []entity.ZoneBooking
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		shows:        copyMap(m.shows),
		zones:        copyMap(m.zones),
		seats:        copyMap(m.seats),
		bookings:     copyMap(m.bookings),
		bookingSeats: append([]entity.BookingSeat(nil), m.bookingSeats...),
		zoneBookings: append([]entity.ZoneBooking(nil), m.zoneBookings...),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shows, m.zones, m.seats, m.bookings = s.shows, s.zones, s.seats, s.bookings
	m.bookingSeats, m.zoneBookings = s.bookingSeats, s.zoneBookings
}

type memTx struct{ m *memStore }

func (t memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	t.m.txMu.Lock()
	defer t.m.txMu.Unlock()

	snap := t.m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		t.m.restore(snap)
		return err
	}
	return nil
}

// ---- seeding helpers ----

func (m *memStore) addUser(active bool) entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := entity.User{Base: entity.Base{ID: uuid.New()}, Username: "u", Role: entity.RoleCustomer, IsActive: active}
	m.users[u.ID] = u
	return u
}

// addShow creates a show with a rows x perRow grid priced at base.
func (m *memStore) addShow(rows, perRow int, base decimal.Decimal) (entity.Show, []entity.Seat) {
	m.mu.Lock()
	defer m.mu.Unlock()

	screen := entity.Screen{BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()}, VenueName: "Grand Hall", Name: "Screen 1", RowCount: rows, SeatsPerRow: perRow}
	m.screens[screen.ID] = screen

	show := entity.Show{
		BaseNoDelete:   entity.BaseNoDelete{ID: uuid.New()},
		ScreenID:       screen.ID,
		Title:          "Evening Show",
		StartsAt:       time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC),
		BasePrice:      base,
		TotalSeats:     rows * perRow,
		AvailableSeats: rows * perRow,
		IsActive:       true,
	}
	m.shows[show.ID] = show

	grid, _ := BuildSeatGrid(&show, SeatLayout{RowCount: rows, SeatsPerRow: perRow}, time.Now())
	seats := make([]entity.Seat, len(grid))
	for i, s := range grid {
		m.seats[s.ID] = *s
		seats[i] = *s
	}
	return show, seats
}

func (m *memStore) addOpenShow(zones map[string]int, price decimal.Decimal) entity.OpenShow {
	m.mu.Lock()
	defer m.mu.Unlock()

	show := entity.OpenShow{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		Title:        "Open Air",
		VenueName:    "Park",
		StartsAt:     time.Date(2026, 12, 1, 18, 0, 0, 0, time.UTC),
		IsActive:     true,
	}
	for name, capacity := range zones {
		z := entity.ShowZone{BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()}, OpenShowID: show.ID, Name: name, Price: price, Capacity: capacity, Available: capacity}
		m.zones[z.ID] = z
	}
	m.openShows[show.ID] = show
	return show
}

func (m *memStore) seat(id uuid.UUID) entity.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seats[id]
}

func (m *memStore) show(id uuid.UUID) entity.Show {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows[id]
}

func (m *memStore) zone(openShowID uuid.UUID, name string) entity.ShowZone {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, z := range m.zones {
		if z.OpenShowID == openShowID && z.Name == name {
			return z
		}
	}
	return entity.ShowZone{}
}

func (m *memStore) booking(id uuid.UUID) entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memStore) seatLinks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookingSeats)
}

// unavailableMatchesHeld checks no-oversell for one show.
func (m *memStore) unavailableMatchesHeld(showID uuid.UUID) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	unavailable := 0
	for _, s := range m.seats {
		if s.ShowID == showID && !s.IsAvailable && !s.IsBlocked {
			unavailable++
		}
	}
	held := 0
	for _, bs := range m.bookingSeats {
		b := m.bookings[bs.BookingID]
		if b.ShowID != nil && *b.ShowID == showID && b.HoldsInventory() {
			held++
		}
	}
	return unavailable, held
}

func (m *memStore) ageBooking(id uuid.UUID, by time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bookings[id]
	b.CreatedAt = b.CreatedAt.Add(-by)
	m.bookings[id] = b
}

// ---- repositories ----

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, u *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u, ok := r.m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

type memSessions struct{ m *memStore }

func (r memSessions) Create(_ context.Context, s *entity.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.sessions[s.Token] = *s
	return nil
}

func (r memSessions) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.sessions[token]; ok && s.RevokedAt == nil && s.ExpiresAt.After(time.Now()) {
		return &s, nil
	}
	return nil, nil
}

type memScreens struct{ m *memStore }

func (r memScreens) Create(_ context.Context, s *entity.Screen) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.screens[s.ID] = *s
	return nil
}

func (r memScreens) FindByID(_ context.Context, id uuid.UUID) (*entity.Screen, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.screens[id]; ok {
		return &s, nil
	}
	return nil, nil
}

type memShows struct{ m *memStore }

func (r memShows) Create(_ context.Context, s *entity.Show) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.shows[s.ID] = *s
	return nil
}

func (r memShows) FindByID(_ context.Context, id uuid.UUID) (*entity.Show, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.shows[id]; ok {
		s.PricingTiers = copyMap(s.PricingTiers)
		return &s, nil
	}
	return nil, nil
}

func (r memShows) UpdatePricing(_ context.Context, id uuid.UUID, base decimal.Decimal, tiers map[entity.SeatType]decimal.Decimal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.shows[id]
	if !ok {
		return fmt.Errorf("show %s: %w", id, entity.ErrNotFound)
	}
	s.BasePrice, s.PricingTiers = base, copyMap(tiers)
	r.m.shows[id] = s
	return nil
}

func (r memShows) DecrementAvailable(_ context.Context, id uuid.UUID, n int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("Show.DecrementAvailable"); err != nil {
		return err
	}
	s := r.m.shows[id]
	if s.AvailableSeats < n {
		return fmt.Errorf("show %s: %w", id, entity.ErrInsufficientCapacity)
	}
	s.AvailableSeats -= n
	r.m.shows[id] = s
	return nil
}

func (r memShows) IncrementAvailable(_ context.Context, id uuid.UUID, n int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s := r.m.shows[id]
	if s.AvailableSeats+n > s.TotalSeats {
		return fmt.Errorf("show %s: %w", id, entity.ErrInvariantViolation)
	}
	s.AvailableSeats += n
	r.m.shows[id] = s
	return nil
}

func (r memShows) ClampAvailable(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s := r.m.shows[id]
	s.AvailableSeats = s.TotalSeats
	r.m.shows[id] = s
	return nil
}

func (r memShows) ResetCapacity(_ context.Context, id uuid.UUID, total int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.shows[id]
	if !ok {
		return fmt.Errorf("show %s: %w", id, entity.ErrNotFound)
	}
	s.TotalSeats, s.AvailableSeats = total, total
	r.m.shows[id] = s
	return nil
}

type memOpenShows struct{ m *memStore }

func (r memOpenShows) Create(_ context.Context, s *entity.OpenShow) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, z := range s.Zones {
		r.m.zones[z.ID] = *z
	}
	stored := *s
	stored.Zones = nil
	r.m.openShows[s.ID] = stored
	return nil
}

func (r memOpenShows) zonesOf(id uuid.UUID) []*entity.ShowZone {
	var zones []*entity.ShowZone
	for _, z := range r.m.zones {
		if z.OpenShowID == id {
			z := z
			zones = append(zones, &z)
		}
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
	return zones
}

func (r memOpenShows) FindByID(_ context.Context, id uuid.UUID) (*entity.OpenShow, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.openShows[id]
	if !ok {
		return nil, nil
	}
	s.Zones = r.zonesOf(id)
	return &s, nil
}

func (r memOpenShows) LockZones(_ context.Context, id uuid.UUID, names []string) ([]*entity.ShowZone, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.ShowZone
	for _, z := range r.zonesOf(id) {
		for _, n := range names {
			if z.Name == n {
				out = append(out, z)
			}
		}
	}
	return out, nil
}

func (r memOpenShows) DecrementZone(_ context.Context, id uuid.UUID, n int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	z := r.m.zones[id]
	if z.Available < n {
		return fmt.Errorf("zone %s: %w", id, entity.ErrInsufficientCapacity)
	}
	z.Available -= n
	r.m.zones[id] = z
	return nil
}

func (r memOpenShows) IncrementZone(_ context.Context, id uuid.UUID, n int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	z := r.m.zones[id]
	if z.Available+n > z.Capacity {
		return fmt.Errorf("zone %s: %w", id, entity.ErrInvariantViolation)
	}
	z.Available += n
	r.m.zones[id] = z
	return nil
}

func (r memOpenShows) ClampZone(_ context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	z := r.m.zones[id]
	z.Available = z.Capacity
	r.m.zones[id] = z
	return nil
}

type memSeats struct{ m *memStore }

func (r memSeats) sorted(filter func(entity.Seat) bool) []*entity.Seat {
	var out []*entity.Seat
	for _, s := range r.m.seats {
		if filter(s) {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if len(a.RowLabel) != len(b.RowLabel) {
			return len(a.RowLabel) < len(b.RowLabel)
		}
		if a.RowLabel != b.RowLabel {
			return a.RowLabel < b.RowLabel
		}
		return a.Position < b.Position
	})
	return out
}

func (r memSeats) CreateBatch(_ context.Context, seats []*entity.Seat) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range seats {
		r.m.seats[s.ID] = *s
	}
	return nil
}

func (r memSeats) FindByShowID(_ context.Context, showID uuid.UUID) ([]*entity.Seat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.sorted(func(s entity.Seat) bool { return s.ShowID == showID }), nil
}

func (r memSeats) FindByLabels(_ context.Context, showID uuid.UUID, rows []string, numbers []int) ([]*entity.Seat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	want := map[string]bool{}
	for i := range rows {
		want[fmt.Sprintf("%s%d", rows[i], numbers[i])] = true
	}
	return r.sorted(func(s entity.Seat) bool {
		return s.ShowID == showID && !s.IsBlocked && want[s.Label()]
	}), nil
}

func (r memSeats) CountAvailable(_ context.Context, showID uuid.UUID) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.sorted(func(s entity.Seat) bool { return s.ShowID == showID && s.Bookable() })), nil
}

func (r memSeats) DeleteByShowID(_ context.Context, showID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, s := range r.m.seats {
		if s.ShowID == showID {
			delete(r.m.seats, id)
			n++
		}
	}
	return n, nil
}

func (r memSeats) LockByIDs(_ context.Context, showID uuid.UUID, ids []uuid.UUID) ([]*entity.Seat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.sorted(func(s entity.Seat) bool { return s.ShowID == showID && want[s.ID] }), nil
}

func (r memSeats) MarkUnavailable(_ context.Context, showID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var flipped []uuid.UUID
	for _, id := range ids {
		s, ok := r.m.seats[id]
		if ok && s.ShowID == showID && s.Bookable() {
			s.IsAvailable = false
			r.m.seats[id] = s
			flipped = append(flipped, id)
		}
	}
	return flipped, nil
}

func (r memSeats) MarkAvailable(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, id := range ids {
		s, ok := r.m.seats[id]
		if ok && !s.IsAvailable && !s.IsBlocked {
			s.IsAvailable = true
			r.m.seats[id] = s
			n++
		}
	}
	return n, nil
}

func (r memSeats) RepriceAvailable(_ context.Context, showID uuid.UUID, base decimal.Decimal, tiers map[entity.SeatType]decimal.Decimal) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, s := range r.m.seats {
		if s.ShowID != showID || !s.Bookable() {
			continue
		}
		s.Price = base
		if p, ok := tiers[s.SeatType]; ok {
			s.Price = p
		}
		r.m.seats[id] = s
		n++
	}
	return n, nil
}

type memBookings struct{ m *memStore }

func (r memBookings) Create(_ context.Context, b *entity.Booking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("Booking.Create"); err != nil {
		return err
	}
	for _, other := range r.m.bookings {
		if other.Reference == b.Reference {
			return fmt.Errorf("duplicate reference %s", b.Reference)
		}
	}
	r.m.bookings[b.ID] = *b
	return nil
}

func (r memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if b, ok := r.m.bookings[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r memBookings) FindByReference(_ context.Context, reference string) (*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, b := range r.m.bookings {
		if strings.EqualFold(b.Reference, reference) {
			return &b, nil
		}
	}
	return nil, nil
}

func (r memBookings) FindByPaymentOrder(_ context.Context, orderID string) (*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, b := range r.m.bookings {
		if b.PaymentOrderID != nil && *b.PaymentOrderID == orderID {
			return &b, nil
		}
	}
	return nil, nil
}

func (r memBookings) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.m.bookings {
		if b.UserID == userID {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memBookings) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, b := range r.m.bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r memBookings) ExistsReference(_ context.Context, reference string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, b := range r.m.bookings {
		if b.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (r memBookings) ExistsForShow(_ context.Context, showID uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, b := range r.m.bookings {
		if b.ShowID != nil && *b.ShowID == showID {
			return true, nil
		}
	}
	return false, nil
}

func (r memBookings) Transition(_ context.Context, t repository.Transition) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.stuck[t.BookingID]; err != nil {
		return false, err
	}
	b, ok := r.m.bookings[t.BookingID]
	if !ok || b.Status != t.From {
		return false, nil
	}
	b.Status, b.PaymentStatus = t.To, t.Payment
	if t.PaymentID != nil {
		b.PaymentID = t.PaymentID
	}
	if t.Signature != nil {
		b.PaymentSignature = t.Signature
	}
	r.m.bookings[t.BookingID] = b
	return true, nil
}

func (r memBookings) SetPaymentOrder(_ context.Context, id uuid.UUID, orderID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok || b.Status != entity.BookingStatusPending {
		return fmt.Errorf("booking %s: %w", id, entity.ErrInvalidState)
	}
	b.PaymentOrderID = &orderID
	r.m.bookings[id] = b
	return nil
}

func (r memBookings) FindExpiredPending(_ context.Context, cutoff time.Time, exclude []uuid.UUID, limit int) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []entity.Booking
	for _, b := range r.m.bookings {
		if b.PaymentStatus == entity.PaymentStatusPending && b.CreatedAt.Before(cutoff) && !skip[b.ID] {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	ids := make([]uuid.UUID, 0, len(out))
	for i, b := range out {
		if i == limit {
			break
		}
		ids = append(ids, b.ID)
	}
	return ids, nil
}

type memBookingSeats struct{ m *memStore }

func (r memBookingSeats) CreateBatch(_ context.Context, items []*entity.BookingSeat) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.injected("BookingSeat.CreateBatch"); err != nil {
		return err
	}
	for _, it := range items {
		r.m.bookingSeats = append(r.m.bookingSeats, *it)
	}
	return nil
}

func (r memBookingSeats) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*repository.BookedSeat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*repository.BookedSeat
	for _, bs := range r.m.bookingSeats {
		if bs.BookingID != bookingID {
			continue
		}
		seat := r.m.seats[bs.SeatID]
		out = append(out, &repository.BookedSeat{
			BookingSeat: bs,
			RowLabel:    seat.RowLabel,
			SeatNumber:  seat.SeatNumber,
			SeatType:    seat.SeatType,
		})
	}
	return out, nil
}

func (r memBookingSeats) CountHeldByShow(_ context.Context, showID uuid.UUID) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := 0
	for _, bs := range r.m.bookingSeats {
		b := r.m.bookings[bs.BookingID]
		if b.ShowID != nil && *b.ShowID == showID && b.HoldsInventory() {
			n++
		}
	}
	return n, nil
}

type memZoneBookings struct{ m *memStore }

func (r memZoneBookings) CreateBatch(_ context.Context, items []*entity.ZoneBooking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, it := range items {
		r.m.zoneBookings = append(r.m.zoneBookings, *it)
	}
	return nil
}

func (r memZoneBookings) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.ZoneBooking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.ZoneBooking
	for _, z := range r.m.zoneBookings {
		if z.BookingID == bookingID {
			z := z
			out = append(out, &z)
		}
	}
	return out, nil
}

// ---- collaborators ----

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg gateway.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, string(msg.Category)+":"+msg.Subject)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type failingReceipts struct{}

func (failingReceipts) Generate(gateway.TicketData) ([]byte, error) {
	return nil, fmt.Errorf("renderer offline")
}
