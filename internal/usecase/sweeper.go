package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/pkg/metrics"
	"ticket-booking/pkg/redislock"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxSweepBatches = 10

// Sweeper cancels bookings whose payment stayed pending past the grace
// window and returns their inventory. It polls; there is no per-booking timer.
type Sweeper struct {
	repo   *repository.Repository
	inv    *inventory
	locker *redislock.Locker
	config utils.BookingConfig
	log    *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper builds a sweeper. With a nil locker every instance sweeps,
// which stays correct because each expiry is a status compare-and-swap.
func NewSweeper(repo *repository.Repository, config utils.BookingConfig, locker *redislock.Locker, log *zap.Logger) *Sweeper {
	if config.SweepInterval <= 0 {
		config.SweepInterval = time.Minute
	}
	if config.GraceWindow <= 0 {
		config.GraceWindow = 5 * time.Minute
	}
	if config.SweepBatchSize <= 0 {
		config.SweepBatchSize = 100
	}

	return &Sweeper{
		repo:   repo,
		inv:    newInventory(repo, config.ClampCapacityOverflow, log),
		locker: locker,
		config: config,
		log:    log.With(zap.String("service", "sweeper")),
		now:    time.Now,
	}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	s.log.Info("Expiry sweeper started",
		zap.Duration("interval", s.config.SweepInterval),
		zap.Duration("grace", s.config.GraceWindow))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Expiry sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("Expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// Start runs the loop in the background until Stop.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		_ = s.Run(ctx)
	}(s.done)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce performs a single sweep and reports how many bookings it expired.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	if s.locker != nil {
		lease, ok, err := s.locker.Acquire(ctx, s.config.SweepLockKey, s.config.SweepInterval)
		switch {
		case err != nil:
			// the compare-and-swap keeps an unlocked sweep correct
			s.log.Warn("Sweep lock unavailable, sweeping without it", zap.Error(err))
		case !ok:
			metrics.SweeperRuns.WithLabelValues("skipped").Inc()
			s.log.Debug("Another instance holds the sweep lock")
			return 0, nil
		default:
			defer func() {
				if err := lease.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrNotHeld) {
					s.log.Warn("Failed to release sweep lock", zap.Error(err))
				}
			}()
		}
	}

	cutoff := s.now().Add(-s.config.GraceWindow)

	var (
		errs    []error
		tried   []uuid.UUID
		expired int
	)
	// each batch skips bookings this run already tried, failed ones included
	for batch := 0; batch < maxSweepBatches; batch++ {
		ids, err := s.repo.Booking.FindExpiredPending(ctx, cutoff, tried, s.config.SweepBatchSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("find expired bookings: %w", err))
			break
		}

		for _, id := range ids {
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				break
			}

			tried = append(tried, id)
			ok, err := s.expire(ctx, id)
			if err != nil {
				s.log.Error("Failed to expire booking", zap.Error(err), zap.String("booking_id", id.String()))
				errs = append(errs, err)
				continue
			}
			if ok {
				expired++
			}
		}

		if len(ids) < s.config.SweepBatchSize || ctx.Err() != nil {
			break
		}
	}

	metrics.SweeperExpired.Add(float64(expired))
	if len(errs) > 0 {
		metrics.SweeperRuns.WithLabelValues("error").Inc()
	} else {
		metrics.SweeperRuns.WithLabelValues("ok").Inc()
	}

	if len(tried) > 0 {
		s.log.Info("Expiry sweep finished",
			zap.Int("candidates", len(tried)),
			zap.Int("expired", expired),
			zap.Int("failed", len(errs)),
			zap.Time("cutoff", cutoff),
		)
	}

	return expired, errors.Join(errs...)
}

// expire cancels one booking if it is still pending. Losing the race to a
// confirmation or a user cancel is a no-op.
func (s *Sweeper) expire(ctx context.Context, id uuid.UUID) (bool, error) {
	var won bool

	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		booking, err := s.repo.Booking.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("find booking: %w", err)
		}
		if booking == nil || booking.Status != entity.BookingStatusPending || booking.PaymentStatus != entity.PaymentStatusPending {
			return nil
		}

		won, err = s.inv.settle(ctx, booking, entity.BookingStatusCancelled, entity.PaymentStatusFailed, nil, nil)
		return err
	})
	if err != nil {
		return false, err
	}

	if won {
		metrics.BookingTransitions.WithLabelValues(string(entity.BookingStatusCancelled), "expiry").Inc()
		s.log.Info("Booking expired", zap.String("booking_id", id.String()))
	}

	return won, nil
}
