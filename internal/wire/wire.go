package wire

import (
	"context"
	"net/http"
	"time"

	"ticket-booking/internal/adaptor"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/middleware"
	"ticket-booking/pkg/redislock"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and the background workers main has to run.
type App struct {
	Router  *chi.Mux
	Sweeper *usecase.Sweeper
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Wiring builds services and handlers and mounts every route.
func Wiring(
	repo *repository.Repository,
	config *utils.Config,
	gateways usecase.Gateways,
	locker *redislock.Locker,
	db Pinger,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, gateways, locker, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, repo, config, db, logger),
		Sweeper: service.Sweeper,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	db Pinger,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	auth := middleware.AuthSession(repo.Session, repo.User, logger)
	admin := middleware.Admin(logger)
	limiter := middleware.NewRateLimiter(config.RateLimit)

	wireBooking(r, handler.Booking, auth, limiter.Middleware(logger))
	wireSeat(r, handler.Seat, auth, admin)
	wirePayment(r, handler.Payment, auth)
	wireAdmin(r, handler.Booking, handler.Admin, handler.Ticket, auth, admin)

	r.Get("/health", health(db))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "database unreachable", nil, nil)
				return
			}
		}
		utils.ResponseSuccess(w, "OK", nil)
	}
}
