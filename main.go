package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ticket-booking/cmd"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/gateway"
	"ticket-booking/internal/usecase"
	"ticket-booking/internal/wire"
	"ticket-booking/pkg/database"
	"ticket-booking/pkg/redislock"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Database schema applied")
	}
	logger.Info("Database connected successfully")

	// Redis only coordinates the sweeper; run without it if absent
	var locker *redislock.Locker
	rdb, err := database.NewRedisClient(config.Redis)
	switch {
	case err != nil:
		logger.Warn("Redis unavailable, sweeper runs unlocked", zap.Error(err))
	case rdb != nil:
		defer rdb.Close()
		locker = redislock.New(rdb)
		logger.Info("Redis connected")
	}

	var notifier gateway.Notifier = gateway.NewLogNotifier(logger)
	if config.RabbitMQ.URL != "" {
		rabbit := gateway.NewRabbitNotifier(config.RabbitMQ.URL, config.RabbitMQ.Queue, logger)
		defer rabbit.Close()
		notifier = rabbit
	}

	receipts := gateway.NewQRReceiptGenerator(config.Ticket)
	gateways := usecase.Gateways{
		Payment:  gateway.NewRazorpayGateway(config.Payment, logger),
		Notifier: notifier,
		Receipts: receipts,
		Tickets:  receipts,
	}

	repos := repository.NewRepository(db, logger)
	app := wire.Wiring(repos, config, gateways, locker, db, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cmd.APIServer(ctx, app.Router, config.App.Port, logger)
	})
	g.Go(func() error {
		return app.Sweeper.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Application stopped")
}
