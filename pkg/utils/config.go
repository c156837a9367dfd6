package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Booking   BookingConfig
	Payment   PaymentConfig
	Ticket    TicketConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool
}

type RedisConfig struct {
	URL      string
	PoolSize int
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

type BookingConfig struct {
	ReferencePrefix       string
	MaxSeatsPerBooking    int
	SweepInterval         time.Duration
	GraceWindow           time.Duration
	SweepBatchSize        int
	SweepLockKey          string
	ClampCapacityOverflow bool
}

type PaymentConfig struct {
	KeyID             string
	KeySecret         string
	WebhookSecret     string
	BaseURL           string
	Currency          string
	RevalidateAmount  bool
	RequireActiveShow bool
	RequestTimeout    time.Duration
}

type TicketConfig struct {
	Secret    string
	Issuer    string
	ValidDays int
	QRSize    int
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("APP_NAME", "ticket-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", false)
	viper.SetDefault("REDIS_POOL_SIZE", 20)
	viper.SetDefault("RABBITMQ_QUEUE", "booking.notifications")
	viper.SetDefault("BOOKING_REFERENCE_PREFIX", "BK")
	viper.SetDefault("BOOKING_MAX_SEATS", 10)
	viper.SetDefault("BOOKING_SWEEP_INTERVAL", "60s")
	viper.SetDefault("BOOKING_GRACE_WINDOW", "5m")
	viper.SetDefault("BOOKING_SWEEP_BATCH", 100)
	viper.SetDefault("BOOKING_SWEEP_LOCK_KEY", "ticket-booking:sweeper")
	viper.SetDefault("BOOKING_CLAMP_CAPACITY_OVERFLOW", false)
	viper.SetDefault("PAYMENT_BASE_URL", "https://api.razorpay.com/v1")
	viper.SetDefault("PAYMENT_CURRENCY", "INR")
	viper.SetDefault("PAYMENT_REVALIDATE_AMOUNT", true)
	viper.SetDefault("PAYMENT_REQUIRE_ACTIVE_SHOW", false)
	viper.SetDefault("PAYMENT_TIMEOUT", "10s")
	viper.SetDefault("TICKET_ISSUER", "ticket-booking")
	viper.SetDefault("TICKET_VALID_DAYS", 30)
	viper.SetDefault("TICKET_QR_SIZE", 256)
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)

	// .env is optional; the environment wins either way
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			SSLMode:     viper.GetString("DB_SSLMODE"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			URL:      viper.GetString("REDIS_URL"),
			PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   viper.GetString("RABBITMQ_URL"),
			Queue: viper.GetString("RABBITMQ_QUEUE"),
		},
		Booking: BookingConfig{
			ReferencePrefix:       viper.GetString("BOOKING_REFERENCE_PREFIX"),
			MaxSeatsPerBooking:    viper.GetInt("BOOKING_MAX_SEATS"),
			SweepInterval:         viper.GetDuration("BOOKING_SWEEP_INTERVAL"),
			GraceWindow:           viper.GetDuration("BOOKING_GRACE_WINDOW"),
			SweepBatchSize:        viper.GetInt("BOOKING_SWEEP_BATCH"),
			SweepLockKey:          viper.GetString("BOOKING_SWEEP_LOCK_KEY"),
			ClampCapacityOverflow: viper.GetBool("BOOKING_CLAMP_CAPACITY_OVERFLOW"),
		},
		Payment: PaymentConfig{
			KeyID:             viper.GetString("PAYMENT_KEY_ID"),
			KeySecret:         viper.GetString("PAYMENT_KEY_SECRET"),
			WebhookSecret:     viper.GetString("PAYMENT_WEBHOOK_SECRET"),
			BaseURL:           viper.GetString("PAYMENT_BASE_URL"),
			Currency:          viper.GetString("PAYMENT_CURRENCY"),
			RevalidateAmount:  viper.GetBool("PAYMENT_REVALIDATE_AMOUNT"),
			RequireActiveShow: viper.GetBool("PAYMENT_REQUIRE_ACTIVE_SHOW"),
			RequestTimeout:    viper.GetDuration("PAYMENT_TIMEOUT"),
		},
		Ticket: TicketConfig{
			Secret:    viper.GetString("TICKET_SECRET"),
			Issuer:    viper.GetString("TICKET_ISSUER"),
			ValidDays: viper.GetInt("TICKET_VALID_DAYS"),
			QRSize:    viper.GetInt("TICKET_QR_SIZE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	// webhooks are signed with the key secret unless a dedicated one is set
	if config.Payment.WebhookSecret == "" {
		config.Payment.WebhookSecret = config.Payment.KeySecret
	}

	return config, nil
}
