package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/floralane/flower-shop/internal/models"
	pkgdb "github.com/floralane/flower-shop/pkg/db"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

type Config struct {
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	REDIS_ADDR     string
	REDIS_PASSWORD string

	JWT_SECRET    string
	KAFKA_ADDRESS string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string

	Pricing Pricing
}

// Pricing holds the constants the pricing engine reads: tax rate, flat
// shipping schedule per delivery method, free-shipping threshold and
// the weight surcharge rate.
type Pricing struct {
	TaxRate               float64
	FreeShippingThreshold float64
	StandardRate          float64
	ExpressRate           float64
	SameDayRate           float64
	WeightRatePerKg       float64
	InvoicePrefix         string
	Currency              string
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               0.15,
		FreeShippingThreshold: 3000,
		StandardRate:          300,
		ExpressRate:           600,
		SameDayRate:           900,
		WeightRatePerKg:       1,
		InvoicePrefix:         "FL",
		Currency:              "usd",
	}
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		REDIS_ADDR:     os.Getenv("REDIS_ADDR"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),

		JWT_SECRET:    os.Getenv("JWT_SECRET"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		STRIPE_SECRET_KEY:     os.Getenv("STRIPE_SECRET_KEY"),
		STRIPE_WEBHOOK_SECRET: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		Pricing: DefaultPricing(),
	}

	config.Pricing.TaxRate = envFloatDefault("TAX_RATE", config.Pricing.TaxRate)
	config.Pricing.FreeShippingThreshold = envFloatDefault("FREE_SHIPPING_THRESHOLD", config.Pricing.FreeShippingThreshold)
	config.Pricing.StandardRate = envFloatDefault("SHIPPING_RATE_STANDARD", config.Pricing.StandardRate)
	config.Pricing.ExpressRate = envFloatDefault("SHIPPING_RATE_EXPRESS", config.Pricing.ExpressRate)
	config.Pricing.SameDayRate = envFloatDefault("SHIPPING_RATE_SAME_DAY", config.Pricing.SameDayRate)
	config.Pricing.WeightRatePerKg = envFloatDefault("SHIPPING_WEIGHT_RATE", config.Pricing.WeightRatePerKg)
	if v := os.Getenv("INVOICE_PREFIX"); v != "" {
		config.Pricing.InvoicePrefix = v
	}
	if v := os.Getenv("CURRENCY"); v != "" {
		config.Pricing.Currency = v
	}

	return config, nil
}

func envFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func InitDB() (*gorm.DB, error) {
	configuration, _ := LoadConfig()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER, configuration.DB_PASSWORD,
		configuration.DB_HOST, configuration.DB_PORT, configuration.DB_NAME,
	)
	db, err := pkgdb.Open(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.InvoiceCounter{},
		&models.Coupon{},
		&models.CouponUsage{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
