package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/floralane/flower-shop/internal/cache"
	"github.com/floralane/flower-shop/internal/config"
	"github.com/floralane/flower-shop/internal/delivery"
	"github.com/floralane/flower-shop/internal/es"
	"github.com/floralane/flower-shop/internal/handlers"
	carthdl "github.com/floralane/flower-shop/internal/handlers/cart"
	"github.com/floralane/flower-shop/internal/logging"
	"github.com/floralane/flower-shop/internal/middleware/auth"
	loggingmw "github.com/floralane/flower-shop/internal/middleware/logging"
	"github.com/floralane/flower-shop/internal/mykafka"
	"github.com/floralane/flower-shop/internal/notify"
	"github.com/floralane/flower-shop/internal/payment"
	"github.com/floralane/flower-shop/internal/pricing"
	"github.com/floralane/flower-shop/internal/repo"
	cartsvc "github.com/floralane/flower-shop/internal/service/cart"
	ordersvc "github.com/floralane/flower-shop/internal/service/order"
	httpserver "github.com/floralane/flower-shop/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")
	config.MustNonEmpty(configuration.STRIPE_SECRET_KEY, "STRIPE_SECRET_KEY")

	logger := logging.New(os.Getenv("LOG_LEVEL"))

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     configuration.REDIS_ADDR,
		Password: configuration.REDIS_PASSWORD,
	})

	gateway := payment.NewStripeGateway(
		configuration.STRIPE_SECRET_KEY,
		configuration.STRIPE_WEBHOOK_SECRET,
		configuration.Pricing.Currency,
	)
	courier := delivery.NewFloraProvider(configuration.Pricing)
	notifier := &notify.Notifier{Producer: prod}

	catalog := &repo.CachedCatalog{
		Inner: &repo.GormCatalog{DB: db},
		Cache: cache.NewRedisCache(redisClient),
	}
	carts := &repo.CartRepo{DB: db}
	orders := &repo.OrderRepo{DB: db}
	users := &repo.UserRepo{DB: db}
	coupons := &repo.CouponRepo{DB: db}

	cartService := &cartsvc.Service{Carts: carts, Catalog: catalog}
	orderService := &ordersvc.Service{
		Orders:  orders,
		Users:   users,
		Carts:   carts,
		Coupons: coupons,
		Catalog: catalog,
		Pricer:  pricing.NewEngine(configuration.Pricing),
		Gateway: gateway,
		Courier: courier,
		Notify:  notifier,
		Cfg:     configuration.Pricing,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:             db,
		Auth:           &auth.Middleware{JWTSecret: jwtSecret},
		AuthHandler:    &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, Producer: prod},
		ProductHandler: &handlers.ProductHandler{DB: db, Catalog: catalog, Cached: catalog, Producer: prod},
		CartHandler:    &carthdl.CartHandler{Svc: cartService, Producer: prod},
		OrderHandler:   &handlers.OrderHandler{Svc: orderService},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "product"},
		WebhookHandler: &handlers.WebhookHandler{Gateway: gateway, Svc: orderService},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	log.Println("shutdown complete")
}
