package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aslamtv/storebot-backend/api/routes"
	"github.com/aslamtv/storebot-backend/internal/cart"
	"github.com/aslamtv/storebot-backend/internal/catalog"
	"github.com/aslamtv/storebot-backend/internal/dispatch"
	"github.com/aslamtv/storebot-backend/internal/fulfillment"
	"github.com/aslamtv/storebot-backend/internal/notifications"
	"github.com/aslamtv/storebot-backend/internal/orders"
	"github.com/aslamtv/storebot-backend/internal/payments"
	"github.com/aslamtv/storebot-backend/internal/referrals"
	"github.com/aslamtv/storebot-backend/internal/sessions"
	"github.com/aslamtv/storebot-backend/internal/users"
	"github.com/aslamtv/storebot-backend/pkg/config"
	"github.com/aslamtv/storebot-backend/pkg/db"
	"github.com/aslamtv/storebot-backend/pkg/flutterwave"
	"github.com/aslamtv/storebot-backend/pkg/logger"
	"github.com/aslamtv/storebot-backend/pkg/metrics"
	"github.com/aslamtv/storebot-backend/pkg/migrate"
	"github.com/aslamtv/storebot-backend/pkg/redis"
	"github.com/aslamtv/storebot-backend/pkg/telegram"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(cfg.Redis)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	tgClient, err := telegram.NewClient(cfg.Telegram.BotToken)
	requireResource(ctx, logg, "telegram client", err)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	referralsRepo := referrals.NewRepository(dbClient.DB())
	fulfillmentRepo := fulfillment.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())

	usersSvc, err := users.NewService(usersRepo)
	requireResource(ctx, logg, "users service", err)

	catalogSvc, err := catalog.NewService(catalogRepo)
	requireResource(ctx, logg, "catalog service", err)

	ordersSvc, err := orders.NewService(ordersRepo, catalogRepo, dbClient)
	requireResource(ctx, logg, "orders service", err)

	notificationsSvc, err := notifications.NewService(tgClient, usersSvc, cfg.Telegram)
	requireResource(ctx, logg, "notifications service", err)

	membership, err := referrals.NewChannelMembership(tgClient, cfg.Telegram)
	requireResource(ctx, logg, "membership checker", err)

	referralsSvc, err := referrals.NewService(referralsRepo, ordersRepo, membership, dbClient, cfg.Referrals)
	requireResource(ctx, logg, "referrals service", err)

	sender, err := fulfillment.NewTelegramSender(tgClient, cfg.Telegram)
	requireResource(ctx, logg, "telegram sender", err)

	throttle := fulfillment.NewThrottle(fulfillmentRepo, cfg.Resend.LifetimeCap)

	fulfillmentSvc, err := fulfillment.NewService(fulfillmentRepo, ordersRepo, catalogRepo, sender, notificationsSvc, throttle, logg, commerceMetrics)
	requireResource(ctx, logg, "fulfillment service", err)

	guard := payments.NewRedisEventGuard(redisClient, cfg.Flutterwave.EventGuardTTL)

	paymentsSvc, err := payments.NewService(ordersRepo, referralsSvc, notificationsSvc, guard, logg, commerceMetrics, cfg.Flutterwave)
	requireResource(ctx, logg, "payments service", err)

	var cartSvc cart.Service
	if cfg.Flutterwave.SecretKey != "" {
		flwClient, flwErr := flutterwave.NewClient(cfg.Flutterwave.SecretKey)
		requireResource(ctx, logg, "flutterwave client", flwErr)
		cartSvc, err = cart.NewService(cartRepo, catalogSvc, ordersSvc, referralsSvc, flwClient, ordersRepo, commerceMetrics, cfg.Flutterwave)
	} else {
		logg.Warn(ctx, "flutterwave secret key not set, checkout will not issue payment links")
		cartSvc, err = cart.NewService(cartRepo, catalogSvc, ordersSvc, referralsSvc, nil, ordersRepo, commerceMetrics, cfg.Flutterwave)
	}
	requireResource(ctx, logg, "cart service", err)

	sessionStore, err := sessions.NewStore(redisClient)
	requireResource(ctx, logg, "session store", err)

	dispatcher := dispatch.New(logg)
	err = dispatch.RegisterHandlers(dispatcher, dispatch.Services{
		Users:       usersSvc,
		Catalog:     catalogSvc,
		Cart:        cartSvc,
		Orders:      ordersSvc,
		Fulfillment: fulfillmentSvc,
		Referrals:   referralsSvc,
	})
	requireResource(ctx, logg, "event handlers", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, paymentsSvc, dispatcher, sessionStore, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
