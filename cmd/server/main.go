package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // venue timezones resolve without a system zoneinfo

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/lock"
	"github.com/iliyamo/table-reservation/internal/logging"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/payment"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/reservation"
	"github.com/iliyamo/table-reservation/internal/router"
)

func main() {
	// .env values win over the shell so local runs match the checked-in setup.
	if err := godotenv.Overload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg := config.Load()
	bookingCfg := config.LoadBookingConfig()
	logger := logging.New(os.Stdout, config.LoadLoggingConfig()).With("env", cfg.Env)
	slog.SetDefault(logger)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var locker reservation.Locker = reservation.NewKeyedMutex()
	if rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb,
			lock.WithTTL(bookingCfg.LockTTL),
			lock.WithWait(bookingCfg.LockWait),
		)
	} else {
		logger.Warn("redis unavailable: in-process allocation lock, no response cache, no rate limiting")
	}

	var gateway reservation.PaymentGateway = payment.SandboxGateway{}
	if bookingCfg.PaymentGatewayURL != "" {
		gateway = payment.NewHTTPGateway(bookingCfg.PaymentGatewayURL, bookingCfg.PaymentGatewayAPIKey, bookingCfg.ExternalCallTimeout, nil)
	} else {
		logger.Warn("PAYMENT_GATEWAY_URL not set, using sandbox payment references")
	}

	var notifier reservation.Notifier = queue.LogNotifier{Log: logger}
	if bookingCfg.NotifyEnabled {
		notifier = queue.NewPublisher(bookingCfg.RabbitMQURL, logger)
	}

	store := repository.NewStore(db)
	svc := reservation.NewService(store, locker, reservation.Collaborators{
		Catalog:  repository.NewCatalogRepo(db),
		Payments: gateway,
		Notifier: notifier,
		Ledger:   repository.NewLedgerRepo(db),
	}, reservation.Config{
		DefaultLocation:     bookingCfg.VenueTimezone,
		MaxAttempts:         bookingCfg.MaxAttempts,
		RetryBackoff:        bookingCfg.RetryBackoff,
		LockWait:            bookingCfg.LockWait,
		ExternalTimeout:     bookingCfg.ExternalCallTimeout,
		MaxPartySize:        bookingCfg.MaxPartySize,
		Currency:            bookingCfg.Currency,
		RewardCentsPerPoint: bookingCfg.RewardCentsPerPoint,
		CommissionBps:       bookingCfg.CommissionBps,
		PendingTTL:          bookingCfg.PendingTTL,
	}, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.AccessLog(logger))

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger)

	bookings := handler.NewBookingHandler(svc)
	router.RegisterRoutes(e, store)
	router.RegisterPublic(e, bookings, rateLimit, cache)
	router.RegisterCustomer(e, bookings, cfg.JWTSecret, rateLimit)
	router.RegisterOwner(e, handler.NewOwnerBookingHandler(svc, store), cfg.JWTSecret)
	router.RegisterPayments(e, handler.NewPaymentHandler(svc, bookingCfg.PaymentWebhookSecret))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	addr := ":" + cfg.Port
	g.Go(func() error {
		logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		svc.RunSweeper(gctx, bookingCfg.SweepInterval)
		return nil
	})
	if bookingCfg.NotifyEnabled && bookingCfg.ConsumerEnabled {
		g.Go(func() error {
			err := queue.StartNotificationConsumer(gctx, queue.ConsumerConfig{
				URL:    bookingCfg.RabbitMQURL,
				LogDir: bookingCfg.NotificationDir,
			}, logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
