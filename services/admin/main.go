package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/hallbooking-admin/pkg/config"
	"github.com/diagnosis/hallbooking-admin/pkg/database"
	"github.com/diagnosis/hallbooking-admin/pkg/events"
	"github.com/diagnosis/hallbooking-admin/pkg/logger"
	"github.com/diagnosis/hallbooking-admin/pkg/notify"
	"github.com/diagnosis/hallbooking-admin/pkg/ratelimit"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/handlers"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/identity"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/repository"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/service"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Bookings.Location()
	if err != nil {
		logger.Error("Invalid bookings timezone", "timezone", cfg.Bookings.Timezone, "error", err)
		os.Exit(1)
	}

	hallsCfg, err := config.LoadHalls(cfg.Bookings.HallsFile)
	if err != nil {
		logger.Warn("Falling back to default hall catalogue", "file", cfg.Bookings.HallsFile, "error", err)
		hallsCfg = config.DefaultHalls()
	}
	halls := make([]domain.Hall, 0, len(hallsCfg.Halls))
	for _, hc := range hallsCfg.Halls {
		if hc.IsActive {
			halls = append(halls, domain.Hall{Name: hc.Name, Capacity: hc.Capacity})
		}
	}

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	var eventBus events.Publisher = events.NopPublisher{}
	if cfg.NATS.Enabled {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		eventBus = bus
	}
	defer eventBus.Close()

	// Rate limiting
	var limiter ratelimit.Limiter = ratelimit.Nop{}
	if redisClient, err := ratelimit.Connect(ctx, cfg.Redis.URL); err != nil {
		logger.Warn("Redis unavailable, rate limiting disabled", "error", err)
	} else {
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(redisClient)
	}

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)

	// Initialize services
	notifier := notify.NewClient(cfg.Notify.BaseURL, cfg.Notify.Timeout)
	provider := identity.NewProvider(accountRepo)
	reviewService := service.NewReviewService(bookingRepo, notifier, eventBus, halls, loc)
	accountService := service.NewAccountService(profileRepo, provider, notifier, limiter, eventBus, cfg)

	h := handlers.New(reviewService, accountService, limiter, cfg, loc)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting admin service", "port", cfg.Server.Port, "halls", len(halls))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down admin service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Admin service error", "error", err)
		os.Exit(1)
	}
}
