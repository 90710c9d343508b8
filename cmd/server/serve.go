package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iliyamo/store-rating-api/internal/config"
	"github.com/iliyamo/store-rating-api/internal/database"
	"github.com/iliyamo/store-rating-api/internal/handler"
	"github.com/iliyamo/store-rating-api/internal/logging"
	"github.com/iliyamo/store-rating-api/internal/metrics"
	"github.com/iliyamo/store-rating-api/internal/middleware"
	"github.com/iliyamo/store-rating-api/internal/queue"
	"github.com/iliyamo/store-rating-api/internal/repository"
	"github.com/iliyamo/store-rating-api/internal/router"
	"github.com/iliyamo/store-rating-api/internal/service"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

const tokenSweepInterval = time.Hour

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func dbOptions(cfg config.Config) database.Options {
	return database.Options{
		User:     cfg.DBUser,
		Pass:     cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
		MaxConns: cfg.DBMaxConns,
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load() // Load environment config
	if err != nil {
		bootLog := logging.New("info", "console", nil)
		bootLog.Error().Err(err).Msg("invalid configuration")
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, nil)

	db, err := database.Open(ctx, dbOptions(cfg)) // A database that does not answer a ping is fatal
	if err != nil {
		log.Error().Err(err).Str("host", cfg.DBHost).Msg("database unavailable")
		return err
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(ctx) // Redis is optional; nil disables rate limiting and caching
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limiting and caching disabled")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// ---- persistence ----
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	stores := repository.NewStoreRepo(db)
	ratings := repository.NewRatingRepo(db)

	// ---- services ----
	m := metrics.New("store_rating")
	issuer := utils.NewIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTLDays)
	hasher := utils.NewBcryptHasher(cfg.BcryptCost)
	averages := service.NewAverages(stores, log, m)

	var scheduler service.AverageScheduler = averages
	var publisher *queue.Publisher
	if cfg.RabbitURL != "" {
		publisher = queue.NewPublisher(cfg.RabbitURL, averages, log)
		scheduler = publisher
		consumer := queue.NewConsumer(cfg.RabbitURL, averages.Recompute, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("rating consumer stopped")
			}
		}()
	}

	authSvc := service.NewAuthService(users, tokens, hasher, issuer, cfg.RefreshTTLDays,
		service.WithLogger(log), service.WithObserver(m))
	userSvc := service.NewUserService(users, stores, ratings, hasher, scheduler, log)
	storeSvc := service.NewStoreService(stores, users, ratings, log)
	ratingSvc := service.NewRatingService(ratings, stores, scheduler, log)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(m.Middleware())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, router.Deps{
		Tokens:     issuer,
		DB:         db,
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewAdminUserHandler(userSvc),
		Stores:     handler.NewAdminStoreHandler(storeSvc),
		Rating:     handler.NewRatingHandler(ratingSvc, storeSvc),
		Owner:      handler.NewOwnerHandler(storeSvc),
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		StatsCache: middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
		Metrics:    m.Handler(),
	})

	go sweepTokens(ctx, tokens, log)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening") // Print startup info
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if publisher != nil {
		publisher.Wait()
	}
	averages.Wait()
	return nil
}

// sweepTokens removes expired refresh tokens until ctx ends.
func sweepTokens(ctx context.Context, tokens *repository.TokenRepo, log zerolog.Logger) {
	t := time.NewTicker(tokenSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := tokens.DeleteExpired(ctx, now)
			if err != nil {
				log.Warn().Err(err).Msg("refresh token sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("expired refresh tokens removed")
			}
		}
	}
}
