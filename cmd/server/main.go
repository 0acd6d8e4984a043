package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/dormwash/laundry-reservation/internal/config"
    "github.com/dormwash/laundry-reservation/internal/database"
    "github.com/dormwash/laundry-reservation/internal/handler"
    "github.com/dormwash/laundry-reservation/internal/middleware"
    "github.com/dormwash/laundry-reservation/internal/queue"
    "github.com/dormwash/laundry-reservation/internal/repository"
    "github.com/dormwash/laundry-reservation/internal/router"
)

func main() {
    _ = godotenv.Load() // .env is optional; real env vars win
    cfg := config.Load()

    logger, err := zap.NewProduction()
    if cfg.Env == "dev" {
        logger, err = zap.NewDevelopment()
    }
    if err != nil {
        log.Fatalf("failed to build logger: %v", err)
    }
    defer func() { _ = logger.Sync() }()
    zap.ReplaceGlobals(logger)

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        logger.Fatal("failed to connect to database", zap.Error(err))
    }
    defer func() { _ = db.Close() }()

    reservationRepo := repository.NewReservationRepo(db)
    machineRepo := repository.NewMachineRepo(db)
    userRepo := repository.NewUserRepo(db)

    reservationHandler := handler.NewReservationHandler(reservationRepo, machineRepo, userRepo, logger)
    profileHandler := handler.NewProfileHandler(userRepo, logger)
    machineHandler := handler.NewMachineHandler(machineRepo)

    e := echo.New()
    e.HideBanner = true

    // Redis-backed rate limiting and response caching; both degrade to
    // pass-through when Redis is unreachable.
    rdb := config.NewRedisClient()
    if rdb == nil {
        logger.Warn("redis unavailable, cache and rate limiting disabled")
    }
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAPI(e, reservationHandler, profileHandler, machineHandler, cfg.JWTSecret, cache)

    // Lifecycle event consumer runs for the life of the process and
    // reconnects on broker failures.
    go func() {
        if err := queue.StartEventConsumer(logger); err != nil {
            logger.Warn("event consumer stopped", zap.Error(err))
        }
    }()

    addr := ":" + cfg.Port
    logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
    if err := e.Start(addr); err != nil {
        logger.Fatal("server exited", zap.Error(err))
    }
}
