package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"boltnexus/config"
	"boltnexus/database"
	"boltnexus/locks"
	"boltnexus/middleware"
	"boltnexus/payments"
	"boltnexus/routes"
	"boltnexus/scheduler"
	"boltnexus/services"
	"boltnexus/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	checkDB := flag.Bool("check-db", false, "check database connectivity and exit")
	flag.Parse()

	cfg := config.Load()

	utils.ConfigureLogger(cfg.LogDir, cfg.IsProduction())
	defer utils.SyncLogger()
	log := utils.GetLogger()

	if *checkDB {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.CheckConnection(ctx, cfg); err != nil {
			log.Fatal("Database connection check failed", zap.Error(err))
		}
		log.Info("Database connection check passed")
		return
	}

	// Initialize DB
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := database.SeedDefaultTechnician(db, cfg.DefaultTechnicianEmail, cfg.DefaultTechnicianPassword); err != nil {
		log.Fatal("Failed to seed default technician", zap.Error(err))
	}

	gateway, err := payments.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.UsesMockGateway())
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	locker, redisClient := newLocker(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	appliances := services.NewApplianceService(db)
	bookings := services.NewBookingService(db, gateway, locker)
	technicians := services.NewTechnicianService(db, cfg.JWTSecret, cfg.JWTExpiration())

	var limiter *middleware.RateLimiterStore
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiterStore(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	router := routes.NewRouter(routes.Dependencies{
		Config:      cfg,
		DB:          db,
		Appliances:  appliances,
		Bookings:    bookings,
		Technicians: technicians,
		RateLimiter: limiter,
	})

	if cfg.MaintenanceSchedule != "" {
		sched, err := scheduler.Start(cfg.MaintenanceSchedule, appliances)
		if err != nil {
			log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
		}
		defer scheduler.Stop(sched)
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("🚀 Server running", zap.String("addr", "http://"+srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
}

// newLocker uses Redis when configured so several instances share booking
// locks, and falls back to an in-process locker otherwise.
func newLocker(cfg *config.Config, log *zap.Logger) (locks.Locker, *redis.Client) {
	if cfg.RedisAddr == "" {
		log.Info("Using in-memory booking locks")
		return locks.NewMemoryLocker(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := locks.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	log.Info("Using Redis booking locks", zap.String("addr", cfg.RedisAddr))
	return locks.NewRedisLocker(client, cfg.LockTTL()), client
}
