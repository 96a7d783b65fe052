package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-api/config"
	"restaurant-api/demo"
	"restaurant-api/logging"
	"restaurant-api/middleware"
	"restaurant-api/policy"
	"restaurant-api/routes"
	"restaurant-api/throttle"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "restaurant-api:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	config.Settings = cfg

	logger := logging.ForServer(cfg, version)
	gin.SetMode(cfg.Server.Mode)
	gin.DebugPrintRouteFunc = logger.RouteDebugger()

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	config.DB = db

	authz, err := policy.NewGormAuthorizer(db)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter, err := newLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "Restaurant Menu and Order API",
			"version":   version,
			"demo_mode": cfg.Demo.Enabled,
		})
	})

	// Welcome
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Restaurant Menu and Order API",
			"docs":    "/api/schema",
			"health":  "/health",
			"roles":   []string{"manager", "delivery_crew", "customer"},
		})
	})

	routes.SetupRoutes(r, authz, limiter, version)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "demo_mode", cfg.Demo.Enabled, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Demo.Enabled {
		g.Go(func() error {
			return demo.RunJanitor(gctx, db, cfg.Demo.PurgeInterval, logger)
		})
	}
	return g.Wait()
}

// newLimiter counts requests in Redis when an address is configured and in
// process memory otherwise.
func newLimiter(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*throttle.Limiter, error) {
	if !cfg.Throttle.Enabled {
		return nil, nil
	}
	rates, err := throttle.ParseRates(cfg.Throttle.Rates)
	if err != nil {
		return nil, err
	}
	if cfg.Redis.Addr == "" {
		return throttle.NewLimiter(throttle.NewMemoryStore(), rates), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info("throttle counters in redis", "addr", cfg.Redis.Addr)
	return throttle.NewLimiter(throttle.NewRedisStore(client), rates), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
