package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/emre/registrar/internal/app/controllers"
	appMigrations "github.com/emre/registrar/internal/app/migrations"
	appRepos "github.com/emre/registrar/internal/app/repositories"
	appRoutes "github.com/emre/registrar/internal/app/routes"
	"github.com/emre/registrar/internal/app/sequence"
	appServices "github.com/emre/registrar/internal/app/services"
	"github.com/emre/registrar/internal/config"
	"github.com/emre/registrar/internal/db"
	appMiddleware "github.com/emre/registrar/internal/middleware"
	"github.com/emre/registrar/internal/pkg/logger"
	"github.com/emre/registrar/internal/pkg/throttle"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	StudentStore      appRepos.StudentStore
	StudentService    appServices.StudentService
	StudentController *appControllers.StudentController
	OriginGate        *appMiddleware.OriginGate
	ThrottleStore     throttle.Store
	Logger            zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if fromEnv := os.Getenv("CONFIG_PATH"); fromEnv != "" {
		configPath = fromEnv
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.Config{
		Level:  logger.LogLevel(strings.ToLower(cfg.Logging.Level)),
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
// It returns nil without error when the memory store is configured.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	if cfg.Database.Driver == "memory" {
		lgr.Warn().Msg("Using in-memory record store; records will not survive a restart")
		return nil, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return database, nil
}

// BuildDependencies initializes stores, services, controllers and middleware.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	if database != nil {
		deps.StudentStore = appRepos.NewStudentPostgresStore(database)
	} else {
		deps.StudentStore = appRepos.NewStudentMemoryStore()
	}

	allocator := sequence.NewAllocator(deps.StudentStore)
	deps.StudentService = appServices.NewStudentService(deps.StudentStore, allocator)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService)

	deps.OriginGate = appMiddleware.NewOriginGate(cfg.CORS.AllowedOrigins)

	throttleStore, err := buildThrottleStore(cfg, lgr)
	if err != nil {
		return nil, err
	}
	deps.ThrottleStore = throttleStore

	return deps, nil
}

// buildThrottleStore selects the throttle backend from configuration.
func buildThrottleStore(cfg *config.Config, lgr zerolog.Logger) (throttle.Store, error) {
	limit := cfg.RateLimit.MaxRequests
	window := cfg.GetRateLimitWindow()

	switch cfg.RateLimit.Strategy {
	case "bucket":
		store := throttle.NewBucketStore(limit, window)
		store.StartJanitor(context.Background())
		return store, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to rate limit redis: %w", err)
		}
		lgr.Info().Str("addr", cfg.RateLimit.RedisAddr).Msg("Rate limit redis connected")
		return throttle.NewRedisStore(rdb, limit, window), nil

	default:
		store := throttle.NewWindowStore(limit, window)
		store.StartJanitor(context.Background())
		return store, nil
	}
}

// SetupRouter builds the gin engine with the full middleware pipeline.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(appMiddleware.ErrorBoundary(lgr))

	appRoutes.SetupRouter(router, deps.StudentController, deps.OriginGate, deps.ThrottleStore)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return router
}
