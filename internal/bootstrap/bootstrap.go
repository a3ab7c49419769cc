package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/imrysn/kmtifmsv2-sub000/docs" // Import generated swagger docs
	appControllers "github.com/imrysn/kmtifmsv2-sub000/internal/app/controllers"
	appMigrations "github.com/imrysn/kmtifmsv2-sub000/internal/app/migrations"
	appRepos "github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	appRoutes "github.com/imrysn/kmtifmsv2-sub000/internal/app/routes"
	appServices "github.com/imrysn/kmtifmsv2-sub000/internal/app/services"
	"github.com/imrysn/kmtifmsv2-sub000/internal/config"
	"github.com/imrysn/kmtifmsv2-sub000/internal/db"
	appMiddleware "github.com/imrysn/kmtifmsv2-sub000/internal/middleware"
	pkgAuth "github.com/imrysn/kmtifmsv2-sub000/internal/pkg/auth"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/filestorage"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/helpers"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/logger"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/websocket"
	"github.com/imrysn/kmtifmsv2-sub000/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService            appServices.AuthService
	UserService            appServices.UserService
	TeamService            appServices.TeamService
	FileService            appServices.FileService
	ReviewService          appServices.ReviewService
	NotificationService    appServices.NotificationService
	AssignmentService      appServices.AssignmentService
	AuthController         *appControllers.AuthController
	UserController         *appControllers.UserController
	TeamController         *appControllers.TeamController
	FileController         *appControllers.FileController
	ReviewController       *appControllers.ReviewController
	NotificationController *appControllers.NotificationController
	AssignmentController   *appControllers.AssignmentController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	Repos                  *appRepos.Repositories
	JWTService             *pkgAuth.JWTService
	FileStorage            *filestorage.LocalStorage
	WSHub                  *websocket.Hub
	WSHandler              *websocket.Handler
	Logger                 zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger // Get the configured global logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	// Run migrations
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	// Create Default Data (after migrations)
	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Log the error but don't necessarily fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	// Initialize File Storage
	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	// WebSocket hub for live notification delivery
	deps.WSHub = websocket.NewHub(lgr)
	go deps.WSHub.Run()
	deps.WSHandler = websocket.NewHandler(deps.WSHub, lgr)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	// Initialize services
	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.JWTService,
		lgr,
	)
	deps.UserService = appServices.NewUserService(deps.Repos.UserRepository, deps.Repos.TokenRepository, lgr)
	deps.TeamService = appServices.NewTeamService(deps.Repos.TeamRepository, deps.Repos.UserRepository, lgr)
	deps.NotificationService = appServices.NewNotificationService(deps.Repos.NotificationRepository, lgr)
	deps.FileService = appServices.NewFileService(
		dbPool,
		deps.Repos.FileRepository,
		deps.Repos.FileCommentRepository,
		deps.Repos.FileHistoryRepository,
		deps.Repos.NotificationRepository,
		deps.Repos.UserRepository,
		deps.FileStorage,
		deps.WSHub,
		lgr,
	)
	deps.ReviewService = appServices.NewReviewService(
		dbPool,
		deps.Repos.FileRepository,
		deps.Repos.FileCommentRepository,
		deps.Repos.FileHistoryRepository,
		deps.Repos.NotificationRepository,
		deps.Repos.UserRepository,
		deps.FileStorage,
		cfg.Server.ProjectsPath,
		deps.WSHub,
		lgr,
	)
	deps.AssignmentService = appServices.NewAssignmentService(
		dbPool,
		deps.Repos.AssignmentRepository,
		deps.Repos.UserRepository,
		deps.Repos.NotificationRepository,
		deps.WSHub,
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.UserRepository)

	// Periodic sweep of expired refresh tokens; the table would otherwise
	// grow without bound
	go runTokenSweep(deps.AuthService, lgr)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.UserController = appControllers.NewUserController(deps.UserService)
	deps.TeamController = appControllers.NewTeamController(deps.TeamService)
	deps.FileController = appControllers.NewFileController(deps.FileService, deps.FileStorage)
	deps.ReviewController = appControllers.NewReviewController(deps.ReviewService)
	deps.NotificationController = appControllers.NewNotificationController(deps.NotificationService)
	deps.AssignmentController = appControllers.NewAssignmentController(deps.AssignmentService)

	return deps, nil
}

// runTokenSweep deletes expired refresh tokens once an hour.
func runTokenSweep(authService appServices.AuthService, lgr zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := authService.PurgeExpiredTokens(ctx); err != nil {
			lgr.Error().Err(err).Msg("Expired token sweep failed")
		}
		cancel()
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr))

	// Setup Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json"), ginSwagger.DefaultModelsExpandDepth(1)))

	// Setup API routes using the dependencies
	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.UserController,
		deps.TeamController,
		deps.FileController,
		deps.ReviewController,
		deps.NotificationController,
		deps.AssignmentController,
		deps.WSHandler,
		deps.AuthMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
