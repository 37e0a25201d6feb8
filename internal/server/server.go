package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/config"
	"pera.com/perasystem/internal/entity"
	"pera.com/perasystem/internal/middleware"
	"pera.com/perasystem/internal/scheduler"
	"pera.com/perasystem/pkg/database"
	"pera.com/perasystem/pkg/storage"
	"pera.com/perasystem/pkg/token"
	"pera.com/perasystem/pkg/validator"

	notifHttp "pera.com/perasystem/internal/modules/notification/delivery/http"
	notifRepo "pera.com/perasystem/internal/modules/notification/repository"
	notifService "pera.com/perasystem/internal/modules/notification/service"

	requisitionHttp "pera.com/perasystem/internal/modules/requisition/delivery/http"
	requisitionRepo "pera.com/perasystem/internal/modules/requisition/repository"
	requisitionService "pera.com/perasystem/internal/modules/requisition/service"

	statHttp "pera.com/perasystem/internal/modules/stat/delivery/http"
	statService "pera.com/perasystem/internal/modules/stat/service"

	stationHttp "pera.com/perasystem/internal/modules/station/delivery/http"
	stationRepo "pera.com/perasystem/internal/modules/station/repository"
	stationService "pera.com/perasystem/internal/modules/station/service"

	userHttp "pera.com/perasystem/internal/modules/user/delivery/http"
	userRepo "pera.com/perasystem/internal/modules/user/repository"
	userService "pera.com/perasystem/internal/modules/user/service"

	vehicleHttp "pera.com/perasystem/internal/modules/vehicle/delivery/http"
	vehicleRepo "pera.com/perasystem/internal/modules/vehicle/repository"
	vehicleService "pera.com/perasystem/internal/modules/vehicle/service"

	weaponHttp "pera.com/perasystem/internal/modules/weapon/delivery/http"
	weaponRepo "pera.com/perasystem/internal/modules/weapon/repository"
	weaponService "pera.com/perasystem/internal/modules/weapon/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const uploadsPath = "/uploads"

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *scheduler.Scheduler
	logger      *zap.Logger
}

// NewServer wires every module and builds the route table. The scheduler is
// created but not started.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) (*Server, error) {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.RegisterJSONFieldNames()

	files, err := newFileStorage(cfg)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator()
	userService.RegisterPolicy(evaluator)
	stationService.RegisterPolicy(evaluator)
	vehicleService.RegisterPolicy(evaluator)
	weaponService.RegisterPolicy(evaluator)
	requisitionService.RegisterPolicy(evaluator)
	statService.RegisterPolicy(evaluator)

	tokens := token.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)

	// Repositories
	users := userRepo.NewRepository(db)
	stations := stationRepo.NewRepository(db)
	vehicles := vehicleRepo.NewRepository(db)
	weapons := weaponRepo.NewRepository(db)
	requisitions := requisitionRepo.NewRepository(db)
	notifications := notifRepo.NewRepository(db)

	// Notification Module
	notificationSvc := notifService.NewService(notifications, redisClient, logger)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, redisClient, originChecker(cfg.AllowedOrigins))

	authSvc := userService.NewAuthService(users, stations, tokens, redisClient, cfg.RateLimitLogin, logger)
	userSvc := userService.NewService(users, stations, evaluator, logger)
	userHandler := userHttp.NewUserHandler(authSvc, userSvc)

	stationSvc := stationService.NewService(stations, users, newStationIndex(cfg, logger), evaluator, logger)
	stationHandler := stationHttp.NewStationHandler(stationSvc)

	vehicleSvc := vehicleService.NewService(vehicles, stations, users, evaluator, logger)
	vehicleHandler := vehicleHttp.NewVehicleHandler(vehicleSvc)

	weaponSvc := weaponService.NewService(weapons, stations, users, evaluator, logger)
	weaponHandler := weaponHttp.NewWeaponHandler(weaponSvc)

	requisitionSvc := requisitionService.NewService(requisitionService.Dependencies{
		Repo:        requisitions,
		Sequencer:   requisitionService.NewSequencer(redisClient, requisitions),
		Users:       users,
		Vehicles:    vehicles,
		Weapons:     weapons,
		Files:       files,
		Notifier:    notificationSvc,
		RedisClient: redisClient,
		Authz:       evaluator,
		Logger:      logger,
	}, requisitionService.Options{
		CreateCooldown:     cfg.RateLimitRequisition,
		MaxAttachmentBytes: cfg.UploadMaxBytes,
	})
	requisitionHandler := requisitionHttp.NewRequisitionHandler(requisitionSvc)

	statSvc := statService.NewService(requisitions, vehicles, weapons, users, evaluator)
	statHandler := statHttp.NewStatHandler(statSvc)

	jobs := scheduler.New(logger)
	for _, job := range []scheduler.Job{
		scheduler.NewStationReindexJob(stationSvc, logger),
		scheduler.NewMaintenanceDueJob(vehicles, weapons, users, notificationSvc),
	} {
		if err := jobs.Register(job); err != nil {
			return nil, err
		}
	}

	router := gin.New()
	if cfg.CORSEnabled {
		setupCORS(router, cfg.AllowedOrigins)
	}
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = 8 << 20

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "PERA System API is running")
	})
	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})
	if cfg.StorageDriver == config.StorageLocal {
		router.Static(uploadsPath, cfg.UploadDir)
	}

	authMiddleware := middleware.NewAuthMiddleware(tokens, users)
	requireAuth := authMiddleware.RequireAuth()

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/login", userHandler.Login)
		if cfg.RegistrationMode == config.RegistrationAdmin {
			auth.POST("/register", requireAuth, authMiddleware.RequireRoles(entity.RoleAdmin), userHandler.Register)
		} else {
			auth.POST("/register", userHandler.Register)
		}
		auth.GET("/me", requireAuth, userHandler.Me)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(requireAuth)
	{
		protected.GET("/users", userHandler.List)
		protected.GET("/users/:id", userHandler.Get)
		protected.PUT("/users/:id", userHandler.Update)
		protected.PUT("/users/:id/status", userHandler.UpdateStatus)

		protected.POST("/stations", stationHandler.Create)
		protected.GET("/stations", stationHandler.List)
		protected.GET("/stations/nearby", stationHandler.Nearby)
		protected.GET("/stations/search", stationHandler.Search)
		protected.GET("/stations/:id", stationHandler.Get)
		protected.PUT("/stations/:id", stationHandler.Update)
		protected.GET("/stations/:id/children", stationHandler.Children)

		protected.POST("/vehicles", vehicleHandler.Create)
		protected.GET("/vehicles", vehicleHandler.List)
		protected.GET("/vehicles/:id", vehicleHandler.Get)
		protected.PUT("/vehicles/:id", vehicleHandler.Update)
		protected.PUT("/vehicles/:id/status", vehicleHandler.UpdateStatus)

		protected.POST("/weapons", weaponHandler.Create)
		protected.GET("/weapons", weaponHandler.List)
		protected.GET("/weapons/:id", weaponHandler.Get)
		protected.PUT("/weapons/:id", weaponHandler.Update)
		protected.PUT("/weapons/:id/status", weaponHandler.UpdateStatus)

		protected.POST("/requisitions", requisitionHandler.Create)
		protected.GET("/requisitions", requisitionHandler.List)
		protected.GET("/requisitions/:id", requisitionHandler.Get)
		protected.PUT("/requisitions/:id/status", requisitionHandler.UpdateStatus)
		protected.DELETE("/requisitions/:id", requisitionHandler.Delete)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		protected.GET("/stats/dashboard", statHandler.Dashboard)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   jobs,
		logger:      logger,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

func newFileStorage(cfg *config.Config) (storage.FileStorage, error) {
	if cfg.StorageDriver == config.StorageCloudinary {
		files, err := storage.NewCloudinaryStorage(cfg.CloudinaryUploadFolder)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cloudinary storage: %w", err)
		}
		return files, nil
	}
	files, err := storage.NewLocalStorage(cfg.UploadDir, uploadsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}
	return files, nil
}

// newStationIndex returns nil when meilisearch is not configured.
func newStationIndex(cfg *config.Config, logger *zap.Logger) stationRepo.SearchIndex {
	host := cfg.MeiliSearchHost
	if host == "" {
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}
	client := meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	return stationRepo.NewMeiliIndex(client, logger)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return entity.Contains(allowed, origin)
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
