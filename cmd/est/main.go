package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/apopovich85/Est/internal/config"
	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/handler"
	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/apopovich85/Est/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting estimating service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.PartCategory{},
		&entity.Part{},
		&entity.PartPriceHistory{},
		&entity.AssemblyCategory{},
		&entity.StandardAssembly{},
		&entity.StandardAssemblyComponent{},
		&entity.AssemblyVersion{},
		&entity.Project{},
		&entity.Estimate{},
		&entity.EstimateComponent{},
		&entity.EstimateRevision{},
		&entity.Assembly{},
		&entity.AssemblyPart{},
		&entity.Motor{},
		&entity.MotorRevision{},
		&entity.VFDType{},
		&entity.NECAmpRow{},
		&entity.LaborRate{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	seedReferenceData(db, zapLogger)

	rdb := initRedis(cfg.Redis)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// seedReferenceData loads the lookup tables on first boot. Every statement is
// idempotent so restarts are safe.
func seedReferenceData(db *gorm.DB, zapLogger *zap.Logger) {
	seedSQL := []string{
		// NEC full-load current table (three-phase induction motors)
		`INSERT INTO nec_amp_table (id, hp, voltage_115, voltage_200, voltage_208, voltage_230, voltage_460, voltage_575, voltage_2300) VALUES
			('nec_hp_0_5',  0.5,  4.4,  2.5,  2.4,  2.2,  1.1,  0.9,  NULL),
			('nec_hp_0_75', 0.75, 6.4,  3.7,  3.5,  3.2,  1.6,  1.3,  NULL),
			('nec_hp_1',    1,    8.4,  4.8,  4.6,  4.2,  2.1,  1.7,  NULL),
			('nec_hp_1_5',  1.5,  12.0, 6.9,  6.6,  6.0,  3.0,  2.4,  NULL),
			('nec_hp_2',    2,    13.6, 7.8,  7.5,  6.8,  3.4,  2.7,  NULL),
			('nec_hp_3',    3,    NULL, 11.0, 10.6, 9.6,  4.8,  3.9,  NULL),
			('nec_hp_5',    5,    NULL, 17.5, 16.7, 15.2, 7.6,  6.1,  NULL),
			('nec_hp_7_5',  7.5,  NULL, 25.3, 24.2, 22.0, 11.0, 9.0,  NULL),
			('nec_hp_10',   10,   NULL, 32.2, 30.8, 28.0, 14.0, 11.0, NULL),
			('nec_hp_15',   15,   NULL, 48.3, 46.2, 42.0, 21.0, 17.0, NULL),
			('nec_hp_20',   20,   NULL, 62.1, 59.4, 54.0, 27.0, 22.0, NULL),
			('nec_hp_25',   25,   NULL, 78.2, 74.8, 68.0, 34.0, 27.0, NULL),
			('nec_hp_30',   30,   NULL, 92.0, 88.0, 80.0, 40.0, 32.0, NULL),
			('nec_hp_40',   40,   NULL, 120,  114,  104,  52.0, 41.0, NULL),
			('nec_hp_50',   50,   NULL, 150,  143,  130,  65.0, 52.0, NULL),
			('nec_hp_60',   60,   NULL, 177,  169,  154,  77.0, 62.0, 16.0),
			('nec_hp_75',   75,   NULL, 221,  211,  192,  96.0, 77.0, 20.0),
			('nec_hp_100',  100,  NULL, 285,  273,  248,  124,  99.0, 26.0),
			('nec_hp_125',  125,  NULL, 359,  343,  312,  156,  125,  31.0),
			('nec_hp_150',  150,  NULL, 414,  396,  360,  180,  144,  37.0),
			('nec_hp_200',  200,  NULL, 552,  528,  480,  240,  192,  49.0)
		ON CONFLICT (hp) DO NOTHING`,

		// Default labor rates
		`INSERT INTO labor_rates (id, engineering_rate, panel_shop_rate, machine_assembly_rate, notes, is_current, created_by, created_at)
		SELECT 'seed_labor_rate_default', 145, 125, 125, 'default shop rates', true, 'system', NOW()
		WHERE NOT EXISTS (SELECT 1 FROM labor_rates)`,

		// Assembly categories
		`INSERT INTO assembly_categories (id, code, name, sort_order, is_active, created_at, updated_at) VALUES
			('seed_asm_cat_mcc', 'MCC',  'MCC Buckets',    1, true, NOW(), NOW()),
			('seed_asm_cat_pnl', 'PNL',  'Control Panels', 2, true, NOW(), NOW()),
			('seed_asm_cat_pmp', 'PUMP', 'Pump Panels',    3, true, NOW(), NOW()),
			('seed_asm_cat_vfd', 'VFD',  'VFD Assemblies', 4, true, NOW(), NOW()),
			('seed_asm_cat_msc', 'MISC', 'Miscellaneous',  9, true, NOW(), NOW())
		ON CONFLICT (code) DO NOTHING`,

		// Part categories
		`INSERT INTO part_categories (id, name, is_active, created_at, updated_at) VALUES
			('seed_part_cat_breakers',   'Breakers',   true, NOW(), NOW()),
			('seed_part_cat_contactors', 'Contactors', true, NOW(), NOW()),
			('seed_part_cat_enclosures', 'Enclosures', true, NOW(), NOW()),
			('seed_part_cat_plc',        'PLC',        true, NOW(), NOW()),
			('seed_part_cat_wiring',     'Wiring',     true, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING`,

		// VFD type lookup
		`INSERT INTO vfd_types (id, type_name, manufacturer, is_active, sort_order, created_at, updated_at) VALUES
			('seed_vfd_pf525',  'PowerFlex 525', 'Allen-Bradley', true, 1, NOW(), NOW()),
			('seed_vfd_pf755',  'PowerFlex 755', 'Allen-Bradley', true, 2, NOW(), NOW()),
			('seed_vfd_atv320', 'ATV320',        'Schneider',     true, 3, NOW(), NOW()),
			('seed_vfd_g120',   'SINAMICS G120', 'Siemens',       true, 4, NOW(), NOW())
		ON CONFLICT (type_name) DO NOTHING`,
	}

	for _, stmt := range seedSQL {
		if err := db.Exec(stmt).Error; err != nil {
			zapLogger.Warn("Seed statement failed", zap.Error(err))
		}
	}
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.User.Register)
		auth.POST("/login", h.User.Login)
	}

	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// Parts catalog
		parts := authorized.Group("/parts")
		{
			parts.GET("", h.Part.List)
			parts.POST("", h.Part.Create)
			parts.GET("/categories", h.Part.ListCategories)
			parts.POST("/import", h.Part.Import)
			parts.GET("/export", h.Part.Export)
			parts.GET("/:id", h.Part.Get)
			parts.PUT("/:id", h.Part.Update)
			parts.DELETE("/:id", h.Part.Delete)
			parts.POST("/:id/price", h.Part.UpdatePrice)
			parts.GET("/:id/price-history", h.Part.PriceHistory)
		}

		// Standard assembly templates
		standardAssemblies := authorized.Group("/standard-assemblies")
		{
			standardAssemblies.GET("", h.StandardAssembly.List)
			standardAssemblies.POST("", h.StandardAssembly.Create)
			standardAssemblies.GET("/:id", h.StandardAssembly.Get)
			standardAssemblies.PUT("/:id", h.StandardAssembly.Update)
			standardAssemblies.DELETE("/:id", h.StandardAssembly.Delete)
			standardAssemblies.GET("/:id/cost", h.StandardAssembly.Cost)
			standardAssemblies.POST("/:id/components", h.StandardAssembly.AddComponent)
			standardAssemblies.PUT("/:id/components/:componentId", h.StandardAssembly.UpdateComponent)
			standardAssemblies.DELETE("/:id/components/:componentId", h.StandardAssembly.RemoveComponent)
			standardAssemblies.GET("/:id/versions", h.StandardAssembly.ListVersions)
			standardAssemblies.POST("/:id/versions", h.StandardAssembly.CreateVersion)
			standardAssemblies.GET("/:id/versions/compare", h.StandardAssembly.CompareVersions)
			standardAssemblies.POST("/:id/apply/:estimateId", h.StandardAssembly.Apply)
		}

		authorized.GET("/assembly-categories", h.StandardAssembly.ListCategories)
		authorized.POST("/assembly-categories", h.StandardAssembly.CreateCategory)

		// Projects
		projects := authorized.Group("/projects")
		{
			projects.GET("", h.Project.List)
			projects.POST("", h.Project.Create)
			projects.GET("/:id", h.Project.Get)
			projects.PUT("/:id", h.Project.Update)
			projects.DELETE("/:id", h.Project.Delete)
			projects.GET("/:id/totals", h.Project.Totals)
			projects.GET("/:id/estimates", h.Estimate.ListByProject)
			projects.GET("/:id/motors", h.Motor.ListByProject)
		}

		// Estimates
		estimates := authorized.Group("/estimates")
		{
			estimates.POST("", h.Estimate.Create)
			estimates.GET("/:id", h.Estimate.Get)
			estimates.PUT("/:id", h.Estimate.Update)
			estimates.DELETE("/:id", h.Estimate.Delete)
			estimates.GET("/:id/totals", h.Estimate.Totals)
			estimates.POST("/:id/assemblies", h.Estimate.AddAssembly)
			estimates.POST("/:id/components", h.Estimate.AddComponent)
			estimates.GET("/:id/revisions", h.Estimate.ListRevisions)
			estimates.POST("/:id/revisions", h.Estimate.CreateRevision)
		}

		// Assembly instances
		assemblies := authorized.Group("/assemblies")
		{
			assemblies.DELETE("/:id", h.Estimate.DeleteAssembly)
			assemblies.POST("/:id/parts", h.Estimate.AddAssemblyPart)
			assemblies.POST("/:id/resolve-version", h.StandardAssembly.ResolveVersion)
			assemblies.POST("/:id/rematerialize", h.StandardAssembly.Rematerialize)
		}

		authorized.PUT("/assembly-parts/:id", h.Estimate.UpdateAssemblyPart)
		authorized.DELETE("/assembly-parts/:id", h.Estimate.RemoveAssemblyPart)
		authorized.PUT("/estimate-components/:id", h.Estimate.UpdateComponent)
		authorized.DELETE("/estimate-components/:id", h.Estimate.RemoveComponent)

		// Motors and loads
		motors := authorized.Group("/motors")
		{
			motors.POST("", h.Motor.Create)
			motors.GET("/:id", h.Motor.Get)
			motors.PUT("/:id", h.Motor.Update)
			motors.DELETE("/:id", h.Motor.Delete)
			motors.GET("/:id/amps", h.Motor.Amps)
			motors.GET("/:id/revisions", h.Motor.ListRevisions)
			motors.POST("/:id/revert/:revisionId", h.Motor.Revert)
		}

		authorized.GET("/nec-amps", h.Motor.NECAmpTable)
		authorized.GET("/vfd-types", h.Motor.ListVFDTypes)

		// Accounts
		users := authorized.Group("/users")
		{
			users.GET("/me", h.User.Me)
			users.PUT("/me", h.User.UpdateMe)
			users.GET("", middleware.RequireRole("admin"), h.User.List)
		}

		// Labor rates (updates are admin only)
		authorized.GET("/labor-rates", h.LaborRate.Current)
		authorized.GET("/labor-rates/history", h.LaborRate.History)
		authorized.POST("/labor-rates", middleware.RequireRole("admin"), h.LaborRate.Update)
	}
}
