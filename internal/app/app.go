package app

import (
	"staysync-backend/internal/config"
	"staysync-backend/internal/infrastructure/database"
	healthh "staysync-backend/internal/interfaces/handlers/health"
	"staysync-backend/internal/interfaces/handlers/syncops"
	"staysync-backend/internal/middleware"
	"staysync-backend/internal/store"
	"staysync-backend/internal/syncengine"
	"staysync-backend/internal/upstream"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app, the sync engine, and all global middleware
// and route registration. The returned scheduler is not started; the caller
// decides when the timer begins.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, *syncengine.Scheduler, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	// Redis is optional; without it traffic counters are simply absent.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		rdb = redis.NewClient(opts)
	}

	if rdb != nil {
		app.Use(middleware.HealthMarker(rdb))
	}
	app.Use(middleware.CORS(cfg.CORSAllowedSuffix))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, nil, err
		}
	}

	client := upstream.NewClient(upstream.Config{
		APIURL:       cfg.PMSAPIURL,
		TokenURL:     cfg.PMSTokenURL,
		ClientID:     cfg.PMSClientID,
		ClientSecret: cfg.PMSClientSecret,
		MaxRPS:       cfg.PMSMaxRPS,
		MaxInflight:  cfg.PMSMaxInflight,
	})

	var scheduler *syncengine.Scheduler
	if db != nil {
		tasks := &syncengine.Tasks{
			Client:          client,
			Listings:        &store.ListingRepo{DB: db},
			Availability:    &store.AvailabilityRepo{DB: db},
			Reservations:    &store.ReservationRepo{DB: db},
			ListingTTL:      cfg.ListingTTL,
			AvailabilityTTL: cfg.AvailabilityTTL,
			PastDays:        cfg.AvailabilityPastDays,
			FutureDays:      cfg.AvailabilityFutureDays,
		}
		orchestrator := &syncengine.Orchestrator{
			Tasks:      tasks,
			Reconciler: &syncengine.Reconciler{DB: db},
			Properties: cfg.PropertyIDs,
		}
		scheduler = &syncengine.Scheduler{
			Orchestrator: orchestrator,
			Interval:     cfg.SyncInterval,
			JitterPct:    cfg.JitterPercent,
		}

		syncHandlers := &syncops.Handlers{Scheduler: scheduler, Tasks: tasks}
		syncGroup := app.Group("/api/v1/sync", middleware.RequireAdminKey(cfg.AdminAPIKey))
		syncGroup.Post("/run", syncHandlers.RunETL)
		syncGroup.Post("/listings/:id", syncHandlers.SyncListing)
		syncGroup.Post("/availability/:id", syncHandlers.SyncAvailability)
		syncGroup.Get("/status", syncHandlers.Status)
	}

	healthHandlers := &healthh.Handlers{
		Rdb:            rdb,
		UpstreamURL:    cfg.PMSAPIURL,
		HealthAdminKey: cfg.AdminAPIKey,
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			healthHandlers.DB = sqlDB
		}
	}
	if scheduler != nil {
		healthHandlers.Scheduler = scheduler
	}
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/reset", healthHandlers.Reset)

	return app, db, rdb, scheduler, nil
}
