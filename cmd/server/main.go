package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/database"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/repository/memstore"
	"github.com/iliyamo/bus-seat-reservation/internal/reservation"
	"github.com/iliyamo/bus-seat-reservation/internal/router"
	"github.com/iliyamo/bus-seat-reservation/internal/scheduler"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// store is what the engine and the settings refresh need from storage.
type store interface {
	repository.Store
	config.SettingsSource
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore := openStore(ctx, cfg)
	defer closeStore()

	settings := config.NewProvider(config.LoadEngine())
	if err := settings.Reload(ctx, st); err != nil {
		log.Printf("config: initial settings load failed, using defaults: %v", err)
	}

	var events reservation.Publisher = service.Nop{}
	if cfg.EventsEnabled {
		events = service.NewPublisher(cfg.RabbitURL)
	}

	clk := clock.Real()
	engine := reservation.New(reservation.Deps{
		Store:    st,
		Settings: settings,
		Clock:    clk,
		Events:   events,
	})

	rdb := config.NewRedisClient()
	var lease scheduler.Lease = scheduler.LocalLease{}
	if rdb != nil {
		defer rdb.Close()
		lease = scheduler.NewRedisLease(rdb)
	}

	var wg sync.WaitGroup
	sweepCfg := config.LoadSweepConfig()
	sched := scheduler.New(clk, lease, sweepCfg.LeasePrefix, scheduler.EngineJobs(engine, settings, st, sweepCfg)...)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	if cfg.AuditConsumer {
		consumer := queue.NewAuditConsumer(cfg.RabbitURL, cfg.AuditLogPath)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("ticket-consumer: stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	router.RegisterRoutes(e)
	router.RegisterReservation(e, router.Deps{
		Engine:    engine,
		Clock:     clk,
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, storage=%s)", addr, cfg.Env, cfg.StorageDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	wg.Wait()
}

// openStore returns the configured storage driver and its close function.
func openStore(ctx context.Context, cfg config.Config) (store, func()) {
	if cfg.StorageDriver == config.DriverMemory {
		if cfg.MemstoreSeed == "" {
			log.Printf("storage: memory driver with an empty catalog")
			return memstore.New(), func() {}
		}
		st, err := memstore.LoadFile(cfg.MemstoreSeed)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		return st, func() {}
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if cfg.DBMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("db: schema: %v", err)
		}
	}
	return repository.NewMySQLStore(db), func() { _ = db.Close() }
}
