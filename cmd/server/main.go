package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
	"github.com/iliyamo/bus-ticket-reservation/internal/config"
	"github.com/iliyamo/bus-ticket-reservation/internal/database"
	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
	appmw "github.com/iliyamo/bus-ticket-reservation/internal/middleware"
	"github.com/iliyamo/bus-ticket-reservation/internal/notify"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
	"github.com/iliyamo/bus-ticket-reservation/internal/router"
	"github.com/iliyamo/bus-ticket-reservation/internal/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter; both degrade
	// to no-ops when it is unavailable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}

	// Live availability feed.
	hub := ws.NewHub()
	go hub.Run()

	// Reservation engine with post-commit notifications.
	store := repository.NewBookingStore(db)
	engine := booking.NewEngine(store, notify.New(hub), booking.Policy{
		MaxPassengers:   cfg.MaxPassengers,
		RejectDuplicate: cfg.RejectDuplicate,
	})

	// Repositories.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	busRepo := repository.NewBusRepo(db)
	routeRepo := repository.NewRouteRepo(db)
	scheduleRepo := repository.NewScheduleRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	publicH := &handler.PublicHandler{
		RouteRepo:       routeRepo,
		BusRepo:         busRepo,
		ScheduleRepo:    scheduleRepo,
		ReservationRepo: reservationRepo,
	}
	liveH := handler.NewLiveHandler(hub, scheduleRepo)
	reservationH := handler.NewReservationHandler(engine, reservationRepo)
	adminH := handler.NewAdminHandler(busRepo, routeRepo, scheduleRepo, userRepo)
	adminResH := handler.NewAdminReservationHandler(engine, reservationRepo, scheduleRepo)

	cache := appmw.NewRedisCache(config.LoadCacheConfig(), rdb)
	limiter := appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, liveH, cache)
	router.RegisterCustomer(e, reservationH, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, adminH, adminResH, cfg.JWTSecret)

	// Confirmation consumer keeps its own reconnect loop.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
