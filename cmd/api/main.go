package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/config"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/db"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/handlers"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/ai"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/assignment"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/calendar"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/marketplace"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/messaging"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/payment"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/referral"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/storage"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/users"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", true)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Pretty)

	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	rdb := realtime.NewRedis(cfg.Redis, log)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// notifications are still stored; only live delivery and rate limits degrade
		log.Warn().Err(err).Msg("redis unreachable")
	}
	cancel()

	store, err := storage.NewMinIO(cfg.Storage, cfg.JWT.Secret, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create object storage client")
	}

	var gen ai.Generator = ai.Unconfigured{}
	if g, err := ai.NewGemini(context.Background(), cfg.AI); err != nil {
		log.Warn().Err(err).Msg("AI chat disabled")
	} else {
		gen = g
	}

	notifier := notification.NewService(gdb, realtime.NewNotificationPublisher(rdb), log)
	cal := calendar.NewService(gdb, log)
	assignments := assignment.NewService(gdb, notifier, cal, log)
	w := wallet.NewWalletService(gdb)
	referrals := referral.NewService(gdb, notifier, w, log)
	userSvc := users.NewService(gdb, notifier, referrals, log)

	authH := &handlers.AuthHandler{
		Users:         userSvc,
		JWTSecret:     cfg.JWT.Secret,
		Expires:       cfg.JWT.ExpiresMin,
		SecureCookies: cfg.App.SecureCookies,
	}
	router := &handlers.Router{
		JWTSecret: cfg.JWT.Secret,
		Limiter:   realtime.NewRedisLimiter(rdb),
		AIRate:    cfg.AI.RateLimit,
		AIWindow:  cfg.AI.RateWindow,
		AuthRate:  20,

		Auth: authH,
		Google: &handlers.GoogleOAuthHandler{
			Session:         authH,
			Users:           userSvc,
			GoogleClientID:  cfg.Google.ClientID,
			GoogleSecret:    cfg.Google.ClientSecret,
			GoogleRedirect:  cfg.Google.RedirectURL,
			FrontendBaseURL: cfg.App.FrontendBaseURL,
		},
		Users:         handlers.NewUserHandler(userSvc),
		Assignments:   &handlers.AssignmentHandler{Svc: assignments},
		Payments:      handlers.NewPaymentHandler(payment.NewService(gdb, assignments, referrals, notifier, log)),
		Marketplace:   handlers.NewProductHandler(marketplace.NewService(gdb, notifier, log)),
		Messages:      handlers.NewMessageHandler(messaging.NewService(gdb, notifier, log)),
		Notifications: handlers.NewNotificationHandler(notifier),
		Calendar:      handlers.NewCalendarHandler(cal),
		AI:            handlers.NewAIHandler(ai.NewAssistant(gdb, gen, assignments, cfg.AI, log)),
		Referrals:     handlers.NewReferralHandler(referrals, w),
		Uploads:       handlers.NewUploadHandler(store, cfg.App.MaxUploadSize),
		Categories:    handlers.NewCategoryHandler(gdb),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    int(cfg.App.MaxUploadSize) + 1<<20,
	})
	app.Use(middleware.Recovery(log))
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.App.AllowedOrigins, ", "),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "message": "ok"})
	})
	router.Register(app)

	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.App.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis")
	}
}
