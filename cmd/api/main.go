package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/movila/flashback-backend/internal/config"
	"github.com/movila/flashback-backend/internal/handler"
	"github.com/movila/flashback-backend/internal/middleware"
	"github.com/movila/flashback-backend/internal/repository"
	"github.com/movila/flashback-backend/internal/service"
	"github.com/movila/flashback-backend/pkg/database"
	"github.com/movila/flashback-backend/pkg/email"
	"github.com/movila/flashback-backend/pkg/payment"
	"github.com/movila/flashback-backend/pkg/storage"
	"github.com/movila/flashback-backend/pkg/utils"
	"github.com/movila/flashback-backend/pkg/worker"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize database
	db := database.NewDatabase()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	filmRepo := repository.NewFilmRepository(db)
	tokenRepo := repository.NewLoginTokenRepository(db)

	// Storage: one bucket for uploaded photos, one for finished videos
	photoStorage, err := storage.NewCloudflareStorage(cfg, cfg.R2.PhotosBucket)
	if err != nil {
		log.Fatal("Failed to initialize photo storage:", err)
	}
	outputStorage, err := storage.NewCloudflareStorage(cfg, cfg.R2.OutputBucket)
	if err != nil {
		log.Fatal("Failed to initialize output storage:", err)
	}

	// Email service
	emailService := email.NewEmailService()

	// Stripe service
	stripeService := payment.NewStripeService(cfg.Stripe.SecretKey, cfg.BaseURL)

	// Render worker client
	flyClient := worker.NewFlyClient(cfg.Fly.APIURL, cfg.Fly.Token, cfg.Fly.App, cfg.Fly.Image)

	// Services
	paymentService := service.NewPaymentService(stripeService, cfg)
	provisioningService := service.NewProvisioningService(stripeService, userRepo, orderRepo, logger)
	authService := service.NewAuthService(userRepo, tokenRepo, emailService, cfg.BaseURL)
	orderService := service.NewOrderService(orderRepo)
	deliveryService := service.NewDeliveryService(filmRepo, userRepo, outputStorage, emailService, logger)
	generationService := service.NewGenerationService(filmRepo, flyClient, deliveryService, logger)
	filmService := service.NewFilmService(filmRepo, orderRepo, photoStorage, generationService, logger)

	// Sweep expired sign-in tokens once an hour
	go func() {
		for range time.Tick(time.Hour) {
			if err := tokenRepo.DeleteExpired(time.Now()); err != nil {
				logger.Warn("failed to sweep expired login tokens", zap.Error(err))
			}
		}
	}()

	validator := utils.NewValidator()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, provisioningService, validator, cfg.BaseURL)
	paymentHandler := handler.NewPaymentHandler(paymentService, validator)
	orderHandler := handler.NewOrderHandler(orderService)
	filmHandler := handler.NewFilmHandler(filmService, generationService, deliveryService, validator)
	generationHandler := handler.NewGenerationHandler(generationService, cfg.CallbackToken)

	// Router
	app := fiber.New(fiber.Config{
		BodyLimit: 256 * 1024 * 1024, // multipart photo batches
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "https://movila.io, https://www.movila.io, http://localhost:3000",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(fiberLogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Public routes
	api.Post("/checkout", paymentHandler.CreateCheckout)
	api.Get("/payments/verify", paymentHandler.VerifyPayment)

	auth := api.Group("/auth")
	auth.Post("/provision", authHandler.Provision)
	auth.Post("/magic-link", authHandler.MagicLink)
	auth.Get("/callback", authHandler.Callback)

	// Render worker callback (authenticated by shared token, not a session)
	api.Post("/generation/callback", generationHandler.HandleCallback)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		api.Get("/orders", orderHandler.GetOrders)

		films := api.Group("/films")
		films.Post("/resume", filmHandler.ResumeFilm)
		films.Get("/", filmHandler.GetFilms)
		films.Get("/:id/photos", filmHandler.GetPhotos)
		films.Post("/:id/photos", filmHandler.UploadPhotos)
		films.Delete("/:id/photos/:name", filmHandler.DeletePhoto)
		films.Post("/:id/submit", filmHandler.SubmitFilm)
		films.Post("/:id/generate", filmHandler.GenerateFilm)
		films.Get("/:id/video-url", filmHandler.GetVideoURL)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Fatal(app.Listen(":" + port))
}
