// @title Blood Bank API
// @version 1.0
// @description Back-office API for donor registration, donation lifecycle, and blood stock.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"crypto/rand"
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"bloodbank/config"
	_ "bloodbank/docs"
	authadapter "bloodbank/internal/adapters/auth"
	"bloodbank/internal/adapters/cpf"
	emailadapter "bloodbank/internal/adapters/email"
	delivery "bloodbank/internal/delivery/http"
	"bloodbank/internal/delivery/http/controllers"
	"bloodbank/internal/delivery/http/middleware"
	"bloodbank/internal/repository/postgres"
	redisrepo "bloodbank/internal/repository/redis"
	"bloodbank/internal/services"
)

const bcryptCost = 10

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "err", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("invalid redis url", "err", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Repositories
	donorRepo := postgres.NewDonorRepository(db)
	employeeRepo := postgres.NewEmployeeRepository(db)
	blacklist := redisrepo.NewTokenBlacklist(redisClient)

	// Adapters
	hasher := authadapter.NewBcryptHasher(bcryptCost)
	issuer, verifier := authadapter.NewJWTCodec(cfg.JWTSecret)
	cpfValidator := cpf.NewValidator()
	mailer, err := emailadapter.NewMailer(emailadapter.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: emailadapter.SESConfig{
			Region:          cfg.Email.SESRegion,
			AccessKeyID:     cfg.Email.SESAccessKeyID,
			SecretAccessKey: cfg.Email.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	// Services
	emailService := services.NewEmailService(mailer, emailadapter.NewTemplateRenderer(), logger)
	donorService := services.NewDonorService(donorRepo, cpfValidator)
	donationService := services.NewDonationService(donorRepo)
	stockService := services.NewStockService(donorRepo)
	employeeService := services.NewEmployeeService(employeeRepo, hasher, emailService, rand.Reader, logger)
	authService := services.NewAuthService(employeeRepo, hasher, issuer, verifier, blacklist, cfg.JWTExpiry)

	mux := delivery.NewRouter(delivery.RouterDeps{
		Logger:    logger,
		Verifier:  verifier,
		Blacklist: blacklist,
		Auth:      controllers.NewAuthController(logger, authService),
		Donors:    controllers.NewDonorController(logger, donorService),
		Donations: controllers.NewDonationController(logger, donationService),
		Stock:     controllers.NewStockController(logger, stockService),
		Employees: controllers.NewEmployeeController(logger, employeeService),
	})

	handler := middleware.LoggingMiddleware(logger, mux)
	handler = middleware.CORS([]string{os.Getenv("CORS_ALLOWED_ORIGIN")}, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
