package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"axs-learn/internal/config"
	"axs-learn/internal/db"
	"axs-learn/internal/email"
	apihttp "axs-learn/internal/http"
	"axs-learn/internal/identity"
	"axs-learn/internal/repository"
	"axs-learn/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := db.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	settingsRepo := repository.NewPgSettingsRepository(pool)
	noteRepo := repository.NewPgNoteRepository(pool)
	quizRepo := repository.NewPgQuizResultRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	otpTTL := time.Duration(cfg.OTPTTLMinutes) * time.Minute
	var otpLimiter service.OTPRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, otpTTL, cfg.OTPMaxPerWindow)
		}
		cancel()
	}
	if otpLimiter == nil {
		otpLimiter = service.NewOTPRateLimiter(otpTTL, cfg.OTPMaxPerWindow)
	}

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	tokenSvc := service.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)

	credSvc := service.NewCredentialService(otpTTL)
	userSvc := service.NewUserService(logger, userRepo, credSvc, emailSender, otpLimiter, cfg.FrontendURL+"/reset-password")
	identitySvc := service.NewIdentityService(logger, userRepo, emailSender)
	settingsSvc := service.NewSettingsService(logger, settingsRepo)

	googleOAuth := identity.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	var firebaseVerifier identity.TokenVerifier = identity.NewDisabledVerifier()
	if cfg.FirebaseProjectID != "" {
		firebaseVerifier = identity.NewFirebaseVerifier(cfg.FirebaseProjectID)
	}

	authHandler := apihttp.NewAuthHandler(logger, userSvc, identitySvc, tokenSvc, googleOAuth, firebaseVerifier, cfg.FrontendURL)
	settingsHandler := apihttp.NewSettingsHandler(logger, settingsSvc)
	notesHandler := apihttp.NewNotesHandler(logger, noteRepo)
	quizHandler := apihttp.NewQuizHandler(logger, quizRepo)
	router := apihttp.NewRouter(logger, tokenSvc, authHandler, settingsHandler, notesHandler, quizHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
