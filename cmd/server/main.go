package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/authd/authd/internal/config"
	"github.com/authd/authd/internal/handlers"
	"github.com/authd/authd/internal/mail"
	"github.com/authd/authd/internal/middleware"
	"github.com/authd/authd/internal/repository"
	"github.com/authd/authd/internal/service"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dynamoClient, err := initDynamoDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DynamoDB")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Repositories
	userRepo := repository.NewUserRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	otpRepo := repository.NewOTPRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	refreshTokenRepo := repository.NewRefreshTokenRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	authCodeRepo := repository.NewAuthCodeRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	clientRepo := repository.NewClientRepository(dynamoClient, cfg.DynamoDB.TableName, logger)

	// Services
	tokenService, err := service.NewTokenService(&cfg.JWT, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize token service")
	}

	mailSender := mail.NewSMTPSender(&cfg.Mail, logger)
	denylist := service.NewRedisDenylist(redisClient, logger)
	credVerifier := service.NewLocalCredentialVerifier(userRepo, logger)
	otpService := service.NewOTPService(otpRepo, mailSender, &cfg.OTP, rand.Reader, logger)
	refreshService := service.NewRefreshTokenService(refreshTokenRepo, userRepo, tokenService, &cfg.JWT, rand.Reader, logger)
	authService := service.NewAuthService(userRepo, credVerifier, otpService, refreshService, denylist, logger)
	externalService := service.NewExternalService(
		authCodeRepo,
		clientRepo,
		userRepo,
		credVerifier,
		otpService,
		refreshService,
		&cfg.AuthCode,
		rand.Reader,
		logger,
	)

	authHandlers := handlers.NewAuthHandlers(authService, otpService, refreshService, logger)
	externalHandlers := handlers.NewExternalHandlers(externalService, logger)
	authMiddleware := middleware.NewAuthMiddleware(tokenService, denylist, logger)

	router := setupRouter(authHandlers, externalHandlers, authMiddleware, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.Info("DynamoDB client initialized")
	return client, nil
}

func setupRouter(
	authHandlers *handlers.AuthHandlers,
	externalHandlers *handlers.ExternalHandlers,
	authMiddleware *middleware.AuthMiddleware,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api/v1").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", authHandlers.Register).Methods("POST", "OPTIONS")
	auth.HandleFunc("/login", authHandlers.Login).Methods("POST", "OPTIONS")
	auth.HandleFunc("/refresh", authHandlers.Refresh).Methods("POST", "OPTIONS")
	auth.HandleFunc("/otp/send", authHandlers.SendOtp).Methods("POST", "OPTIONS")
	auth.HandleFunc("/otp/verify", authHandlers.VerifyOtp).Methods("POST", "OPTIONS")
	auth.Handle("/logout", authMiddleware.RequireAuth(http.HandlerFunc(authHandlers.Logout))).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("/").Subrouter()
	protected.Use(authMiddleware.RequireAuth)
	protected.HandleFunc("/me", authHandlers.Me).Methods("GET")

	external := router.PathPrefix("/external").Subrouter()
	external.HandleFunc("/clients/{id}", externalHandlers.GetClient).Methods("GET", "OPTIONS")
	external.HandleFunc("/login", externalHandlers.Login).Methods("POST", "OPTIONS")
	external.HandleFunc("/otp-login", externalHandlers.OtpLogin).Methods("POST", "OPTIONS")
	external.HandleFunc("/exchange", externalHandlers.ExchangeCode).Methods("POST", "OPTIONS")

	return router
}
