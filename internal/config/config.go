package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	DynamoDB DynamoDBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	OTP      OTPConfig
	AuthCode AuthCodeConfig
	Mail     MailConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DynamoDBConfig struct {
	Endpoint  string
	Region    string
	TableName string
}

type RedisConfig struct {
	Endpoint string
	Password string
	DB       int
}

type JWTConfig struct {
	SecretKey       string
	Issuer          string
	Audience        string
	SessionExpiry   time.Duration
	DelegatedExpiry time.Duration
	RefreshExpiry   time.Duration
}

type OTPConfig struct {
	Length int
	Expiry time.Duration
}

type AuthCodeConfig struct {
	Expiry time.Duration
}

type MailConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	SenderName  string
	SenderEmail string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		DynamoDB: DynamoDBConfig{
			Endpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
			Region:    getEnv("DYNAMODB_REGION", "us-east-1"),
			TableName: getEnv("DYNAMODB_TABLE_NAME", "AuthTable"),
		},
		Redis: RedisConfig{
			Endpoint: getEnv("REDIS_ENDPOINT", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET_KEY", ""),
			Issuer:          getEnv("JWT_ISSUER", "authd"),
			Audience:        getEnv("JWT_AUDIENCE", "authd-clients"),
			SessionExpiry:   getEnvAsDuration("JWT_SESSION_EXPIRY", 15*time.Minute),
			DelegatedExpiry: getEnvAsDuration("JWT_DELEGATED_EXPIRY", 30*24*time.Hour),
			RefreshExpiry:   getEnvAsDuration("JWT_REFRESH_EXPIRY", 30*24*time.Hour),
		},
		OTP: OTPConfig{
			Length: getEnvAsInt("OTP_LENGTH", 6),
			Expiry: getEnvAsDuration("OTP_EXPIRY", 5*time.Minute),
		},
		AuthCode: AuthCodeConfig{
			Expiry: getEnvAsDuration("AUTH_CODE_EXPIRY", 5*time.Minute),
		},
		Mail: MailConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnv("SMTP_PORT", "587"),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			SenderName:  getEnv("SMTP_SENDER_NAME", "Auth Service"),
			SenderEmail: getEnv("SMTP_SENDER_EMAIL", ""),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	if len(cfg.JWT.SecretKey) < 32 {
		return nil, fmt.Errorf("JWT_SECRET_KEY must be at least 32 bytes (256 bits)")
	}

	if cfg.OTP.Length < 4 || cfg.OTP.Length > 8 {
		return nil, fmt.Errorf("OTP_LENGTH must be between 4 and 8")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
