package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all environment-driven settings for the API.
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string

	JWTSecret     string
	SessionSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	MLAPIURL    string
	TextbeltKey string

	ClientOrigin string
	RedisAddr    string
	UploadDir    string

	// DevMode controls developer conveniences: the dev_otp field in
	// send-otp responses, detailed 500 bodies and the JWT secret fallback.
	// It is an explicit flag rather than an environment-name check so the
	// contract stays testable.
	DevMode bool

	OTPTTL time.Duration
}

const devJWTSecret = "cattle-detection-dev-secret"

// Load reads the configuration from the environment. It fails when a
// production configuration is missing its signing secret.
func Load() (Config, error) {
	cfg := Config{
		Port:               getEnv("API_PORT", "8080"),
		MongoURI:           os.Getenv("MONGODB_URI"),
		MongoDatabase:      getEnv("MONGO_DATABASE", "cattle-detection"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		SessionSecret:      getEnv("SESSION_SECRET", "cattle-detection-secret-key"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		MLAPIURL:           os.Getenv("ML_API_URL"),
		TextbeltKey:        os.Getenv("TEXTBELT_API_KEY"),
		ClientOrigin:       getEnv("CLIENT_URL", "http://localhost:5000"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		DevMode:            getEnvBool("DEV_MODE", false),
		OTPTTL:             getEnvDuration("OTP_TTL", 5*time.Minute),
	}

	if cfg.JWTSecret == "" {
		if !cfg.DevMode {
			return Config{}, errors.New("JWT_SECRET must be set outside of dev mode")
		}
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
