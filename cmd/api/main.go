package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"

	"github.com/agrovision/cattle-api/internal/config"
	"github.com/agrovision/cattle-api/internal/handlers"
	"github.com/agrovision/cattle-api/internal/middleware"
	"github.com/agrovision/cattle-api/internal/otp"
	"github.com/agrovision/cattle-api/internal/services"
	"github.com/agrovision/cattle-api/internal/store"
	"github.com/agrovision/cattle-api/internal/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Stores ---
	var users store.Users
	var reports store.Reports
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(context.Background())
		db := client.Database(cfg.MongoDatabase)

		mongoUsers := store.NewMongoUsers(db)
		mongoReports := store.NewMongoReports(db)
		if err := mongoUsers.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create user indexes: %v", err)
		}
		if err := mongoReports.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create report indexes: %v", err)
		}
		users, reports = mongoUsers, mongoReports
		log.Println("Successfully connected to MongoDB!")
	} else {
		users, reports = store.NewMemoryUsers(), store.NewMemoryReports()
		log.Println("Running without MongoDB (no database configured)")
	}

	// --- OTP session store ---
	var otpStore otp.Store
	if cfg.RedisAddr != "" {
		otpStore = otp.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.OTPTTL)
		log.Printf("OTP sessions stored in Redis at %s", cfg.RedisAddr)
	} else {
		otpStore = otp.NewMemoryStore(cfg.OTPTTL)
	}

	// --- Services ---
	tokens := token.NewService(cfg.JWTSecret)
	var sms services.SMSSender = services.NoopSender{}
	if !cfg.DevMode {
		sms = services.NewTextbeltSender(cfg.TextbeltKey)
	}
	google := services.NewGoogleAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	predictor := services.NewPredictor(cfg.MLAPIURL)

	h := handlers.NewHandler(cfg, users, reports, otpStore, tokens, sms, google, predictor)

	// --- Gin Router ---
	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Static("/uploads", cfg.UploadDir)

	// --- Routes ---
	requireAuth := middleware.RequireAuth(tokens, users)
	requireAdmin := middleware.RequireAdmin(users)
	otpLimiter := middleware.NewRateLimiter(rate.Every(20*time.Second), 3)

	authRoutes := r.Group("/auth")
	{
		authRoutes.GET("/google", h.GoogleLogin)
		authRoutes.GET("/google/callback", h.GoogleCallback)
		authRoutes.POST("/phone/send-otp", otpLimiter.Middleware(), h.SendOTP)
		authRoutes.POST("/phone/verify-otp", h.VerifyOTP)
		authRoutes.GET("/me", requireAuth, h.Me)
		authRoutes.POST("/logout", h.Logout)
	}

	apiRoutes := r.Group("/api")
	{
		apiRoutes.GET("/health", h.Health)
		apiRoutes.POST("/upload/predict", h.PredictNoAuth)
		apiRoutes.POST("/upload-auth/predict", requireAuth, h.PredictAuth)
		apiRoutes.GET("/reports", requireAuth, h.MyReports)
	}

	adminRoutes := r.Group("/admin")
	adminRoutes.Use(requireAuth, requireAdmin)
	{
		adminRoutes.GET("/users", h.AdminUsers)
		adminRoutes.GET("/reports", h.AdminReports)
		adminRoutes.GET("/stats", h.AdminStats)
	}

	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
