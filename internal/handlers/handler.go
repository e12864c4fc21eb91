package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrovision/cattle-api/internal/config"
	"github.com/agrovision/cattle-api/internal/otp"
	"github.com/agrovision/cattle-api/internal/services"
	"github.com/agrovision/cattle-api/internal/store"
	"github.com/agrovision/cattle-api/internal/token"
)

// GoogleAuthenticator drives the OAuth consent and code exchange.
// Implemented by services.GoogleAuth.
type GoogleAuthenticator interface {
	ConsentURL(state string) string
	Exchange(ctx context.Context, code string) (*services.GoogleIdentity, error)
}

// Handler carries the stores and services every route needs.
type Handler struct {
	Cfg       config.Config
	Users     store.Users
	Reports   store.Reports
	OTP       otp.Store
	Tokens    *token.Service
	SMS       services.SMSSender
	Google    GoogleAuthenticator
	Predictor *services.Predictor
}

// NewHandler wires the handler with its dependencies.
func NewHandler(
	cfg config.Config,
	users store.Users,
	reports store.Reports,
	otpStore otp.Store,
	tokens *token.Service,
	sms services.SMSSender,
	google GoogleAuthenticator,
	predictor *services.Predictor,
) *Handler {
	return &Handler{
		Cfg:       cfg,
		Users:     users,
		Reports:   reports,
		OTP:       otpStore,
		Tokens:    tokens,
		SMS:       sms,
		Google:    google,
		Predictor: predictor,
	}
}

// Health reports API liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "Cattle Disease Detection API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// internalError hides failure detail from clients outside of dev mode.
func (h *Handler) internalError(c *gin.Context, err error, what string) {
	log.Printf("%s: %v", what, err)
	msg := "Something went wrong"
	if h.Cfg.DevMode {
		msg = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": msg})
}
