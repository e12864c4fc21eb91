package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/agrovision/cattle-api/internal/config"
	"github.com/agrovision/cattle-api/internal/middleware"
	"github.com/agrovision/cattle-api/internal/models"
	"github.com/agrovision/cattle-api/internal/otp"
	"github.com/agrovision/cattle-api/internal/services"
	"github.com/agrovision/cattle-api/internal/store"
	"github.com/agrovision/cattle-api/internal/token"
)

type testAPI struct {
	router  *gin.Engine
	handler *Handler
	users   *store.MemoryUsers
	reports *store.MemoryReports
	tokens  *token.Service
}

// newTestAPI wires the full route table over in-memory stores in dev mode,
// mirroring the wiring in cmd/api/main.go.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		JWTSecret: "test-secret",
		UploadDir: t.TempDir(),
		DevMode:   true,
		OTPTTL:    5 * time.Minute,
	}
	users := store.NewMemoryUsers()
	reports := store.NewMemoryReports()
	tokens := token.NewService(cfg.JWTSecret)
	h := NewHandler(
		cfg,
		users,
		reports,
		otp.NewMemoryStore(cfg.OTPTTL),
		tokens,
		services.NoopSender{},
		services.NewGoogleAuth("", "", ""),
		services.NewPredictor(""),
	)

	requireAuth := middleware.RequireAuth(tokens, users)
	requireAdmin := middleware.RequireAdmin(users)
	otpLimiter := middleware.NewRateLimiter(rate.Every(20*time.Second), 3)

	r := gin.New()
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

	return &testAPI{router: r, handler: h, users: users, reports: reports, tokens: tokens}
}

// postJSON sends a JSON body, replaying any cookies so the OTP session
// carries across requests like a browser would.
func (a *testAPI) postJSON(t *testing.T, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) getJSON(t *testing.T, path, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// seedUser inserts a user directly and returns it with a valid token.
func (a *testAPI) seedUser(t *testing.T, name, role string) (*models.User, string) {
	t.Helper()
	user := &models.User{
		UserID:       uuid.NewString(),
		Name:         name,
		Phone:        "9000000000",
		EmailOrPhone: uuid.NewString(),
		AuthProvider: models.ProviderPhone,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, a.users.Create(context.Background(), user))

	tok, err := a.tokens.Issue(user.UserID, user.Role)
	require.NoError(t, err)
	return user, tok
}
