package handlers

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agrovision/cattle-api/internal/middleware"
	"github.com/agrovision/cattle-api/internal/models"
	"github.com/agrovision/cattle-api/internal/otp"
	"github.com/agrovision/cattle-api/internal/store"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
)

const (
	stateCookie      = "oauth_state"
	otpSessionCookie = "otp_session"
)

// GoogleLogin redirects the client to the provider consent screen. The
// state parameter is pinned in a short-lived cookie for the callback check.
func (h *Handler) GoogleLogin(c *gin.Context) {
	state := uuid.NewString()
	c.SetCookie(stateCookie, state, int((5 * time.Minute).Seconds()), "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.Google.ConsentURL(state))
}

// GoogleCallback finishes the OAuth flow: verify state, exchange the code
// for a provider identity, resolve-or-create the user and hand the token
// back via the redirect URL. Any failure lands on the login-failure surface.
//
// Carrying the token as a query parameter is a deliberately simple handoff;
// a one-time exchange code would avoid referer and history leakage.
func (h *Handler) GoogleCallback(c *gin.Context) {
	failure := "/?error=auth_failed"

	if c.Query("error") != "" {
		c.Redirect(http.StatusTemporaryRedirect, failure)
		return
	}
	wantState, err := c.Cookie(stateCookie)
	if err != nil || wantState == "" || c.Query("state") != wantState {
		c.Redirect(http.StatusTemporaryRedirect, failure)
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	identity, err := h.Google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, failure)
		return
	}

	user, err := h.resolveGoogleUser(c, identity.ID, identity.Email, identity.Name, identity.Picture)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, failure)
		return
	}

	tok, err := h.Tokens.Issue(user.UserID, user.Role)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, failure)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, "/?token="+tok)
}

func (h *Handler) resolveGoogleUser(c *gin.Context, googleID, email, name, picture string) (*models.User, error) {
	ctx := c.Request.Context()

	user, err := h.Users.FindByGoogleID(ctx, googleID)
	if err == nil {
		return user, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}

	created := &models.User{
		UserID:         uuid.NewString(),
		Name:           name,
		Email:          email,
		EmailOrPhone:   email,
		AuthProvider:   models.ProviderGoogle,
		GoogleID:       googleID,
		ProfilePicture: picture,
		Role:           models.RoleUser,
		Language:       "en",
		CreatedAt:      time.Now().UTC(),
	}
	err = h.Users.Create(ctx, created)
	if err == store.ErrDuplicate {
		// Lost the race to a concurrent first login; the surviving
		// record is ours.
		return h.Users.FindByLoginKey(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

// SendOTP issues a one-time code for the phone flow. The code leaves the
// server only via SMS; dev mode echoes it in the response for local work.
func (h *Handler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	phone := strings.TrimSpace(req.Phone)
	if !phonePattern.MatchString(phone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		return
	}

	sessionID := h.otpSessionID(c)
	code, err := h.OTP.Issue(c.Request.Context(), sessionID, phone)
	if err != nil {
		h.internalError(c, err, "issuing OTP")
		return
	}

	resp := gin.H{"success": true, "message": "OTP sent successfully"}
	if h.Cfg.DevMode {
		resp["dev_otp"] = code
	} else {
		h.SMS.SendOTP(phone, code)
	}
	c.JSON(http.StatusOK, resp)
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
	Name  string `json:"name"`
}

// VerifyOTP checks the pending code and logs the caller in, creating the
// account on first login. The stored code is single-use either way.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	phone := strings.TrimSpace(req.Phone)
	code := strings.TrimSpace(req.OTP)
	if !phonePattern.MatchString(phone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		return
	}
	if !otpPattern.MatchString(code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}

	sessionID := h.otpSessionID(c)
	switch err := h.OTP.Verify(c.Request.Context(), sessionID, phone, code); err {
	case nil:
	case otp.ErrNoPending:
		c.JSON(http.StatusBadRequest, gin.H{"error": "OTP expired or not found"})
		return
	case otp.ErrPhoneMismatch:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number does not match"})
		return
	case otp.ErrCodeMismatch:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	default:
		h.internalError(c, err, "verifying OTP")
		return
	}

	user, err := h.resolvePhoneUser(c, phone, strings.TrimSpace(req.Name))
	if err != nil {
		h.internalError(c, err, "resolving phone user")
		return
	}

	tok, err := h.Tokens.Issue(user.UserID, user.Role)
	if err != nil {
		h.internalError(c, err, "issuing token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   tok,
		"user":    user.Public(),
	})
}

func (h *Handler) resolvePhoneUser(c *gin.Context, phone, name string) (*models.User, error) {
	ctx := c.Request.Context()

	user, err := h.Users.FindByLoginKey(ctx, phone)
	if err == nil {
		return user, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}

	if name == "" {
		name = "User"
	}
	created := &models.User{
		UserID:       uuid.NewString(),
		Name:         name,
		Phone:        phone,
		EmailOrPhone: phone,
		AuthProvider: models.ProviderPhone,
		Role:         models.RoleUser,
		Language:     "en",
		CreatedAt:    time.Now().UTC(),
	}
	err = h.Users.Create(ctx, created)
	if err == store.ErrDuplicate {
		return h.Users.FindByLoginKey(ctx, phone)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// otpSessionID returns the caller's OTP session, minting one when absent.
// Distinct sessions keep concurrent login attempts from interfering.
func (h *Handler) otpSessionID(c *gin.Context) string {
	if id, err := c.Cookie(otpSessionCookie); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(otpSessionCookie, id, int((24 * time.Hour).Seconds()), "/", "", false, true)
	return id
}

// Me returns the authenticated user's record.
func (h *Handler) Me(c *gin.Context) {
	user, exists := c.Get(middleware.CtxUser)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout acknowledges the client dropping its token. Tokens are stateless,
// so there is nothing to revoke server-side.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(otpSessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}
