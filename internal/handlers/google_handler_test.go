package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovision/cattle-api/internal/models"
	"github.com/agrovision/cattle-api/internal/services"
)

type fakeGoogle struct {
	identity *services.GoogleIdentity
	err      error
}

func (f fakeGoogle) ConsentURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (f fakeGoogle) Exchange(_ context.Context, _ string) (*services.GoogleIdentity, error) {
	return f.identity, f.err
}

func (a *testAPI) getWithCookies(t *testing.T, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func stateCookieFrom(t *testing.T, cookies []*http.Cookie) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == "oauth_state" {
			return c
		}
	}
	t.Fatal("oauth_state cookie not set")
	return nil
}

func TestGoogleLoginRedirectsToConsent(t *testing.T) {
	api := newTestAPI(t)
	api.handler.Google = fakeGoogle{}

	w := api.getWithCookies(t, "/auth/google", nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.example.com", location.Host)

	// The state in the consent URL matches the pinned cookie.
	state := stateCookieFrom(t, w.Result().Cookies())
	assert.NotEmpty(t, state.Value)
	assert.Equal(t, state.Value, location.Query().Get("state"))
}

func TestGoogleCallbackProviderError(t *testing.T) {
	api := newTestAPI(t)
	api.handler.Google = fakeGoogle{}

	w := api.getWithCookies(t, "/auth/google/callback?error=access_denied", nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/?error=auth_failed", w.Header().Get("Location"))
}

func TestGoogleCallbackStateMismatch(t *testing.T) {
	api := newTestAPI(t)
	api.handler.Google = fakeGoogle{identity: &services.GoogleIdentity{ID: "g-1", Email: "asha@example.com"}}

	// No state cookie at all.
	w := api.getWithCookies(t, "/auth/google/callback?state=abc&code=xyz", nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/?error=auth_failed", w.Header().Get("Location"))

	// Cookie present but not matching the query.
	cookie := &http.Cookie{Name: "oauth_state", Value: "expected"}
	w = api.getWithCookies(t, "/auth/google/callback?state=forged&code=xyz", []*http.Cookie{cookie})
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/?error=auth_failed", w.Header().Get("Location"))
}

func TestGoogleCallbackExchangeFailure(t *testing.T) {
	api := newTestAPI(t)
	api.handler.Google = fakeGoogle{err: assert.AnError}

	cookie := &http.Cookie{Name: "oauth_state", Value: "state-1"}
	w := api.getWithCookies(t, "/auth/google/callback?state=state-1&code=xyz", []*http.Cookie{cookie})
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/?error=auth_failed", w.Header().Get("Location"))
}

func TestGoogleCallbackSuccessCreatesUser(t *testing.T) {
	api := newTestAPI(t)
	api.handler.Google = fakeGoogle{identity: &services.GoogleIdentity{
		ID:      "g-123",
		Email:   "asha@example.com",
		Name:    "Asha",
		Picture: "https://example.com/asha.png",
	}}

	cookie := &http.Cookie{Name: "oauth_state", Value: "state-1"}
	w := api.getWithCookies(t, "/auth/google/callback?state=state-1&code=xyz", []*http.Cookie{cookie})
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	tok := location.Query().Get("token")
	require.NotEmpty(t, tok, "redirect carries the token")

	claims, err := api.tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)

	user, err := api.users.FindByGoogleID(t.Context(), "g-123")
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, user.UserID)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, "asha@example.com", user.EmailOrPhone)
	assert.Equal(t, models.ProviderGoogle, user.AuthProvider)
}

func TestGoogleCallbackResolvesExistingUser(t *testing.T) {
	api := newTestAPI(t)
	api.handler.Google = fakeGoogle{identity: &services.GoogleIdentity{
		ID:    "g-123",
		Email: "asha@example.com",
		Name:  "Asha",
	}}

	login := func() string {
		cookie := &http.Cookie{Name: "oauth_state", Value: "state-1"}
		w := api.getWithCookies(t, "/auth/google/callback?state=state-1&code=xyz", []*http.Cookie{cookie})
		require.Equal(t, http.StatusTemporaryRedirect, w.Code)
		location, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		tok := location.Query().Get("token")
		require.NotEmpty(t, tok)
		claims, err := api.tokens.Verify(tok)
		require.NoError(t, err)
		return claims.UserID
	}

	first := login()
	second := login()
	assert.Equal(t, first, second, "repeat login resolves the same account")

	count, err := api.users.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGoogleCallbackDuplicateLoginKeyResolvesSurvivor(t *testing.T) {
	api := newTestAPI(t)
	api.handler.Google = fakeGoogle{identity: &services.GoogleIdentity{
		ID:    "g-123",
		Email: "asha@example.com",
		Name:  "Asha",
	}}

	// The login key is already taken by an account without this google_id,
	// so the create loses to the existing record and resolves to it.
	survivor := &models.User{
		UserID:       uuid.NewString(),
		Name:         "Asha",
		Email:        "asha@example.com",
		EmailOrPhone: "asha@example.com",
		AuthProvider: models.ProviderGoogle,
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, api.users.Create(t.Context(), survivor))

	cookie := &http.Cookie{Name: "oauth_state", Value: "state-1"}
	w := api.getWithCookies(t, "/auth/google/callback?state=state-1&code=xyz", []*http.Cookie{cookie})
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	claims, err := api.tokens.Verify(location.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, survivor.UserID, claims.UserID)

	count, err := api.users.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "no duplicate record survives")
}
