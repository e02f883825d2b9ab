package httpserver_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akruglov/shopfront/internal/models"
	"github.com/akruglov/shopfront/internal/service/token"
)

func TestRegisterEstablishesSession(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/register", map[string]string{
		"email":    "a@x.com",
		"password": "pw",
		"name":     "A",
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Len(t, sessionCookies(rec), 2)

	var user models.User
	require.NoError(t, env.Store.DB.Where("email = ?", "a@x.com").First(&user).Error)
	require.Equal(t, "A", user.Name)
	require.NotEqual(t, "pw", user.PasswordHash)
}

func TestRegisterDuplicateRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup("a@x.com")

	rec := env.do(http.MethodPost, "/register", map[string]string{
		"email":    "a@x.com",
		"password": "other",
		"name":     "B",
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.Empty(t, sessionCookies(rec))

	var count int64
	require.NoError(t, env.Store.DB.Model(&models.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup("a@x.com")

	rec := env.do(http.MethodPost, "/login", map[string]string{
		"email":    "a@x.com",
		"password": "pw",
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Len(t, sessionCookies(rec), 2)
}

func TestLoginTwiceInQuickSuccession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup("a@x.com")

	// Both logins land within the same second; each must get its own
	// session.
	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/login", map[string]string{
			"email":    "a@x.com",
			"password": "pw",
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"))
		require.Len(t, sessionCookies(rec), 2)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/login", map[string]string{
		"email":    "missing@x.com",
		"password": "pw",
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.Empty(t, sessionCookies(rec))
}

func TestLoginBadPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup("a@x.com")

	rec := env.do(http.MethodPost, "/login", map[string]string{
		"email":    "a@x.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.Empty(t, sessionCookies(rec))
}

func TestLoginPageConsumesNotice(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/login", nil, &http.Cookie{Name: token.NoticeCookie, Value: "please-log-in"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "please-log-in")

	cleared := false
	for _, ck := range responseCookies(rec) {
		if ck.Name == token.NoticeCookie {
			require.Empty(t, ck.Value)
			cleared = true
		}
	}
	require.True(t, cleared)

	// A second visit shows no stale notice.
	rec = env.do(http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "please-log-in")
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	cks := env.signup("a@x.com")

	rec := env.do(http.MethodGet, "/logout", nil, cks...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Empty(t, sessionCookies(rec))

	var stored models.RefreshToken
	require.NoError(t, env.Store.DB.First(&stored).Error)
	require.True(t, stored.Revoked)
}
