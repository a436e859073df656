package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSessions marks a fixed set of tokens as active.
type fakeSessions map[string]bool

func (f fakeSessions) Active(token string) bool { return f[token] }

func loginCookie(t *testing.T, sessionToken string) *http.Cookie {
	t.Helper()
	token, err := GenerateJWT(testUser(), sessionToken, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return &http.Cookie{Name: TokenCookie, Value: token}
}

// runGuard sends a request through the guard with a sentinel next
// handler and returns the recorder.
func runGuard(t *testing.T, sessions SessionValidator, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	Guard(sessions, "/dashboard")(next).ServeHTTP(rec, req)
	return rec
}

func TestGuard_ProtectedPathWithoutSessionRedirectsToRoot(t *testing.T) {
	for _, path := range []string{"/dashboard", "/ncr", "/ncr/123", "/kalibrasi/2024/07", "/instrumen", "/users"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := runGuard(t, fakeSessions{}, req)

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}
}

func TestGuard_ProtectedPathWithSessionPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ncr/123", nil)
	req.AddCookie(loginCookie(t, "s1"))
	rec := runGuard(t, fakeSessions{"s1": true}, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_SiblingPathIsNotProtected(t *testing.T) {
	// "/ncr" must not capture "/ncrx".
	req := httptest.NewRequest(http.MethodGet, "/ncrx", nil)
	rec := runGuard(t, fakeSessions{}, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_RootWithSessionRedirectsToDefaultLanding(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(loginCookie(t, "s1"))
	rec := runGuard(t, fakeSessions{"s1": true}, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestGuard_RootHonorsLastVisitedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(loginCookie(t, "s1"))
	req.AddCookie(&http.Cookie{Name: LastVisitedCookie, Value: url.QueryEscape("/ncr/123")})
	rec := runGuard(t, fakeSessions{"s1": true}, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/ncr/123", rec.Header().Get("Location"))
}

func TestGuard_RootIgnoresUnsafeLastVisitedCookie(t *testing.T) {
	for _, value := range []string{
		url.QueryEscape("https://evil.example/phish"),
		url.QueryEscape("//evil.example"),
		url.QueryEscape("/\\evil.example"),
		url.QueryEscape("/profile"), // outside the protected set
		url.QueryEscape("/ncrx/1"),
		"%zz", // undecodable
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(loginCookie(t, "s1"))
		req.AddCookie(&http.Cookie{Name: LastVisitedCookie, Value: value})
		rec := runGuard(t, fakeSessions{"s1": true}, req)

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code, value)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"), value)
	}
}

func TestGuard_RootWithoutSessionPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := runGuard(t, fakeSessions{}, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_ValidTokenWithDeadSessionIsAnonymous(t *testing.T) {
	// The signature still verifies, but the session row is gone.
	req := httptest.NewRequest(http.MethodGet, "/ncr", nil)
	req.AddCookie(loginCookie(t, "revoked"))
	rec := runGuard(t, fakeSessions{}, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRequireAuth(t *testing.T) {
	var gotClaims *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireAuth(fakeSessions{"s1": true})(next)

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.AddCookie(loginCookie(t, "s1"))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, "u-1", gotClaims.UserID)
	})

	t.Run("bearer header", func(t *testing.T) {
		token, err := GenerateJWT(testUser(), "s1", time.Now().Add(time.Hour))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("revoked session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.AddCookie(loginCookie(t, "gone"))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
