package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqar-tech/realestate-ai-platform/internal/http/handlers"
	"github.com/aqar-tech/realestate-ai-platform/internal/store"
)

func newTestRouter(t *testing.T, secret string) http.Handler {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st, err := store.New(t.TempDir(), nil, store.WithClock(func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}))
	require.NoError(t, err)
	_, err = st.AddListing(store.Listing{Title: "شقة للبيع", Price: 1_000_000})
	require.NoError(t, err)

	publicDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<html>dashboard</html>"), 0o644))

	return New(Config{
		Health:         handlers.NewHealthHandler(nil),
		Business:       handlers.NewBusinessHandler(st, nil),
		Listings:       handlers.NewListingsHandler(st, nil),
		Stats:          handlers.NewStatsHandler(st, nil, nil),
		AdminJWTSecret: secret,
		PublicDir:      publicDir,
	})
}

func adminToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestPublicRoutes(t *testing.T) {
	r := newTestRouter(t, "secret")

	for _, path := range []string{"/health", "/metrics", "/api/properties", "/api/stats", "/api/business"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMutationsRequireAdminToken(t *testing.T) {
	r := newTestRouter(t, "secret")

	body := strings.NewReader(`{"title":"فيلا جديدة"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/properties", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/properties", strings.NewReader(`{"title":"فيلا جديدة"}`))
	req.Header.Set("Authorization", "Bearer "+adminToken(t, "secret"))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestMutationsOpenWithoutSecret(t *testing.T) {
	r := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/properties", strings.NewReader(`{"title":"فيلا"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestStaticFileServing(t *testing.T) {
	r := newTestRouter(t, "secret")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard")
}
