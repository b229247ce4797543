package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariffaisalsheam/menux-app/internal/metrics"
	"github.com/ariffaisalsheam/menux-app/internal/models"
	"github.com/ariffaisalsheam/menux-app/internal/security"
	"github.com/ariffaisalsheam/menux-app/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator map[string]models.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (models.User, *security.AccessClaims, error) {
	if token == "inactive" {
		return models.User{}, nil, service.ErrUserUnavailable
	}
	u, ok := s[token]
	if !ok {
		return models.User{}, nil, service.ErrInvalidToken
	}
	return u, &security.AccessClaims{UserID: u.ID, Role: string(u.Role)}, nil
}

var testUsers = stubAuthenticator{
	"admin-token": {ID: "u-admin", Role: models.RoleSuperAdmin, IsActive: true},
	"owner-token": {ID: "u-owner", Role: models.RoleRestaurantOwner, IsActive: true},
}

func buildTestApp(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	r.GET("/protected", chain...)
	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	r := buildTestApp(Auth(testUsers))

	rec := doGet(r, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())

	rec = doGet(r, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, rec.Body.String())

	rec = doGet(r, "inactive")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"User not found or inactive"}`, rec.Body.String())

	rec = doGet(r, "owner-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"u-owner"}`, rec.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := buildTestApp(Auth(testUsers), RequireRoles(models.RoleSuperAdmin))

	assert.Equal(t, http.StatusOK, doGet(r, "admin-token").Code)

	rec := doGet(r, "owner-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Access denied"}`, rec.Body.String())

	bare := buildTestApp(RequireRoles(models.RoleSuperAdmin))
	assert.Equal(t, http.StatusUnauthorized, doGet(bare, "admin-token").Code)
}

func TestOptionalAuth(t *testing.T) {
	r := buildTestApp(OptionalAuth(testUsers))

	rec := doGet(r, "bogus")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":""}`, rec.Body.String())

	rec = doGet(r, "admin-token")
	assert.JSONEq(t, `{"id":"u-admin"}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	r := buildTestApp(RateLimit(limiter))

	assert.Equal(t, http.StatusOK, doGet(r, "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "").Code)

	rec := doGet(r, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRequestIDReplacesInvalidHeader(t *testing.T) {
	r := buildTestApp(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	got := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, got)
	assert.NotEqual(t, "not a uuid", got)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(RequestIDHeader, "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", rec.Header().Get(RequestIDHeader))
}

func TestRecoveryAnswers500(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://menux.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://menux.test")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://menux.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := metrics.New("menux_mw_test")
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/menu/:restaurantId", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := httptest.NewRecorder()
	m.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, out.Body.String(), `route="/menu/:restaurantId"`)
}
