package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classbook/config"
	"classbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": UserID(c), "email": UserEmail(c)})
}

func TestJWTAuthUserMiddleware(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	t.Cleanup(func() { config.AppConfig.JWTSecret = "" })

	r := gin.New()
	r.GET("/strict", JWTAuthUserMiddleware(false), whoami)
	r.GET("/optional", JWTAuthUserMiddleware(true), whoami)

	token, err := utils.GenerateToken("u1", "u1@example.com", time.Hour)
	require.NoError(t, err)

	do := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do("/strict", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1","email":"u1@example.com"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do("/strict", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/strict", "Bearer garbage").Code)

	w = do("/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"","email":""}`, w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, do("/optional", "Bearer garbage").Code)

	expired, err := utils.GenerateToken("u1", "", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("/strict", "Bearer "+expired).Code)
}

func TestJWTAuthAdminMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/admin", JWTAuthAdminMiddleware("s3cret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/locked", JWTAuthAdminMiddleware(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/locked", nil)
	req.Header.Set("Authorization", "Bearer ")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimitMiddleware(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.2:4321"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
