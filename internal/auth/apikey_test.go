package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func apiKeyTestRouter(key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyMiddleware(key))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func doRequest(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKeyDisabledWhenEmpty(t *testing.T) {
	r := apiKeyTestRouter("")
	assert.Equal(t, http.StatusOK, doRequest(r, "").Code)
}

func TestAPIKeyMissing(t *testing.T) {
	r := apiKeyTestRouter("secret")
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "").Code)
}

func TestAPIKeyInvalid(t *testing.T) {
	r := apiKeyTestRouter("secret")
	assert.Equal(t, http.StatusForbidden, doRequest(r, "wrong").Code)
}

func TestAPIKeyValid(t *testing.T) {
	r := apiKeyTestRouter("secret")
	assert.Equal(t, http.StatusOK, doRequest(r, "secret").Code)
}

func TestAPIKeyBearerFallback(t *testing.T) {
	r := apiKeyTestRouter("secret")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
