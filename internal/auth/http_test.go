package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := NewService(newMemoryStore(), testAuthConfig())

	router := gin.New()
	api := router.Group("/v1")
	RegisterRoutes(api, service)

	protected := api.Group("/")
	protected.Use(AuthMiddleware(service))
	protected.GET("/whoami", func(c *gin.Context) {
		userID, user, ok := RequireUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": userID.String(), "email": user.Email})
	})

	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRegisterLoginAndAuthenticatedRequest(t *testing.T) {
	router := newTestRouter()

	rr := postJSON(t, router, "/v1/auth/register", map[string]string{
		"email":    "user@example.com",
		"password": "StrongPass1!",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(t, router, "/v1/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "StrongPass1!",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var loginResp struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token.AccessToken)

	req, _ := http.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token.AccessToken)
	whoami := httptest.NewRecorder()
	router.ServeHTTP(whoami, req)

	assert.Equal(t, http.StatusOK, whoami.Code)

	var whoamiResp struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(whoami.Body.Bytes(), &whoamiResp))
	assert.Equal(t, "user@example.com", whoamiResp.Email)
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	router := newTestRouter()

	payload := map[string]string{
		"email":    "user@example.com",
		"password": "StrongPass1!",
	}
	require.Equal(t, http.StatusCreated, postJSON(t, router, "/v1/auth/register", payload).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, router, "/v1/auth/register", payload).Code)
}

func TestProtectedRouteRejectsMissingAndBogusTokens(t *testing.T) {
	router := newTestRouter()

	req, _ := http.NewRequest(http.MethodGet, "/v1/whoami", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req, _ = http.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
