package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const secret = "router-secret"

func newTestRouter(reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Services{}, Options{
		JWTSecret:      secret,
		AllowedOrigins: []string{"https://admin.example.com"},
		Registry:       reg,
	})
}

func request(r http.Handler, method, path string, role models.Role) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		tok, _ := utils.GenerateAccessToken(secret, bson.NewObjectID().Hex(), "u@test", string(role), time.Minute)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w := request(newTestRouter(nil), http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestProtectedRoutes(t *testing.T) {
	r := newTestRouter(nil)
	id := bson.NewObjectID().Hex()

	cases := []struct {
		method, path string
		role         models.Role
		code         int
	}{
		{http.MethodGet, "/me", "", http.StatusUnauthorized},
		{http.MethodGet, "/admin/users", "", http.StatusUnauthorized},
		{http.MethodGet, "/admin/users", models.RoleClient, http.StatusForbidden},
		{http.MethodGet, "/admin/dashboard", models.RoleFreelancer, http.StatusForbidden},
		{http.MethodPost, "/projects", models.RoleFreelancer, http.StatusForbidden},
		{http.MethodPost, "/projects/" + id + "/applications", models.RoleClient, http.StatusForbidden},
		{http.MethodGet, "/me/favorites", models.RoleFreelancer, http.StatusForbidden},
		{http.MethodGet, "/me/saved-projects", models.RoleClient, http.StatusForbidden},
		{http.MethodPost, "/submissions/" + id + "/approve", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path+" "+string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.code, request(r, tc.method, tc.path, tc.role).Code)
		})
	}
}

func TestAdminReachesHandler(t *testing.T) {
	// the handler rejects the bad id, proving both auth gates passed
	w := request(newTestRouter(nil), http.MethodGet, "/admin/users/not-an-id", models.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSAllowList(t *testing.T) {
	r := newTestRouter(nil)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/projects", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight("https://admin.example.com")
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = preflight("https://evil.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newTestRouter(reg)

	request(r, http.MethodGet, "/ping", "")
	w := request(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{code="200",method="GET",route="/ping"} 1`)
}
