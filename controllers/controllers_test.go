package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/middleware"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: project", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: slug taken", services.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: OPEN to COMPLETED", services.ErrInvalidTransition), http.StatusConflict},
		{fmt.Errorf("%w: not the owner", services.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: bad budget", services.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: invalid credentials", services.ErrUnauthorized), http.StatusUnauthorized},
		{services.ErrTooManyRequests, http.StatusTooManyRequests},
		{services.ErrTOTPRequired, http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tc.err)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, errors.New("mongo: server selection timeout"))

	assert.Equal(t, "internal error", decode(t, w)["error"])
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors.String(), "server selection timeout")
}

func TestRespondErrorFlagsTOTP(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, services.ErrTOTPRequired)
	assert.Equal(t, true, decode(t, w)["totpRequired"])
}

func TestPagination(t *testing.T) {
	defer SetQueryLimits(utils.DefaultQueryLimits)
	SetQueryLimits(utils.QueryLimits{Default: 10, Max: 50})

	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		listResponse[string](c, nil, pagination(c), 0)
	})

	body := decode(t, serve(r, httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)))
	assert.Equal(t, float64(3), body["page"])
	assert.Equal(t, float64(10), body["limit"])
	assert.Equal(t, []any{}, body["items"])

	// ignored: max below default
	SetQueryLimits(utils.QueryLimits{Default: 10, Max: 5})
	body = decode(t, serve(r, httptest.NewRequest(http.MethodGet, "/?limit=40", nil)))
	assert.Equal(t, float64(40), body["limit"])
}

func TestInvalidIDIsRejectedBeforeTheService(t *testing.T) {
	r := gin.New()
	r.GET("/categories/:id", GetCategory(nil))
	r.GET("/freelancers/:id", GetFreelancer(nil, nil))

	for _, path := range []string{"/categories/not-an-id", "/freelancers/123"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, "invalid id", decode(t, w)["error"])
	}
}

func TestHandlersRequireIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/me", GetMe(nil))
	r.POST("/projects", AddProject(nil, nil))
	r.PUT("/me/favorites/:id", AddFavorite(&services.BookmarkService{}))

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodPost, "/projects", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized,
		serve(r, httptest.NewRequest(http.MethodPut, "/me/favorites/"+bson.NewObjectID().Hex(), nil)).Code)
}

func TestRegisterValidatesBody(t *testing.T) {
	r := gin.New()
	r.POST("/auth/register", Register(nil))

	cases := map[string]string{
		"not json":        `{`,
		"missing email":   `{"firstName":"A","password":"password123","role":"CLIENT"}`,
		"short password":  `{"firstName":"A","email":"a@b.test","password":"short","role":"CLIENT"}`,
		"admin signup":    `{"firstName":"A","email":"a@b.test","password":"password123","role":"ADMIN"}`,
		"malformed email": `{"firstName":"A","email":"nope","password":"password123","role":"FREELANCER"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)
		})
	}
}

func TestValidationErrorsListFields(t *testing.T) {
	r := gin.New()
	r.POST("/auth/register", Register(nil))

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"firstName":"A","email":"nope","password":"short","role":"ADMIN"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "validation failed", body["error"])
	assert.Equal(t, map[string]any{
		"RegisterDTO.Email":    "email",
		"RegisterDTO.Password": "min=8",
		"RegisterDTO.Role":     "oneof=CLIENT FREELANCER",
	}, body["fields"])
}

func TestRefreshWithoutCookie(t *testing.T) {
	r := gin.New()
	r.POST("/auth/refresh", Refresh(nil, SessionCookie{TTL: time.Hour}))

	w := serve(r, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing refresh token", decode(t, w)["error"])
}

func TestLogoutClearsCookie(t *testing.T) {
	r := gin.New()
	r.POST("/auth/logout", Logout(nil, SessionCookie{}))

	w := serve(r, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, utils.RefreshCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func multipartRequest(t *testing.T, url, data, field, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != "" {
		require.NoError(t, mw.WriteField("data", data))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile(field, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAddCategoryMultipartValidation(t *testing.T) {
	images := utils.NewFileValidator([]string{".png", ".jpg"}, []string{"image/png", "image/jpeg"}, 1, 1)
	r := gin.New()
	r.POST("/admin/categories", AddCategory(nil, images))

	w := serve(r, multipartRequest(t, "/admin/categories", "", "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing data field", decode(t, w)["error"])

	w = serve(r, multipartRequest(t, "/admin/categories", `{"description":"no name"}`, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, multipartRequest(t, "/admin/categories", `{"name":"Editing"}`, "image", "run.exe", []byte("MZ")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "invalid file extension", body["error"])
	assert.Equal(t, "run.exe", body["file"])
}

func TestProjectAttachmentsAreValidated(t *testing.T) {
	files := utils.NewFileValidator([]string{".pdf"}, []string{"application/pdf"}, 1, 1)
	r := gin.New()
	r.POST("/projects", func(c *gin.Context) {
		middleware.SetIdentity(c, middleware.Identity{UserID: bson.NewObjectID(), Role: models.RoleClient})
	}, AddProject(nil, files))

	data := `{"title":"Wedding reel","description":"Cut a five minute highlight reel.","type":"FIXED","budgetMin":"100"}`
	w := serve(r, multipartRequest(t, "/projects", data, "attachments", "brief.txt", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "brief.txt", decode(t, w)["file"])
}

func TestRealtimeWithoutRedis(t *testing.T) {
	r := gin.New()
	r.GET("/admin/visitors/realtime", GetRealtimeVisitors(&services.VisitorService{}))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/admin/visitors/realtime", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["enabled"])
}
