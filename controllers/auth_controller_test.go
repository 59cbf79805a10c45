package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/services"
	"github.com/cppla/miniblog/utils"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	svc := services.NewAuthService(db, utils.NewTokenManager("test-secret", time.Hour), utils.NewMemoryRevocationStore(), zap.NewNop())
	ac := NewAuthController(svc, zap.NewNop())

	r := gin.New()
	r.POST("/register", ac.Register)
	r.POST("/login", ac.Login)
	r.POST("/logout", middleware.AuthRequired(svc), ac.Logout)
	r.GET("/me", middleware.AuthRequired(svc), func(c *gin.Context) {
		id, _ := middleware.UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r, db
}

func TestRegister(t *testing.T) {
	r, _ := newAuthRouter(t)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedMsg    string
	}{
		{"success", `{"email":"a@x.com","username":"alice","password":"pw1"}`, http.StatusCreated, "User registered successfully!"},
		{"duplicate email", `{"email":"a@x.com","username":"other","password":"pw2"}`, http.StatusConflict, "Email already registered!"},
		{"duplicate email case", `{"email":" A@X.com ","username":"other","password":"pw2"}`, http.StatusConflict, "Email already registered!"},
		{"missing password", `{"email":"b@x.com","username":"bob"}`, http.StatusBadRequest, "Missing fields: password"},
		{"missing all", `{}`, http.StatusBadRequest, "Missing fields: email, username, password"},
		{"malformed", `{"email":`, http.StatusBadRequest, "Invalid data!"},
		{"no body", "", http.StatusBadRequest, "Invalid data!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/register", 0, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedMsg, decode(t, w)["message"])
		})
	}
}

func TestRegister_StoresHash(t *testing.T) {
	r, db := newAuthRouter(t)

	w := doRequest(r, http.MethodPost, "/register", 0, `{"email":"a@x.com","username":"alice","password":"pw1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "pw1")

	var u models.User
	require.NoError(t, db.Where("email = ?", "a@x.com").First(&u).Error)
	assert.NotEqual(t, "pw1", u.PasswordHash)
	assert.True(t, utils.CheckPassword(u.PasswordHash, "pw1"))
}

func TestLogin(t *testing.T) {
	r, _ := newAuthRouter(t)
	require.Equal(t, http.StatusCreated,
		doRequest(r, http.MethodPost, "/register", 0, `{"email":"a@x.com","username":"alice","password":"pw1"}`).Code)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedMsg    string
	}{
		{"wrong password", `{"email":"a@x.com","password":"nope"}`, http.StatusBadRequest, "Invalid credentials!"},
		{"unknown email", `{"email":"z@x.com","password":"pw1"}`, http.StatusBadRequest, "Invalid credentials!"},
		{"missing password", `{"email":"a@x.com"}`, http.StatusBadRequest, "Missing fields: password"},
		{"malformed", `nope`, http.StatusBadRequest, "Invalid data!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/login", 0, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			out := decode(t, w)
			assert.Equal(t, tt.expectedMsg, out["message"])
			assert.NotContains(t, out, "access_token")
		})
	}

	w := doRequest(r, http.MethodPost, "/login", 0, `{"email":"A@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decode(t, w)["access_token"].(string)
	assert.NotEmpty(t, token)
}

func TestLogout(t *testing.T) {
	r, _ := newAuthRouter(t)
	require.Equal(t, http.StatusCreated,
		doRequest(r, http.MethodPost, "/register", 0, `{"email":"a@x.com","username":"alice","password":"pw1"}`).Code)
	w := doRequest(r, http.MethodPost, "/login", 0, `{"email":"a@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["access_token"].(string)

	withToken := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, withToken(http.MethodGet, "/me"))
	assert.Equal(t, http.StatusOK, withToken(http.MethodPost, "/logout"))
	assert.Equal(t, http.StatusUnauthorized, withToken(http.MethodGet, "/me"))
	assert.Equal(t, http.StatusUnauthorized, withToken(http.MethodPost, "/logout"))
}

func TestRegister_WhitespacePassword(t *testing.T) {
	r, _ := newAuthRouter(t)

	w := doRequest(r, http.MethodPost, "/register", 0, `{"email":"a@x.com","username":"alice","password":"   "}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodPost, "/login", 0, `{"email":"a@x.com","password":"   "}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/login", 0, `{"email":"a@x.com","password":" "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid credentials!", decode(t, w)["message"])

	w = doRequest(r, http.MethodPost, "/login", 0, `{"email":"a@x.com","password":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing fields: password", decode(t, w)["message"])

	w = doRequest(r, http.MethodPost, "/register", 0, `{"email":"  ","username":"bob","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing fields: email", decode(t, w)["message"])
}
