package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/auth"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/database"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/email"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	router *gin.Engine
	mailer *email.MockSender
	now    time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory("auth_handlers_" + uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &authFixture{mailer: &email.MockSender{}, now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := auth.NewService(repository.NewUserRepository(db), f.mailer, storage.NewMockUploader(), auth.Options{
		JWTSecret: []byte("test-secret"),
		Now:       func() time.Time { return f.now },
	})
	f.router = gin.New()
	NewAuthHandlers(svc).RegisterRoutes(f.router.Group("/api"), nil)
	return f
}

func (f *authFixture) post(t *testing.T, path string, body gin.H, token string) (int, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestRegisterVerifyLogin(t *testing.T) {
	f := newAuthFixture(t)
	addr := "poet@example.com"

	status, body := f.post(t, "/api/auth/register", gin.H{"email": addr, "password": "hunter22", "dob": "1990-05-01", "name": "Poet"}, "")
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "OTP sent", body["message"])
	assert.NotContains(t, body["user"], "password_hash")

	status, _ = f.post(t, "/api/auth/login", gin.H{"email": addr, "password": "hunter22"}, "")
	assert.Equal(t, http.StatusForbidden, status)

	code, ok := f.mailer.LastOTP(addr)
	require.True(t, ok)

	status, body = f.post(t, "/api/auth/verify-email", gin.H{"email": addr, "otp": wrongCode(code)}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid OTP", body["message"])

	status, body = f.post(t, "/api/auth/verify-email", gin.H{"email": addr, "otp": code}, "")
	require.Equal(t, http.StatusOK, status, body)

	status, body = f.post(t, "/api/auth/login", gin.H{"email": "POET@example.com", "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	f := newAuthFixture(t)
	addr := "late@example.com"

	status, _ := f.post(t, "/api/auth/register", gin.H{"email": addr, "password": "pw123456", "dob": "1988-01-01"}, "")
	require.Equal(t, http.StatusCreated, status)
	code, ok := f.mailer.LastOTP(addr)
	require.True(t, ok)

	f.now = f.now.Add(11 * time.Minute)
	status, body := f.post(t, "/api/auth/verify-email", gin.H{"email": addr, "otp": code}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "OTP expired", body["message"])

	status, _ = f.post(t, "/api/auth/resend-otp", gin.H{"email": addr}, "")
	require.Equal(t, http.StatusOK, status)
	fresh, _ := f.mailer.LastOTP(addr)
	status, _ = f.post(t, "/api/auth/verify-email", gin.H{"email": addr, "otp": fresh}, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	f := newAuthFixture(t)
	req := gin.H{"email": "dup@example.com", "password": "pw123456", "dob": "1990-01-01"}

	status, _ := f.post(t, "/api/auth/register", req, "")
	require.Equal(t, http.StatusCreated, status)
	status, _ = f.post(t, "/api/auth/register", req, "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestMeRequiresToken(t *testing.T) {
	f := newAuthFixture(t)
	for _, header := range []string{"", "Bearer nope", "Token abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}
