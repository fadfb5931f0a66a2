package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/codexam-backend/internal/config"
	"github.com/stemsi/codexam-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuth() *service.AuthService {
	return service.NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour})
}

func mustToken(t *testing.T, auth *service.AuthService, typ service.TokenType, id int, perms ...string) string {
	t.Helper()
	tok, err := auth.IssueToken(typ, id, perms)
	require.NoError(t, err)
	return tok
}

func ok(c *gin.Context) { c.Status(http.StatusNoContent) }

func TestStudentRoute(t *testing.T) {
	auth := newAuth()
	r := gin.New()
	r.GET("/students/:student_id", RequireStudentJWT(auth), RequireSelf("student_id"), ok)

	student := mustToken(t, auth, service.TokenTypeStudent, 7)
	admin := mustToken(t, auth, service.TokenTypeAdmin, 7)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no token", "/students/7", "", http.StatusUnauthorized},
		{"garbage token", "/students/7", "Bearer nope", http.StatusUnauthorized},
		{"admin token", "/students/7", "Bearer " + admin, http.StatusForbidden},
		{"other student", "/students/8", "Bearer " + student, http.StatusForbidden},
		{"bad id", "/students/abc", "Bearer " + student, http.StatusBadRequest},
		{"self", "/students/7", "Bearer " + student, http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestAdminPermission(t *testing.T) {
	auth := newAuth()
	r := gin.New()
	r.GET("/answers", RequireAdminJWT(auth), RequirePermission("answers:read"), ok)

	for _, tc := range []struct {
		name  string
		perms []string
		want  int
	}{
		{"granted", []string{"answers:read"}, http.StatusNoContent},
		{"missing", []string{"exams:read"}, http.StatusForbidden},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/answers", nil)
			req.Header.Set("Authorization", "Bearer "+mustToken(t, auth, service.TokenTypeAdmin, 1, tc.perms...))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestAdminWSAuthReadsQuery(t *testing.T) {
	auth := newAuth()
	r := gin.New()
	r.GET("/ws", RequireAdminWSAuth(auth), ok)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+mustToken(t, auth, service.TokenTypeAdmin, 1), nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2)
	now := time.Now()

	assert.True(t, rl.allow("10.0.0.1", now))
	assert.True(t, rl.allow("10.0.0.1", now))
	assert.False(t, rl.allow("10.0.0.1", now))
	assert.True(t, rl.allow("10.0.0.2", now))

	assert.True(t, rl.allow("10.0.0.1", now.Add(31*time.Second)))

	rl.cleanup(now.Add(10 * time.Minute))
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}

func TestRateLimiterMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.POST("/submit", NewRateLimiter(ctx, 1).Middleware(), ok)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/submit", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/submit", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestBrotli(t *testing.T) {
	large := strings.Repeat("print('hello')\n", 200)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, large) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "tiny") })

	req := httptest.NewRequest(http.MethodGet, "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	body, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, large, string(body))

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "tiny", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/large", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, large, w.Body.String())
}
