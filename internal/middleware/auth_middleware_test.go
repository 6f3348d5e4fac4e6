package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, secret, tokenType string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":    uint64(42),
		"username":   "alice",
		"role":       "user",
		"token_type": tokenType,
		"exp":        time.Now().Add(ttl).Unix(),
		"iat":        time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("签token失败: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString("username")})
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"没带令牌", "", http.StatusUnauthorized},
		{"格式不对", "Token abc", http.StatusUnauthorized},
		{"乱写的令牌", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"签名不对", "Bearer " + signTestToken(t, "wrong-secret", "access", time.Hour), http.StatusUnauthorized},
		{"已过期", "Bearer " + signTestToken(t, "test-secret", "access", -time.Hour), http.StatusUnauthorized},
		{"refresh token不能当访问凭证", "Bearer " + signTestToken(t, "test-secret", "refresh", time.Hour), http.StatusUnauthorized},
		{"有效的access token", "Bearer " + signTestToken(t, "test-secret", "access", time.Hour), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			recorder := httptest.NewRecorder()
			r.ServeHTTP(recorder, req)
			if recorder.Code != tt.wantStatus {
				t.Errorf("状态码 = %d, 期望 %d", recorder.Code, tt.wantStatus)
			}
		})
	}
}
