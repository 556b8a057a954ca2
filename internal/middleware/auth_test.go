package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

const secret = "test-secret"

func TestSignAndParseToken(t *testing.T) {
	shop := uint(4)
	who := identity.Identity{UserID: 9, Name: "Ana", Role: models.RoleOwner, ShopID: &shop}

	tok, err := SignToken(secret, who, time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	got, err := ParseToken(secret, tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got.UserID != 9 || got.Name != "Ana" || got.Role != models.RoleOwner || got.ShopID == nil || *got.ShopID != 4 {
		t.Fatalf("identity = %+v", got)
	}

	if _, err := ParseToken("other", tok); err == nil {
		t.Fatal("token accepted with the wrong secret")
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired, _ := SignToken(secret, identity.Identity{UserID: 1}, -time.Minute)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "client"}).SignedString([]byte(secret))

	for name, tok := range map[string]string{
		"expired":    expired,
		"no subject": noSubject,
		"garbage":    "not-a-token",
	} {
		if _, err := ParseToken(secret, tok); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := &config.Config{JWTSecret: secret}

	r.GET("/who", AuthMiddleware(cfg), func(c *gin.Context) {
		who, _ := identity.FromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": who.UserID, "ctx_user": c.GetUint(ContextUserID)})
	})
	r.GET("/owners", AuthMiddleware(cfg), RequireRole(models.RoleOwner), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	client, _ := SignToken(secret, identity.Identity{UserID: 5, Role: models.RoleClient}, time.Hour)
	owner, _ := SignToken(secret, identity.Identity{UserID: 3, Role: models.RoleOwner}, time.Hour)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no token", "/who", "", http.StatusUnauthorized},
		{"bad scheme", "/who", "Basic " + client, http.StatusUnauthorized},
		{"bad token", "/who", "Bearer nope", http.StatusUnauthorized},
		{"bearer", "/who", "Bearer " + client, http.StatusOK},
		{"query token", "/who?token=" + client, "", http.StatusOK},
		{"wrong role", "/owners", "Bearer " + client, http.StatusForbidden},
		{"right role", "/owners", "Bearer " + owner, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestRecover(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recover(zap.NewNop()))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}
