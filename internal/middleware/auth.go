package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
)

const (
	ContextUserID       = "userID"
	ContextBarbershopID = "barbershopID"
	ContextUserRole     = "userRole"
)

// AuthMiddleware accepts a Bearer token, or a token query parameter for
// WebSocket upgrades where browsers cannot set headers.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearer(c)
		if !ok {
			httperr.Unauthorized(c, "missing_authorization_header", "Missing authorization.")
			c.Abort()
			return
		}

		who, err := ParseToken(cfg.JWTSecret, tokenString)
		if err != nil {
			httperr.Unauthorized(c, "invalid_token", "Invalid or expired token.")
			c.Abort()
			return
		}

		c.Set(ContextUserID, who.UserID)
		c.Set(ContextUserRole, who.Role)
		if who.ShopID != nil {
			c.Set(ContextBarbershopID, *who.ShopID)
		}
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), who))

		c.Next()
	}
}

// RequireRole lets through only the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		httperr.Respond(c, httperr.Forbidden("forbidden"))
		c.Abort()
	}
}

func bearer(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		t := c.Query("token")
		return t, t != ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], parts[1] != ""
}

// ParseToken validates an HS256 token and reads the identity claims.
func ParseToken(secret, tokenString string) (identity.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return identity.Identity{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity.Identity{}, jwt.ErrTokenInvalidClaims
	}

	userID, ok := claims["sub"].(float64)
	if !ok || userID <= 0 {
		return identity.Identity{}, jwt.ErrTokenInvalidClaims
	}

	who := identity.Identity{UserID: uint(userID)}
	who.Role, _ = claims["role"].(string)
	who.Name, _ = claims["name"].(string)
	if shopID, ok := claims["barbershopId"].(float64); ok && shopID > 0 {
		id := uint(shopID)
		who.ShopID = &id
	}
	return who, nil
}

// SignToken issues the HS256 token ParseToken reads.
func SignToken(secret string, who identity.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  who.UserID,
		"role": who.Role,
		"name": who.Name,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	if who.ShopID != nil {
		claims["barbershopId"] = *who.ShopID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
