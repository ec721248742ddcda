package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"

	"github.com/cueladder/backend/internal/config"
	"github.com/cueladder/backend/internal/operators"
)

// AuthMiddleware validates the bearer JWT issued by the club's auth service
// (shared HS256 secret) and sets member_id in the request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		auth := c.GetHeader("Authorization")
		switch {
		case strings.HasPrefix(auth, "Bearer "):
			token = strings.TrimPrefix(auth, "Bearer ")
		case c.Query("token") != "":
			// Browsers cannot set headers on websocket upgrades.
			token = c.Query("token")
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		memberIDf, ok := claims["member_id"].(float64)
		if !ok || memberIDf < 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("member_id", int(memberIDf))
		c.Next()
	}
}

// OperatorAuthMiddleware authenticates league operators by email + plain
// token against the stored bcrypt hash, and requires the given role.
func OperatorAuthMiddleware(db *sqlx.DB, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader("X-Operator-Email"))
		token := strings.TrimSpace(c.GetHeader("X-Operator-Token"))
		if email == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "operator credentials required"})
			return
		}

		op, err := operators.ValidateOperatorCredentials(db, email, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid operator credentials"})
			return
		}
		if role != "" && !operators.HasRole(op, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient operator role"})
			return
		}

		c.Set("operator_email", op.Email)
		c.Next()
	}
}
