package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pepsafe/pepsafe-backend-go/internal/logging"
)

// APIKeyHeader is the header ingestion clients authenticate with.
const APIKeyHeader = "X-API-KEY"

// ClaimsKey is the gin context key holding validated dashboard claims.
const ClaimsKey = "auth_claims"

// DashboardClaims are the claims accepted on dashboard bearer tokens.
type DashboardClaims struct {
	jwt.RegisteredClaims
}

func secureCompare(given, want string) bool {
	return subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}

func unauthorized(c *gin.Context, message string) {
	logging.FromContext(c.Request.Context(), slog.Default()).Warn("request rejected", "reason", message)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}

// APIKey requires X-API-KEY to equal key. An empty key disables the check
// and logs a warning once.
func APIKey(key string, logger *slog.Logger) gin.HandlerFunc {
	if key == "" {
		if logger != nil {
			logger.Warn("API key not configured, ingestion endpoints are unauthenticated")
		}
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		given := c.GetHeader(APIKeyHeader)
		if given == "" {
			unauthorized(c, "Missing API key. Include X-API-KEY header.")
			return
		}
		if !secureCompare(given, key) {
			unauthorized(c, "Invalid API key.")
			return
		}
		c.Next()
	}
}

// DashboardAuth accepts either the API key or an HS256 bearer token signed
// with jwtSecret. With neither configured every request passes.
func DashboardAuth(key, jwtSecret string, logger *slog.Logger) gin.HandlerFunc {
	if key == "" && jwtSecret == "" {
		if logger != nil {
			logger.Warn("dashboard auth not configured, dashboard endpoints are unauthenticated")
		}
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if given := c.GetHeader(APIKeyHeader); given != "" && key != "" && secureCompare(given, key) {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || jwtSecret == "" {
			unauthorized(c, "Missing credentials.")
			return
		}

		claims, err := ParseDashboardToken(token, jwtSecret)
		if err != nil {
			unauthorized(c, "Invalid token.")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// ParseDashboardToken validates an HS256 token and returns its claims.
func ParseDashboardToken(tokenStr, secret string) (*DashboardClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &DashboardClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*DashboardClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
