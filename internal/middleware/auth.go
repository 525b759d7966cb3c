package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/trustportal/trust-api/internal/models"
)

const (
	actorKey     = "actor"
	actorHeader  = "X-Actor-Id"
	actorSubject = "claims"
)

// Claims represents the JWT claims structure. The subject is the actor id.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Actor resolves who is performing the request: the subject of a valid
// bearer token, else the X-Actor-Id header, else the demo actor. A bearer
// token that is present but invalid is rejected.
func Actor(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := models.DefaultActor

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid authorization header format",
				})
				return
			}

			claims, err := validateToken(strings.TrimSpace(parts[1]), jwtSecret)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": err.Error(),
				})
				return
			}
			actor = claims.Subject
			c.Set(actorSubject, claims)
		} else if header := strings.TrimSpace(c.GetHeader(actorHeader)); header != "" {
			actor = header
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// validateToken parses and validates a JWT token string
func validateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token has expired")
		}
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}

// GetActor extracts the resolved actor from the Gin context
func GetActor(c *gin.Context) string {
	actor, exists := c.Get(actorKey)
	if !exists {
		return models.DefaultActor
	}
	if s, ok := actor.(string); ok && s != "" {
		return s
	}
	return models.DefaultActor
}
