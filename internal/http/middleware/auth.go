package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/docupine/docupine-backend/internal/platform/logger"
)

const (
	ctxKeyOwnerID    = "owner_id"
	ctxKeySubscribed = "subscribed"
)

// Claims is the token payload the web frontend's auth provider issues:
// the subject is the user id, `sub_active` marks a paid plan.
type Claims struct {
	SubActive bool `json:"sub_active"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(baseLog *logger.Logger, secret string) (*AuthMiddleware, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &AuthMiddleware{
		log:    baseLog.With("middleware", "AuthMiddleware"),
		secret: []byte(secret),
	}, nil
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return am.secret, nil
		})
		if err != nil || !token.Valid {
			am.log.Debug("Token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		ownerID, err := uuid.Parse(claims.Subject)
		if err != nil || ownerID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		c.Set(ctxKeyOwnerID, ownerID)
		c.Set(ctxKeySubscribed, claims.SubActive)
		c.Next()
	}
}

// OwnerID returns the authenticated user id set by RequireAuth.
func OwnerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxKeyOwnerID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func Subscribed(c *gin.Context) bool {
	v, ok := c.Get(ctxKeySubscribed)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// extractToken accepts the Authorization header or, for EventSource
// connections that cannot set headers, a token query parameter.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	return ""
}
