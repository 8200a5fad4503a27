package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const actorKey = "actor"

// Claims полезная нагрузка токена: sub идентифицирует пользователя, role его роль
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken проверяет подпись HS256 и срок действия токена
func ParseToken(tokenString, secret string) (models.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return models.Actor{}, errors.New("invalid token claims")
	}
	return models.Actor{ID: claims.Subject, Role: claims.Role}, nil
}

// JWTAuthMiddleware - middleware для аутентификации по Bearer токену
func JWTAuthMiddleware(secret string, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenString == authHeader {
			log.Warn("Bearer token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		actor, err := ParseToken(tokenString, secret)
		if err != nil {
			log.WithError(err).Warn("Invalid bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// actorFrom достает проверенную личность, положенную middleware
func actorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}
