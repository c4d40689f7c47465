package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	svcErr "github.com/nasulife/nasutomo/internal/errors"
)

// UserIDKey is the gin context key carrying the verified user id.
const UserIDKey = "userId"

// Claims is the payload of an identity token. The id is issued by the
// external identity provider; this service only verifies the signature.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token (header, or ?token= for WebSocket
// clients that cannot set headers) and stores the user id on the
// request context. Requests without a valid token are rejected with a
// short diagnostic from the error classification table.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			diag := "invalid token"
			if err != nil {
				diag = svcErr.Classify(err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": diag})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the verified user id placed by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return c.Query("token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
