package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nononsenseapps/linksync/internal/server/auth"
)

// userIDKey is the gin context key the middleware stores the
// authenticated user id under.
const userIDKey = "userID"

// accessTokenMiddleware validates the Authorization header and stores the
// user id in the request context. Both raw tokens and the
// "Bearer <token>" form are accepted.
func (s *HTTPServer) accessTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {

		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[len("bearer "):])
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}
