package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxHandle = "walletd_handle"

// Messages rendered by RequireToken.
const (
	MsgNoToken      = "No token, authorization denied"
	MsgInvalidToken = "Invalid token"
)

// RequireToken returns a Gin middleware that enforces a valid session token in
// the Authorization header. Both a raw token and "Bearer <token>" are accepted.
//
// On success it injects the asserted handle into the context under the
// "walletd_handle" key.
func RequireToken(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := strings.TrimSpace(c.GetHeader("Authorization"))
		tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgNoToken})
			return
		}

		handle, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgInvalidToken})
			return
		}

		c.Set(ctxHandle, handle)
		c.Next()
	}
}

// HandleFromCtx retrieves the handle injected by RequireToken.
func HandleFromCtx(c *gin.Context) string {
	v, _ := c.Get(ctxHandle)
	s, _ := v.(string)
	return s
}
