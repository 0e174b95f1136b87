package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConfigureRouter applies the routing options the API depends on.
//
// Entry keys may contain "/" (forex pairs such as "EUR/USD"), so routes are
// matched on the escaped path and parameters are unescaped afterwards.
// Unmatched routes and methods answer with the JSON error body.
func ConfigureRouter(r *gin.Engine) {
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})
}
