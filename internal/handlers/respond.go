package handlers

import (
	"github.com/gin-gonic/gin"
)

// abortWithError hands err to the ErrorHandler middleware, which picks the
// status code and the public message.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
