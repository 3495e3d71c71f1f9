package middlewares

import "github.com/gin-gonic/gin"

const (
	CtxRequestID = "request_id"
	CtxUser      = "auth.user"
)

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
