package ginutil

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type response struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

func JSON(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, response{Data: data, Message: message})
}

func JSONError(c *gin.Context, status int, data any, format string, args ...any) {
	c.AbortWithStatusJSON(status, response{Data: data, Message: fmt.Sprintf(format, args...)})
}
