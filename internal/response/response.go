package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const MessageInternal = "Internal server error"

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Fail(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: false, Message: message, Data: data})
}

// Abort writes a failure envelope and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// Internal writes the generic 500 envelope with the underlying error attached.
func Internal(c *gin.Context, err error) {
	Fail(c, http.StatusInternalServerError, MessageInternal, gin.H{"error": err.Error()})
}
