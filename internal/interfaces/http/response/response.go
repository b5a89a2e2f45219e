package response

import (
	"github.com/gin-gonic/gin"

	domainerrors "ccip-relay.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Transfer errors and app errors keep their
// status; anything else is a 500.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.ToAppError(err)
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// Abort is Error for middleware: the rest of the chain is skipped.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
