package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astroconnect/astroconnect-api/pkg/apperr"
)

// Envelope is the uniform wire shape. Failures carry only success=false and
// a message; no stack traces or internal identifiers ever reach the client.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

// OK writes a success envelope with the given status.
func OK(c *gin.Context, status int, message string, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope with an explicit status and message.
func Fail(c *gin.Context, status int, message string, details any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, Envelope{Success: false, Message: message, Details: details})
}

// FromError is the single boundary where taxonomy errors become transport
// responses: status from the error kind, message from its client-safe text.
func FromError(c *gin.Context, err error) {
	c.JSON(apperr.StatusOf(err), Envelope{Success: false, Message: apperr.MessageOf(err)})
}

// AbortFromError writes the error envelope and stops the handler chain.
// Used by middleware.
func AbortFromError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.StatusOf(err), Envelope{Success: false, Message: apperr.MessageOf(err)})
}
