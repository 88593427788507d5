package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data and a human-readable message.
func OK(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data, Message: message})
}

// BadRequest sends 400.
func BadRequest(c *gin.Context, message, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Message: message, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, message, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Message: message, Error: err})
}
