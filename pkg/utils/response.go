package utils

import "github.com/gin-gonic/gin"

type SuccessBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SuccessResponse writes a uniform success envelope.
func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessBody{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse writes a uniform error envelope.
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{
		Success: false,
		Error:   message,
	})
}
