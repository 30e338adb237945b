package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agendalink/gateway/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes err with the status its kind maps to. Non-AppError
// values become a plain 500 without leaking internals.
func Error(c *gin.Context, err error) {
	c.Error(err)
	if appErr, ok := errors.AsAppError(err); ok {
		c.JSON(appErr.StatusCode(), NewErrorResponse(appErr.Error()))
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal error"))
}
