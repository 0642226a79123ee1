package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/scribe-api/pkg/errors"
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

// RespondError maps an error's code onto an HTTP status.
func RespondError(c *gin.Context, err error) {
	c.JSON(statusCode(err), NewErrorResponse(err.Error()))
}

func statusCode(err error) int {
	switch apperrors.Code(err) {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrInvalidState:
		return http.StatusConflict
	case apperrors.ErrNotReady:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
