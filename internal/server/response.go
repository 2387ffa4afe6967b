package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Details string `json:"details,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: "OK", Message: "success", Data: data})
}

// Fail maps err onto its HTTP status and writes the error envelope.
func Fail(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	msg := http.StatusText(status)
	var ae *common.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Response{
		Code:    common.ErrorCode(err),
		Message: msg,
		Details: err.Error(),
	})
}
