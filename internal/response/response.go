package response

import (
	"github.com/gin-gonic/gin"

	apperrors "commentary-ai/pkg/errors"
)

// Response is the standard API envelope.
type Response struct {
	Error  int    `json:"error"`            // error code, 0 means success
	Msg    string `json:"msg"`              // human-readable message
	Detail string `json:"detail,omitempty"` // additional error details
	Data   any    `json:"data"`             // response payload
}

func Success(c *gin.Context, data any) {
	c.JSON(200, Response{
		Error: 0,
		Msg:   "Success",
		Data:  data,
	})
}

func Error(c *gin.Context, code int, msg string) {
	c.JSON(200, Response{
		Error: code,
		Msg:   msg,
	})
}

// FromError maps an error onto the envelope, keeping the AppError code and
// detail when present.
func FromError(err error) Response {
	if err == nil {
		return Response{Error: 0, Msg: "Success"}
	}

	var detail string
	if appErr, ok := err.(*apperrors.AppError); ok {
		detail = appErr.Detail
	}
	return Response{
		Error:  apperrors.GetCode(err),
		Msg:    apperrors.GetMessage(err),
		Detail: detail,
	}
}

func ErrorResponse(c *gin.Context, err error) {
	c.JSON(200, FromError(err))
}
