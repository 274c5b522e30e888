package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/brandbot/internal/pkg/errcode"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, AsCodeErr(uint32(code), message))
}

// CodeOf maps an application error to its response code and public message.
func CodeOf(err error) (int, string) {
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		return errcode.ErrInvalid, "invalid request"
	case errors.Is(err, appErr.ErrNotFound):
		return errcode.ErrNotFound, "not found"
	case errors.Is(err, appErr.ErrTooMany):
		return errcode.ErrTooMany, "too many requests"
	case errors.Is(err, appErr.ErrUnavailable), errors.Is(err, appErr.ErrEmptyAnswer):
		return errcode.ErrAIUnavailable, "ai unavailable"
	case appErr.IsIndexFatal(err), errors.Is(err, appErr.ErrIndexEmpty):
		return errcode.ErrIndexUnavailable, "index unavailable"
	default:
		return errcode.ErrInternal, "internal error"
	}
}

func FromError(c *gin.Context, err error) {
	code, msg := CodeOf(err)
	Error(c, code, msg)
}
