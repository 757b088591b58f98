package errno

import (
	"errors"
	"fmt"
	"net/http"
)

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code       int
	HTTPStatus int
	Message    string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, HTTPStatus: http.StatusOK, Message: "Success"}

	ErrInvalidParam   = &Errno{Code: 400, HTTPStatus: http.StatusBadRequest, Message: "Invalid parameter"}
	ErrNotFound       = &Errno{Code: 404, HTTPStatus: http.StatusNotFound, Message: "Not found"}
	ErrInternalServer = &Errno{Code: 500, HTTPStatus: http.StatusInternalServerError, Message: "Server error"}

	// 提交校验错误码（同步返回给调用方）
	ErrMissingInput       = &Errno{Code: 20001, HTTPStatus: http.StatusBadRequest, Message: "❌ Missing video"}
	ErrInvalidOverlayPath = &Errno{Code: 20002, HTTPStatus: http.StatusBadRequest, Message: "❌ Invalid song path"}
	ErrQueueFull          = &Errno{Code: 20003, HTTPStatus: http.StatusServiceUnavailable, Message: "Job queue is full"}
	ErrUploadTooLarge     = &Errno{Code: 20004, HTTPStatus: http.StatusRequestEntityTooLarge, Message: "Upload too large"}

	// 异步处理错误码（调用方已收到确认，仅记录）
	ErrWorkspaceCollision = &Errno{Code: 20010, HTTPStatus: http.StatusConflict, Message: "Workspace already exists"}
	ErrProbeFailed        = &Errno{Code: 20011, HTTPStatus: http.StatusInternalServerError, Message: "Probe failed"}
	ErrThumbnailFailed    = &Errno{Code: 20012, HTTPStatus: http.StatusInternalServerError, Message: "Thumbnail extraction failed"}
	ErrEncodeFailed       = &Errno{Code: 20013, HTTPStatus: http.StatusInternalServerError, Message: "Segmented encode failed"}
	ErrListFailed         = &Errno{Code: 20014, HTTPStatus: http.StatusInternalServerError, Message: "Failed to fetch videos"}
)

// BizError 业务错误，携带错误码与底层原因
type BizError struct {
	errno *Errno
	cause error
}

// NewBizError 包装底层错误
func NewBizError(e *Errno, cause error) *BizError {
	return &BizError{errno: e, cause: cause}
}

func (b *BizError) Error() string {
	if b.cause == nil {
		return b.errno.Message
	}
	return fmt.Sprintf("%s: %v", b.errno.Message, b.cause)
}

// Unwrap 同时暴露错误码与原因，便于 errors.Is 匹配两者
func (b *BizError) Unwrap() []error {
	if b.cause == nil {
		return []error{b.errno}
	}
	return []error{b.errno, b.cause}
}

// Errno 返回业务错误码
func (b *BizError) Errno() *Errno { return b.errno }

// Decode 从任意错误中提取错误码，无法识别时返回 ErrInternalServer
func Decode(err error) *Errno {
	if err == nil {
		return OK
	}
	var biz *BizError
	if errors.As(err, &biz) {
		return biz.errno
	}
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return ErrInternalServer
}
